// Package order implements checkout and the back office order operations.
package order

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/fulfillment"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/notification"
	"gala-ticketing/internal/payment"
	"gala-ticketing/internal/utils"
)

type DBLayer interface {
	GetProducts(ctx context.Context, ids []string) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	SetSession(ctx context.Context, orderID, sessionID string) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.OrderSummaryRow, error)
	Lines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	Attendees(ctx context.Context, orderID string) ([]models.AttendeeView, error)
	RaffleEntries(ctx context.Context, orderID string) ([]models.RaffleEntryView, error)
	UpdateNotes(ctx context.Context, orderID, notes string) (bool, error)
	TransitionStatus(ctx context.Context, orderID string, from []models.OrderStatus, to models.OrderStatus) (bool, error)
}

type Fulfiller interface {
	Fulfill(ctx context.Context, orderID, paymentIntent string) (*fulfillment.Result, error)
}

type KafkaPublisher interface {
	PublishOrderCreated(ctx context.Context, order models.Order) error
	PublishOrderCancelled(ctx context.Context, order models.Order) error
	PublishOrderRefunded(ctx context.Context, order models.Order) error
}

type Notifier interface {
	SendReceipt(ctx context.Context, d notification.OrderDetails) bool
	SendAdminNotification(ctx context.Context, d notification.OrderDetails) bool
	SendCustom(ctx context.Context, orderID, to, subject, body string) bool
}

type Dispatcher interface {
	Dispatch(name string, fn func(ctx context.Context))
}

type OrderService struct {
	DB         DBLayer
	Gateway    payment.Gateway
	Fulfiller  Fulfiller
	Kafka      KafkaPublisher
	Notifier   Notifier
	Dispatcher Dispatcher
	Logger     *logger.Logger
	BaseURL    string
}

// ---------------- CHECKOUT ----------------

type CartItem struct {
	ProductID string                `json:"productId"`
	Quantity  int                   `json:"quantity"`
	Attendees []models.AttendeeInfo `json:"attendees,omitempty"`
}

type CheckoutRequest struct {
	Items         []CartItem           `json:"items"`
	CustomerEmail string               `json:"customerEmail"`
	CustomerName  string               `json:"customerName"`
	CustomerPhone string               `json:"customerPhone"`
	DonationCents int64                `json:"donationCents"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	// Attendees is the older single-list form, accepted only when the cart
	// has exactly one seated line.
	Attendees []models.AttendeeInfo `json:"attendees,omitempty"`
}

type CheckoutResponse struct {
	OrderID     string `json:"orderId"`
	SessionID   string `json:"sessionId,omitempty"`
	SessionURL  string `json:"sessionUrl,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

func (req *CheckoutRequest) normalize() error {
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)

	if len(req.Items) == 0 {
		return apperr.Validationf("Cart is empty")
	}
	if req.CustomerEmail == "" {
		return apperr.Validationf("Email is required")
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		return apperr.Validationf("Email is invalid")
	}
	if req.DonationCents < 0 {
		return apperr.Validationf("Donation cannot be negative")
	}
	switch req.PaymentMethod {
	case "":
		req.PaymentMethod = models.PaymentCard
	case models.PaymentCard, models.PaymentCheck:
	default:
		return apperr.Validationf("Unknown payment method %q", req.PaymentMethod)
	}
	for _, it := range req.Items {
		if it.ProductID == "" {
			return apperr.Validationf("Each item needs a productId")
		}
		if it.Quantity < 1 {
			return apperr.Validationf("Quantity must be at least 1")
		}
	}
	return nil
}

// Checkout prices the cart against live stock, stores a pending order and
// hands it to the card processor, or for checks marks it pending_check and
// mails the receipt.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	found, err := s.DB.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	products := make(map[string]models.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}

	orderID := utils.GenerateID()
	order := &models.Order{
		ID:              orderID,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.StatusPending,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DonationCents:   req.DonationCents,
		AttendeePrefill: map[string][]models.AttendeeInfo{},
	}
	if req.PaymentMethod == models.PaymentCheck {
		order.Status = models.StatusPendingCheck
	}

	var (
		items      []models.OrderItem
		lines      []models.OrderLine
		gatewayIts []payment.LineItem
		seatedIDs  []string
		requested  = map[string]int{}
	)
	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			return nil, apperr.NotFoundf("Product %s not found", it.ProductID)
		}

		requested[p.ID] += it.Quantity
		if remaining, limited := p.Remaining(); limited && requested[p.ID] > remaining {
			return nil, apperr.Conflictf("Only %d %s available", max(remaining, 0), p.Name)
		}

		item := models.OrderItem{
			ID:             utils.GenerateID(),
			OrderID:        orderID,
			ProductID:      p.ID,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
			TotalCents:     p.PriceCents * int64(it.Quantity),
		}
		line := models.OrderLine{OrderItem: item, ProductName: p.Name, Category: p.Category, TableSize: p.TableSize}

		if len(it.Attendees) > 0 {
			if !p.Category.Seated() {
				return nil, apperr.Validationf("%s does not take attendee details", p.Name)
			}
			if len(it.Attendees) > line.Seats() {
				return nil, apperr.Validationf("%s has %d seats but %d attendees were given", p.Name, line.Seats(), len(it.Attendees))
			}
			order.AttendeePrefill[item.ID] = it.Attendees
		}
		if p.Category.Seated() {
			seatedIDs = append(seatedIDs, item.ID)
		}

		order.SubtotalCents += item.TotalCents
		items = append(items, item)
		lines = append(lines, line)
		gatewayIts = append(gatewayIts, payment.LineItem{
			Name:           p.Name,
			Description:    p.Description,
			UnitPriceCents: p.PriceCents,
			Quantity:       int64(it.Quantity),
		})
	}
	order.TotalCents = order.SubtotalCents + order.DonationCents

	if len(req.Attendees) > 0 {
		if len(seatedIDs) != 1 {
			return nil, apperr.Validationf("Attendee details must be given per item when the cart has more than one ticket or sponsorship")
		}
		line := lines[indexOfItem(items, seatedIDs[0])]
		if len(req.Attendees) > line.Seats() {
			return nil, apperr.Validationf("%s has %d seats but %d attendees were given", line.ProductName, line.Seats(), len(req.Attendees))
		}
		if _, set := order.AttendeePrefill[seatedIDs[0]]; set {
			return nil, apperr.Validationf("Attendee details were given twice for %s", line.ProductName)
		}
		order.AttendeePrefill[seatedIDs[0]] = req.Attendees
	}
	if len(order.AttendeePrefill) == 0 {
		order.AttendeePrefill = nil
	}

	if err := s.DB.CreateOrder(ctx, order, items); err != nil {
		return nil, err
	}
	s.Logger.LogOrder("CREATED", orderID, fmt.Sprintf("%s %s via %s", order.CustomerEmail, utils.FormatCents(order.TotalCents), order.PaymentMethod))

	if err := s.Kafka.PublishOrderCreated(ctx, *order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order.created for %s not published: %v", orderID, err))
	}

	details := notification.OrderDetails{Order: *order, Lines: lines}
	if order.PaymentMethod == models.PaymentCheck {
		s.Notifier.SendReceipt(ctx, details)
		s.Dispatcher.Dispatch("admin_notification", func(ctx context.Context) {
			s.Notifier.SendAdminNotification(ctx, details)
		})
		return &CheckoutResponse{
			OrderID:     orderID,
			RedirectURL: fmt.Sprintf("%s/check-confirmation?order_id=%s", s.BaseURL, url.QueryEscape(orderID)),
		}, nil
	}

	sess, err := s.Gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		OrderID:       orderID,
		CustomerEmail: order.CustomerEmail,
		Items:         gatewayIts,
		DonationCents: order.DonationCents,
		SuccessURL:    s.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     fmt.Sprintf("%s/cancel?order_id=%s", s.BaseURL, url.QueryEscape(orderID)),
	})
	if err != nil {
		if _, cerr := s.DB.TransitionStatus(ctx, orderID, []models.OrderStatus{models.StatusPending}, models.StatusCancelled); cerr != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("Failed to cancel order %s after gateway error: %v", orderID, cerr))
		}
		return nil, err
	}

	if err := s.DB.SetSession(ctx, orderID, sess.ID); err != nil {
		return nil, fmt.Errorf("store checkout session: %w", err)
	}

	return &CheckoutResponse{OrderID: orderID, SessionID: sess.ID, SessionURL: sess.URL}, nil
}

func indexOfItem(items []models.OrderItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// ---------------- PUBLIC LOOKUP ----------------

type PublicItem struct {
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

// PublicOrder is the purchaser-safe view used by confirmation pages.
type PublicOrder struct {
	ID            string               `json:"id"`
	Status        models.OrderStatus   `json:"status"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	TotalCents    int64                `json:"total_cents"`
	DonationCents int64                `json:"donation_cents"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CreatedAt     string               `json:"created_at"`
	Items         []PublicItem         `json:"items"`
}

func (s *OrderService) PublicLookup(ctx context.Context, orderID string) (*PublicOrder, error) {
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.publicView(ctx, order)
}

func (s *OrderService) LookupBySession(ctx context.Context, sessionID string) (*PublicOrder, error) {
	order, err := s.DB.GetOrderBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.publicView(ctx, order)
}

func (s *OrderService) publicView(ctx context.Context, order *models.Order) (*PublicOrder, error) {
	lines, err := s.DB.Lines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}

	out := &PublicOrder{
		ID:            order.ID,
		Status:        order.Status,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		TotalCents:    order.TotalCents,
		DonationCents: order.DonationCents,
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Items:         make([]PublicItem, 0, len(lines)),
	}
	for _, l := range lines {
		out.Items = append(out.Items, PublicItem{
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			TotalCents:     l.TotalCents,
		})
	}
	return out, nil
}

// ---------------- ADMIN ----------------

type OrderDetail struct {
	models.Order
	Items         []models.OrderLine       `json:"items"`
	Attendees     []models.AttendeeView    `json:"attendees"`
	RaffleEntries []models.RaffleEntryView `json:"raffleEntries"`
}

func (s *OrderService) List(ctx context.Context, status models.OrderStatus) ([]models.OrderSummaryRow, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validationf("Unknown status %q", status)
	}
	rows, err := s.DB.ListOrders(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if rows == nil {
		rows = []models.OrderSummaryRow{}
	}
	return rows, nil
}

func (s *OrderService) Detail(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{Order: *order}
	if detail.Items, err = s.DB.Lines(ctx, orderID); err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	if detail.Attendees, err = s.DB.Attendees(ctx, orderID); err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	if detail.RaffleEntries, err = s.DB.RaffleEntries(ctx, orderID); err != nil {
		return nil, fmt.Errorf("load raffle entries: %w", err)
	}
	return detail, nil
}

func (s *OrderService) UpdateNotes(ctx context.Context, orderID, notes string) error {
	ok, err := s.DB.UpdateNotes(ctx, orderID, notes)
	if err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	if !ok {
		return apperr.NotFoundf("Order not found")
	}
	return nil
}

func (s *OrderService) Cancel(ctx context.Context, orderID string) error {
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	switch order.Status {
	case models.StatusPaid:
		return apperr.Conflictf("Cannot cancel paid order - use refund instead")
	case models.StatusCancelled, models.StatusRefunded:
		return apperr.Conflictf("Order is already %s", order.Status)
	}

	ok, err := s.DB.TransitionStatus(ctx, orderID, []models.OrderStatus{models.StatusPending, models.StatusPendingCheck}, models.StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflictf("Order status changed, reload and try again")
	}

	order.Status = models.StatusCancelled
	s.Logger.LogOrder("CANCELLED", orderID, "cancelled by admin")
	if err := s.Kafka.PublishOrderCancelled(ctx, *order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order.cancelled for %s not published: %v", orderID, err))
	}
	return nil
}

// EmailCustomer sends an admin-written message to the order's customer. The
// send is synchronous so a provider failure reaches the caller.
func (s *OrderService) EmailCustomer(ctx context.Context, orderID, subject, body string) error {
	subject, body = strings.TrimSpace(subject), strings.TrimSpace(body)
	if subject == "" || body == "" {
		return apperr.Validationf("Subject and message are required")
	}

	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !s.Notifier.SendCustom(ctx, order.ID, order.CustomerEmail, subject, body) {
		return apperr.New(apperr.Upstream, "Email could not be sent")
	}
	s.Logger.LogOrder("EMAIL", orderID, fmt.Sprintf("custom email sent to %s", order.CustomerEmail))
	return nil
}

// Complete runs fulfillment for a check or test-mode order.
func (s *OrderService) Complete(ctx context.Context, orderID string) (*fulfillment.Result, error) {
	return s.Fulfiller.Fulfill(ctx, orderID, "")
}

// Refund returns a card payment through the processor and marks the order
// refunded. Inventory and donor totals are left as they are.
func (s *OrderService) Refund(ctx context.Context, orderID string) error {
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPaid {
		return apperr.Conflictf("Only paid orders can be refunded")
	}

	if order.PaymentMethod == models.PaymentCard && order.StripePaymentIntent != "" {
		refundID, err := s.Gateway.Refund(ctx, order.StripePaymentIntent)
		if err != nil {
			return err
		}
		s.Logger.LogOrder("REFUND", orderID, fmt.Sprintf("processor refund %s", refundID))
	} else {
		s.Logger.LogOrder("REFUND", orderID, "no card payment on record, marking refunded only")
	}

	ok, err := s.DB.TransitionStatus(ctx, orderID, []models.OrderStatus{models.StatusPaid}, models.StatusRefunded)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflictf("Order status changed, reload and try again")
	}

	order.Status = models.StatusRefunded
	if err := s.Kafka.PublishOrderRefunded(ctx, *order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order.refunded for %s not published: %v", orderID, err))
	}
	return nil
}
