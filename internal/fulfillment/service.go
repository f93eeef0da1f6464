// Package fulfillment turns a paid order into seats, raffle entries and a
// donor ledger credit, exactly once per order.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/lock"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/notification"
	"gala-ticketing/internal/utils"
)

// ErrAlreadyFulfilled is returned when the order is already paid. Nothing is
// written in that case.
var ErrAlreadyFulfilled = apperr.Conflictf("Order is already paid")

type Publisher interface {
	PublishOrderPaid(ctx context.Context, order models.Order, attendees, raffleEntries int) error
}

// Publishers fans an order.paid event out to every publisher in order.
type Publishers []Publisher

func (ps Publishers) PublishOrderPaid(ctx context.Context, order models.Order, attendees, raffleEntries int) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishOrderPaid(ctx, order, attendees, raffleEntries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Notifier interface {
	SendReceipt(ctx context.Context, d notification.OrderDetails) bool
	SendPaymentReceived(ctx context.Context, o models.Order) bool
	SendAdminNotification(ctx context.Context, d notification.OrderDetails) bool
}

type Dispatcher interface {
	Dispatch(name string, fn func(ctx context.Context))
}

type Result struct {
	OrderID              string             `json:"orderId"`
	PreviousStatus       models.OrderStatus `json:"previousStatus"`
	AttendeesCreated     int                `json:"attendeeCount"`
	RaffleEntriesCreated int                `json:"raffleEntries"`
	RaffleNumbers        []int              `json:"raffleNumbers,omitempty"`
}

type Service struct {
	Store      Store
	Locker     lock.Locker
	Events     Publisher
	Notifier   Notifier
	Dispatcher Dispatcher
	Logger     *logger.Logger

	now func() time.Time
}

func NewService(store Store, locker lock.Locker, events Publisher, notifier Notifier, dispatcher Dispatcher, log *logger.Logger) *Service {
	return &Service{
		Store:      store,
		Locker:     locker,
		Events:     events,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Logger:     log,
		now:        time.Now,
	}
}

// EntriesPerUnit maps a raffle unit price to the entries it buys.
func EntriesPerUnit(unitPriceCents int64) int {
	switch unitPriceCents {
	case 2500:
		return 1
	case 10000:
		return 5
	case 20000:
		return 12
	default:
		return 1
	}
}

// Fulfill marks the order paid and materializes its attendees, raffle entries
// and donor credit in one transaction. paymentIntent may be empty for manual
// completion.
func (s *Service) Fulfill(ctx context.Context, orderID, paymentIntent string) (*Result, error) {
	key := lock.FulfillmentKey(orderID)
	owner := utils.GenerateID()

	ok, err := s.Locker.Acquire(ctx, key, owner)
	if err != nil {
		return nil, fmt.Errorf("acquire fulfillment lock: %w", err)
	}
	if !ok {
		s.Logger.Warn("FULFILL", fmt.Sprintf("Order %s is already being fulfilled", orderID))
		return nil, apperr.Conflictf("Order is already being fulfilled")
	}
	defer func() {
		if err := s.Locker.Release(context.WithoutCancel(ctx), key, owner); err != nil {
			s.Logger.Error("FULFILL", fmt.Sprintf("Failed to release lock %s: %v", key, err))
		}
	}()

	now := s.now().UTC()
	var (
		order  *models.Order
		lines  []models.OrderLine
		result = &Result{OrderID: orderID}
	)

	err = s.Store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case models.StatusPaid:
			return ErrAlreadyFulfilled
		case models.StatusCancelled, models.StatusRefunded:
			return apperr.Conflictf("Order is %s", order.Status)
		}
		result.PreviousStatus = order.Status

		transitioned, err := tx.MarkPaid(ctx, orderID, paymentIntent, now)
		if err != nil {
			return err
		}
		if !transitioned {
			return ErrAlreadyFulfilled
		}

		lines, err = tx.Lines(ctx, orderID)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if err := tx.IncrementSold(ctx, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("increment sold for %s: %w", line.ProductID, err)
			}
		}

		attendees := buildAttendees(order, lines)
		if err := tx.InsertAttendees(ctx, attendees); err != nil {
			return fmt.Errorf("insert attendees: %w", err)
		}
		result.AttendeesCreated = len(attendees)

		if raffleUnits(lines) > 0 {
			next, err := tx.NextRaffleNumber(ctx)
			if err != nil {
				return err
			}
			entries := buildRaffleEntries(orderID, lines, next)
			if err := tx.InsertRaffleEntries(ctx, entries); err != nil {
				return fmt.Errorf("insert raffle entries: %w", err)
			}
			result.RaffleEntriesCreated = len(entries)
			for _, e := range entries {
				result.RaffleNumbers = append(result.RaffleNumbers, e.EntryNumber)
			}
		}

		return tx.UpsertDonor(ctx, *order, now)
	})
	if err != nil {
		return nil, err
	}

	order.Status = models.StatusPaid
	order.PaidAt = &now
	if paymentIntent != "" {
		order.StripePaymentIntent = paymentIntent
	}

	s.Logger.LogOrder("FULFILLED", orderID, fmt.Sprintf("from %s: %d attendees, %d raffle entries, donor %s credited %s",
		result.PreviousStatus, result.AttendeesCreated, result.RaffleEntriesCreated, order.CustomerEmail, utils.FormatCents(order.TotalCents)))

	if err := s.Events.PublishOrderPaid(ctx, *order, result.AttendeesCreated, result.RaffleEntriesCreated); err != nil {
		s.Logger.Warn("EVENTS", fmt.Sprintf("order.paid for %s not published: %v", orderID, err))
	}

	s.notify(*order, lines, result.PreviousStatus)
	return result, nil
}

func (s *Service) notify(order models.Order, lines []models.OrderLine, previous models.OrderStatus) {
	details := notification.OrderDetails{Order: order, Lines: lines}
	if previous == models.StatusPendingCheck {
		s.Dispatcher.Dispatch("payment_received", func(ctx context.Context) {
			s.Notifier.SendPaymentReceived(ctx, order)
		})
		return
	}
	s.Dispatcher.Dispatch("purchase_receipt", func(ctx context.Context) {
		s.Notifier.SendReceipt(ctx, details)
		s.Notifier.SendAdminNotification(ctx, details)
	})
}

// buildAttendees creates one attendee per seat of each ticket or sponsorship
// line, taking names from that line's own prefill list.
func buildAttendees(order *models.Order, lines []models.OrderLine) []models.Attendee {
	var attendees []models.Attendee
	for _, line := range lines {
		seats := line.Seats()
		prefill := order.AttendeePrefill[line.ID]
		for i := 0; i < seats; i++ {
			a := models.Attendee{ID: utils.GenerateID(), OrderID: order.ID}
			if i < len(prefill) {
				a.Name = prefill[i].Name
				a.Email = prefill[i].Email
				a.DietaryRestrictions = prefill[i].Dietary
			}
			attendees = append(attendees, a)
		}
	}
	return attendees
}

func raffleUnits(lines []models.OrderLine) int {
	n := 0
	for _, line := range lines {
		if line.Category == models.CategoryRaffle {
			n += line.Quantity
		}
	}
	return n
}

func buildRaffleEntries(orderID string, lines []models.OrderLine, next int) []models.RaffleEntry {
	var entries []models.RaffleEntry
	for _, line := range lines {
		if line.Category != models.CategoryRaffle {
			continue
		}
		total := line.Quantity * EntriesPerUnit(line.UnitPriceCents)
		for i := 0; i < total; i++ {
			entries = append(entries, models.RaffleEntry{
				ID:          utils.GenerateID(),
				OrderID:     orderID,
				ProductID:   line.ProductID,
				EntryNumber: next,
			})
			next++
		}
	}
	return entries
}
