package payment

import (
	"context"
	"errors"
	"fmt"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/config"
	"gala-ticketing/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var ErrStripeNotConfigured = errors.New("STRIPE_SECRET_KEY is not set")

const donationLineName = "Additional Donation"

// StripeGateway creates hosted checkout sessions through an injected client.
type StripeGateway struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

func NewStripeGateway(cfg config.StripeConfig, log *logger.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrStripeNotConfigured
	}

	sc := client.New(cfg.SecretKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, currency: cfg.Currency, log: log}, nil
}

// sessionParams builds the hosted checkout request for an order.
func sessionParams(req SessionRequest, currency string) *stripe.CheckoutSessionParams {
	var items []*stripe.CheckoutSessionLineItemParams
	for _, it := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
		}
		if it.Description != "" {
			product.Description = stripe.String(it.Description)
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(it.UnitPriceCents),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	if req.DonationCents > 0 {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(donationLineName),
					Description: stripe.String("Thank you for your generous support!"),
				},
				UnitAmount: stripe.Int64(req.DonationCents),
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          items,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.AddMetadata("order_id", req.OrderID)
	return params
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := sessionParams(req, g.currency)
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for order %s: %v", req.OrderID, err))
		return nil, apperr.UpstreamWrap(err, "Payment provider unavailable")
	}

	g.log.Info("STRIPE", fmt.Sprintf("Created checkout session %s for order %s", sess.ID, req.OrderID))
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntent string) (string, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntent)}
	params.Context = ctx

	r, err := g.client.Refunds.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Refund of %s failed: %v", paymentIntent, err))
		return "", apperr.UpstreamWrap(err, "Refund failed at payment provider")
	}

	g.log.Info("STRIPE", fmt.Sprintf("Refund %s created for %s", r.ID, paymentIntent))
	return r.ID, nil
}

// Unconfigured stands in when no Stripe key is set; card checkout and card
// refunds fail with an upstream error.
type Unconfigured struct{}

func (Unconfigured) CreateCheckoutSession(context.Context, SessionRequest) (*Session, error) {
	return nil, apperr.UpstreamWrap(ErrStripeNotConfigured, "Card payments are not available")
}

func (Unconfigured) Refund(context.Context, string) (string, error) {
	return "", apperr.UpstreamWrap(ErrStripeNotConfigured, "Card refunds are not available")
}
