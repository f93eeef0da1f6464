package sse

import (
	"context"
	"sync"
	"time"

	"gala-ticketing/internal/models"
)

// PaidOrder is what the admin dashboard sees when an order is fulfilled.
type PaidOrder struct {
	OrderID       string               `json:"orderId"`
	CustomerName  string               `json:"customerName"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	TotalCents    int64                `json:"totalCents"`
	DonationCents int64                `json:"donationCents"`
	Attendees     int                  `json:"attendees"`
	RaffleEntries int                  `json:"raffleEntries"`
	PaidAt        time.Time            `json:"paidAt"`
}

// OrderFeed broadcasts paid orders to every connected admin client.
type OrderFeed struct {
	mu      sync.RWMutex
	clients map[chan PaidOrder]struct{}
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{clients: make(map[chan PaidOrder]struct{})}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (f *OrderFeed) Subscribe(ctx context.Context) <-chan PaidOrder {
	ch := make(chan PaidOrder, 10)

	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.clients, ch)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// PublishOrderPaid never blocks; a client with a full buffer misses the event.
func (f *OrderFeed) PublishOrderPaid(_ context.Context, order models.Order, attendees, raffleEntries int) error {
	event := PaidOrder{
		OrderID:       order.ID,
		CustomerName:  order.DisplayName(),
		PaymentMethod: order.PaymentMethod,
		TotalCents:    order.TotalCents,
		DonationCents: order.DonationCents,
		Attendees:     attendees,
		RaffleEntries: raffleEntries,
		PaidAt:        time.Now().UTC(),
	}
	if order.PaidAt != nil {
		event.PaidAt = *order.PaidAt
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.clients {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (f *OrderFeed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}
