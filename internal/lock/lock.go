// Package lock provides the order-keyed mutual exclusion used around fulfillment.
package lock

import "context"

// Locker grants a key to one owner at a time.
type Locker interface {
	// Acquire returns false without error when another owner holds the key.
	Acquire(ctx context.Context, key, owner string) (bool, error)
	// Release drops the key only if owner still holds it.
	Release(ctx context.Context, key, owner string) error
}

func FulfillmentKey(orderID string) string {
	return "fulfill:" + orderID
}
