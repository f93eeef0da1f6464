package catalog

import (
	"context"
	"fmt"

	"gala-ticketing/internal/models"
)

func intPtr(v int) *int { return &v }

// DefaultProducts is the gala catalog loaded by the seed tool.
func DefaultProducts() []models.Product {
	return []models.Product{
		{ID: "ticket-individual", Name: "Individual Ticket", Description: "One seat at the YCKC Gala", Category: models.CategoryTicket, PriceCents: 7500, TableSize: intPtr(1), SortOrder: 1},
		{ID: "ticket-table-8", Name: "Table of 8", Description: "Reserve a full table for your group", Category: models.CategoryTicket, PriceCents: 56000, QuantityAvailable: intPtr(20), TableSize: intPtr(8), SortOrder: 2},

		{ID: "sponsor-platinum", Name: "Platinum Sponsor", Description: "Premium table + logo on program + verbal recognition + 12 raffle entries", Category: models.CategorySponsorship, PriceCents: 250000, QuantityAvailable: intPtr(4), TableSize: intPtr(8), SortOrder: 1},
		{ID: "sponsor-gold", Name: "Gold Sponsor", Description: "Reserved table + logo on program + 8 raffle entries", Category: models.CategorySponsorship, PriceCents: 150000, QuantityAvailable: intPtr(8), TableSize: intPtr(8), SortOrder: 2},
		{ID: "sponsor-silver", Name: "Silver Sponsor", Description: "Reserved table + name in program + 5 raffle entries", Category: models.CategorySponsorship, PriceCents: 100000, QuantityAvailable: intPtr(10), TableSize: intPtr(8), SortOrder: 3},
		{ID: "sponsor-bronze", Name: "Bronze Sponsor", Description: "4 tickets + name in program", Category: models.CategorySponsorship, PriceCents: 50000, TableSize: intPtr(4), SortOrder: 4},
		{ID: "sponsor-friend", Name: "Friend of YCKC", Description: "2 tickets + name in program", Category: models.CategorySponsorship, PriceCents: 25000, TableSize: intPtr(2), SortOrder: 5},

		{ID: "raffle-1", Name: "Golden Raffle - 1 Entry", Description: "One entry in the golden raffle drawing", Category: models.CategoryRaffle, PriceCents: 2500, SortOrder: 1},
		{ID: "raffle-5", Name: "Golden Raffle - 5 Entries", Description: "Five entries in the golden raffle drawing (save $25!)", Category: models.CategoryRaffle, PriceCents: 10000, SortOrder: 2},
		{ID: "raffle-12", Name: "Golden Raffle - 12 Entries", Description: "Twelve entries in the golden raffle drawing (save $100!)", Category: models.CategoryRaffle, PriceCents: 20000, SortOrder: 3},
	}
}

type SeedStore interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, products []models.Product) error
	DeleteUnsold(ctx context.Context) (int64, error)
}

// Seed loads DefaultProducts. With reset, unsold products are removed first;
// otherwise an already populated catalog is left untouched.
func Seed(ctx context.Context, store SeedStore, reset bool) (int, error) {
	if reset {
		if _, err := store.DeleteUnsold(ctx); err != nil {
			return 0, fmt.Errorf("clear catalog: %w", err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	products := DefaultProducts()
	for i := range products {
		products[i].IsActive = true
	}
	if err := store.Insert(ctx, products); err != nil {
		return 0, fmt.Errorf("insert products: %w", err)
	}
	return len(products), nil
}
