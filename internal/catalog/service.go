package catalog

import (
	"context"
	"fmt"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

type DBLayer interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product, columns ...string) error
}

// Storefront groups active products by the categories the shop shows.
type Storefront struct {
	Ticket      []models.Product `json:"ticket"`
	Sponsorship []models.Product `json:"sponsorship"`
	Raffle      []models.Product `json:"raffle"`
}

// ProductUpdate is an admin edit; unset fields are left alone.
type ProductUpdate struct {
	Name              utils.Optional[string] `json:"name"`
	Description       utils.Optional[string] `json:"description"`
	PriceCents        utils.Optional[int64]  `json:"price_cents"`
	QuantityAvailable utils.Optional[*int]   `json:"quantity_available"`
	TableSize         utils.Optional[*int]   `json:"table_size"`
	IsActive          utils.Optional[bool]   `json:"is_active"`
	SortOrder         utils.Optional[int]    `json:"sort_order"`
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) Storefront(ctx context.Context) (*Storefront, error) {
	products, err := s.DB.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}

	front := &Storefront{
		Ticket:      []models.Product{},
		Sponsorship: []models.Product{},
		Raffle:      []models.Product{},
	}
	for _, p := range products {
		switch p.Category {
		case models.CategoryTicket:
			front.Ticket = append(front.Ticket, p)
		case models.CategorySponsorship:
			front.Sponsorship = append(front.Sponsorship, p)
		case models.CategoryRaffle:
			front.Raffle = append(front.Raffle, p)
		}
	}
	return front, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.DB.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.DB.ListAll(ctx)
}

func (s *Service) Update(ctx context.Context, id string, u ProductUpdate) (*models.Product, error) {
	product, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if v, ok := u.Name.Get(); ok {
		if v == "" {
			return nil, apperr.Validationf("Product name cannot be empty")
		}
		product.Name = v
		columns = append(columns, "name")
	}
	if v, ok := u.Description.Get(); ok {
		product.Description = v
		columns = append(columns, "description")
	}
	if v, ok := u.PriceCents.Get(); ok {
		if v < 0 {
			return nil, apperr.Validationf("price_cents must not be negative")
		}
		product.PriceCents = v
		columns = append(columns, "price_cents")
	}
	if v, ok := u.QuantityAvailable.Get(); ok {
		if v != nil && *v < product.QuantitySold {
			return nil, apperr.Validationf("quantity_available cannot be below the %d already sold", product.QuantitySold)
		}
		product.QuantityAvailable = v
		columns = append(columns, "quantity_available")
	}
	if v, ok := u.TableSize.Get(); ok {
		if v != nil && *v < 1 {
			return nil, apperr.Validationf("table_size must be at least 1")
		}
		product.TableSize = v
		columns = append(columns, "table_size")
	}
	if v, ok := u.IsActive.Get(); ok {
		product.IsActive = v
		columns = append(columns, "is_active")
	}
	if v, ok := u.SortOrder.Get(); ok {
		product.SortOrder = v
		columns = append(columns, "sort_order")
	}

	if len(columns) == 0 {
		return nil, apperr.Validationf("No fields to update")
	}

	if err := s.DB.Update(ctx, product, columns...); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Product %s updated: %v", id, columns))
	return product, nil
}
