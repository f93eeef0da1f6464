// Package seating manages gala tables and who sits at them.
package seating

import (
	"context"
	"fmt"
	"strings"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

type DBLayer interface {
	List(ctx context.Context) ([]models.TableWithCount, error)
	Get(ctx context.Context, id string) (*models.TableWithCount, error)
	Seated(ctx context.Context, tableID string) ([]models.AttendeeView, error)
	Create(ctx context.Context, tables ...models.Table) error
	Update(ctx context.Context, table *models.Table, columns ...string) error
	Delete(ctx context.Context, id string) error
	Unassigned(ctx context.Context) ([]models.AttendeeView, error)
	Assign(ctx context.Context, tableID string, attendeeIDs []string) error
	Unassign(ctx context.Context, tableID, attendeeID string) (bool, error)
}

type TableDetail struct {
	models.TableWithCount
	Attendees []models.AttendeeView `json:"attendees"`
}

type TableInput struct {
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	IsReserved bool   `json:"is_reserved"`
	Notes      string `json:"notes"`
}

type TableUpdate struct {
	Name       utils.Optional[string] `json:"name"`
	Capacity   utils.Optional[int]    `json:"capacity"`
	IsReserved utils.Optional[bool]   `json:"is_reserved"`
	Notes      utils.Optional[string] `json:"notes"`
}

type BulkInput struct {
	Count    int    `json:"count"`
	Prefix   string `json:"prefix"`
	Capacity int    `json:"capacity"`
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) List(ctx context.Context) ([]models.TableWithCount, error) {
	tables, err := s.DB.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if tables == nil {
		tables = []models.TableWithCount{}
	}
	return tables, nil
}

func (s *Service) Get(ctx context.Context, id string) (*TableDetail, error) {
	table, err := s.DB.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seated, err := s.DB.Seated(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load seated attendees: %w", err)
	}
	if seated == nil {
		seated = []models.AttendeeView{}
	}
	return &TableDetail{TableWithCount: *table, Attendees: seated}, nil
}

func (s *Service) Create(ctx context.Context, in TableInput) (*models.Table, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validationf("Table name is required")
	}
	capacity := in.Capacity
	if capacity == 0 {
		capacity = models.DefaultTableCapacity
	}
	if capacity < 1 {
		return nil, apperr.Validationf("Capacity must be at least 1")
	}

	table := models.Table{
		ID:         utils.GenerateID(),
		Name:       name,
		Capacity:   capacity,
		IsReserved: in.IsReserved,
		Notes:      in.Notes,
	}
	if err := s.DB.Create(ctx, table); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	s.Logger.Info("SEATING", fmt.Sprintf("Table %q created (%d seats)", name, capacity))
	return &table, nil
}

// BulkCreate adds count tables named "<prefix> 1" to "<prefix> count".
func (s *Service) BulkCreate(ctx context.Context, in BulkInput) ([]models.Table, error) {
	if in.Count < 1 {
		return nil, apperr.Validationf("Count must be at least 1")
	}
	prefix := strings.TrimSpace(in.Prefix)
	if prefix == "" {
		prefix = "Table"
	}
	capacity := in.Capacity
	if capacity == 0 {
		capacity = models.DefaultTableCapacity
	}
	if capacity < 1 {
		return nil, apperr.Validationf("Capacity must be at least 1")
	}

	tables := make([]models.Table, 0, in.Count)
	for i := 1; i <= in.Count; i++ {
		tables = append(tables, models.Table{
			ID:       utils.GenerateID(),
			Name:     fmt.Sprintf("%s %d", prefix, i),
			Capacity: capacity,
		})
	}
	if err := s.DB.Create(ctx, tables...); err != nil {
		return nil, fmt.Errorf("bulk create tables: %w", err)
	}
	s.Logger.Info("SEATING", fmt.Sprintf("%d tables created with prefix %q", in.Count, prefix))
	return tables, nil
}

func (s *Service) Update(ctx context.Context, id string, u TableUpdate) (*models.Table, error) {
	current, err := s.DB.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table := current.Table

	var columns []string
	if v, ok := u.Name.Get(); ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, apperr.Validationf("Table name cannot be empty")
		}
		table.Name = v
		columns = append(columns, "name")
	}
	if v, ok := u.Capacity.Get(); ok {
		if v < 1 {
			return nil, apperr.Validationf("Capacity must be at least 1")
		}
		table.Capacity = v
		columns = append(columns, "capacity")
	}
	if v, ok := u.IsReserved.Get(); ok {
		table.IsReserved = v
		columns = append(columns, "is_reserved")
	}
	if v, ok := u.Notes.Get(); ok {
		table.Notes = v
		columns = append(columns, "notes")
	}
	if len(columns) == 0 {
		return nil, apperr.Validationf("No fields to update")
	}

	if err := s.DB.Update(ctx, &table, columns...); err != nil {
		return nil, fmt.Errorf("update table %s: %w", id, err)
	}
	return &table, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.DB.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("SEATING", fmt.Sprintf("Table %s deleted", id))
	return nil
}

func (s *Service) Unassigned(ctx context.Context) ([]models.AttendeeView, error) {
	attendees, err := s.DB.Unassigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unassigned attendees: %w", err)
	}
	if attendees == nil {
		attendees = []models.AttendeeView{}
	}
	return attendees, nil
}

func (s *Service) Assign(ctx context.Context, tableID string, attendeeIDs []string) error {
	ids := dedupe(attendeeIDs)
	if len(ids) == 0 {
		return apperr.Validationf("attendeeIds must not be empty")
	}
	if err := s.DB.Assign(ctx, tableID, ids); err != nil {
		return err
	}
	s.Logger.Info("SEATING", fmt.Sprintf("%d attendees assigned to table %s", len(ids), tableID))
	return nil
}

func (s *Service) Unassign(ctx context.Context, tableID, attendeeID string) error {
	ok, err := s.DB.Unassign(ctx, tableID, attendeeID)
	if err != nil {
		return fmt.Errorf("unassign attendee %s: %w", attendeeID, err)
	}
	if !ok {
		return apperr.NotFoundf("Attendee is not at this table")
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
