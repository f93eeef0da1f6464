// Package attendees is the guest list: names, dietary needs, check-in, badges.
package attendees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/attendees/qr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

type DBLayer interface {
	List(ctx context.Context) ([]models.AttendeeView, error)
	MissingNames(ctx context.Context) ([]models.AttendeeView, error)
	Get(ctx context.Context, id string) (*models.AttendeeView, error)
	Update(ctx context.Context, attendee *models.Attendee, columns ...string) error
	SetCheckedIn(ctx context.Context, id string, checkedIn bool, at time.Time) (bool, error)
}

// AttendeeUpdate is an admin edit. An empty table_id clears the seat.
type AttendeeUpdate struct {
	Name                utils.Optional[string] `json:"name"`
	Email               utils.Optional[string] `json:"email"`
	DietaryRestrictions utils.Optional[string] `json:"dietary_restrictions"`
	TableID             utils.Optional[string] `json:"table_id"`
}

// ScanResult tells the door whether the guest was already in.
type ScanResult struct {
	Attendee       models.AttendeeView `json:"attendee"`
	AlreadyChecked bool                `json:"alreadyCheckedIn"`
}

type Service struct {
	DB     DBLayer
	Passes *qr.Generator
	Logger *logger.Logger
	now    func() time.Time
}

func NewService(db DBLayer, passes *qr.Generator, log *logger.Logger) *Service {
	return &Service{DB: db, Passes: passes, Logger: log, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]models.AttendeeView, error) {
	list, err := s.DB.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if list == nil {
		list = []models.AttendeeView{}
	}
	return list, nil
}

func (s *Service) MissingNames(ctx context.Context) ([]models.AttendeeView, error) {
	list, err := s.DB.MissingNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees missing names: %w", err)
	}
	if list == nil {
		list = []models.AttendeeView{}
	}
	return list, nil
}

func (s *Service) Update(ctx context.Context, id string, u AttendeeUpdate) (*models.AttendeeView, error) {
	current, err := s.DB.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	attendee := current.Attendee

	var columns []string
	if v, ok := u.Name.Get(); ok {
		attendee.Name = strings.TrimSpace(v)
		columns = append(columns, "name")
	}
	if v, ok := u.Email.Get(); ok {
		attendee.Email = strings.ToLower(strings.TrimSpace(v))
		columns = append(columns, "email")
	}
	if v, ok := u.DietaryRestrictions.Get(); ok {
		attendee.DietaryRestrictions = strings.TrimSpace(v)
		columns = append(columns, "dietary_restrictions")
	}
	if v, ok := u.TableID.Get(); ok {
		attendee.TableID = v
		columns = append(columns, "table_id")
	}
	if len(columns) == 0 {
		return nil, apperr.Validationf("No fields to update")
	}

	if err := s.DB.Update(ctx, &attendee, columns...); err != nil {
		return nil, err
	}
	return s.DB.Get(ctx, id)
}

func (s *Service) CheckIn(ctx context.Context, id string) error {
	return s.setCheckedIn(ctx, id, true)
}

func (s *Service) UndoCheckIn(ctx context.Context, id string) error {
	return s.setCheckedIn(ctx, id, false)
}

func (s *Service) setCheckedIn(ctx context.Context, id string, in bool) error {
	ok, err := s.DB.SetCheckedIn(ctx, id, in, s.now().UTC())
	if err != nil {
		return fmt.Errorf("check in %s: %w", id, err)
	}
	if !ok {
		return apperr.NotFoundf("Attendee not found")
	}
	s.Logger.Info("CHECKIN", fmt.Sprintf("Attendee %s checked_in=%t", id, in))
	return nil
}

// Pass renders the attendee's badge QR code as PNG.
func (s *Service) Pass(ctx context.Context, id string) ([]byte, error) {
	a, err := s.DB.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Passes.PNG(qr.Claims{AttendeeID: a.ID, OrderID: a.OrderID})
}

// ScanCheckIn checks in the attendee a badge token names. Scanning twice is
// not an error.
func (s *Service) ScanCheckIn(ctx context.Context, token string) (*ScanResult, error) {
	claims, err := s.Passes.Parse(strings.TrimSpace(token))
	if errors.Is(err, qr.ErrInvalidToken) {
		s.Logger.LogSecurity("PASS_REJECTED", "unreadable check-in token")
		return nil, apperr.Validationf("Invalid pass")
	}
	if err != nil {
		return nil, err
	}

	a, err := s.DB.Get(ctx, claims.AttendeeID)
	if err != nil {
		return nil, err
	}
	if a.OrderID != claims.OrderID {
		s.Logger.LogSecurity("PASS_REJECTED", fmt.Sprintf("order mismatch for attendee %s", a.ID))
		return nil, apperr.Validationf("Invalid pass")
	}

	result := &ScanResult{AlreadyChecked: a.CheckedIn}
	if !a.CheckedIn {
		if err := s.CheckIn(ctx, a.ID); err != nil {
			return nil, err
		}
		if a, err = s.DB.Get(ctx, a.ID); err != nil {
			return nil, err
		}
	}
	result.Attendee = *a
	return result, nil
}
