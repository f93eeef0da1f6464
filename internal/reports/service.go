// Package reports builds the dashboard summary and the CSV exports.
package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/reports/db"
	"gala-ticketing/internal/utils"
)

type DBLayer interface {
	OrderStats(ctx context.Context) (db.OrderStats, error)
	RevenueByCategory(ctx context.Context) ([]db.CategoryRevenue, error)
	AttendeeStats(ctx context.Context) (db.AttendeeStats, error)
	PaidRaffleEntries(ctx context.Context) (int, error)
	ProductSales(ctx context.Context) ([]db.ProductSales, error)
	ExportAttendees(ctx context.Context) ([]db.AttendeeExportRow, error)
	ExportOrders(ctx context.Context) ([]models.Order, error)
	ExportRaffle(ctx context.Context) ([]db.RaffleExportRow, error)
	ExportDonors(ctx context.Context) ([]models.Donor, error)
}

type OrderCounts struct {
	Total        int `json:"total"`
	Paid         int `json:"paid"`
	Pending      int `json:"pending"`
	PendingCheck int `json:"pendingCheck"`
}

type CategoryBreakdown struct {
	Ticket      int64 `json:"ticket"`
	Sponsorship int64 `json:"sponsorship"`
	Raffle      int64 `json:"raffle"`
	Donation    int64 `json:"donation"`
}

type Revenue struct {
	Total      int64             `json:"total"`
	Donations  int64             `json:"donations"`
	OrderCount int               `json:"orderCount"`
	ByCategory CategoryBreakdown `json:"byCategory"`
}

type AttendeeCounts struct {
	Total          int `json:"total"`
	NamesCollected int `json:"namesCollected"`
	CheckedIn      int `json:"checkedIn"`
	Assigned       int `json:"assigned"`
}

type Summary struct {
	Orders        OrderCounts       `json:"orders"`
	Revenue       Revenue           `json:"revenue"`
	Attendees     AttendeeCounts    `json:"attendees"`
	RaffleEntries int               `json:"raffleEntries"`
	Products      []db.ProductSales `json:"products"`
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	orders, err := s.DB.OrderStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	byCategory, err := s.DB.RevenueByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("revenue by category: %w", err)
	}
	attendees, err := s.DB.AttendeeStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("attendee stats: %w", err)
	}
	raffle, err := s.DB.PaidRaffleEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("raffle entries: %w", err)
	}
	products, err := s.DB.ProductSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("product sales: %w", err)
	}
	if products == nil {
		products = []db.ProductSales{}
	}

	breakdown := CategoryBreakdown{Donation: orders.DonationsCents}
	for _, row := range byCategory {
		switch row.Category {
		case models.CategoryTicket:
			breakdown.Ticket = row.Cents
		case models.CategorySponsorship:
			breakdown.Sponsorship = row.Cents
		case models.CategoryRaffle:
			breakdown.Raffle = row.Cents
		}
	}

	return &Summary{
		Orders: OrderCounts{
			Total:        orders.Total,
			Paid:         orders.Paid,
			Pending:      orders.Pending,
			PendingCheck: orders.PendingCheck,
		},
		Revenue: Revenue{
			Total:      orders.RevenueCents,
			Donations:  orders.DonationsCents,
			OrderCount: orders.Paid,
			ByCategory: breakdown,
		},
		Attendees: AttendeeCounts{
			Total:          attendees.Total,
			NamesCollected: attendees.NamesCollected,
			CheckedIn:      attendees.CheckedIn,
			Assigned:       attendees.Assigned,
		},
		RaffleEntries: raffle,
		Products:      products,
	}, nil
}

// Export names and the download filename each one is served as.
var Exports = map[string]string{
	"attendees": "attendees.csv",
	"orders":    "orders.csv",
	"raffle":    "raffle-entries.csv",
	"donors":    "donors.csv",
}

// Export writes the named CSV export to w. The header row is always written.
func (s *Service) Export(ctx context.Context, name string, w io.Writer) error {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch name {
	case "attendees":
		header = []string{"Attendee Name", "Attendee Email", "Dietary Restrictions", "Table", "Checked In", "Order Name", "Order Email"}
		rows, err = s.attendeeRows(ctx)
	case "orders":
		header = []string{"Order ID", "Name", "Email", "Phone", "Total", "Donation", "Status", "Created", "Paid"}
		rows, err = s.orderRows(ctx)
	case "raffle":
		header = []string{"Entry #", "Raffle Type", "Purchaser Name", "Purchaser Email"}
		rows, err = s.raffleRows(ctx)
	case "donors":
		header = []string{"Name", "Email", "Phone", "Total Donated", "Orders", "First Order", "Last Order"}
		rows, err = s.donorRows(ctx)
	default:
		return apperr.NotFoundf("Unknown export %q", name)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	s.Logger.Info("REPORTS", fmt.Sprintf("Exported %d %s rows", len(rows), name))
	return nil
}

func (s *Service) attendeeRows(ctx context.Context) ([][]string, error) {
	list, err := s.DB.ExportAttendees(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		checked := "No"
		if a.CheckedIn {
			checked = "Yes"
		}
		rows = append(rows, []string{str(a.Name), str(a.Email), str(a.Dietary), str(a.Table), checked, str(a.OrderName), a.OrderEmail})
	}
	return rows, nil
}

func (s *Service) orderRows(ctx context.Context) ([][]string, error) {
	orders, err := s.DB.ExportOrders(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID,
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			utils.CentsString(o.TotalCents),
			utils.CentsString(o.DonationCents),
			string(o.Status),
			timestamp(&o.CreatedAt),
			timestamp(o.PaidAt),
		})
	}
	return rows, nil
}

func (s *Service) raffleRows(ctx context.Context) ([][]string, error) {
	entries, err := s.DB.ExportRaffle(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{strconv.Itoa(e.EntryNumber), e.RaffleType, str(e.PurchaserName), e.PurchaserEmail})
	}
	return rows, nil
}

func (s *Service) donorRows(ctx context.Context) ([][]string, error) {
	donors, err := s.DB.ExportDonors(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(donors))
	for _, d := range donors {
		rows = append(rows, []string{
			d.Name,
			d.Email,
			d.Phone,
			utils.CentsString(d.TotalDonatedCents),
			strconv.Itoa(d.OrderCount),
			timestamp(d.FirstOrderAt),
			timestamp(d.LastOrderAt),
		})
	}
	return rows, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
