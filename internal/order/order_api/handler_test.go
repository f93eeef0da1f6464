package order_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/fulfillment"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/order"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, req order.CheckoutRequest) (*order.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) PublicLookup(ctx context.Context, orderID string) (*order.PublicOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PublicOrder), args.Error(1)
}

func (m *MockOrderService) LookupBySession(ctx context.Context, sessionID string) (*order.PublicOrder, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PublicOrder), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, status models.OrderStatus) ([]models.OrderSummaryRow, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]models.OrderSummaryRow), args.Error(1)
}

func (m *MockOrderService) Detail(ctx context.Context, orderID string) (*order.OrderDetail, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.OrderDetail), args.Error(1)
}

func (m *MockOrderService) UpdateNotes(ctx context.Context, orderID, notes string) error {
	return m.Called(ctx, orderID, notes).Error(0)
}

func (m *MockOrderService) Cancel(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderService) Complete(ctx context.Context, orderID string) (*fulfillment.Result, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Result), args.Error(1)
}

func (m *MockOrderService) Refund(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderService) EmailCustomer(ctx context.Context, orderID, subject, body string) error {
	return m.Called(ctx, orderID, subject, body).Error(0)
}

func newRouter(svc *MockOrderService) http.Handler {
	h := NewHandler(svc, logger.Discard())
	r := chi.NewRouter()
	r.Post("/api/checkout", h.Checkout)
	r.Get("/api/checkout/session/{sessionId}", h.GetCheckoutSession)
	r.Get("/api/orders/{id}", h.GetPublicOrder)
	r.Get("/api/admin/orders", h.ListOrders)
	r.Patch("/api/admin/orders/{id}", h.UpdateOrder)
	r.Post("/api/admin/orders/{id}/cancel", h.CancelOrder)
	r.Post("/api/admin/orders/{id}/complete", h.CompleteOrder)
	r.Post("/api/admin/orders/{id}/email", h.EmailOrder)
	return r
}

func TestCheckoutHandler(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("Checkout", mock.Anything, mock.MatchedBy(func(req order.CheckoutRequest) bool {
		return len(req.Items) == 1 && req.Items[0].ProductID == "ticket-individual" && req.DonationCents == 1000
	})).Return(&order.CheckoutResponse{OrderID: "o1", SessionID: "cs_1", SessionURL: "https://pay/cs_1"}, nil)

	body := `{"items":[{"productId":"ticket-individual","quantity":2}],"customerEmail":"a@example.org","donationCents":1000}`
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_1", resp["sessionId"])
	assert.Equal(t, "https://pay/cs_1", resp["sessionUrl"])
}

func TestCheckoutHandler_Errors(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("Checkout", mock.Anything, mock.Anything).Return(nil, apperr.Conflictf("Only 1 Table of 8 available"))

	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"items":[]}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only 1 Table of 8 available")
}

func TestGetCheckoutSession_NotFound(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("LookupBySession", mock.Anything, "cs_missing").Return(nil, apperr.NotFoundf("Order not found"))

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkout/session/cs_missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdersPassesStatus(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("List", mock.Anything, models.StatusPendingCheck).Return([]models.OrderSummaryRow{{Order: models.Order{ID: "o1"}, AttendeeCount: 2}}, nil)

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=pending_check", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "o1", rows[0]["id"])
	assert.EqualValues(t, 2, rows[0]["attendee_count"])
}

func TestOrderMutations(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("UpdateNotes", mock.Anything, "o1", "called donor").Return(nil)
	svc.On("Cancel", mock.Anything, "o1").Return(apperr.Conflictf("Cannot cancel paid order - use refund instead"))
	svc.On("Complete", mock.Anything, "o2").Return(&fulfillment.Result{OrderID: "o2", AttendeesCreated: 8, RaffleEntriesCreated: 5}, nil)

	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/admin/orders/o1", strings.NewReader(`{"notes":"called donor"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/orders/o1/cancel", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/orders/o2/complete", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.EqualValues(t, 8, resp["attendeeCount"])
	assert.EqualValues(t, 5, resp["raffleEntries"])

	svc.AssertExpectations(t)
}

func TestEmailOrder(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("EmailCustomer", mock.Anything, "o1", "Parking", "Use the north lot.").Return(nil)
	svc.On("EmailCustomer", mock.Anything, "o2", "", "x").Return(apperr.Validationf("Subject and message are required"))

	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/orders/o1/email", strings.NewReader(`{"subject":"Parking","message":"Use the north lot."}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/orders/o2/email", strings.NewReader(`{"message":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}
