package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/attendees"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	missing []models.AttendeeView
	scanned string
}

func (s *stubService) List(context.Context) ([]models.AttendeeView, error) { return nil, nil }

func (s *stubService) MissingNames(context.Context) ([]models.AttendeeView, error) {
	return s.missing, nil
}

func (s *stubService) Update(context.Context, string, attendees.AttendeeUpdate) (*models.AttendeeView, error) {
	return nil, apperr.Validationf("No fields to update")
}

func (s *stubService) CheckIn(context.Context, string) error { return nil }

func (s *stubService) UndoCheckIn(_ context.Context, id string) error {
	return apperr.NotFoundf("Attendee not found")
}

func (s *stubService) Pass(_ context.Context, id string) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (s *stubService) ScanCheckIn(_ context.Context, token string) (*attendees.ScanResult, error) {
	s.scanned = token
	return &attendees.ScanResult{AlreadyChecked: true}, nil
}

func newRouter(svc Service) http.Handler {
	h := NewHandler(svc, logger.Discard())
	r := chi.NewRouter()
	r.Get("/attendees/missing-names", h.ListMissingNames)
	r.Patch("/attendees/{id}", h.UpdateAttendee)
	r.Post("/attendees/{id}/undo-checkin", h.UndoCheckIn)
	r.Get("/attendees/{id}/pass", h.Pass)
	r.Post("/attendees/scan", h.Scan)
	return r
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestListMissingNames(t *testing.T) {
	svc := &stubService{missing: []models.AttendeeView{{Attendee: models.Attendee{ID: "a1"}}}}

	rec := serve(newRouter(svc), http.MethodGet, "/attendees/missing-names", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a1"`)
}

func TestUpdateAttendee_EmptyUpdate(t *testing.T) {
	rec := serve(newRouter(&stubService{}), http.MethodPatch, "/attendees/a1", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No fields to update")
}

func TestUndoCheckIn_NotFound(t *testing.T) {
	rec := serve(newRouter(&stubService{}), http.MethodPost, "/attendees/nope/undo-checkin", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPass_ServesPNG(t *testing.T) {
	rec := serve(newRouter(&stubService{}), http.MethodGet, "/attendees/a1/pass", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=pass-a1.png", rec.Header().Get("Content-Disposition"))
}

func TestScan_PassesToken(t *testing.T) {
	svc := &stubService{}

	rec := serve(newRouter(svc), http.MethodPost, "/attendees/scan", `{"token":"abc"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", svc.scanned)
	assert.Contains(t, rec.Body.String(), `"alreadyCheckedIn":true`)
}
