package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/reports"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	csv string
	err error
}

func (s *stubService) Summary(context.Context) (*reports.Summary, error) {
	return &reports.Summary{}, s.err
}

func (s *stubService) Export(_ context.Context, _ string, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.csv)
	return err
}

func newRouter(svc Service) http.Handler {
	h := NewHandler(svc, logger.Discard())
	r := chi.NewRouter()
	r.Get("/reports/summary", h.Summary)
	r.Get("/reports/export/{name}", h.Export)
	return r
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestExport_WritesCSVAttachment(t *testing.T) {
	rec := get(newRouter(&stubService{csv: "Entry Number,Name\n1,Ada\n"}), "/reports/export/raffle")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=raffle-entries.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Entry Number,Name\n1,Ada\n", rec.Body.String())
}

func TestExport_UnknownName(t *testing.T) {
	rec := get(newRouter(&stubService{}), "/reports/export/payroll")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport_QueryFailureIsJSON(t *testing.T) {
	rec := get(newRouter(&stubService{err: errors.New("disk I/O error")}), "/reports/export/orders")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestSummary(t *testing.T) {
	rec := get(newRouter(&stubService{}), "/reports/summary")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders"`)
}
