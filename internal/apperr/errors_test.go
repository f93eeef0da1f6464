package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validationf("bad"), http.StatusBadRequest},
		{NotFoundf("missing"), http.StatusNotFound},
		{Conflictf("dup"), http.StatusConflict},
		{Unauthorizedf("who"), http.StatusUnauthorized},
		{Forbiddenf("no"), http.StatusForbidden},
		{UpstreamWrap(errors.New("smtp"), "email failed"), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFoundf("order x")), http.StatusNotFound},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestSentinelMatching(t *testing.T) {
	sentinel := Conflictf("Order is already paid")
	wrapped := fmt.Errorf("fulfill order: %w", Conflictf("Order is already paid"))

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(Conflictf("other"), sentinel))
}

func TestPublicMessageMasksInternal(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "Table not found", PublicMessage(NotFoundf("Table not found")))
	assert.Equal(t, "email failed", PublicMessage(UpstreamWrap(errors.New("x"), "email failed")))
}
