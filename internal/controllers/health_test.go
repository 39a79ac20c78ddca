package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealth(t *testing.T) {
	cases := []struct {
		name    string
		version func(ctx context.Context) (string, error)
		want    int
	}{
		{"up", func(context.Context) (string, error) { return "PostgreSQL 16.4", nil }, http.StatusOK},
		{"down", func(context.Context) (string, error) { return "", errors.New("connection refused") }, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/health", nil), rec)

			assert.NoError(t, NewHealthController(tc.version, zap.NewNop()).Health(c))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
