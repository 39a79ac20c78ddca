package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/service"
	"audit-desk/pkg/utils"
)

type stubSessions struct {
	checkErr error
	admins   map[uint64]bool
}

func (s *stubSessions) CheckToken(ctx context.Context, claims *service.JwtCustomClaim) error {
	return s.checkErr
}

func (s *stubSessions) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	return s.admins[userID], nil
}

func setup(t *testing.T, sessions *stubSessions) (*echo.Echo, service.JWTService) {
	t.Helper()
	jwtSvc := service.NewJWTService("test-secret", time.Hour, 24*time.Hour, zap.NewNop())
	m := NewAuthMiddleware(jwtSvc, sessions, zap.NewNop())

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, err := utils.GetUserIDFromCtx(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"id":    id,
			"admin": utils.IsAdminFromCtx(c.Request().Context()),
		})
	}, m.Auth)
	e.GET("/admin", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"admin": utils.IsAdminFromCtx(c.Request().Context())})
	}, m.Auth, m.AdminGate)
	return e, jwtSvc
}

func do(e *echo.Echo, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	sessions := &stubSessions{admins: map[uint64]bool{1: true}}
	e, jwtSvc := setup(t, sessions)

	access, refresh, err := jwtSvc.GenerateTokens(2)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"не Bearer", "Basic abc", http.StatusUnauthorized},
		{"мусорный токен", "Bearer garbage", http.StatusUnauthorized},
		{"refresh вместо access", "Bearer " + refresh, http.StatusUnauthorized},
		{"валидный", "Bearer " + access, http.StatusOK},
		{"регистр схемы", "bearer " + access, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, "/me", tc.header)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec := do(e, "/me", "Bearer "+access)
	assert.JSONEq(t, `{"id":2,"admin":false}`, rec.Body.String())
}

func TestAuth_RevokedToken(t *testing.T) {
	e, jwtSvc := setup(t, &stubSessions{checkErr: apperrors.ErrTokenRevoked})
	access, _, err := jwtSvc.GenerateTokens(2)
	require.NoError(t, err)

	rec := do(e, "/me", "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrTokenRevoked.Error())
}

func TestAdminGate(t *testing.T) {
	e, jwtSvc := setup(t, &stubSessions{admins: map[uint64]bool{1: true}})

	adminToken, _, err := jwtSvc.GenerateTokens(1)
	require.NoError(t, err)
	userToken, _, err := jwtSvc.GenerateTokens(2)
	require.NoError(t, err)

	rec := do(e, "/admin", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"admin":true}`, rec.Body.String())

	rec = do(e, "/admin", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
