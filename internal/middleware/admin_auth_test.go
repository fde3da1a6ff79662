package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

type stubValidator struct {
	err error
}

func (s stubValidator) ValidateToken(ctx context.Context, token string) (*services.AdminClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != "good" {
		return nil, services.ErrInvalidToken
	}
	return &services.AdminClaims{Username: "convener"}, nil
}

func newProtectedApp(v TokenValidator) *fiber.App {
	app := fiber.New()
	app.Get("/admin", RequireAdmin(v), func(c *fiber.Ctx) error {
		claims, ok := AdminClaims(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(claims.Username)
	})
	return app
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name      string
		validator stubValidator
		header    string
		cookie    string
		want      int
	}{
		{name: "no credentials", want: http.StatusUnauthorized},
		{name: "bearer token", header: "Bearer good", want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", want: http.StatusOK},
		{name: "bad token", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "basic scheme ignored", header: "Basic good", want: http.StatusUnauthorized},
		{name: "cookie", cookie: "good", want: http.StatusOK},
		{name: "store failure", validator: stubValidator{err: errors.New("redis down")}, header: "Bearer good", want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AdminCookie, Value: tt.cookie})
			}

			resp, err := newProtectedApp(tt.validator).Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
