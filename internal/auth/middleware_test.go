package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sales-assistant/internal/domain"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

type stubLoader map[string]*domain.User

func (s stubLoader) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestApp(tm *TokenManager, users stubLoader, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	mw := NewAuthMiddleware(tm, users)
	handlers := append([]fiber.Handler{mw.Handle}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(p.User.Username)
	})
	app.Get("/protected", handlers...)
	return app
}

func bearer(t *testing.T, tm *TokenManager, user *domain.User) string {
	t.Helper()
	token, _, err := tm.GenerateToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	approved := &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleUser, Status: domain.UserStatusApproved}
	pending := &domain.User{ID: "u-2", Username: "bob", Role: domain.RoleUser, Status: domain.UserStatusPending}
	users := stubLoader{approved.ID: approved, pending.ID: pending}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"unknown user", bearer(t, tm, &domain.User{ID: "u-404"}), http.StatusUnauthorized},
		{"pending user", bearer(t, tm, pending), http.StatusForbidden},
		{"approved user", bearer(t, tm, approved), http.StatusOK},
	}

	app := newTestApp(tm, users)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	admin := &domain.User{ID: "a-1", Username: "root", Role: domain.RoleAdmin, Status: domain.UserStatusApproved}
	user := &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleUser, Status: domain.UserStatusApproved}
	app := newTestApp(tm, stubLoader{admin.ID: admin, user.ID: user}, RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearer(t, tm, user))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearer(t, tm, admin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoleClaimDoesNotGrantAdmin(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	stored := &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleUser, Status: domain.UserStatusApproved}
	forged := &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleAdmin}
	app := newTestApp(tm, stubLoader{stored.ID: stored}, RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearer(t, tm, forged))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
