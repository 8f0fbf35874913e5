package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
	"github.com/qrbites/qrbites/internal/utils"
)

const testSecret = "test-secret"

func userRow(id uint64, role string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "provider", "is_active", "created_at", "updated_at"}).
		AddRow(id, "owner@example.com", "$2a$10$hash", "Owner", role, "local", active, now, now)
}

func jwtEcho(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth(testSecret, repository.NewUserRepo(db)))
	return e, mock
}

func serveMe(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMissingBearer(t *testing.T) {
	e, _ := jwtEcho(t)

	for _, hdr := range []string{"", "Basic abc", "bearer lowercase"} {
		rec := serveMe(e, hdr)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", hdr, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "missing bearer token") {
			t.Errorf("header %q: body = %s", hdr, rec.Body.String())
		}
	}
}

func TestJWTAuthInvalidToken(t *testing.T) {
	e, _ := jwtEcho(t)

	rec := serveMe(e, "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid token") {
		t.Errorf("body = %s", rec.Body.String())
	}

	// Valid shape but signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 1, model.RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec = serveMe(e, "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "invalid token") {
		t.Errorf("wrong secret: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	e, _ := jwtEcho(t)

	tok, err := utils.NewAccessToken(testSecret, 1, model.RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := serveMe(e, "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "token expired") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestJWTAuthUnknownUser(t *testing.T) {
	e, mock := jwtEcho(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tok, err := utils.NewAccessToken(testSecret, 99, model.RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := serveMe(e, "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown user") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestJWTAuthDeactivatedAccount(t *testing.T) {
	e, mock := jwtEcho(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, model.RoleUser, false))

	tok, err := utils.NewAccessToken(testSecret, 5, model.RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := serveMe(e, "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "account deactivated") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestJWTAuthSetsPrincipal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(userRow(7, model.RoleAdmin, true))

	var principal *model.User
	var uid uint64
	var role string

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		principal, _ = Principal(c)
		uid, _ = c.Get(CtxUserID).(uint64)
		role, _ = c.Get(CtxRole).(string)
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth(testSecret, repository.NewUserRepo(db)))

	tok, err := utils.NewAccessToken(testSecret, 7, model.RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := serveMe(e, "Bearer "+tok.Token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if principal == nil || principal.ID != 7 {
		t.Fatalf("principal = %+v", principal)
	}
	if principal.PasswordHash != "" {
		t.Error("password hash leaked into the request context")
	}
	if uid != 7 || role != model.RoleAdmin {
		t.Errorf("context user_id=%d role=%q", uid, role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}
