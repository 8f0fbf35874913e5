package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/repository"
)

// userApp wires the user handler without the auth middleware; role checks
// live on the routes, the handler logic is what is under test here.
func userApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{Env: "test"}
	h := NewUserHandler(cfg, repository.NewUserRepo(db), repository.NewRestaurantRepo(db))

	e := echo.New()
	e.HTTPErrorHandler = httperr.HandlerFor(cfg.Env)
	e.DELETE("/api/users/:id", h.Delete)
	return e, mock
}

func TestUserDeleteWhileOwningRestaurants(t *testing.T) {
	e, mock := userApp(t)
	mock.ExpectQuery("SELECT 1 FROM restaurants WHERE owner_id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users/5", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "user still owns restaurants") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	e, mock := userApp(t)
	mock.ExpectQuery("SELECT 1 FROM restaurants WHERE owner_id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/users/5", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}
