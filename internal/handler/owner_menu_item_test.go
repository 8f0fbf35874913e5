package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/middleware"
	"github.com/qrbites/qrbites/internal/repository"
	"github.com/qrbites/qrbites/internal/storage"
)

// The deletion event must carry the restaurant id, so the handler resolves
// the item's menu and restaurant while the row still exists.  The ordered
// mock fails if the lookups are skipped or happen after the delete.
func TestDeleteMenuItemResolvesRestaurantFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT mi.id, mi.menu_id").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "menu_id", "name", "description", "price_cents", "category",
			"calories", "allergens", "tags", "is_available", "image_url", "created_at", "updated_at",
		}).AddRow(11, 4, "Cola", "", int64(250), "", 0, "", "", true, "", now, now))
	mock.ExpectQuery("SELECT restaurant_id FROM menus").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}).AddRow(9))
	mock.ExpectExec("DELETE FROM menu_items WHERE id").
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewOwnerHandler(config.Config{Env: "test"},
		repository.NewRestaurantRepo(db), repository.NewMenuRepo(db), repository.NewMenuItemRepo(db),
		storage.NewMemory(), nil, nil, nil)

	e := echo.New()
	inject := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserID, uint64(7))
			c.Set(middleware.CtxRole, "user")
			return next(c)
		}
	}
	e.DELETE("/api/menu-items/:id", h.DeleteMenuItem, inject)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/menu-items/11", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}
