package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/repository"
)

func publicApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{Env: "test", FrontendURL: "https://qrbites.example"}
	h := NewPublicHandler(cfg,
		repository.NewRestaurantRepo(db), repository.NewMenuRepo(db), repository.NewMenuItemRepo(db))

	e := echo.New()
	e.HTTPErrorHandler = httperr.HandlerFor(cfg.Env)
	e.GET("/api/public/menus/:menuId", h.Menu)
	e.GET("/api/public/restaurants/:restaurantId", h.Restaurant)
	e.GET("/r/:menuId", h.Redirect)
	return e, mock
}

func getPublic(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// expectMenuRow mocks MenuRepo.GetByID: the menu row plus its image urls.
func expectMenuRow(mock sqlmock.Sqlmock, id, restaurantID uint64, active bool) {
	now := time.Now()
	mock.ExpectQuery("SELECT m.id, m.restaurant_id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "restaurant_id", "name", "description", "is_active",
			"categories", "qr_code_url", "created_at", "updated_at",
		}).AddRow(id, restaurantID, "Lunch", "", active, "", "", now, now))
	mock.ExpectQuery("SELECT url FROM menu_images").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"url"}))
}

// expectRestaurantRow mocks RestaurantRepo.GetByID: the row plus its hours.
func expectRestaurantRow(mock sqlmock.Sqlmock, id uint64, active bool) {
	now := time.Now()
	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "name", "phone", "email", "website",
			"street", "house_number", "city", "zip", "logo_url", "is_active", "created_at", "updated_at",
		}).AddRow(id, 77, "Trattoria", "+4930123456", "owner@example.com", "",
			"Main", "1", "Berlin", "10115", "", active, now, now))
	mock.ExpectQuery("FROM restaurant_hours").
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id", "day", "closed", "opens", "closes"}))
}

func TestPublicMenuReturnsAvailableItemsOnly(t *testing.T) {
	e, mock := publicApp(t)

	expectMenuRow(mock, 7, 9, true)
	expectRestaurantRow(mock, 9, true)
	now := time.Now()
	// The repo query itself filters on availability; the mock pins that SQL.
	mock.ExpectQuery("FROM menu_items mi WHERE mi.menu_id = . AND mi.is_available = 1").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "menu_id", "name", "description", "price_cents", "category",
			"calories", "allergens", "tags", "is_available", "image_url", "created_at", "updated_at",
		}).AddRow(1, 7, "Margherita", "", int64(950), "pizza", 0, "", "", true, "", now, now))

	rec := getPublic(e, "/api/public/menus/7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Menu struct {
				ID    uint64           `json:"id"`
				Items []map[string]any `json:"menuItems"`
			} `json:"menu"`
			Restaurant map[string]any `json:"restaurant"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if len(envelope.Data.Menu.Items) != 1 || envelope.Data.Menu.Items[0]["name"] != "Margherita" {
		t.Errorf("items = %v", envelope.Data.Menu.Items)
	}
	// The restaurant summary hides owner and contact details.
	for _, hidden := range []string{"ownerId", "email", "phone"} {
		if _, leaked := envelope.Data.Restaurant[hidden]; leaked {
			t.Errorf("restaurant summary leaks %q", hidden)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}

func TestPublicMenuInactive(t *testing.T) {
	e, mock := publicApp(t)
	expectMenuRow(mock, 7, 9, false)

	rec := getPublic(e, "/api/public/menus/7")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an inactive menu", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "menu not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// A menu under a deactivated restaurant is invisible too, with the same 404
// as a missing menu so nothing about the restaurant leaks.
func TestPublicMenuOfInactiveRestaurant(t *testing.T) {
	e, mock := publicApp(t)
	expectMenuRow(mock, 7, 9, true)
	expectRestaurantRow(mock, 9, false)

	rec := getPublic(e, "/api/public/menus/7")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "menu not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPublicMenuMissing(t *testing.T) {
	e, mock := publicApp(t)
	mock.ExpectQuery("SELECT m.id, m.restaurant_id").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := getPublic(e, "/api/public/menus/404")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPublicRestaurantWithActiveMenus(t *testing.T) {
	e, mock := publicApp(t)
	expectRestaurantRow(mock, 9, true)
	now := time.Now()
	mock.ExpectQuery("FROM menus m WHERE m.restaurant_id = . AND m.is_active = 1").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "restaurant_id", "name", "description", "is_active",
			"categories", "qr_code_url", "created_at", "updated_at",
		}).AddRow(7, 9, "Lunch", "", true, "", "", now, now))

	rec := getPublic(e, "/api/public/restaurants/9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"Lunch"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}

func TestPublicRestaurantInactive(t *testing.T) {
	e, mock := publicApp(t)
	expectRestaurantRow(mock, 9, false)

	rec := getPublic(e, "/api/public/restaurants/9")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "restaurant not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPublicRedirectTarget(t *testing.T) {
	e, mock := publicApp(t)
	mock.ExpectQuery("SELECT restaurant_id FROM menus").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}).AddRow(9))

	rec := getPublic(e, "/r/7")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	want := "https://qrbites.example/menus/7?restaurant=9"
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestPublicRedirectMissingMenu(t *testing.T) {
	e, mock := publicApp(t)
	mock.ExpectQuery("SELECT restaurant_id FROM menus").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}))

	rec := getPublic(e, "/r/404")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
