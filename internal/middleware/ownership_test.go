package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
)

// ownerTable resolves ownership from a fixed map; missing ids are not found.
type ownerTable map[uint64]uint64

func (t ownerTable) OwnerOf(_ context.Context, id uint64) (uint64, error) {
	owner, ok := t[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return owner, nil
}

func ownershipEcho(table ownerTable, uid uint64, role string) *echo.Echo {
	e := echo.New()
	inject := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(CtxUserID, uid)
			c.Set(CtxRole, role)
			return next(c)
		}
	}
	e.GET("/restaurants/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, inject, RequireOwnership(table, "id"))
	return e
}

func getResource(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRequireOwnershipAllowsOwner(t *testing.T) {
	e := ownershipEcho(ownerTable{10: 1}, 1, model.RoleUser)
	if rec := getResource(e, "/restaurants/10"); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestRequireOwnershipForbidsNonOwner(t *testing.T) {
	e := ownershipEcho(ownerTable{10: 2}, 1, model.RoleUser)
	rec := getResource(e, "/restaurants/10")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "you do not own this resource") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// A missing resource must answer 404 even for a non-owner so callers cannot
// probe which ids exist.
func TestRequireOwnershipNotFoundBeforeForbidden(t *testing.T) {
	e := ownershipEcho(ownerTable{}, 1, model.RoleUser)
	rec := getResource(e, "/restaurants/10")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "resource not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequireOwnershipAdminBypass(t *testing.T) {
	e := ownershipEcho(ownerTable{10: 2}, 1, model.RoleAdmin)
	if rec := getResource(e, "/restaurants/10"); rec.Code != http.StatusNoContent {
		t.Errorf("admin on foreign resource: status = %d, want 204", rec.Code)
	}

	// Admins still get 404 for resources that do not exist.
	e = ownershipEcho(ownerTable{}, 1, model.RoleAdmin)
	if rec := getResource(e, "/restaurants/10"); rec.Code != http.StatusNotFound {
		t.Errorf("admin on missing resource: status = %d, want 404", rec.Code)
	}
}

func TestRequireOwnershipInvalidID(t *testing.T) {
	e := ownershipEcho(ownerTable{10: 1}, 1, model.RoleUser)
	for _, path := range []string{"/restaurants/abc", "/restaurants/0", "/restaurants/-4"} {
		rec := getResource(e, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}
