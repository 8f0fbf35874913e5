package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/middleware"
	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/queue"
	"github.com/qrbites/qrbites/internal/repository"
)

// restaurantListPolicy declares the accepted filters for GET /restaurants.
var restaurantListPolicy = repository.ListPolicy{
	Exact:       map[string]string{"city": "r.city", "isActive": "r.is_active"},
	Like:        map[string]string{"name": "r.name"},
	Sort:        map[string]string{"name": "r.name", "city": "r.city", "createdAt": "r.created_at"},
	DefaultSort: "r.created_at DESC",
}

type hourReq struct {
	Day    int    `json:"day" validate:"min=0,max=6"`
	Closed bool   `json:"closed"`
	Opens  string `json:"opens" validate:"omitempty,hhmm"`
	Closes string `json:"closes" validate:"omitempty,hhmm"`
}

type restaurantReq struct {
	Name        string    `json:"name" validate:"required,min=3,max=50"`
	Phone       string    `json:"phone" validate:"omitempty,e164"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Website     string    `json:"website" validate:"omitempty,url"`
	Street      string    `json:"street" validate:"required,max=100"`
	HouseNumber string    `json:"houseNumber" validate:"required,max=10"`
	City        string    `json:"city" validate:"required,max=50"`
	Zip         string    `json:"zip" validate:"required,len=5,numeric"`
	IsActive    *bool     `json:"isActive"`
	Hours       []hourReq `json:"hours" validate:"required,len=7,dive"`
}

// hours must arrive as exactly one entry per day 0 through 6; open days
// need both times.
func checkHours(hours []hourReq) error {
	seen := [7]bool{}
	for _, h := range hours {
		if h.Day < 0 || h.Day > 6 || seen[h.Day] {
			return httperr.Validation("invalid opening hours", "hours must contain each day 0-6 exactly once")
		}
		seen[h.Day] = true
		if !h.Closed && (h.Opens == "" || h.Closes == "") {
			return httperr.Validation("invalid opening hours", "open days need opens and closes times")
		}
	}
	return nil
}

func (r restaurantReq) toModel() model.Restaurant {
	hours := make([]model.OpeningHour, 0, len(r.Hours))
	for _, h := range r.Hours {
		oh := model.OpeningHour{Day: h.Day, Closed: h.Closed}
		if !h.Closed {
			oh.Opens, oh.Closes = h.Opens, h.Closes
		}
		hours = append(hours, oh)
	}
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return model.Restaurant{
		Name:        r.Name,
		Phone:       r.Phone,
		Email:       r.Email,
		Website:     r.Website,
		Street:      r.Street,
		HouseNumber: r.HouseNumber,
		City:        r.City,
		Zip:         r.Zip,
		IsActive:    active,
		Hours:       hours,
	}
}

// ListRestaurants returns the principal's restaurants, or all of them for
// admins, paginated.
func (h *OwnerHandler) ListRestaurants(c echo.Context) error {
	scope, err := ownerScope(c)
	if err != nil {
		return httperr.Unauthorized("unauthorized")
	}
	lq := restaurantListPolicy.Build(c.QueryParams())

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Restaurants.List(ctx, scope, lq)
	if err != nil {
		return err
	}
	return okList(c, rows, listMeta{Page: lq.Page, Limit: lq.Limit, Total: total, Pages: lq.Pages(total)})
}

// CreateRestaurant validates the payload and inserts the restaurant with its
// seven-row hours table in one transaction.
func (h *OwnerHandler) CreateRestaurant(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := checkHours(req.Hours); err != nil {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return httperr.Unauthorized("unauthorized")
	}

	rest := req.toModel()
	rest.OwnerID = uid

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Restaurants.Create(ctx, &rest); err != nil {
		return err
	}
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("restaurant", queue.ActionCreated, rest.ID, rest.ID, uid, rest.Name)
	return created(c, rest)
}

// GetRestaurant returns one restaurant; the ownership middleware has
// already confirmed existence and access.
func (h *OwnerHandler) GetRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return ok(c, rest)
}

// UpdateRestaurant replaces the mutable fields and the full hours table.
func (h *OwnerHandler) UpdateRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := checkHours(req.Hours); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest := req.toModel()
	rest.ID = id
	if err := h.Restaurants.Update(ctx, &rest); err != nil {
		return err
	}
	updated, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("restaurant", queue.ActionUpdated, id, id, uid, updated.Name)
	return ok(c, updated)
}

// UploadLogo stores a single staged image under logos/ and persists its URL.
// When the database update fails the uploaded object is deleted again.
func (h *OwnerHandler) UploadLogo(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	files := middleware.UploadedFiles(c)
	if len(files) == 0 {
		return httperr.BadRequest("logo file required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	url, key, err := h.uploadStaged(ctx, "logos", files[0])
	if err != nil {
		return err
	}
	if err := h.Restaurants.UpdateLogo(ctx, id, url); err != nil {
		h.deleteObject(key)
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("restaurant", queue.ActionUpdated, id, id, uid, "")
	return ok(c, echo.Map{"logoUrl": url})
}

// DeleteRestaurant cascades over menus, menu images and menu items in a
// single transaction.
func (h *OwnerHandler) DeleteRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Restaurants.Delete(ctx, id); err != nil {
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("restaurant", queue.ActionDeleted, id, id, uid, "")
	return noContent(c)
}
