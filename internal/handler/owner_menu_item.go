package handler

import (
	"context"
	"math"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/middleware"
	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/queue"
	"github.com/qrbites/qrbites/internal/repository"
)

var menuItemListPolicy = repository.ListPolicy{
	Exact:       map[string]string{"menuId": "mi.menu_id", "isAvailable": "mi.is_available"},
	Like:        map[string]string{"name": "mi.name", "category": "mi.category"},
	Sort:        map[string]string{"name": "mi.name", "price": "mi.price_cents", "createdAt": "mi.created_at"},
	DefaultSort: "mi.created_at DESC",
}

type menuItemReq struct {
	MenuID      uint64   `json:"menuId" form:"menuId" validate:"required"`
	Name        string   `json:"name" form:"name" validate:"required,min=3,max=50"`
	Description string   `json:"description" form:"description" validate:"omitempty,max=500"`
	Price       float64  `json:"price" form:"price" validate:"min=0"`
	Category    string   `json:"category" form:"category" validate:"omitempty,max=50"`
	Calories    int      `json:"calories" form:"calories" validate:"omitempty,min=0"`
	Allergens   []string `json:"allergens" form:"allergens" validate:"omitempty,dive,min=1,max=30"`
	Tags        []string `json:"tags" form:"tags" validate:"omitempty,dive,min=1,max=30"`
	IsAvailable *bool    `json:"isAvailable" form:"isAvailable"`
}

func (r menuItemReq) toModel() model.MenuItem {
	item := model.MenuItem{
		MenuID:      r.MenuID,
		Name:        r.Name,
		Description: r.Description,
		PriceCents:  int64(math.Round(r.Price * 100)),
		Category:    r.Category,
		Calories:    r.Calories,
		Allergens:   r.Allergens,
		Tags:        r.Tags,
		IsAvailable: true,
	}
	if r.IsAvailable != nil {
		item.IsAvailable = *r.IsAvailable
	}
	if item.Allergens == nil {
		item.Allergens = []string{}
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.SyncPrice()
	return item
}

// ListMenuItems returns items of the principal's menus (admins see all).
func (h *OwnerHandler) ListMenuItems(c echo.Context) error {
	scope, err := ownerScope(c)
	if err != nil {
		return httperr.Unauthorized("unauthorized")
	}
	lq := menuItemListPolicy.Build(c.QueryParams())

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Items.List(ctx, scope, lq)
	if err != nil {
		return err
	}
	return okList(c, rows, listMeta{Page: lq.Page, Limit: lq.Limit, Total: total, Pages: lq.Pages(total)})
}

// CreateMenuItem guards the body's menuId through the menu's ownership
// chain, then inserts the item.
func (h *OwnerHandler) CreateMenuItem(c echo.Context) error {
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := middleware.AuthorizeOwner(c, h.Menus, req.MenuID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item := req.toModel()
	if err := h.Items.Create(ctx, &item); err != nil {
		return err
	}
	uid, _ := getUserID(c)
	restaurantID, _ := h.Menus.RestaurantOf(ctx, item.MenuID)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu_item", queue.ActionCreated, item.ID, restaurantID, uid, item.Name)
	return created(c, item)
}

// GetMenuItem returns one item.
func (h *OwnerHandler) GetMenuItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return ok(c, item)
}

// UpdateMenuItem replaces the mutable fields.  The item cannot move between
// menus; the stored menu id stays authoritative.
func (h *OwnerHandler) UpdateMenuItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	// menuId is optional on update; zero it out of validation by reusing
	// the stored value.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	req.MenuID = existing.MenuID
	if err := c.Validate(&req); err != nil {
		return err
	}

	item := req.toModel()
	item.ID = id
	item.ImageURL = existing.ImageURL
	if err := h.Items.Update(ctx, &item); err != nil {
		return err
	}
	uid, _ := getUserID(c)
	restaurantID, _ := h.Menus.RestaurantOf(ctx, item.MenuID)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu_item", queue.ActionUpdated, id, restaurantID, uid, item.Name)
	return ok(c, item)
}

// UploadMenuItemImage stores one staged image under items/ and persists its
// URL, deleting the object again when the database write fails.
func (h *OwnerHandler) UploadMenuItemImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	files := middleware.UploadedFiles(c)
	if len(files) == 0 {
		return httperr.BadRequest("image file required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	url, key, err := h.uploadStaged(ctx, "items", files[0])
	if err != nil {
		return err
	}
	if err := h.Items.SetImageURL(ctx, id, url); err != nil {
		h.deleteObject(key)
		return err
	}
	h.invalidatePublic(ctx)
	return ok(c, echo.Map{"imageUrl": url})
}

// DeleteMenuItem removes one item.
func (h *OwnerHandler) DeleteMenuItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Resolve the restaurant before the row disappears so the event carries it.
	var restaurantID uint64
	if existing, err := h.Items.GetByID(ctx, id); err == nil {
		restaurantID, _ = h.Menus.RestaurantOf(ctx, existing.MenuID)
	}
	if err := h.Items.Delete(ctx, id); err != nil {
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu_item", queue.ActionDeleted, id, restaurantID, uid, "")
	return noContent(c)
}
