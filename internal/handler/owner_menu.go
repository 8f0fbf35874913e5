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

var menuListPolicy = repository.ListPolicy{
	Exact:       map[string]string{"restaurantId": "m.restaurant_id", "isActive": "m.is_active"},
	Like:        map[string]string{"name": "m.name"},
	Sort:        map[string]string{"name": "m.name", "createdAt": "m.created_at"},
	DefaultSort: "m.created_at DESC",
}

// menuReq carries both JSON and multipart form bindings; menu creation is
// multipart so images can ride along.
type menuReq struct {
	RestaurantID uint64   `json:"restaurantId" form:"restaurantId" validate:"required"`
	Name         string   `json:"name" form:"name" validate:"required,min=3,max=50"`
	Description  string   `json:"description" form:"description" validate:"omitempty,max=500"`
	IsActive     *bool    `json:"isActive" form:"isActive"`
	Categories   []string `json:"categories" form:"categories" validate:"omitempty,dive,min=1,max=30"`
}

type menuUpdateReq struct {
	Name        string   `json:"name" form:"name" validate:"required,min=3,max=50"`
	Description string   `json:"description" form:"description" validate:"omitempty,max=500"`
	IsActive    *bool    `json:"isActive" form:"isActive"`
	Categories  []string `json:"categories" form:"categories" validate:"omitempty,dive,min=1,max=30"`
}

// ListMenus returns menus of the principal's restaurants (admins see all).
func (h *OwnerHandler) ListMenus(c echo.Context) error {
	scope, err := ownerScope(c)
	if err != nil {
		return httperr.Unauthorized("unauthorized")
	}
	lq := menuListPolicy.Build(c.QueryParams())

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Menus.List(ctx, scope, lq)
	if err != nil {
		return err
	}
	return okList(c, rows, listMeta{Page: lq.Page, Limit: lq.Limit, Total: total, Pages: lq.Pages(total)})
}

// CreateMenu runs the full provisioning sequence: upload any staged images,
// insert the menu with them, generate the QR code and attach it.  The
// MenuCreator rolls the database back when the QR steps fail; image objects
// uploaded here are deleted on any failure after the upload.
func (h *OwnerHandler) CreateMenu(c echo.Context) error {
	var req menuReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	// The restaurant id arrives in the body, not the path, so the guard
	// runs here instead of in route middleware.
	if err := middleware.AuthorizeOwner(c, h.Restaurants, req.RestaurantID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	var urls []string
	var keys []string
	for _, f := range middleware.UploadedFiles(c) {
		url, key, err := h.uploadStaged(ctx, "menus", f)
		if err != nil {
			for _, k := range keys {
				h.deleteObject(k)
			}
			return err
		}
		urls = append(urls, url)
		keys = append(keys, key)
	}

	m := model.Menu{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     true,
		Categories:   req.Categories,
		ImageURLs:    urls,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if m.Categories == nil {
		m.Categories = []string{}
	}
	if m.ImageURLs == nil {
		m.ImageURLs = []string{}
	}
	m.Items = []model.MenuItem{}

	if err := h.Creator.Create(ctx, &m); err != nil {
		for _, k := range keys {
			h.deleteObject(k)
		}
		return err
	}

	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu", queue.ActionCreated, m.ID, m.RestaurantID, uid, m.Name)
	return created(c, m)
}

// GetMenu returns a menu with its items loaded.
func (h *OwnerHandler) GetMenu(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Menus.GetWithItems(ctx, id)
	if err != nil {
		return err
	}
	return ok(c, m)
}

// UpdateMenu replaces the mutable fields; images and QR code have their own
// endpoints.
func (h *OwnerHandler) UpdateMenu(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	var req menuUpdateReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := model.Menu{ID: id, Name: req.Name, Description: req.Description, IsActive: true, Categories: req.Categories}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := h.Menus.Update(ctx, &m); err != nil {
		return err
	}
	updated, err := h.Menus.GetWithItems(ctx, id)
	if err != nil {
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu", queue.ActionUpdated, id, updated.RestaurantID, uid, updated.Name)
	return ok(c, updated)
}

// AddMenuImages appends staged images to the menu's gallery.
func (h *OwnerHandler) AddMenuImages(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	files := middleware.UploadedFiles(c)
	if len(files) == 0 {
		return httperr.BadRequest("image file required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	var urls, keys []string
	for _, f := range files {
		url, key, err := h.uploadStaged(ctx, "menus", f)
		if err != nil {
			for _, k := range keys {
				h.deleteObject(k)
			}
			return err
		}
		urls = append(urls, url)
		keys = append(keys, key)
	}
	if err := h.Menus.AddImages(ctx, id, urls); err != nil {
		for _, k := range keys {
			h.deleteObject(k)
		}
		return err
	}

	m, err := h.Menus.GetByID(ctx, id)
	if err != nil {
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu", queue.ActionUpdated, id, m.RestaurantID, uid, m.Name)
	return ok(c, m)
}

// RegenerateQRCode renders a fresh QR image and overwrites the stored URL.
// Concurrent regenerations race benignly; the last write wins.
func (h *OwnerHandler) RegenerateQRCode(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	restaurantID, err := h.Menus.RestaurantOf(ctx, id)
	if err != nil {
		return err
	}
	url, key, err := h.QR.Generate(ctx, id, restaurantID)
	if err != nil {
		return err
	}
	if err := h.Menus.SetQRCodeURL(ctx, id, url); err != nil {
		h.deleteObject(key)
		return err
	}
	h.invalidatePublic(ctx)
	return ok(c, echo.Map{"qrCodeUrl": url})
}

// DeleteMenu cascades over items and images in one transaction.
func (h *OwnerHandler) DeleteMenu(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	restaurantID, _ := h.Menus.RestaurantOf(ctx, id)
	if err := h.Menus.Delete(ctx, id); err != nil {
		return err
	}
	uid, _ := getUserID(c)
	h.invalidatePublic(ctx)
	queue.EmitCatalogEvent("menu", queue.ActionDeleted, id, restaurantID, uid, "")
	return noContent(c)
}
