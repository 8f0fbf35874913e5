package handler

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/middleware"
	"github.com/qrbites/qrbites/internal/repository"
)

// UserHandler serves the user management endpoints.  Listing and deleting
// are admin operations; read and update allow self-service.
type UserHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Restaurants *repository.RestaurantRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, r *repository.RestaurantRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Restaurants: r}
}

var userListPolicy = repository.ListPolicy{
	Exact:       map[string]string{"role": "role", "isActive": "is_active", "provider": "provider"},
	Like:        map[string]string{"name": "name", "email": "email"},
	Sort:        map[string]string{"name": "name", "email": "email", "createdAt": "created_at"},
	DefaultSort: "created_at DESC",
}

type userUpdateReq struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=50"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

// List is admin-only; RequireRole guards the route.
func (h *UserHandler) List(c echo.Context) error {
	lq := userListPolicy.Build(c.QueryParams())

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, lq)
	if err != nil {
		return err
	}
	return okList(c, users, listMeta{Page: lq.Page, Limit: lq.Limit, Total: total, Pages: lq.Pages(total)})
}

// Get returns one user; callers may read themselves, admins anyone.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	if err := h.selfOrAdmin(c, id); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("user not found")
		}
		return err
	}
	return ok(c, u)
}

// Update changes the display name and/or password of a user.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	if err := h.selfOrAdmin(c, id); err != nil {
		return err
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Name == "" && req.Password == "" {
		return httperr.BadRequest("nothing to update")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Name != "" {
		if err := h.Users.UpdateProfile(ctx, id, req.Name); err != nil {
			return err
		}
	}
	if req.Password != "" {
		if err := h.Users.UpdatePassword(ctx, id, req.Password, h.Cfg.BcryptRounds); err != nil {
			return err
		}
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return ok(c, u)
}

// Delete removes a user; admin-only by routing.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Accounts that still own restaurants cannot be removed; the catalog
	// would be orphaned.
	owns, err := h.Restaurants.ExistsByOwner(ctx, id)
	if err != nil {
		return err
	}
	if owns {
		return httperr.Conflict("user still owns restaurants")
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("user not found")
		}
		return err
	}
	return noContent(c)
}

func (h *UserHandler) selfOrAdmin(c echo.Context, id uint64) error {
	uid, err := getUserID(c)
	if err != nil {
		return httperr.Unauthorized("unauthorized")
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	if uid != id && role != "admin" {
		return httperr.Forbidden("forbidden")
	}
	return nil
}
