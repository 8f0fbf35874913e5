package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
)

// PublicHandler serves the unauthenticated read side: what a guest sees
// after scanning a QR code.  Inactive entities are invisible here and
// resolve to 404.
type PublicHandler struct {
	Cfg         config.Config
	Restaurants *repository.RestaurantRepo
	Menus       *repository.MenuRepo
	Items       *repository.MenuItemRepo
}

func NewPublicHandler(cfg config.Config, r *repository.RestaurantRepo, m *repository.MenuRepo, i *repository.MenuItemRepo) *PublicHandler {
	return &PublicHandler{Cfg: cfg, Restaurants: r, Menus: m, Items: i}
}

// restaurantSummary is the slice of restaurant data exposed publicly.
type restaurantSummary struct {
	ID      uint64              `json:"id"`
	Name    string              `json:"name"`
	City    string              `json:"city"`
	Street  string              `json:"street"`
	LogoURL string              `json:"logoUrl,omitempty"`
	Hours   []model.OpeningHour `json:"hours"`
}

func summarize(r *model.Restaurant) restaurantSummary {
	return restaurantSummary{
		ID:      r.ID,
		Name:    r.Name,
		City:    r.City,
		Street:  r.Street,
		LogoURL: r.LogoURL,
		Hours:   r.Hours,
	}
}

// Menu returns an active menu with its available items and the owning
// restaurant's summary.
func (h *PublicHandler) Menu(c echo.Context) error {
	id, err := pathID(c, "menuId")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Menus.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("menu not found")
		}
		return err
	}
	if !m.IsActive {
		return httperr.NotFound("menu not found")
	}
	rest, err := h.Restaurants.GetByID(ctx, m.RestaurantID)
	if err != nil {
		return err
	}
	if !rest.IsActive {
		return httperr.NotFound("menu not found")
	}
	items, err := h.Items.ListAvailableByMenu(ctx, id)
	if err != nil {
		return err
	}
	m.Items = items

	return ok(c, echo.Map{"menu": m, "restaurant": summarize(rest)})
}

// Restaurant returns an active restaurant and its active menus.
func (h *PublicHandler) Restaurant(c echo.Context) error {
	id, err := pathID(c, "restaurantId")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("restaurant not found")
		}
		return err
	}
	if !rest.IsActive {
		return httperr.NotFound("restaurant not found")
	}
	menus, err := h.Menus.ListActiveByRestaurant(ctx, id)
	if err != nil {
		return err
	}

	return ok(c, echo.Map{"restaurant": summarize(rest), "menus": menus})
}

// Redirect resolves a scanned QR code to the frontend menu page.  The
// target survives frontend moves because printed codes point here.
func (h *PublicHandler) Redirect(c echo.Context) error {
	id, err := pathID(c, "menuId")
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	restaurantID, err := h.Menus.RestaurantOf(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.NotFound("menu not found")
		}
		return err
	}
	target := fmt.Sprintf("%s/menus/%d?restaurant=%d", h.Cfg.FrontendURL, id, restaurantID)
	return c.Redirect(http.StatusFound, target)
}
