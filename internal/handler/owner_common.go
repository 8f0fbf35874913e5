package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qrbites/qrbites/internal/cache"
	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/middleware"
	"github.com/qrbites/qrbites/internal/repository"
	"github.com/qrbites/qrbites/internal/service"
	"github.com/qrbites/qrbites/internal/storage"
)

// OwnerHandler bundles the dependencies of the authenticated catalog
// endpoints: restaurants, menus and menu items plus the side-effecting
// services they drive (object storage, QR generation, cache invalidation).
type OwnerHandler struct {
	Cfg         config.Config
	Restaurants *repository.RestaurantRepo
	Menus       *repository.MenuRepo
	Items       *repository.MenuItemRepo
	Store       storage.ObjectStore
	Cache       cache.Store
	QR          *service.QRCodeService
	Creator     *service.MenuCreator
}

func NewOwnerHandler(cfg config.Config, r *repository.RestaurantRepo, m *repository.MenuRepo, i *repository.MenuItemRepo, store storage.ObjectStore, cs cache.Store, qr *service.QRCodeService, creator *service.MenuCreator) *OwnerHandler {
	if r == nil || m == nil || i == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{Cfg: cfg, Restaurants: r, Menus: m, Items: i, Store: store, Cache: cs, QR: qr, Creator: creator}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get(middleware.CtxUserID)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// ownerScope returns the owner filter for list queries: nil for admins (see
// everything), the principal's id otherwise.
func ownerScope(c echo.Context) (*uint64, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	if role, _ := c.Get(middleware.CtxRole).(string); role == "admin" {
		return nil, nil
	}
	return &uid, nil
}

// pathID parses the named route parameter as an entity id.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// invalidatePublic drops every cached public response after a catalog
// mutation.  Failures only log; a stale cache entry is preferable to a
// failed write.
func (h *OwnerHandler) invalidatePublic(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	for _, prefix := range []string{"cache:/api/public", "cache:/r"} {
		if err := h.Cache.InvalidateByPrefix(ctx, prefix); err != nil {
			log.Printf("cache: invalidate %s failed: %v", prefix, err)
		}
	}
}

// uploadStaged writes one staged file to object storage under a folder and
// returns the public URL plus the object key for compensation.
func (h *OwnerHandler) uploadStaged(ctx context.Context, folder string, f middleware.UploadedFile) (url, key string, err error) {
	key = storage.ObjectKey(folder, f.Name)
	url, err = h.Store.Upload(ctx, key, f.ContentType, bytes.NewReader(f.Data))
	return url, key, err
}

// deleteObject best-effort removes an uploaded object after a failed
// follow-up write.
func (h *OwnerHandler) deleteObject(key string) {
	if err := h.Store.Delete(context.Background(), key); err != nil {
		log.Printf("storage: compensation delete %s failed: %v", key, err)
	}
}
