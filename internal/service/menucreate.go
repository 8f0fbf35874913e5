package service

import (
	"context"
	"fmt"
	"log"

	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
	"github.com/qrbites/qrbites/internal/storage"
)

// MenuCreator runs the multi-step menu creation flow.  Creating a menu
// touches the database and object storage, which cannot share a
// transaction, so each step that fails undoes the earlier ones:
//
//	step                      compensation on later failure
//	insert menu row           delete menu row (cascades images)
//	generate + upload QR      delete QR object
//	attach QR URL to menu     -
//
// The caller gets either a fully provisioned menu or an error with no
// half-created rows left behind.
type MenuCreator struct {
	menus *repository.MenuRepo
	qr    *QRCodeService
	store storage.ObjectStore
}

func NewMenuCreator(menus *repository.MenuRepo, qr *QRCodeService, store storage.ObjectStore) *MenuCreator {
	return &MenuCreator{menus: menus, qr: qr, store: store}
}

// Create inserts the menu, provisions its QR code and attaches the code's
// URL.  m is populated with the generated ID and QRCodeURL on success.
func (s *MenuCreator) Create(ctx context.Context, m *model.Menu) error {
	if err := s.menus.Create(ctx, m); err != nil {
		return err
	}

	url, key, err := s.qr.Generate(ctx, m.ID, m.RestaurantID)
	if err != nil {
		s.compensateMenu(m.ID)
		return fmt.Errorf("menu %d created but qr generation failed: %w", m.ID, err)
	}

	if err := s.menus.SetQRCodeURL(ctx, m.ID, url); err != nil {
		s.compensateObject(key)
		s.compensateMenu(m.ID)
		return fmt.Errorf("attach qr to menu %d: %w", m.ID, err)
	}

	m.QRCodeURL = url
	return nil
}

// Compensations run on a fresh context so they still execute when the
// request context is already cancelled.

func (s *MenuCreator) compensateMenu(id uint64) {
	if err := s.menus.Delete(context.Background(), id); err != nil {
		log.Printf("menu-create: compensation failed, orphan menu row %d: %v", id, err)
	}
}

func (s *MenuCreator) compensateObject(key string) {
	if err := s.store.Delete(context.Background(), key); err != nil {
		log.Printf("menu-create: compensation failed, orphan object %s: %v", key, err)
	}
}
