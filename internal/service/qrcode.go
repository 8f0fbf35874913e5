// Package service holds business flows that span repositories, object
// storage and the event queue.
package service

import (
	"bytes"
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/qrbites/qrbites/internal/storage"
)

// qrSize is the pixel width of generated QR images.
const qrSize = 512

// QRCodeService renders scan targets for menus and stores the PNGs.
type QRCodeService struct {
	store  storage.ObjectStore
	apiURL string
}

func NewQRCodeService(store storage.ObjectStore, apiURL string) *QRCodeService {
	return &QRCodeService{store: store, apiURL: apiURL}
}

// TargetURL is the address encoded in a menu's QR code.  It points at the
// API redirect endpoint rather than the frontend directly, so the frontend
// can be moved without reprinting codes.
func (s *QRCodeService) TargetURL(menuID, restaurantID uint64) string {
	return fmt.Sprintf("%s/r/%d?restaurant=%d", s.apiURL, menuID, restaurantID)
}

// Generate encodes the menu's target URL as a PNG and uploads it.  It
// returns the public URL and the object key; callers keep the key so a
// failed follow-up step can delete the object again.
func (s *QRCodeService) Generate(ctx context.Context, menuID, restaurantID uint64) (url, key string, err error) {
	png, err := qrcode.Encode(s.TargetURL(menuID, restaurantID), qrcode.Medium, qrSize)
	if err != nil {
		return "", "", fmt.Errorf("encode qr for menu %d: %w", menuID, err)
	}
	key = storage.ObjectKey("qrcodes", fmt.Sprintf("menu-%d.png", menuID))
	url, err = s.store.Upload(ctx, key, "image/png", bytes.NewReader(png))
	if err != nil {
		return "", "", fmt.Errorf("upload qr for menu %d: %w", menuID, err)
	}
	return url, key, nil
}
