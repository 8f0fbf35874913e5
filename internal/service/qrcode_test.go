package service

import (
	"context"
	"strings"
	"testing"

	"github.com/qrbites/qrbites/internal/storage"
)

func TestTargetURL(t *testing.T) {
	qr := NewQRCodeService(storage.NewMemory(), "https://api.qrbites.example")

	got := qr.TargetURL(12, 3)
	want := "https://api.qrbites.example/r/12?restaurant=3"
	if got != want {
		t.Errorf("TargetURL = %q, want %q", got, want)
	}
}

func TestGenerateStoresPNG(t *testing.T) {
	store := storage.NewMemory()
	qr := NewQRCodeService(store, "https://api.qrbites.example")

	url, key, err := qr.Generate(context.Background(), 12, 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(key, "qrcodes/") || !strings.HasSuffix(key, ".png") {
		t.Errorf("key = %q, want qrcodes/<uuid>.png", key)
	}
	if url != "memory://"+key {
		t.Errorf("url = %q, want memory URL for key", url)
	}
	data, found := store.Object(key)
	if !found || len(data) == 0 {
		t.Fatal("png not stored")
	}
	// PNG magic bytes.
	if string(data[1:4]) != "PNG" {
		t.Errorf("stored object is not a PNG (header %x)", data[:4])
	}
}

func TestGeneratePropagatesUploadFailure(t *testing.T) {
	store := storage.NewMemory()
	store.FailUpload = context.DeadlineExceeded
	qr := NewQRCodeService(store, "https://api.qrbites.example")

	if _, _, err := qr.Generate(context.Background(), 12, 3); err == nil {
		t.Fatal("Generate should propagate the upload failure")
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d objects after a failed upload", store.Len())
	}
}
