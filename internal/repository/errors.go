// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import (
	"context"
	"errors"
)

// OwnerResolver maps a resource ID to the user ID that owns it.  Each
// repository that backs an owner-scoped route implements it, so a single
// guard can protect restaurants, menus and menu items alike.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, id uint64) (uint64, error)
}

// ErrNotFound is returned when a looked-up row does not exist.  The
// ownership guard translates it into an HTTP 404 before any ownership
// comparison happens, so missing resources never leak as 403s.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned on registration with an email that is
// already taken. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")
