// Package user holds the engine's view of the user directory, which is
// owned by the account feature.
package user

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// Identity is the audit identity of a user.
type Identity struct {
	ID    uint
	Email string
	Name  string
}

// Directory resolves user ids.
type Directory interface {
	Exists(ctx context.Context, userID uint) (bool, error)
	// GetIdentity returns (nil, nil) for unknown users.
	GetIdentity(ctx context.Context, userID uint) (*Identity, error)
	// LockForUpdate takes a row lock on the user inside the caller's
	// transaction, serialising subscription writes per user. It returns
	// ErrUserNotFound for unknown users.
	LockForUpdate(ctx context.Context, userID uint) error
}
