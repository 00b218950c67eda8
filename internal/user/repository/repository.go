package repository

import (
	"context"
	"errors"

	"streamline/backend/internal/user/domain"
)

var (
	// ErrNotFound is returned by mutations when no user has the given id.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned by Create when the username or email is taken.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrRefreshTokenMismatch is returned by SwapRefreshToken when the stored
	// refresh token is no longer the one the caller read.
	ErrRefreshTokenMismatch = errors.New("stored refresh token changed")
)

// Repository is the credential store. Lookups return (nil, nil) when no row
// matches; errors are reserved for store failures. The refresh-token and
// password-hash setters are the only mutation paths the auth core uses.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByLoginKey matches key against username or email (both stored lowercase).
	GetByLoginKey(ctx context.Context, key string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetRefreshToken stores hash as the only valid refresh token; "" logs the user out.
	SetRefreshToken(ctx context.Context, id, hash string) error
	// SwapRefreshToken replaces oldHash with newHash atomically. Two callers
	// presenting the same oldHash cannot both succeed.
	SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	// UpdateAccount sets the profile fields and returns the updated user.
	UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error)
}
