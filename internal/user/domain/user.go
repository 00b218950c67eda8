package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the identity record. PasswordHash and RefreshTokenHash never leave
// the service layer; handlers only see PublicUser.
type User struct {
	ID         string
	Username   string
	Email      string
	FullName   string
	Avatar     string
	CoverImage string
	// PasswordHash is the bcrypt hash of the password; replaced wholesale on change.
	PasswordHash string
	// RefreshTokenHash is the SHA-256 digest of the single valid refresh token, or "" when logged out.
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicUser is the view of a User returned to clients.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public returns the client view of u, without credentials.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// IsEmailKey reports whether a login key names an email rather than a
// username. Usernames never contain "@".
func IsEmailKey(key string) bool { return strings.Contains(key, "@") }

// LoggedIn reports whether the user currently holds a refresh token.
func (u *User) LoggedIn() bool { return u.RefreshTokenHash != "" }

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if IsEmailKey(u.Username) {
		return errors.New("username must not contain @")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
