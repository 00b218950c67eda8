package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"streamline/backend/internal/platform/apperr"
	"streamline/backend/internal/platform/respond"
	"streamline/backend/internal/security"
	"streamline/backend/internal/telemetry"
	userdomain "streamline/backend/internal/user/domain"
)

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

const bearerPrefix = "bearer "

var (
	ErrUnauthorizedAccess = apperr.New(apperr.KindUnauthorized, "unauthorized access - please login")
	ErrAccessTokenExpired = apperr.New(apperr.KindUnauthorized, "access token has expired")
	ErrInvalidAccessToken = apperr.New(apperr.KindUnauthorized, "invalid access token")
	// ErrUserNotFound is returned when the token is valid but its user is gone.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "invalid access token - user not found")
)

// UserLookup loads a user by id; (nil, nil) means no such user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Authenticator resolves access tokens to users.
type Authenticator struct {
	tokens  *security.TokenProvider
	users   UserLookup
	metrics telemetry.AuthRecorder
}

// NewAuthenticator returns an Authenticator. metrics may be nil.
func NewAuthenticator(tokens *security.TokenProvider, users UserLookup, metrics telemetry.AuthRecorder) *Authenticator {
	if metrics == nil {
		metrics = telemetry.NopRecorder{}
	}
	return &Authenticator{tokens: tokens, users: users, metrics: metrics}
}

// Authenticate verifies token with the access secret and loads its user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*userdomain.PublicUser, error) {
	u, err := a.authenticate(ctx, token)
	outcome := telemetry.OutcomeSuccess
	if err != nil {
		outcome = telemetry.OutcomeFailure
	}
	a.metrics.Record(ctx, telemetry.EventAuthenticate, outcome)
	return u, err
}

func (a *Authenticator) authenticate(ctx context.Context, token string) (*userdomain.PublicUser, error) {
	if token == "" {
		return nil, ErrUnauthorizedAccess
	}
	userID, err := a.tokens.ParseAccess(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, ErrInvalidAccessToken
	}
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	pub := user.Public()
	return &pub, nil
}

// RequireAuth rejects requests without a valid access token and attaches the
// caller to the request context otherwise.
func RequireAuth(a *Authenticator, writeErr respond.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Authenticate(r.Context(), ExtractAccessToken(r))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// ExtractAccessToken returns the access token from the accessToken cookie or,
// when the cookie is absent or empty, from an "Authorization: Bearer" header.
// Returns "" if neither carries one.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
