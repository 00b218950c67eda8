package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Parse failures. Callers tell ErrTokenExpired apart from the others because it
// means the client should refresh rather than log in again.
var (
	// ErrTokenMalformed is returned when the token structure or claims cannot be read.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenBadSignature is returned when the structure is valid but the signature is not.
	ErrTokenBadSignature = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the signature is valid but the expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the JWT body shared by access and refresh tokens. UserID is kept
// under "id" for compatibility with existing clients; jti makes every issued
// token unique even within the same second.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// TokenCodec signs and verifies HS256 tokens with a single secret.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenCodec returns a codec that signs with secret and stamps issuer on every token.
func NewTokenCodec(secret []byte, issuer string) *TokenCodec {
	return &TokenCodec{secret: secret, issuer: issuer, now: time.Now}
}

// Issue signs a token for identityID that expires ttl after now.
func (c *TokenCodec) Issue(identityID string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if identityID == "" {
		return "", time.Time{}, ErrTokenMalformed
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := c.now().UTC()
	expiresAt = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   identityID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: identityID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse verifies the signature, expiry and issuer of token and returns the
// embedded identity id. The signature is checked before any claim, so
// ErrTokenExpired implies the token was signed with this codec's secret.
func (c *TokenCodec) Parse(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", classifyParseError(err)
	}
	if !token.Valid {
		return "", ErrTokenMalformed
	}
	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return "", ErrTokenMalformed
	}
	return id, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}

// TokenProvider issues and parses access and refresh tokens. The two kinds are
// signed with independent secrets so one can never be accepted as the other.
type TokenProvider struct {
	access     *TokenCodec
	refresh    *TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider. accessSecret and refreshSecret must differ.
func NewTokenProvider(accessSecret, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		access:     NewTokenCodec(accessSecret, issuer),
		refresh:    NewTokenCodec(refreshSecret, issuer),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access token for userID.
func (p *TokenProvider) IssueAccess(userID string) (string, time.Time, error) {
	return p.access.Issue(userID, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh token for userID.
func (p *TokenProvider) IssueRefresh(userID string) (string, time.Time, error) {
	return p.refresh.Issue(userID, p.refreshTTL)
}

// ParseAccess validates an access token and returns its user id.
func (p *TokenProvider) ParseAccess(token string) (string, error) {
	return p.access.Parse(token)
}

// ParseRefresh validates a refresh token and returns its user id.
func (p *TokenProvider) ParseRefresh(token string) (string, error) {
	return p.refresh.Parse(token)
}

// AccessTTL returns the access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
