package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"streamline/backend/internal/platform/apperr"
	"streamline/backend/internal/security"
	"streamline/backend/internal/telemetry"
	userdomain "streamline/backend/internal/user/domain"
	userrepo "streamline/backend/internal/user/repository"
)

// Typed failures returned by AuthService; the HTTP layer maps Kind to a status.
var (
	ErrInvalidCredentials     = apperr.New(apperr.KindUnauthorized, "invalid credentials")
	ErrRefreshTokenMissing    = apperr.New(apperr.KindUnauthorized, "unauthorized request - refresh token missing")
	ErrRefreshTokenExpired    = apperr.New(apperr.KindUnauthorized, "refresh token has expired")
	ErrInvalidRefreshToken    = apperr.New(apperr.KindUnauthorized, "invalid refresh token")
	ErrRefreshTokenReuse      = apperr.New(apperr.KindUnauthorized, "refresh token is expired or already used")
	ErrOldPasswordIncorrect   = apperr.New(apperr.KindUnauthorized, "old password is incorrect")
	ErrPasswordFieldsRequired = apperr.New(apperr.KindValidation, "old password and new password are required")
	ErrAllFieldsRequired      = apperr.New(apperr.KindValidation, "all fields are required")
	ErrInvalidEmail           = apperr.New(apperr.KindValidation, "invalid email address")
	ErrWeakPassword           = apperr.New(apperr.KindValidation, "password is not strong enough. It should contain at least 8 characters with lowercase, uppercase, number and symbol")
	ErrPasswordTooLong        = apperr.New(apperr.KindValidation, "password must be at most 72 bytes")
	ErrInvalidUsername        = apperr.New(apperr.KindValidation, "username must not contain @")
	ErrUserNotFound           = apperr.New(apperr.KindNotFound, "user not found")
	ErrUserAlreadyExists      = apperr.New(apperr.KindConflict, "user already exists with this username or email")
)

const (
	minPasswordLen = 8
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthResult is returned by Login and Refresh: the new token pair and the caller's public profile.
type AuthResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             userdomain.PublicUser
}

// UserRepo is the credential store needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByLoginKey(ctx context.Context, key string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetRefreshToken(ctx context.Context, id, hash string) error
	SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*userdomain.User, error)
}

// AuthService is the session manager: it issues, rotates and revokes the
// single refresh token each user may hold, and owns password changes.
type AuthService struct {
	users   UserRepo
	hasher  *security.Hasher
	tokens  *security.TokenProvider
	log     *slog.Logger
	metrics telemetry.AuthRecorder
	tracer  trace.Tracer
	now     func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. log and
// metrics may be nil.
func NewAuthService(
	users UserRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	log *slog.Logger,
	metrics telemetry.AuthRecorder,
) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NopRecorder{}
	}
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("streamline/backend/identity"),
		now:     time.Now,
	}
}

// Register creates a user with a hashed password. Profile images are not
// handled here; Avatar and CoverImage stay empty until set elsewhere.
func (s *AuthService) Register(ctx context.Context, username, email, password, fullName string) (_ *userdomain.PublicUser, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer func() { s.finish(ctx, span, telemetry.EventRegister, err) }()

	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if username == "" || email == "" || strings.TrimSpace(password) == "" || fullName == "" {
		return nil, ErrAllFieldsRequired
	}
	if userdomain.IsEmailKey(username) {
		return nil, ErrInvalidUsername
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := s.now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, apperr.Internal(err)
	}
	pub := user.Public()
	return &pub, nil
}

// Login verifies loginKey (username or email) and password and starts a new
// session, replacing any refresh token the user already held. Every failure
// other than a store error is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, loginKey, password string) (_ *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer func() { s.finish(ctx, span, telemetry.EventLogin, err) }()

	loginKey = strings.ToLower(strings.TrimSpace(loginKey))
	if loginKey == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByLoginKey(ctx, loginKey)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		s.hasher.CompareDummy([]byte(password))
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, []byte(password)) {
		return nil, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	res, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, security.HashRefreshToken(res.RefreshToken)); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}
	s.log.InfoContext(ctx, "auth.login.succeeded", "user_id", user.ID)
	return res, nil
}

// Refresh exchanges the presented refresh token for a new pair. The presented
// token must be the one on record; once rotated it can never be used again.
func (s *AuthService) Refresh(ctx context.Context, presented string) (_ *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Refresh")
	defer func() { s.finish(ctx, span, telemetry.EventRefresh, err) }()

	if presented == "" {
		return nil, ErrRefreshTokenMissing
	}
	userID, err := s.tokens.ParseRefresh(presented)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	if !security.RefreshTokenHashEqual(presented, user.RefreshTokenHash) {
		s.reuseDetected(ctx, userID, user.LoggedIn())
		return nil, ErrRefreshTokenReuse
	}

	res, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	err = s.users.SwapRefreshToken(ctx, userID, user.RefreshTokenHash, security.HashRefreshToken(res.RefreshToken))
	switch {
	case err == nil:
	case errors.Is(err, userrepo.ErrRefreshTokenMismatch):
		// Another refresh, login or logout won the race for this token.
		s.reuseDetected(ctx, userID, true)
		return nil, ErrRefreshTokenReuse
	case errors.Is(err, userrepo.ErrNotFound):
		return nil, ErrInvalidRefreshToken
	default:
		return nil, apperr.Internal(err)
	}
	return res, nil
}

// Logout clears the stored refresh token. Logging out twice, or logging out a
// user that no longer exists, is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Logout", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { s.finish(ctx, span, telemetry.EventLogout, err) }()

	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, userrepo.ErrNotFound) {
		return apperr.Internal(err)
	}
	return nil
}

// ChangePassword replaces the password hash after verifying oldPassword. The
// stored refresh token is left as is, so existing sessions stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ChangePassword", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { s.finish(ctx, span, telemetry.EventChangePassword, err) }()

	if oldPassword == "" || newPassword == "" {
		return ErrPasswordFieldsRequired
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !s.hasher.Verify(user.PasswordHash, []byte(oldPassword)) {
		return ErrOldPasswordIncorrect
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.SetPasswordHash(ctx, userID, hashed); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Internal(err)
	}
	return nil
}

// CurrentUser returns the public profile of userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*userdomain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	pub := user.Public()
	return &pub, nil
}

// UpdateAccount changes the full name and email of userID.
func (s *AuthService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*userdomain.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, ErrAllFieldsRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	user, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, userrepo.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, userrepo.ErrAlreadyExists):
			return nil, ErrUserAlreadyExists
		}
		return nil, apperr.Internal(err)
	}
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) issuePair(user *userdomain.User) (*AuthResult, error) {
	access, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             user.Public(),
	}, nil
}

// reuseDetected records a superseded or forged refresh token. The token itself
// is never logged.
func (s *AuthService) reuseDetected(ctx context.Context, userID string, sessionActive bool) {
	s.metrics.Record(ctx, telemetry.EventRefresh, telemetry.OutcomeReuse)
	s.log.WarnContext(ctx, "auth.refresh.reuse_detected", "user_id", userID, "session_active", sessionActive)
}

func (s *AuthService) finish(ctx context.Context, span trace.Span, event string, err error) {
	defer span.End()
	if err == nil {
		s.metrics.Record(ctx, event, telemetry.OutcomeSuccess)
		return
	}
	kind := apperr.KindOf(err)
	span.SetAttributes(attribute.String("error.kind", kind.String()))
	// Reuse is counted by reuseDetected.
	if !errors.Is(err, ErrRefreshTokenReuse) {
		s.metrics.Record(ctx, event, telemetry.OutcomeFailure)
	}
	if kind == apperr.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.ErrorContext(ctx, "auth."+event+".failed", "err", err)
	}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}
