package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"streamline/backend/internal/user/domain"
)

const pgUniqueViolation = "23505"

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, refresh_token_hash, created_at, updated_at`

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u       domain.User
		refresh sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Avatar,
		&u.CoverImage,
		&u.PasswordHash,
		&refresh,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refresh.Valid {
		u.RefreshTokenHash = refresh.String
	}
	return &u, nil
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetByLoginKey returns the user whose email (key contains "@") or username
// equals key, or nil if not found. Each column is unique, so at most one row matches.
func (r *PostgresRepository) GetByLoginKey(ctx context.Context, key string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	if domain.IsEmailKey(key) {
		query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage, u.PasswordHash,
		nullString(u.RefreshTokenHash), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

// SetRefreshToken overwrites the stored refresh token hash; "" clears it.
func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = $2, updated_at = $3 WHERE id = $1`,
		id, nullString(hash), r.now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SwapRefreshToken replaces oldHash with newHash in a single conditional
// UPDATE; the row lock taken by the update serialises concurrent swaps.
func (r *PostgresRepository) SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = $3, updated_at = $4 WHERE id = $1 AND refresh_token_hash = $2`,
		id, oldHash, nullString(newHash), r.now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrRefreshTokenMismatch
}

// SetPasswordHash replaces the stored password hash.
func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, hash, r.now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateAccount sets full name and email and returns the updated row.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET full_name = $2, email = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+userColumns,
		id, fullName, email, r.now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
