package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

// ErrEmptyDSN is returned when no DSN is configured.
var ErrEmptyDSN = errors.New("db: DSN is empty")

// Open opens a Postgres connection using the given DSN. Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	return open(context.Background(), dsn)
}

// OpenWithRetry opens a Postgres connection, retrying the initial ping with
// exponential backoff (starting at 250ms, capped at 5s) up to attempts times.
// Used at startup when the database may come up after the service.
func OpenWithRetry(ctx context.Context, dsn string, attempts uint64) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyDSN
	}
	if attempts == 0 {
		attempts = 1
	}
	backoff := retry.NewExponential(250 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxRetries(attempts-1, backoff)

	var conn *sql.DB
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := open(ctx, dsn)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
