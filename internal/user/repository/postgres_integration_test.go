package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"streamline/backend/internal/db"
	"streamline/backend/internal/db/migrate"
	"streamline/backend/internal/user/domain"
)

// Integration tests run only when STREAMLINE_TEST_DATABASE_URL points at a
// disposable Postgres database.

func mustPostgres(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("STREAMLINE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STREAMLINE_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}
	if err := migrate.Run(dsn, migrate.Up); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustCreatePostgresUser(t *testing.T, r *PostgresRepository) *domain.User {
	t.Helper()
	id := uuid.New().String()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &domain.User{
		ID:           id,
		Username:     "user-" + id[:8],
		Email:        id[:8] + "@example.com",
		FullName:     "Test User",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() {
		_, _ = r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	return u
}

func TestPostgresRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewPostgresRepository(mustPostgres(t))
	u := mustCreatePostgresUser(t, r)

	got, err := r.GetByID(ctx, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if got.Username != u.Username || got.PasswordHash != "hash" || got.RefreshTokenHash != "" {
		t.Errorf("GetByID = %+v", got)
	}
	for _, key := range []string{u.Username, u.Email} {
		got, err := r.GetByLoginKey(ctx, key)
		if err != nil || got == nil || got.ID != u.ID {
			t.Errorf("GetByLoginKey(%q) = %+v, %v", key, got, err)
		}
	}
	if got, err := r.GetByID(ctx, uuid.New().String()); got != nil || err != nil {
		t.Errorf("GetByID(missing) = %+v, %v", got, err)
	}

	dup := *u
	dup.ID = uuid.New().String()
	if err := r.Create(ctx, &dup); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate Create err = %v, want ErrAlreadyExists", err)
	}
}

func TestPostgresRepository_UsernameWithAtRejected(t *testing.T) {
	r := NewPostgresRepository(mustPostgres(t))
	id := uuid.New().String()
	now := time.Now().UTC()
	err := r.Create(context.Background(), &domain.User{
		ID:           id,
		Username:     id[:8] + "@example.com",
		Email:        "other-" + id[:8] + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	t.Cleanup(func() {
		_, _ = r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	if err == nil {
		t.Fatal("Create accepted a username containing @")
	}
}

func TestPostgresRepository_RefreshTokenSwap(t *testing.T) {
	ctx := context.Background()
	r := NewPostgresRepository(mustPostgres(t))
	u := mustCreatePostgresUser(t, r)

	if err := r.SetRefreshToken(ctx, u.ID, "h1"); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}
	if err := r.SwapRefreshToken(ctx, u.ID, "h1", "h2"); err != nil {
		t.Fatalf("SwapRefreshToken: %v", err)
	}
	if err := r.SwapRefreshToken(ctx, u.ID, "h1", "h3"); !errors.Is(err, ErrRefreshTokenMismatch) {
		t.Fatalf("stale swap err = %v", err)
	}
	if err := r.SwapRefreshToken(ctx, uuid.New().String(), "h1", "h3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("swap unknown user err = %v", err)
	}
	if err := r.SetRefreshToken(ctx, u.ID, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ := r.GetByID(ctx, u.ID)
	if got.RefreshTokenHash != "" {
		t.Errorf("RefreshTokenHash = %q after clear", got.RefreshTokenHash)
	}
}

func TestPostgresRepository_ConcurrentSwapSingleWinner(t *testing.T) {
	ctx := context.Background()
	r := NewPostgresRepository(mustPostgres(t))
	u := mustCreatePostgresUser(t, r)
	if err := r.SetRefreshToken(ctx, u.ID, "old"); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := r.SwapRefreshToken(ctx, u.ID, "old", uuid.New().String()); err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("successful swaps = %d, want 1", wins.Load())
	}
}

func TestPostgresRepository_PasswordAndAccount(t *testing.T) {
	ctx := context.Background()
	r := NewPostgresRepository(mustPostgres(t))
	u := mustCreatePostgresUser(t, r)

	if err := r.SetPasswordHash(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
	if err := r.SetPasswordHash(ctx, uuid.New().String(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPasswordHash unknown err = %v", err)
	}
	updated, err := r.UpdateAccount(ctx, u.ID, "New Name", "new-"+u.Email)
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.FullName != "New Name" || updated.PasswordHash != "new-hash" {
		t.Errorf("UpdateAccount = %+v", updated)
	}
	if _, err := r.UpdateAccount(ctx, uuid.New().String(), "n", "e@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAccount unknown err = %v", err)
	}
}
