package repository

import (
	"context"
	"sync"
	"time"

	"streamline/backend/internal/user/domain"
)

// MemoryRepository is an in-process Repository used when no DATABASE_URL is
// configured and in tests. Every method holds a single mutex, so
// SwapRefreshToken is atomic with respect to all other writes.
type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]*domain.User
	now  func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.User), now: time.Now}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) GetByLoginKey(ctx context.Context, key string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byEmail := domain.IsEmailKey(key)
	for _, u := range r.byID {
		if (byEmail && u.Email == key) || (!byEmail && u.Username == key) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return ErrAlreadyExists
	}
	for _, existing := range r.byID {
		if existing.Username == u.Username || existing.Email == u.Email ||
			existing.Username == u.Email || existing.Email == u.Username {
			return ErrAlreadyExists
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *MemoryRepository) SetRefreshToken(ctx context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshTokenHash = hash
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if u.RefreshTokenHash == "" || u.RefreshTokenHash != oldHash {
		return ErrRefreshTokenMismatch
	}
	u.RefreshTokenHash = newHash
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	for otherID, other := range r.byID {
		if otherID != id && (other.Email == email || other.Username == email) {
			return nil, ErrAlreadyExists
		}
	}
	u.FullName = fullName
	u.Email = email
	u.UpdatedAt = r.now().UTC()
	cp := *u
	return &cp, nil
}
