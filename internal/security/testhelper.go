package security

import "time"

// Test secrets for unit tests only. Do not use in production.
const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-fedcba9876543210"
	testIssuer        = "test-issuer"
)

// NewTestTokenProvider returns a TokenProvider using fixed test secrets, a 15m
// access TTL and a 24h refresh TTL. For unit tests only.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte(testAccessSecret), []byte(testRefreshSecret), testIssuer, 15*time.Minute, 24*time.Hour)
}

// NewTestTokenProviderWithTTL is NewTestTokenProvider with explicit lifetimes.
func NewTestTokenProviderWithTTL(accessTTL, refreshTTL time.Duration) *TokenProvider {
	return NewTokenProvider([]byte(testAccessSecret), []byte(testRefreshSecret), testIssuer, accessTTL, refreshTTL)
}

// WithClock replaces the clock used by both codecs. For tests that need to
// issue already-expired tokens or move time forward.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	p.access.now = now
	p.refresh.now = now
	return p
}
