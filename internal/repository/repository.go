package repository

import (
	"context"
	"time"

	"github.com/utafrali/TravelmateGo/internal/domain"
)

// MemberRepository defines the interface for member persistence operations.
type MemberRepository interface {
	// Create inserts a new member and fills in the assigned user number.
	Create(ctx context.Context, m *domain.Member) error

	// GetByNumber retrieves a member by their user number.
	GetByNumber(ctx context.Context, userNumber int) (*domain.Member, error)

	// GetByEmail retrieves a member by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)

	// Update modifies an existing member.
	Update(ctx context.Context, m *domain.Member) error

	// RecordLogin stamps the member's last login time.
	RecordLogin(ctx context.Context, userNumber int, at time.Time) error
}

// RevocationStore records credentials that must be treated as invalid before
// their natural expiry. Revocation is additive; records age out via TTL.
type RevocationStore interface {
	// Revoke marks the credential invalid for the given TTL. Idempotent:
	// revoking an already-revoked credential is a no-op.
	Revoke(ctx context.Context, credential string, ttl time.Duration) error

	// IsRevoked reports whether the credential has been revoked. An error
	// means revocation status could not be determined; callers must treat
	// the credential as not yet proven valid (fail closed).
	IsRevoked(ctx context.Context, credential string) (bool, error)
}

// Locker provides best-effort mutual exclusion with a TTL bound. A holder
// that stalls past the TTL can have its lock silently stolen; acceptable
// here because the protected operation is safe to duplicate, just not
// desired.
type Locker interface {
	// Acquire attempts an atomic set-if-absent with TTL. Returns false if
	// the lock is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release unconditionally deletes the lock.
	Release(ctx context.Context, key string) error
}

// SessionStore tracks the per-member active refresh credential and caches
// refresh results so duplicate retries converge on the same rotated pair.
type SessionStore interface {
	// StoreRefresh records the member's active refresh credential,
	// superseding any earlier one.
	StoreRefresh(ctx context.Context, userNumber int, refreshToken string, ttl time.Duration) error

	// GetRefresh returns the member's active refresh credential, or ""
	// when none is stored.
	GetRefresh(ctx context.Context, userNumber int) (string, error)

	// DeleteRefresh removes the member's active refresh credential.
	DeleteRefresh(ctx context.Context, userNumber int) error

	// CacheTokens stores the rotation result keyed by the refresh
	// credential that produced it.
	CacheTokens(ctx context.Context, refreshToken string, pair *domain.TokenPair, ttl time.Duration) error

	// GetCachedTokens returns the cached rotation result for the given
	// refresh credential, or nil when none is cached.
	GetCachedTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}
