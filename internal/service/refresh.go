package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/TravelmateGo/internal/domain"
	"github.com/utafrali/TravelmateGo/internal/token"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
)

// Refresh rotates the member's credential pair. The presented refresh
// credential must verify, must not be revoked, and must still be the
// member's active one. Rotation runs under a short per-credential lock; a
// concurrent holder means another rotation for the same credential is in
// flight, and the caller gets a conflict rather than a second rotation.
// A retry that arrives after rotation completed gets the cached pair.
func (s *MemberService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, apperrors.Unauthorized("refresh token has expired")
		case errors.Is(err, token.ErrSignatureInvalid):
			return nil, apperrors.Forbidden("refresh token signature is invalid")
		default:
			return nil, apperrors.Forbidden("refresh token is malformed")
		}
	}

	// Revocation status must be known before the credential is trusted.
	revoked, err := s.revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		s.logger.ErrorContext(ctx, "revocation store unavailable during refresh",
			slog.Int("user_number", claims.UserNumber),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable("revocation store unavailable")
	}
	if revoked {
		return nil, apperrors.Unauthorized("refresh token has been revoked")
	}

	// A duplicate of a rotation that already completed gets the same pair.
	// This must run before the pointer match: once rotation stores the new
	// pointer, the old credential no longer matches it.
	if cached, err := s.sessions.GetCachedTokens(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "refresh cache read failed, rotating anew",
			slog.Int("user_number", claims.UserNumber),
			slog.String("error", err.Error()),
		)
	} else if cached != nil {
		s.logger.InfoContext(ctx, "reusing cached refresh result",
			slog.Int("user_number", claims.UserNumber),
		)
		return cached, nil
	}

	// Only the member's most recently issued refresh credential rotates.
	stored, err := s.sessions.GetRefresh(ctx, claims.UserNumber)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("session store unavailable")
	}
	if stored != refreshToken {
		return nil, apperrors.Unauthorized("refresh token is no longer active")
	}

	acquired, err := s.locker.Acquire(ctx, lockKeyPrefix+refreshToken, s.lockTTL)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("lock store unavailable")
	}
	if !acquired {
		return nil, apperrors.Conflict("token refresh already in progress")
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKeyPrefix+refreshToken); err != nil {
			s.logger.ErrorContext(ctx, "failed to release refresh lock",
				slog.Int("user_number", claims.UserNumber),
				slog.String("error", err.Error()),
			)
		}
	}()

	// Roles come from the member row, not from the old credential, so a
	// role change takes effect at the next rotation.
	member, err := s.memberRepo.GetByNumber(ctx, claims.UserNumber)
	if err != nil {
		if apperrors.HTTPStatus(err) == 404 {
			return nil, apperrors.Unauthorized("member no longer exists")
		}
		return nil, err
	}
	if !member.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	pair, err := s.issueTokenPair(ctx, member)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.CacheTokens(ctx, refreshToken, pair, s.tokens.AccessTTL()); err != nil {
		s.logger.WarnContext(ctx, "failed to cache refresh result",
			slog.Int("user_number", claims.UserNumber),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.Int("user_number", member.UserNumber),
	)

	return pair, nil
}
