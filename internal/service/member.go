package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/TravelmateGo/internal/domain"
	"github.com/utafrali/TravelmateGo/internal/event"
	"github.com/utafrali/TravelmateGo/internal/repository"
	"github.com/utafrali/TravelmateGo/internal/token"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// lockKeyPrefix namespaces refresh rotation locks in Redis.
const lockKeyPrefix = "lock:"

// MemberService implements the business logic for member and auth operations.
type MemberService struct {
	memberRepo  repository.MemberRepository
	revocations repository.RevocationStore
	locker      repository.Locker
	sessions    repository.SessionStore
	tokens      *token.Manager
	producer    *event.Producer
	logger      *slog.Logger
	lockTTL     time.Duration
}

// NewMemberService creates a new member service.
func NewMemberService(
	memberRepo repository.MemberRepository,
	revocations repository.RevocationStore,
	locker repository.Locker,
	sessions repository.SessionStore,
	tokens *token.Manager,
	producer *event.Producer,
	logger *slog.Logger,
	lockTTL time.Duration,
) *MemberService {
	return &MemberService{
		memberRepo:  memberRepo,
		revocations: revocations,
		locker:      locker,
		sessions:    sessions,
		tokens:      tokens,
		producer:    producer,
		logger:      logger,
		lockTTL:     lockTTL,
	}
}

// --- Input types ---

// SignupInput holds the parameters for registering a new member.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the parameters for member login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating a member's profile.
type UpdateProfileInput struct {
	Name     *string
	Password *string
}

// --- Auth Operations ---

// Signup creates a new member account with a hashed password.
func (s *MemberService) Signup(ctx context.Context, input SignupInput) (*domain.Member, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	member := &domain.Member{
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishMemberRegistered(ctx, member); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member.registered event",
			slog.Int("user_number", member.UserNumber),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "member registered",
		slog.Int("user_number", member.UserNumber),
		slog.String("email", member.Email),
	)

	return member, nil
}

// Login authenticates a member with email and password, issues both
// credentials, and records the fresh refresh credential as the member's
// active one.
func (s *MemberService) Login(ctx context.Context, input LoginInput) (*domain.Member, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	member, err := s.memberRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.HTTPStatus(err) == 404 {
			return nil, nil, apperrors.NotFound("member", input.Email)
		}
		return nil, nil, fmt.Errorf("get member by email: %w", err)
	}

	if !member.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid password")
	}

	pair, err := s.issueTokenPair(ctx, member)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.memberRepo.RecordLogin(ctx, member.UserNumber, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login time",
			slog.Int("user_number", member.UserNumber),
			slog.String("error", err.Error()),
		)
	}
	member.LastLoginAt = &now

	// Publish login event (non-blocking on failure).
	if err := s.producer.PublishMemberLoggedIn(ctx, member); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member.logged_in event",
			slog.Int("user_number", member.UserNumber),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "member logged in",
		slog.Int("user_number", member.UserNumber),
		slog.String("email", member.Email),
	)

	return member, pair, nil
}

// Logout revokes the presented access credential for its remaining validity,
// revokes the refresh credential when one is presented, and removes the
// member's active refresh pointer so no further refresh can succeed.
func (s *MemberService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" {
		return apperrors.Unauthorized("no active session to log out")
	}

	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return apperrors.Unauthorized("no active session to log out")
	}

	remaining, err := s.tokens.RemainingValidity(accessToken)
	if err == nil {
		if err := s.revocations.Revoke(ctx, accessToken, remaining); err != nil {
			s.logger.ErrorContext(ctx, "revocation store unavailable during logout",
				slog.Int("user_number", claims.UserNumber),
				slog.String("error", err.Error()),
			)
			return apperrors.ServiceUnavailable("revocation store unavailable")
		}
	}

	// A refresh cookie may be absent or stale; revoke it only while it
	// still verifies.
	if refreshToken != "" {
		if refreshRemaining, err := s.tokens.RemainingValidity(refreshToken); err == nil {
			if err := s.revocations.Revoke(ctx, refreshToken, refreshRemaining); err != nil {
				return apperrors.ServiceUnavailable("revocation store unavailable")
			}
		}
	}

	if err := s.sessions.DeleteRefresh(ctx, claims.UserNumber); err != nil {
		return apperrors.ServiceUnavailable("session store unavailable")
	}

	// Publish logout event (non-blocking on failure).
	if err := s.producer.PublishMemberLoggedOut(ctx, claims.UserNumber, claims.Subject); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member.logged_out event",
			slog.Int("user_number", claims.UserNumber),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "member logged out",
		slog.Int("user_number", claims.UserNumber),
	)

	return nil
}

// --- Profile Operations ---

// GetProfile retrieves a member by their number. A missing member reads as
// an authentication failure, never as a missing resource.
func (s *MemberService) GetProfile(ctx context.Context, userNumber int) (*domain.Member, error) {
	member, err := s.memberRepo.GetByNumber(ctx, userNumber)
	if err != nil {
		if apperrors.HTTPStatus(err) == 404 {
			return nil, apperrors.Unauthorized("member no longer exists")
		}
		return nil, fmt.Errorf("get member profile: %w", err)
	}
	return member, nil
}

// UpdateProfile updates a member's profile fields.
func (s *MemberService) UpdateProfile(ctx context.Context, userNumber int, input UpdateProfileInput) (*domain.Member, error) {
	member, err := s.memberRepo.GetByNumber(ctx, userNumber)
	if err != nil {
		if apperrors.HTTPStatus(err) == 404 {
			return nil, apperrors.Unauthorized("member no longer exists")
		}
		return nil, fmt.Errorf("get member for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		member.Name = *input.Name
	}

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash new password: %w", err)
		}
		member.PasswordHash = string(hashedPassword)
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}

	// Publish member updated event (non-blocking on failure).
	if err := s.producer.PublishMemberUpdated(ctx, member); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member.updated event",
			slog.Int("user_number", member.UserNumber),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "member profile updated",
		slog.Int("user_number", member.UserNumber),
	)

	return member, nil
}

// --- Helpers ---

// issueTokenPair issues both credentials and records the refresh credential
// as the member's active one.
func (s *MemberService) issueTokenPair(ctx context.Context, member *domain.Member) (*domain.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(member.UserNumber, member.Email, member.Roles())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefresh(member.UserNumber, member.Email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.sessions.StoreRefresh(ctx, member.UserNumber, refreshToken, s.tokens.RefreshTTL()); err != nil {
		return nil, apperrors.ServiceUnavailable("session store unavailable")
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// validatePassword enforces the minimum password policy.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
