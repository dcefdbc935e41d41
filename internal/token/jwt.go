package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Callers respond differently to each: a bad
// signature is a hard rejection, an expired access token is a "please
// refresh" signal.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

const issuer = "member-service"

// Claims represents the JWT claims for both access and refresh tokens.
// Roles is present only on access tokens. The registered Subject claim
// carries the member's email.
type Claims struct {
	UserNumber int      `json:"user_number"`
	Roles      []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HMAC-SHA256 signed tokens.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a token manager. The secret is supplied base64-encoded
// and decoded once at startup; a decode failure is a fatal misconfiguration,
// not a per-call error.
func NewManager(secretBase64 string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	secret, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("signing secret must not be empty")
	}

	return &Manager{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess creates a signed access token carrying the member's number,
// email subject, and current roles.
func (m *Manager) IssueAccess(userNumber int, subject string, roles []string) (string, error) {
	return m.issue(userNumber, subject, roles, m.accessTTL)
}

// IssueRefresh creates a signed refresh token carrying only the member's
// number and email subject.
func (m *Manager) IssueRefresh(userNumber int, subject string) (string, error) {
	return m.issue(userNumber, subject, nil, m.refreshTTL)
}

func (m *Manager) issue(userNumber int, subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserNumber: userNumber,
		Roles:      roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify parses the token, checking the signature before expiry, and returns
// the claims. It fails with ErrSignatureInvalid, ErrExpired, or ErrMalformed.
// Any single-bit mutation of the payload invalidates the signature.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformed
	}

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// UserNumber verifies the token and returns its member number. Claims are
// never read from an unverified token.
func (m *Manager) UserNumber(tokenString string) (int, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserNumber, nil
}

// Subject verifies the token and returns its email subject.
func (m *Manager) Subject(tokenString string) (string, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// RemainingValidity verifies the token and returns the duration until its
// expiry. Used to bound revocation record TTLs so the revocation store never
// outlives the credential itself.
func (m *Manager) RemainingValidity(tokenString string) (time.Duration, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return 0, err
	}
	if claims.ExpiresAt == nil {
		return 0, ErrMalformed
	}
	return time.Until(claims.ExpiresAt.Time), nil
}
