package domain

import (
	"time"
)

// Member represents a registered member of the platform. UserNumber is the
// authoritative principal reference; the email is informational and may
// change over the life of the account.
type Member struct {
	UserNumber   int        `json:"user_number"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Roles returns the role list carried by access credentials issued for this
// member. Roles are re-derived from the member row at issue time, never
// copied from an old credential.
func (m *Member) Roles() []string {
	if m.Role == "" {
		return nil
	}
	return []string{m.Role}
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
