package domain

// Member roles as stored in the role column and carried in access token
// claims.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)
