package models

import "github.com/golang-jwt/jwt/v5"

// UserRole labels the caller of an admin surface.
type UserRole string

// Known roles.
const (
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// JWTClaims are the access token claims issued by the identity collaborator.
// This service only validates them; it never mints tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
