package models

import "github.com/golang-jwt/jwt/v5"

// Role identifies the kind of account behind a request.
type Role string

const (
	RoleStudent        Role = "STUDENT"
	RoleClassSecretary Role = "CLASS_SECRETARY"
	RoleTeacher        Role = "TEACHER"
	RoleStaff          Role = "STAFF"
	RoleParent         Role = "PARENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleClassSecretary, RoleTeacher, RoleStaff, RoleParent:
		return true
	default:
		return false
	}
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}
