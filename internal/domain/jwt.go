package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// ExamCoreClaims are the service JWT claims minted at login.
type ExamCoreClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
