package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds operator credentials forwarded to the admin API.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the data block of POST /api/admin/auth/login.
type LoginResult struct {
	Token string       `json:"token"`
	Admin AdminProfile `json:"admin"`
}

// ChangePasswordRequest is submitted from the settings screen.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// UpdateProfileRequest is submitted from the settings screen.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
}
