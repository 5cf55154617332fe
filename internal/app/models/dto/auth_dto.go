package dto

import "github.com/yigit/phdtrack/internal/app/models"

// LoginRequest represents login credentials. For students the identifier is
// the email and the secret the date of birth as DD-MM-YYYY.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token    TokenResponse   `json:"token"`
	Identity models.Identity `json:"identity"`
}

// MeResponse is the caller's identity and, for students, their own record.
type MeResponse struct {
	Identity models.Identity        `json:"identity"`
	Record   *StudentRecordResponse `json:"record,omitempty"`
}
