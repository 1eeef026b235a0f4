package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	PIN string `json:"pin" validate:"required,min=4,max=12"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// SessionResponse describes the token the caller is using.
type SessionResponse struct {
	Subject   string `json:"subject"`
	ExpiresAt string `json:"expires_at"` // RFC 3339
	ExpiresIn int    `json:"expires_in"` // seconds left
}
