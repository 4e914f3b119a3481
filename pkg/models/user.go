package models

import "time"

// User is an account holder. Local users sign in with a password; everyone
// else arrives through the OAuth collaborator.
type User struct {
	ID           int64     `db:"id"             json:"id"`
	Name         string    `db:"name"           json:"name"`
	Email        string    `db:"email"          json:"email"`
	IsAdmin      bool      `db:"is_admin"       json:"is_admin"`
	IsLocal      bool      `db:"is_local"       json:"is_local"`
	PasswordHash *string   `db:"password_hash"  json:"-"`
	GeminiAPIKey *string   `db:"gemini_api_key" json:"-"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
}

// APIKeyStatus reports whether a user has a provider key without revealing it.
type APIKeyStatus struct {
	HasAPIKey    bool    `json:"has_api_key"`
	APIKeyMasked *string `json:"api_key_masked"`
}
