package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/examforge/internal/api/response"
	"github.com/kiranshivaraju/examforge/internal/store"
	"github.com/kiranshivaraju/examforge/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// UserFinder looks up local accounts by login name.
type UserFinder interface {
	GetLocalUserByName(ctx context.Context, name string) (*models.User, error)
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(u *models.User) (string, time.Time, error)
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// NewLoginHandler returns an http.HandlerFunc for POST /auth/login.
func NewLoginHandler(users UserFinder, tokens TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Username == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required", nil)
			return
		}

		u, err := users.GetLocalUserByName(r.Context(), req.Username)
		if errors.Is(err, store.ErrNotFound) {
			invalidCredentials(w)
			return
		}
		if err != nil {
			slog.Error("login lookup failed", "username", req.Username, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		if u.PasswordHash == nil ||
			bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)) != nil {
			invalidCredentials(w)
			return
		}

		token, exp, err := tokens.IssueToken(u)
		if err != nil {
			slog.Error("issuing token failed", "user_id", u.ID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.JSON(w, loginResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresAt:   exp.UTC(),
			User:        u,
		})
	}
}

func invalidCredentials(w http.ResponseWriter) {
	response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password", nil)
}
