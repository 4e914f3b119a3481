package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/examforge/internal/ai"
	"github.com/kiranshivaraju/examforge/internal/api/response"
	"github.com/kiranshivaraju/examforge/internal/exam"
	"github.com/kiranshivaraju/examforge/internal/store"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// KeyManager reads and replaces a user's provider API key.
type KeyManager interface {
	Status(ctx context.Context, userID int64) (*models.APIKeyStatus, error)
	Update(ctx context.Context, userID int64, key string) (*models.APIKeyStatus, error)
}

// NewGetAPIKeyHandler returns an http.HandlerFunc for GET /ai-exam/api-key.
func NewGetAPIKeyHandler(keys KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		st, err := keys.Status(r.Context(), p.UserID)
		if err != nil {
			writeKeyError(w, err, p.UserID)
			return
		}
		response.JSON(w, st)
	}
}

// NewUpdateAPIKeyHandler returns an http.HandlerFunc for PUT /ai-exam/api-key.
// An empty key clears the stored value.
func NewUpdateAPIKeyHandler(keys KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req struct {
			GeminiAPIKey *string `json:"gemini_api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.GeminiAPIKey == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "gemini_api_key is required", nil)
			return
		}

		st, err := keys.Update(r.Context(), p.UserID, strings.TrimSpace(*req.GeminiAPIKey))
		if err != nil {
			writeKeyError(w, err, p.UserID)
			return
		}
		response.JSON(w, st)
	}
}

func writeKeyError(w http.ResponseWriter, err error, userID int64) {
	switch {
	case errors.Is(err, exam.ErrInvalidAPIKey):
		response.Error(w, http.StatusBadRequest, "INVALID_API_KEY", "The API key was rejected by the AI provider", nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"Validating the API key took too long", nil)
	case errors.Is(err, ai.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider is not available", nil)
	default:
		slog.Error("api key request failed", "user_id", userID, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
