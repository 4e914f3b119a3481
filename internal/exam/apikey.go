package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/examforge/internal/ai"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

const keyCheckPrompt = "Say hello"

// KeyService manages the per-user provider API key the worker needs.
type KeyService struct {
	keys      KeyStore
	providers models.AIProviderFactory
}

func NewKeyService(keys KeyStore, providers models.AIProviderFactory) *KeyService {
	return &KeyService{keys: keys, providers: providers}
}

func (k *KeyService) Status(ctx context.Context, userID int64) (*models.APIKeyStatus, error) {
	key, err := k.keys.GetProviderAPIKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	return keyStatus(key), nil
}

// Update validates a non-empty key with one trial generation before storing
// it. An empty key clears the stored one.
func (k *KeyService) Update(ctx context.Context, userID int64, key string) (*models.APIKeyStatus, error) {
	if key != "" {
		if err := k.validate(ctx, key); err != nil {
			return nil, err
		}
	}
	if err := k.keys.UpdateProviderAPIKey(ctx, userID, key); err != nil {
		return nil, err
	}
	slog.Info("provider api key updated", "user_id", userID, "cleared", key == "")
	return keyStatus(key), nil
}

func (k *KeyService) validate(ctx context.Context, key string) error {
	provider, err := k.providers.NewProvider(ctx, key)
	if errors.Is(err, ai.ErrInvalidAPIKey) {
		return ErrInvalidAPIKey
	}
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	_, err = provider.Generate(ctx, models.GenerateRequest{Prompt: keyCheckPrompt, Temperature: defaultTemperature})
	if errors.Is(err, ai.ErrInvalidAPIKey) {
		return ErrInvalidAPIKey
	}
	if err != nil {
		return fmt.Errorf("validate api key: %w", err)
	}
	return nil
}

func keyStatus(key string) *models.APIKeyStatus {
	if key == "" {
		return &models.APIKeyStatus{HasAPIKey: false}
	}
	masked := MaskKey(key)
	return &models.APIKeyStatus{HasAPIKey: true, APIKeyMasked: &masked}
}

// MaskKey hides all but the last four characters.
func MaskKey(key string) string {
	r := []rune(key)
	if len(r) <= 4 {
		return "****" + key
	}
	return "****" + string(r[len(r)-4:])
}
