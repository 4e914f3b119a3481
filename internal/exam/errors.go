package exam

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/examforge/internal/queue"
)

var (
	ErrEmptyArchiveIDs    = errors.New("at least 1 archive is required")
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	ErrActiveTaskExists   = errors.New("you already have an exam generation task in progress")
	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("task belongs to another user")
	ErrInvalidAPIKey      = errors.New("invalid gemini api key")
)

// Job failures that retrying cannot fix.
var (
	ErrMissingAPIKey    = fmt.Errorf("user api key not configured: %w", queue.ErrPermanent)
	ErrArchivesNotFound = fmt.Errorf("archives not found: %w", queue.ErrPermanent)
)
