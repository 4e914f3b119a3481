package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/examforge/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetLocalUserByName(ctx context.Context, name string) (*models.User, error)

	// GetProviderAPIKey returns the user's stored AI key, or "" when none is set.
	GetProviderAPIKey(ctx context.Context, userID int64) (string, error)
	// UpdateProviderAPIKey stores key for the user; an empty key clears it.
	UpdateProviderAPIKey(ctx context.Context, userID int64, key string) error

	// FetchArchivesWithCourses resolves archive ids to live archives and their
	// courses, most recent academic year first.
	FetchArchivesWithCourses(ctx context.Context, ids []int64) ([]models.ArchiveWithCourse, error)
}
