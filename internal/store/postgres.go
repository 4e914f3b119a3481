package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// notDeleted is the tombstone predicate every archive/course read applies.
func notDeleted(alias string) string {
	return alias + ".deleted_at IS NULL"
}

// --- Users ---

const userColumns = `id, name, email, is_admin, is_local, password_hash, gemini_api_key, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.IsLocal, &u.PasswordHash, &u.GeminiAPIKey, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetLocalUserByName(ctx context.Context, name string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1 AND is_local`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get local user: %w", err)
	}
	return u, nil
}

// --- Provider API keys ---

func (s *PostgresStore) GetProviderAPIKey(ctx context.Context, userID int64) (string, error) {
	var key *string
	err := s.pool.QueryRow(ctx, `SELECT gemini_api_key FROM users WHERE id = $1`, userID).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get provider api key: %w", err)
	}
	if key == nil {
		return "", nil
	}
	return *key, nil
}

func (s *PostgresStore) UpdateProviderAPIKey(ctx context.Context, userID int64, key string) error {
	var value *string
	if key != "" {
		value = &key
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET gemini_api_key = $1 WHERE id = $2`, value, userID)
	if err != nil {
		return fmt.Errorf("update provider api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Archives ---

func (s *PostgresStore) FetchArchivesWithCourses(ctx context.Context, ids []int64) ([]models.ArchiveWithCourse, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.name, a.academic_year, a.archive_type, a.professor, a.object_name, a.course_id, a.created_at,
		        c.id, c.name, c.category
		 FROM archives a
		 JOIN courses c ON c.id = a.course_id
		 WHERE a.id = ANY($1) AND `+notDeleted("a")+` AND `+notDeleted("c")+`
		 ORDER BY a.academic_year DESC, a.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch archives: %w", err)
	}
	defer rows.Close()

	var out []models.ArchiveWithCourse
	for rows.Next() {
		var ac models.ArchiveWithCourse
		a, c := &ac.Archive, &ac.Course
		if err := rows.Scan(&a.ID, &a.Name, &a.AcademicYear, &a.ArchiveType, &a.Professor, &a.ObjectName,
			&a.CourseID, &a.CreatedAt, &c.ID, &c.Name, &c.Category); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		out = append(out, ac)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
