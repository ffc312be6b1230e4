package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/vintra/pkg/models"
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

// --- API Keys ---

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return collectAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return collectAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// --- Consultations ---

// SaveConsultation upserts the consultation row and inserts its artifacts in
// one transaction. Artifacts that already exist are left untouched.
func (s *PostgresStore) SaveConsultation(ctx context.Context, c *models.Consultation) error {
	segments, err := json.Marshal(nonNilSegments(c.Segments))
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO consultations (id, status, progress, error_message, segments, created_at, updated_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   progress = EXCLUDED.progress,
		   error_message = EXCLUDED.error_message,
		   segments = EXCLUDED.segments,
		   updated_at = EXCLUDED.updated_at,
		   completed_at = EXCLUDED.completed_at`,
		c.ID, c.Status, c.Progress, c.ErrorMessage, segments, c.CreatedAt, c.UpdatedAt, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("save consultation: %w", err)
	}

	for i := range c.Artifacts {
		a := c.Artifacts[i]
		if a.ConsultationID == nil {
			a.ConsultationID = &c.ID
		}
		if err := insertArtifact(ctx, tx, &a); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit consultation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetConsultation(ctx context.Context, id uuid.UUID) (*models.Consultation, error) {
	var (
		c        models.Consultation
		segments []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, progress, error_message, segments, created_at, updated_at, completed_at
		 FROM consultations WHERE id = $1`, id,
	).Scan(&c.ID, &c.Status, &c.Progress, &c.ErrorMessage, &segments, &c.CreatedAt, &c.UpdatedAt, &c.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consultation: %w", err)
	}

	if err := json.Unmarshal(segments, &c.Segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	c.Segments = nonNilSegments(c.Segments)

	artifacts, err := s.ListArtifacts(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Artifacts = artifacts

	return &c, nil
}

// --- Artifacts ---

func (s *PostgresStore) SaveArtifact(ctx context.Context, a *models.Artifact) error {
	return insertArtifact(ctx, s.pool, a)
}

func (s *PostgresStore) ListArtifacts(ctx context.Context, consultationID uuid.UUID) ([]models.Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, consultation_id, type, requested_type, content, model, input_size, created_at
		 FROM artifacts WHERE consultation_id = $1 ORDER BY created_at ASC`, consultationID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []models.Artifact{}
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(&a.ID, &a.ConsultationID, &a.Type, &a.Metadata.RequestedType, &a.Content,
			&a.Metadata.Model, &a.Metadata.InputSize, &a.Metadata.Timestamp); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Metadata.Type = a.Type
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertArtifact(ctx context.Context, db execer, a *models.Artifact) error {
	ts := a.Metadata.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := db.Exec(ctx,
		`INSERT INTO artifacts (id, consultation_id, type, requested_type, content, model, input_size, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.ConsultationID, a.Type, a.Metadata.RequestedType, a.Content, a.Metadata.Model, a.Metadata.InputSize, ts)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

func nonNilSegments(s []models.Segment) []models.Segment {
	if s == nil {
		return []models.Segment{}
	}
	return s
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
