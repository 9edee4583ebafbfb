package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL review store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL review store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores or updates a review decision.
func (s *PostgresStore) Save(ctx context.Context, review *Review) error {
	now := time.Now()

	// Use upsert (INSERT ... ON CONFLICT)
	query := `
		INSERT INTO reviews (
			patient_id, finding_key, finding_type,
			severity, status, reviewer, reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (patient_id, finding_key) DO UPDATE SET
			finding_type = EXCLUDED.finding_type,
			severity = EXCLUDED.severity,
			status = EXCLUDED.status,
			reviewer = EXCLUDED.reviewer,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		review.PatientID,
		review.FindingKey,
		review.FindingType,
		review.Severity,
		string(review.Status),
		review.Reviewer,
		review.Reason,
		now,
		now,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}

	review.UpdatedAt = now
	return nil
}

// Get retrieves the decision for a patient's finding.
func (s *PostgresStore) Get(ctx context.Context, patientID, findingKey string) (*Review, error) {
	query := `
		SELECT id, patient_id, finding_key, finding_type,
			severity, status, reviewer, reason,
			created_at, updated_at
		FROM reviews
		WHERE patient_id = $1 AND finding_key = $2
		LIMIT 1
	`

	r := &Review{}
	var status string

	err := s.db.QueryRowContext(ctx, query, patientID, findingKey).Scan(
		&r.ID, &r.PatientID, &r.FindingKey, &r.FindingType,
		&r.Severity, &status, &r.Reviewer, &r.Reason,
		&r.CreatedAt, &r.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	r.Status = Status(status)
	return r, nil
}

// ListForPatient returns a patient's decisions with pagination.
func (s *PostgresStore) ListForPatient(ctx context.Context, patientID string, limit, offset int) ([]*Review, error) {
	query := `
		SELECT id, patient_id, finding_key, finding_type,
			severity, status, reviewer, reason,
			created_at, updated_at
		FROM reviews
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var result []*Review
	for rows.Next() {
		r := &Review{}
		var status string

		err := rows.Scan(
			&r.ID, &r.PatientID, &r.FindingKey, &r.FindingType,
			&r.Severity, &status, &r.Reviewer, &r.Reason,
			&r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Status = Status(status)
		result = append(result, r)
	}

	return result, rows.Err()
}

// Count returns the total number of review decisions.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// Delete removes a review decision by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// pgMaxExportLimit is the maximum number of entries to export at once.
const pgMaxExportLimit = 1000000

// ExportJSON exports all decisions to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	query := `
		SELECT id, patient_id, finding_key, finding_type,
			severity, status, reviewer, reason,
			created_at, updated_at
		FROM reviews
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, pgMaxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var all []*Review
	for rows.Next() {
		r := &Review{}
		var status string
		if err := rows.Scan(
			&r.ID, &r.PatientID, &r.FindingKey, &r.FindingType,
			&r.Severity, &status, &r.Reviewer, &r.Reason,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		r.Status = Status(status)
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Reviews:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports decisions from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, r := range export.Reviews {
		// Check if exists
		existing, err := s.Get(ctx, r.PatientID, r.FindingKey)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing != nil {
			skipped++
			continue
		}

		// Import
		if err := s.Save(ctx, r); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
