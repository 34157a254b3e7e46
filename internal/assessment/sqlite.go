// ABOUTME: SQLite implementation of the assessment Lookup interface
// ABOUTME: Reads the assessments table owned by the intake side of the application

package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// SQLiteLookup implements Lookup over the application database.
// It shares the *sql.DB opened by the store.
type SQLiteLookup struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteLookup creates a lookup over the given database handle.
// The assessments table is created if it doesn't exist.
func NewSQLiteLookup(db *sql.DB) (*SQLiteLookup, error) {
	l := &SQLiteLookup{
		db:     db,
		logger: slog.Default().With("component", "assessment"),
	}
	if err := l.ensureSchema(); err != nil {
		return nil, fmt.Errorf("creating assessments schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLookup) ensureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS assessments (
			id              TEXT PRIMARY KEY,
			owner_id        TEXT NOT NULL,
			pattern         TEXT,
			attributes_json TEXT,
			created_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_assessments_owner ON assessments(owner_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// FetchSnapshot retrieves the classification snapshot for an assessment.
// Returns ErrNotFound if no assessment exists with the given ID.
func (l *SQLiteLookup) FetchSnapshot(ctx context.Context, assessmentID string) (*Snapshot, error) {
	query := `
		SELECT id, pattern, attributes_json, created_at
		FROM assessments
		WHERE id = ?
	`

	var snap Snapshot
	var pattern, attributesJSON sql.NullString
	var createdAtStr string

	err := l.db.QueryRowContext(ctx, query, assessmentID).Scan(
		&snap.ID,
		&pattern,
		&attributesJSON,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying assessment: %w", err)
	}

	snap.Pattern = pattern.String
	if attributesJSON.Valid && attributesJSON.String != "" {
		if err := json.Unmarshal([]byte(attributesJSON.String), &snap.Attributes); err != nil {
			return nil, fmt.Errorf("parsing assessment attributes: %w", err)
		}
	}

	snap.CollectedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &snap, nil
}

// SaveSnapshot writes an assessment record. Intake normally owns writes;
// this is used by seeding tools and tests.
func (l *SQLiteLookup) SaveSnapshot(ctx context.Context, ownerID string, snap *Snapshot) error {
	var attributesJSON []byte
	var err error
	if len(snap.Attributes) > 0 {
		attributesJSON, err = json.Marshal(snap.Attributes)
		if err != nil {
			return fmt.Errorf("encoding assessment attributes: %w", err)
		}
	}

	collectedAt := snap.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO assessments (id, owner_id, pattern, attributes_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = l.db.ExecContext(ctx, query,
		snap.ID,
		ownerID,
		snap.Pattern,
		string(attributesJSON),
		collectedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting assessment: %w", err)
	}

	l.logger.Debug("saved assessment", "id", snap.ID, "pattern", snap.Pattern)
	return nil
}
