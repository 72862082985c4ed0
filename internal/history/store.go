// Package history keeps an append-only version log of project documents in
// an embedded DuckDB database. Every snapshot stores the full project JSON,
// so restore is a plain read plus re-adopt by the project manager.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/storage"
)

// Options tunes the embedded database. Zero values fall back to defaults
// sized for an interactive editing session.
type Options struct {
	MemoryLimit string // DuckDB memory_limit pragma, e.g. "256MB"
	Threads     int
}

func (o Options) withDefaults() Options {
	if o.MemoryLimit == "" {
		o.MemoryLimit = "256MB"
	}
	if o.Threads <= 0 {
		o.Threads = 2
	}
	return o
}

// Store is the DuckDB-backed snapshot log.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the history database at dbPath.
func NewStore(dbPath string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", opts.Threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id              VARCHAR PRIMARY KEY,
			project_id      VARCHAR NOT NULL,
			label           VARCHAR,
			component_count INTEGER NOT NULL,
			created_at      BIGINT NOT NULL,
			document        VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	fmt.Printf("[History] Database ready at %s\n", dbPath)
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a snapshot of the project and returns its header.
func (s *Store) Record(p *models.Project, label string) (*models.Snapshot, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}

	snap := &models.Snapshot{
		ID:             uuid.New().String(),
		ProjectID:      p.ID,
		Label:          label,
		ComponentCount: len(p.Components),
		CreatedAt:      time.Now().UTC(),
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (id, project_id, label, component_count, created_at, document)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.ProjectID, snap.Label, snap.ComponentCount, snap.CreatedAt.UnixNano(), string(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return snap, nil
}

// List returns snapshot headers for a project, newest first. limit <= 0
// means no limit. Documents are not loaded.
func (s *Store) List(projectID string, limit int) ([]*models.Snapshot, error) {
	query := `
		SELECT id, project_id, label, component_count, created_at
		FROM snapshots WHERE project_id = ?
		ORDER BY created_at DESC
	`
	args := []interface{}{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var list []*models.Snapshot
	for rows.Next() {
		snap, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, snap)
	}
	return list, rows.Err()
}

// Get returns one snapshot including its document.
func (s *Store) Get(id string) (*models.Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, project_id, label, component_count, created_at, document
		FROM snapshots WHERE id = ?
	`, id)

	var snap models.Snapshot
	var createdAt int64
	var doc string
	err := row.Scan(&snap.ID, &snap.ProjectID, &snap.Label, &snap.ComponentCount, &createdAt, &doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	snap.Document = json.RawMessage(doc)
	return &snap, nil
}

// Restore decodes the stored document of a snapshot into a project.
func (s *Store) Restore(id string) (*models.Project, error) {
	snap, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var p models.Project
	if err := json.Unmarshal(snap.Document, &p); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot document: %w", err)
	}
	if p.Components == nil {
		p.Components = make(map[string]*models.Component)
	}
	return &p, nil
}

// Prune keeps the newest keep snapshots of a project and deletes the rest.
// Returns the number of deleted rows.
func (s *Store) Prune(projectID string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.Exec(`
		DELETE FROM snapshots WHERE project_id = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE project_id = ?
			ORDER BY created_at DESC LIMIT ?
		)
	`, projectID, projectID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		fmt.Printf("[History] Pruned %d snapshots of project %s\n", deleted, projectID)
	}
	return int(deleted), nil
}

// DeleteForProject drops all history of a deleted project.
func (s *Store) DeleteForProject(projectID string) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project history: %w", err)
	}
	return nil
}

func scanHeader(rows *sql.Rows) (*models.Snapshot, error) {
	var snap models.Snapshot
	var createdAt int64
	if err := rows.Scan(&snap.ID, &snap.ProjectID, &snap.Label, &snap.ComponentCount, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	return &snap, nil
}
