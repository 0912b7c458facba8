// Package runs persists executed circuits and their analysis bundles
// in the archive database.
package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/modules/quantum"
)

// ErrNotFound is returned when no archived run matches the given ID.
var ErrNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is one archived run, bundle included.
type Record struct {
	ID          string           `json:"id"`
	Fingerprint string           `json:"fingerprint"`
	Backend     string           `json:"backend"`
	Qubits      int              `json:"qubits"`
	Gates       int              `json:"gates"`
	Shots       int              `json:"shots"`
	Status      string           `json:"status"`
	Error       string           `json:"error,omitempty"`
	Circuit     quantum.Circuit  `json:"circuit"`
	Result      *backends.Result `json:"result,omitempty"`
	DurationMs  float64          `json:"duration_ms"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Summary is the list view of a run, without the result bundle.
type Summary struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Backend     string    `json:"backend"`
	Qubits      int       `json:"qubits"`
	Gates       int       `json:"gates"`
	Shots       int       `json:"shots"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	DurationMs  float64   `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository handles CRUD operations on the runs table.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a run repository over the archive database.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save archives a run. A missing ID gets a fresh UUID; the assigned ID
// is returned.
func (r *Repository) Save(rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	circuitJSON, err := json.Marshal(rec.Circuit)
	if err != nil {
		return "", fmt.Errorf("failed to serialize circuit: %w", err)
	}

	var bundle []byte
	if rec.Result != nil {
		bundle, err = msgpack.Marshal(rec.Result)
		if err != nil {
			return "", fmt.Errorf("failed to serialize result bundle: %w", err)
		}
	}

	_, err = r.db.Exec(`
		INSERT INTO runs
		(id, fingerprint, backend, qubits, gates, shots, status, error,
		 circuit, bundle, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Fingerprint,
		rec.Backend,
		rec.Qubits,
		rec.Gates,
		rec.Shots,
		rec.Status,
		rec.Error,
		string(circuitJSON),
		bundle,
		rec.DurationMs,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to archive run: %w", err)
	}

	r.log.Debug().
		Str("run_id", rec.ID).
		Str("fingerprint", rec.Fingerprint).
		Str("status", rec.Status).
		Msg("Run archived")

	return rec.ID, nil
}

// Get loads a full run record, decoding the circuit and bundle.
func (r *Repository) Get(id string) (*Record, error) {
	row := r.db.QueryRow(`
		SELECT id, fingerprint, backend, qubits, gates, shots, status, error,
		       circuit, bundle, duration_ms, created_at
		FROM runs
		WHERE id = ?
	`, id)

	var rec Record
	var circuitJSON string
	var bundle []byte
	var createdAt int64

	err := row.Scan(
		&rec.ID,
		&rec.Fingerprint,
		&rec.Backend,
		&rec.Qubits,
		&rec.Gates,
		&rec.Shots,
		&rec.Status,
		&rec.Error,
		&circuitJSON,
		&bundle,
		&rec.DurationMs,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0)

	if err := json.Unmarshal([]byte(circuitJSON), &rec.Circuit); err != nil {
		return nil, fmt.Errorf("failed to decode archived circuit for %s: %w", id, err)
	}
	rec.Circuit.ResolveMatrices()

	if len(bundle) > 0 {
		var result backends.Result
		if err := msgpack.Unmarshal(bundle, &result); err != nil {
			return nil, fmt.Errorf("failed to decode result bundle for %s: %w", id, err)
		}
		rec.Result = &result
	}

	return &rec, nil
}

// List returns the most recent runs, newest first. Limit <= 0 applies
// the default of 50.
func (r *Repository) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, fingerprint, backend, qubits, gates, shots, status, error,
		       duration_ms, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0, limit)
	for rows.Next() {
		var s Summary
		var createdAt int64
		if err := rows.Scan(
			&s.ID,
			&s.Fingerprint,
			&s.Backend,
			&s.Qubits,
			&s.Gates,
			&s.Shots,
			&s.Status,
			&s.Error,
			&s.DurationMs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Count returns the number of archived runs.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Prune deletes runs older than the cutoff and returns how many rows
// were removed.
func (r *Repository) Prune(olderThan time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM runs WHERE created_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}

	if removed > 0 {
		r.log.Info().
			Int64("removed", removed).
			Time("older_than", olderThan).
			Msg("Pruned archived runs")
	}

	return removed, nil
}
