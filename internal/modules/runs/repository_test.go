package runs

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/events"
	"github.com/qlens/qlens/internal/modules/quantum"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE runs (
			id          TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			backend     TEXT NOT NULL,
			qubits      INTEGER NOT NULL,
			gates       INTEGER NOT NULL,
			shots       INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			circuit     TEXT NOT NULL,
			bundle      BLOB,
			duration_ms REAL NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func testLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func bellRecord() Record {
	circuit := quantum.Circuit{
		Qubits: 2,
		Gates: []quantum.Gate{
			{Kind: quantum.KindH, Qubits: []int{0}},
			{Kind: quantum.KindCX, Qubits: []int{0, 1}},
		},
	}
	fingerprint, _ := quantum.Fingerprint(circuit)
	return Record{
		Fingerprint: fingerprint,
		Backend:     "statevector",
		Qubits:      2,
		Gates:       2,
		Shots:       128,
		Status:      StatusCompleted,
		Circuit:     circuit,
		Result: &backends.Result{
			Backend:            "statevector",
			Qubits:             2,
			BasisProbabilities: []float64{0.5, 0, 0, 0.5},
			Counts:             map[string]int{"00": 70, "11": 58},
		},
		DurationMs: 1.5,
	}
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	id, err := repo.Save(bellRecord())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.Get(id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Qubits)
	assert.Len(t, got.Circuit.Gates, 2)
	assert.Equal(t, quantum.KindCX, got.Circuit.Gates[1].Kind)

	require.NotNil(t, got.Result)
	assert.InDelta(t, 0.5, got.Result.BasisProbabilities[3], 1e-12)
	assert.Equal(t, 70, got.Result.Counts["00"])

	// Fingerprint survives the round trip and still matches the circuit.
	roundTrip, err := quantum.Fingerprint(got.Circuit)
	require.NoError(t, err)
	assert.Equal(t, got.Fingerprint, roundTrip)
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	_, err := repo.Get("no-such-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositorySaveFailedRunWithoutBundle(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	rec := bellRecord()
	rec.Status = StatusFailed
	rec.Error = "backend unavailable"
	rec.Result = nil

	id, err := repo.Save(rec)
	require.NoError(t, err)

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "backend unavailable", got.Error)
	assert.Nil(t, got.Result)
}

func TestRepositoryList(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	first := bellRecord()
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	firstID, err := repo.Save(first)
	require.NoError(t, err)

	second := bellRecord()
	second.CreatedAt = time.Now()
	secondID, err := repo.Save(second)
	require.NoError(t, err)

	summaries, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first.
	assert.Equal(t, secondID, summaries[0].ID)
	assert.Equal(t, firstID, summaries[1].ID)

	limited, err := repo.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, secondID, limited[0].ID)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRepositoryPrune(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	old := bellRecord()
	old.CreatedAt = time.Now().AddDate(0, 0, -60)
	_, err := repo.Save(old)
	require.NoError(t, err)

	recent := bellRecord()
	recentID, err := repo.Save(recent)
	require.NoError(t, err)

	removed, err := repo.Prune(time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	summaries, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, recentID, summaries[0].ID)
}

func TestPruneJob(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	old := bellRecord()
	old.CreatedAt = time.Now().AddDate(0, 0, -90)
	_, err := repo.Save(old)
	require.NoError(t, err)

	bus := events.NewBus(testLog())
	manager := events.NewManager(bus, testLog())

	var pruned *events.Event
	bus.Subscribe(events.ArchivePruned, func(e *events.Event) {
		pruned = e
	})

	job := NewPruneJob(repo, manager, 30, testLog())
	assert.Equal(t, "archive_prune", job.Name())
	require.NoError(t, job.Run())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NotNil(t, pruned)
	assert.Equal(t, float64(1), pruned.Data["removed"])
	assert.Equal(t, float64(30), pruned.Data["retention_days"])
}

func TestPruneJobRetentionDisabled(t *testing.T) {
	repo := NewRepository(testDB(t), testLog())

	old := bellRecord()
	old.CreatedAt = time.Now().AddDate(0, 0, -365)
	_, err := repo.Save(old)
	require.NoError(t, err)

	job := NewPruneJob(repo, nil, 0, testLog())
	require.NoError(t, job.Run())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
