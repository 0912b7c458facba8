package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/config"
	"github.com/qlens/qlens/internal/database"
	"github.com/qlens/qlens/internal/events"
	"github.com/qlens/qlens/internal/modules/runs"
	"github.com/qlens/qlens/pkg/logger"
)

type serverFixture struct {
	srv *Server
	bus *events.Bus
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error"})
	dataDir := t.TempDir()

	archiveDB, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, "archive.db"),
		Profile: database.ProfileStandard,
		Name:    "archive",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = archiveDB.Close() })
	require.NoError(t, archiveDB.Migrate())

	bus := events.NewBus(log)
	eventManager := events.NewManager(bus, log)
	runsRepo := runs.NewRepository(archiveDB.Conn(), log)

	registry := backends.NewRegistry()
	registry.Register(backends.NewStatevector(8, log))

	cfg := &config.Config{
		DataDir:       dataDir,
		Port:          0,
		MaxQubits:     8,
		MaxShots:      4096,
		RetentionDays: 30,
		Remote:        &config.RemoteConfig{},
		Backup:        &config.BackupConfig{},
	}

	srv := New(Config{
		Log:          log,
		Config:       cfg,
		ArchiveDB:    archiveDB,
		RunsRepo:     runsRepo,
		Registry:     registry,
		Bus:          bus,
		EventManager: eventManager,
		DevMode:      true,
	})

	return &serverFixture{srv: srv, bus: bus}
}

func TestHealthEndpoint(t *testing.T) {
	f := newTestServer(t)

	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRunThroughFullStack(t *testing.T) {
	f := newTestServer(t)

	payload := map[string]interface{}{
		"circuit": map[string]interface{}{
			"qubits": 2,
			"gates": []map[string]interface{}{
				{"kind": "h", "qubits": []int{0}},
				{"kind": "cx", "qubits": []int{0, 1}},
			},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/circuits/run", bytes.NewReader(raw)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		Data struct {
			RunID string `json:"run_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.Data.RunID)

	// The archived run is retrievable over the API.
	rec = httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+response.Data.RunID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// And exportable as QASM.
	rec = httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/circuits/"+response.Data.RunID+"/qasm", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cx q[0],q[1];")
}

func TestSystemStatusEndpoint(t *testing.T) {
	f := newTestServer(t)

	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	require.Len(t, status.Backends, 1)
	assert.Equal(t, "statevector", status.Backends[0].Name)
}

func TestDatabaseStatsEndpoint(t *testing.T) {
	f := newTestServer(t)

	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/database/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats DatabaseStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "archive", stats.Name)
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestEventsStreamDeliversFilteredEvents(t *testing.T) {
	f := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events/stream?types=RUN_COMPLETED", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.srv.Router().ServeHTTP(rec, req)
	}()

	// Let the handler subscribe before publishing.
	time.Sleep(100 * time.Millisecond)
	f.bus.Emit(events.RunCompleted, "quantum", map[string]interface{}{"run_id": "abc"})
	f.bus.Emit(events.RunStarted, "quantum", map[string]interface{}{"run_id": "abc"})
	time.Sleep(100 * time.Millisecond)

	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"connected"`)
	assert.Contains(t, body, "RUN_COMPLETED")
	assert.NotContains(t, body, "RUN_STARTED")
}
