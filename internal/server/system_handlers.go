package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/database"
	"github.com/qlens/qlens/internal/modules/runs"
)

// SystemHandlers serves the operational status endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	archiveDB *database.DB
	runsRepo  *runs.Repository
	registry  *backends.Registry
	startTime time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	archiveDB *database.DB,
	runsRepo *runs.Repository,
	registry *backends.Registry,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		dataDir:   dataDir,
		archiveDB: archiveDB,
		runsRepo:  runsRepo,
		registry:  registry,
		startTime: time.Now(),
	}
}

// SystemStatusResponse is the /api/system/status payload.
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	CPUPercent    float64         `json:"cpu_percent"`
	RAMPercent    float64         `json:"ram_percent"`
	ArchivedRuns  int             `json:"archived_runs"`
	Backends      []backends.Info `json:"backends"`
	Timestamp     string          `json:"timestamp"`
}

// DatabaseStatsResponse is the /api/system/database/stats payload.
type DatabaseStatsResponse struct {
	Name          string  `json:"name"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	PageSize      int64   `json:"page_size"`
	FreelistCount int64   `json:"freelist_count"`
	DataDirMB     float64 `json:"data_dir_mb"`
	LastChecked   string  `json:"last_checked"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	archivedRuns := 0
	status := "ok"
	if h.runsRepo != nil {
		count, err := h.runsRepo.Count()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count archived runs")
			status = "degraded"
		} else {
			archivedRuns = count
		}
	}

	var infos []backends.Info
	if h.registry != nil {
		infos = h.registry.List(r.Context())
	}

	response := SystemStatusResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		ArchivedRuns:  archivedRuns,
		Backends:      infos,
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	response := DatabaseStatsResponse{
		Name:        "archive",
		DataDirMB:   h.getDirSize(h.dataDir),
		LastChecked: time.Now().Format(time.RFC3339),
	}

	if h.archiveDB != nil {
		stats, err := h.archiveDB.GetStats()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to get archive database stats")
			http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
			return
		}
		response.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
		response.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
		response.PageCount = stats.PageCount
		response.PageSize = stats.PageSize
		response.FreelistCount = stats.FreelistCount
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if h.archiveDB != nil {
		if err := h.archiveDB.QuickCheck(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("Archive database health check failed")
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// A 100ms CPU sample keeps the endpoint responsive; status pollers call
// this frequently and a 1s sample would stall them.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
