package runs

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/events"
)

// PruneJob removes archived runs past the retention window. Scheduled
// nightly; safe to run at any time.
type PruneJob struct {
	repo          *Repository
	eventManager  *events.Manager
	retentionDays int
	log           zerolog.Logger
}

// NewPruneJob creates the archive retention job.
func NewPruneJob(repo *Repository, eventManager *events.Manager, retentionDays int, log zerolog.Logger) *PruneJob {
	return &PruneJob{
		repo:          repo,
		eventManager:  eventManager,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "archive_prune").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *PruneJob) Name() string {
	return "archive_prune"
}

// Run implements scheduler.Job.
func (j *PruneJob) Run() error {
	if j.retentionDays <= 0 {
		// Retention disabled, keep everything
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)
	removed, err := j.repo.Prune(cutoff)
	if err != nil {
		return err
	}

	if removed > 0 && j.eventManager != nil {
		j.eventManager.EmitTyped("runs", &events.ArchivePrunedData{
			Removed:       int(removed),
			RetentionDays: j.retentionDays,
		})
	}

	return nil
}
