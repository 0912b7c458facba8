package database

import (
	"github.com/rs/zerolog"
)

// CheckpointJob periodically truncates the WAL so the archive file
// stays compact on a long-running service. Implements scheduler.Job.
type CheckpointJob struct {
	db  *DB
	log zerolog.Logger
}

// NewCheckpointJob creates a WAL checkpoint job for one database.
func NewCheckpointJob(db *DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Str("database", db.Name()).Logger(),
	}
}

// Name implements scheduler.Job.
func (j *CheckpointJob) Name() string {
	return "wal_checkpoint_" + j.db.Name()
}

// Run implements scheduler.Job.
func (j *CheckpointJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}
	j.log.Debug().Msg("WAL checkpoint completed")
	return nil
}
