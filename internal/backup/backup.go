// Package backup uploads the archive database to S3-compatible storage
// on a schedule.
package backup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/config"
	"github.com/qlens/qlens/internal/database"
	"github.com/qlens/qlens/internal/events"
)

const uploadTimeout = 5 * time.Minute

// Job checkpoints the archive database and uploads a snapshot of the
// database file. Implements scheduler.Job.
type Job struct {
	archiveDB    *database.DB
	cfg          *config.BackupConfig
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewJob creates the archive backup job.
func NewJob(archiveDB *database.DB, cfg *config.BackupConfig, eventManager *events.Manager, log zerolog.Logger) *Job {
	return &Job{
		archiveDB:    archiveDB,
		cfg:          cfg,
		eventManager: eventManager,
		log:          log.With().Str("job", "archive_backup").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *Job) Name() string {
	return "archive_backup"
}

// Run implements scheduler.Job.
func (j *Job) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	key, size, err := j.upload(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Archive backup failed")
		if j.eventManager != nil {
			j.eventManager.EmitTyped("backup", &events.BackupFailedData{
				Bucket: j.cfg.Bucket,
				Error:  err.Error(),
			})
		}
		return err
	}

	j.log.Info().
		Str("bucket", j.cfg.Bucket).
		Str("key", key).
		Int64("size_bytes", size).
		Msg("Archive backup uploaded")

	if j.eventManager != nil {
		j.eventManager.EmitTyped("backup", &events.BackupCompletedData{
			Bucket:    j.cfg.Bucket,
			Key:       key,
			SizeBytes: size,
		})
	}

	return nil
}

func (j *Job) upload(ctx context.Context) (string, int64, error) {
	// Fold the WAL into the main file so the snapshot is complete
	if err := j.archiveDB.WALCheckpoint("TRUNCATE"); err != nil {
		return "", 0, err
	}

	file, err := os.Open(j.archiveDB.Path())
	if err != nil {
		return "", 0, fmt.Errorf("failed to open archive database file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat archive database file: %w", err)
	}

	client, err := j.newClient(ctx)
	if err != nil {
		return "", 0, err
	}

	key := fmt.Sprintf("%s/archive-%s.db", j.cfg.Prefix, time.Now().UTC().Format("20060102-150405"))

	uploader := manager.NewUploader(client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(j.cfg.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload archive snapshot: %w", err)
	}

	return key, info.Size(), nil
}

// newClient builds the S3 client. Explicit keys take precedence over
// the default credential chain; a custom endpoint switches to
// path-style addressing, which most S3-compatible providers require.
func (j *Job) newClient(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(j.cfg.Region),
	}
	if j.cfg.AccessKey != "" && j.cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(j.cfg.AccessKey, j.cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if j.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(j.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}
