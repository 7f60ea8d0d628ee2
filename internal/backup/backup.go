// Package backup snapshots the sqlite database, encrypts the snapshot
// and uploads it to S3-compatible object storage. Uploads are recorded
// in the backups table so the admin dashboard can show history.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/finjaanapp/finjaan/internal/store"
)

// s3Client is the subset of the S3 API the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds connection details for S3-compatible storage.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Config holds backup configuration.
type Config struct {
	S3         S3Config
	Passphrase string
	DBPath     string
	Interval   time.Duration
	Prefix     string
}

// State describes what the manager is currently doing.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateError   State = "error"
)

// Status is a snapshot of the manager for the admin dashboard.
type Status struct {
	State       State     `json:"state"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastSize    string    `json:"last_size,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastSuccess time.Time `json:"last_success,omitzero"`
}

// Manager runs scheduled and on-demand backups.
type Manager struct {
	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	cfg     Config
	logger  *slog.Logger

	mu     sync.Mutex
	status Status
}

// NewManager wires a backup manager. Returns nil when S3 is not
// configured; callers treat a nil manager as backups-disabled.
func NewManager(db *sql.DB, backups *store.BackupStore, cfg Config, logger *slog.Logger) *Manager {
	if cfg.S3.Bucket == "" || cfg.S3.AccessKeyID == "" {
		return nil
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "finjaan"
	}
	return &Manager{
		db:      db,
		backups: backups,
		client:  newS3Client(cfg.S3),
		cfg:     cfg,
		logger:  logger,
		status:  Status{State: StateIdle},
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	return s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	})
}

// Status returns a copy of the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start runs backups on the configured interval until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	interval := m.cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("backup scheduler started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Run(ctx); err != nil {
				m.logger.Error("scheduled backup failed", "error", err)
			}
		}
	}
}

// Run performs one backup: snapshot, encrypt, upload, record.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.status.State == StateRunning {
		m.mu.Unlock()
		return fmt.Errorf("backup already in progress")
	}
	m.status.State = StateRunning
	m.status.LastRun = time.Now().UTC()
	m.mu.Unlock()

	size, key, err := m.run(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.status.State = StateError
		m.status.LastError = err.Error()
		return err
	}
	m.status.State = StateIdle
	m.status.LastError = ""
	m.status.LastSize = humanize.Bytes(uint64(size))
	m.status.LastSuccess = time.Now().UTC()
	m.logger.Info("backup uploaded", "key", key, "size", humanize.Bytes(uint64(size)))
	return nil
}

func (m *Manager) run(ctx context.Context) (int64, string, error) {
	tmpDir, err := os.MkdirTemp("", "finjaan-backup-*")
	if err != nil {
		return 0, "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	encrypted := filepath.Join(tmpDir, "snapshot.db.enc")

	// VACUUM INTO gives a consistent snapshot without locking writers.
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return 0, "", fmt.Errorf("snapshot database: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return 0, "", err
	}
	if err := EncryptFile(snapshot, encrypted, m.cfg.Passphrase, salt); err != nil {
		return 0, "", err
	}

	data, err := os.ReadFile(encrypted)
	if err != nil {
		return 0, "", fmt.Errorf("read encrypted snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/%s.db.enc", m.cfg.Prefix, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return 0, "", fmt.Errorf("upload backup: %w", err)
	}

	if _, err := m.backups.Record(key, int64(len(data))); err != nil {
		return 0, "", fmt.Errorf("record backup: %w", err)
	}
	return int64(len(data)), key, nil
}
