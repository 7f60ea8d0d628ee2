package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

const backupCols = `id, object_key, size_bytes, created_at`

func (s *BackupStore) Record(objectKey string, sizeBytes int64) (*model.BackupRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO backups (object_key, size_bytes) VALUES (?, ?)`,
		objectKey, sizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+backupCols+` FROM backups WHERE id = ?`, id)
	var r model.BackupRecord
	if err := row.Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("get backup record: %w", err)
	}
	return &r, nil
}

// ListRecent returns the newest records first.
func (s *BackupStore) ListRecent(limit int) ([]model.BackupRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+backupCols+` FROM backups ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var records []model.BackupRecord
	for rows.Next() {
		var r model.BackupRecord
		if err := rows.Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Latest returns the most recent record, or nil when none exist.
func (s *BackupStore) Latest() (*model.BackupRecord, error) {
	row := s.db.QueryRow(`SELECT ` + backupCols + ` FROM backups ORDER BY created_at DESC LIMIT 1`)
	var r model.BackupRecord
	err := row.Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest backup: %w", err)
	}
	return &r, nil
}
