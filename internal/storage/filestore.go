// Package storage provides file-based JSON persistence for snapshots and
// generated reports.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

// FileStore persists the last-known-good snapshot and morning-call report
// as JSON documents under a base path.
type FileStore struct {
	basePath string
	logger   *common.Logger
}

// subdirectories defines the directory layout under basePath.
var subdirectories = []string{"snapshots", "reports"}

const (
	snapshotKey    = "portfolio"
	morningCallKey = "morning-call"
)

// NewFileStore creates a new FileStore and ensures all subdirectories exist.
func NewFileStore(logger *common.Logger, basePath string) (*FileStore, error) {
	fs := &FileStore{
		basePath: basePath,
		logger:   logger,
	}

	for _, sub := range subdirectories {
		dir := filepath.Join(fs.basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", basePath).Msg("FileStore opened")
	return fs, nil
}

// filePath returns the full path for a key in a subdirectory.
func (fs *FileStore) filePath(sub, key string) string {
	return filepath.Join(fs.basePath, sub, key+".json")
}

// readJSON reads and unmarshals a JSON file.
func (fs *FileStore) readJSON(sub, key string, dest interface{}) error {
	path := fs.filePath(sub, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' not found", key)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals data to indented JSON and writes it atomically: a temp
// file in the same directory, then a rename. A crashed write never leaves a
// truncated document behind.
func (fs *FileStore) writeJSON(sub, key string, data interface{}) error {
	dir := filepath.Join(fs.basePath, sub)
	target := fs.filePath(sub, key)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// SaveSnapshot persists the reconciled snapshot as last-known-good.
func (fs *FileStore) SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	return fs.writeJSON("snapshots", snapshotKey, snapshot)
}

// GetSnapshot loads the persisted snapshot.
func (fs *FileStore) GetSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	var snapshot models.PortfolioSnapshot
	if err := fs.readJSON("snapshots", snapshotKey, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SaveMorningCall persists the generated morning-call report.
func (fs *FileStore) SaveMorningCall(ctx context.Context, report *models.MorningCallReport) error {
	return fs.writeJSON("reports", morningCallKey, report)
}

// GetMorningCall loads the persisted morning-call report.
func (fs *FileStore) GetMorningCall(ctx context.Context) (*models.MorningCallReport, error) {
	var report models.MorningCallReport
	if err := fs.readJSON("reports", morningCallKey, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Close releases resources. The file store holds no open handles.
func (fs *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements SnapshotStore
var _ interfaces.SnapshotStore = (*FileStore)(nil)
