package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open for a storage path that holds no export
var ErrNotFound = errors.New("export not found")

// Storage archives exported study sheets
type Storage interface {
	// Save stores an export and returns its storage path
	Save(ctx context.Context, exportID uuid.UUID, filename string, data io.Reader) (string, error)

	// Open retrieves an export by storage path
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an export by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // local only
	S3Bucket     string // s3 only
	S3Region     string // s3 only
	S3Prefix     string // s3 only, key prefix
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a storage backend from configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ConfigFromEnv reads storage configuration from environment variables
func ConfigFromEnv() StorageConfig {
	cfg := StorageConfig{
		Type:         StorageType(envOr("STORAGE_TYPE", string(StorageTypeLocal))),
		LocalPath:    envOr("STORAGE_LOCAL_PATH", "./storage/exports"),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		S3Region:     envOr("AWS_REGION", "us-east-1"),
		S3Prefix:     envOr("AWS_S3_PREFIX", "exports"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// exportPath builds the storage path for an export: <yyyy-mm>/<id>_<name>.
// month is supplied by the caller so paths are deterministic in tests.
func exportPath(month string, exportID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s/%s_%s%s", month, exportID.String(), base, ext)
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
