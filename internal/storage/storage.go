// Package storage provides the trace source and result sink backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/heaptrace/pkg/config"
	apperrors "github.com/heaptrace/pkg/errors"
)

// Storage defines the object operations heaptrace needs.
type Storage interface {
	// Upload uploads data from reader to the specified key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile uploads a local file to the specified key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download downloads data from the specified key. A missing key yields
	// an error matching apperrors.ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL or path identifying key.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// COSScheme prefixes trace locations that live in the configured COS bucket.
const COSScheme = "cos://"

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case "", StorageTypeLocal:
		return nil
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Location is a parsed trace input.
type Location struct {
	Type StorageType
	Key  string
}

// ParseLocation splits an input into backend and key. "cos://a/b.txt"
// addresses key "a/b.txt" in COS; anything else is a local path.
func ParseLocation(input string) (Location, error) {
	if key, ok := strings.CutPrefix(input, COSScheme); ok {
		key = strings.TrimLeft(key, "/")
		if key == "" {
			return Location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "empty COS key", fmt.Errorf("input %q", input))
		}
		return Location{Type: StorageTypeCOS, Key: key}, nil
	}
	if input == "" {
		return Location{}, apperrors.New(apperrors.CodeInvalidInput, "no input given")
	}
	return Location{Type: StorageTypeLocal, Key: input}, nil
}

// String returns the location in input form.
func (l Location) String() string {
	if l.Type == StorageTypeCOS {
		return COSScheme + l.Key
	}
	return l.Key
}

// ReadAll downloads key from s into memory.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Download(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to download "+key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOError, "failed to read "+key, err)
	}
	return data, nil
}
