package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrExportNotFound is returned when an export key does not exist.
var ErrExportNotFound = errors.New("export not found")

// ErrInvalidFormat is returned for an export format other than markdown or html.
var ErrInvalidFormat = errors.New("unsupported export format")

// Format is the rendering of an exported plan.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown", "md" or "html". Empty means markdown.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidFormat, raw)
	}
}

func (f Format) ext() string {
	if f == FormatHTML {
		return "html"
	}
	return "md"
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// ExportStore keeps rendered plan exports, one file per version.
type ExportStore interface {
	Save(ctx context.Context, name string, version time.Time, format Format, data []byte) (string, error)
	Load(ctx context.Context, key string) ([]byte, error)
	RemoveStaleVersions(ctx context.Context, name string) error
}

// versionedName returns the file name for a given export name and version.
func versionedName(name string, version time.Time, format Format) string {
	ts := strings.ReplaceAll(version.UTC().Format(time.RFC3339), ":", "-")
	return fmt.Sprintf("%s_%s.%s", name, ts, format.ext())
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\_`) || name == "." || name == ".." {
		return fmt.Errorf("invalid export name %q", name)
	}
	return nil
}

// FileExportStore provides file-based storage for rendered exports.
type FileExportStore struct {
	basePath string
}

// NewFileExportStore creates a new FileExportStore and ensures the base
// directory exists.
func NewFileExportStore(basePath string) (*FileExportStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileExportStore{basePath: basePath}, nil
}

// Save writes data under a versioned file name and returns that name as
// the export key.
func (s *FileExportStore) Save(_ context.Context, name string, version time.Time, format Format, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	key := versionedName(name, version, format)
	if err := os.WriteFile(filepath.Join(s.basePath, key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return key, nil
}

// Load reads an export by key.
func (s *FileExportStore) Load(_ context.Context, key string) ([]byte, error) {
	if key != filepath.Base(key) {
		return nil, fmt.Errorf("invalid export key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrExportNotFound, key)
		}
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	return data, nil
}

// RemoveStaleVersions removes all files associated with name.
// Call it before saving a new version to keep only the latest.
func (s *FileExportStore) RemoveStaleVersions(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	matches, err := filepath.Glob(filepath.Join(s.basePath, name+"_*"))
	if err != nil {
		return fmt.Errorf("failed to glob stale files: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

// Open returns an S3 store when a bucket is configured and a file store
// rooted at localPath otherwise.
func Open(ctx context.Context, localPath string, s3cfg S3Config) (ExportStore, error) {
	if s3cfg.Bucket != "" {
		return NewS3ExportStore(ctx, s3cfg)
	}
	return NewFileExportStore(localPath)
}
