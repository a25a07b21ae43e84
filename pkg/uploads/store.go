package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/config"
)

// Store persists uploaded images that back saved detection records and mints
// the relative URLs they are served under.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *zap.Logger
}

// NewStore creates the upload store, ensuring the storage directory exists.
func NewStore(cfg *config.UploadsConfig, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &Store{
		dir:      cfg.Dir,
		baseURL:  cfg.BaseURL,
		maxBytes: cfg.MaxBytes,
		logger:   logger.Named("uploads"),
	}, nil
}

// Dir returns the storage directory, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload under a fresh uuid filename and returns the relative
// URL the image is served under. The file is not removed on later persistence
// failures; callers that care log the orphan.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, header.Size, s.maxBytes)
	}

	name := uuid.New().String() + filepath.Ext(header.Filename)
	dst := filepath.Join(s.dir, name)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	written, err := io.Copy(out, file)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	s.logger.Debug("Stored upload",
		zap.String("file", name),
		zap.Int64("bytes", written))

	return path.Join(s.baseURL, name), nil
}
