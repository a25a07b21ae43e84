// Package uploads manages uploaded image binaries: per-request staging for
// the analysis flow and durable storage for saved detection records.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/config"
)

// ErrTooLarge is returned when an upload exceeds the configured size cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

// errReleased is returned when a staged image is read after release.
var errReleased = errors.New("staged image already released")

// Staged is a single-use handle on an uploaded image held for the duration of
// one request. Release frees the backing resource; it is idempotent and must
// run on every exit path, success or failure.
type Staged interface {
	// Bytes returns the staged image content. Fails after Release.
	Bytes() ([]byte, error)
	// MIMEType is the content type the upload declared, or image/jpeg.
	MIMEType() string
	// Release frees the backing resource (removes the temp file or discards
	// the buffer). Safe to call more than once.
	Release()
}

// Stager stages one multipart upload per request, either to a temp file
// (default) or to an in-memory buffer.
type Stager struct {
	inMemory bool
	maxBytes int64
	logger   *zap.Logger
}

// NewStager creates a stager from the uploads configuration.
func NewStager(cfg *config.UploadsConfig, logger *zap.Logger) *Stager {
	return &Stager{
		inMemory: cfg.InMemory,
		maxBytes: cfg.MaxBytes,
		logger:   logger.Named("uploads"),
	}
}

// Stage consumes the multipart file into a Staged handle. The caller owns the
// handle and must call Release.
func (s *Stager) Stage(file multipart.File, header *multipart.FileHeader) (Staged, error) {
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, header.Size, s.maxBytes)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if s.inMemory {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return &memoryStaged{data: data, mimeType: mimeType}, nil
	}

	tmp, err := os.CreateTemp("", "cropmind-stage-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	return &fileStaged{path: tmp.Name(), mimeType: mimeType, logger: s.logger}, nil
}

type memoryStaged struct {
	data     []byte
	mimeType string

	mu       sync.Mutex
	released bool
}

func (m *memoryStaged) Bytes() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil, errReleased
	}
	return m.data, nil
}

func (m *memoryStaged) MIMEType() string {
	return m.mimeType
}

func (m *memoryStaged) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	m.data = nil
}

type fileStaged struct {
	path     string
	mimeType string
	logger   *zap.Logger

	mu       sync.Mutex
	released bool
}

func (f *fileStaged) Bytes() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return nil, errReleased
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read staging file: %w", err)
	}
	return data, nil
}

func (f *fileStaged) MIMEType() string {
	return f.mimeType
}

func (f *fileStaged) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return
	}
	f.released = true
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to remove staging file",
			zap.String("path", f.path),
			zap.Error(err))
	}
}
