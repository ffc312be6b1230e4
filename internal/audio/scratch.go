package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Scratch stores uploads in a local directory for the duration of a job.
type Scratch struct {
	dir string
}

// NewScratch returns a Scratch rooted at dir. The directory is created on
// first use.
func NewScratch(dir string) *Scratch {
	return &Scratch{dir: dir}
}

// Dir returns the scratch directory.
func (s *Scratch) Dir() string {
	return s.dir
}

// Store copies r into a new uniquely named file.
func (s *Scratch) Store(r io.Reader, mimeType string) (*Asset, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	name := uuid.NewString() + Extension(mimeType)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing scratch file: %w", err)
	}

	return &Asset{
		Path:     path,
		Name:     name,
		MIMEType: mimeType,
		Size:     n,
	}, nil
}

// Asset is the transient copy of one job's audio.
type Asset struct {
	Path     string
	Name     string
	MIMEType string
	Size     int64

	once sync.Once
}

// Read returns the asset's bytes.
func (a *Asset) Read() ([]byte, error) {
	b, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("reading audio asset: %w", err)
	}
	return b, nil
}

// Release deletes the file. It is safe to call more than once; failures are
// logged and never returned.
func (a *Asset) Release() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("audio cleanup failed", "path", a.Path, "error", err)
		}
	})
}
