// Package artifacts persists stage outputs onto the local filesystem and
// resolves the public URLs clients use to fetch them.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

// Sink stores generated media. Implementations must be safe for
// concurrent use: the pipeline persists several stages at once.
type Sink interface {
	// Store writes req.Data under a key derived from the request and
	// returns the reference recorded alongside the run.
	Store(ctx context.Context, req StoreRequest) (*domain.ArtifactRef, error)
	// StoreFile ingests an existing file (ffmpeg output) the same way.
	StoreFile(ctx context.Context, req StoreRequest, srcPath string) (*domain.ArtifactRef, error)
	// Remove deletes a stored artifact. Removing an already-absent
	// artifact is not an error.
	Remove(ctx context.Context, ref *domain.ArtifactRef) error
	// Path resolves a reference to its absolute location on disk.
	Path(ref *domain.ArtifactRef) string
}

// StoreRequest names one artifact to persist. Token keeps concurrent runs
// with identical titles apart; when empty the sink generates one.
type StoreRequest struct {
	Kind  domain.ArtifactKind
	Title string
	Token string
	Ext   string
	Data  []byte
}

// FileSink is a Sink rooted at a local directory, laid out one
// subdirectory per artifact kind (images/, audio/, videos/).
type FileSink struct {
	baseDir string
	baseURL string
}

var _ Sink = (*FileSink)(nil)

var kindDirs = map[domain.ArtifactKind]string{
	domain.ArtifactImage: "images",
	domain.ArtifactAudio: "audio",
	domain.ArtifactVideo: "videos",
}

// NewFileSink initializes the directory tree under baseDir and returns a
// sink whose references resolve publicly under baseURL.
func NewFileSink(baseDir, baseURL string) (*FileSink, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, errors.New("artifacts: base dir is required")
	}
	for _, sub := range kindDirs {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("artifacts: ensure dir: %w", err)
		}
	}
	return &FileSink{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// BaseDir returns the configured root directory.
func (s *FileSink) BaseDir() string { return s.baseDir }

func (s *FileSink) Store(ctx context.Context, req StoreRequest) (*domain.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, full, err := s.refFor(req)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(full, func(w io.Writer) error {
		_, err := w.Write(req.Data)
		return err
	}); err != nil {
		return nil, fmt.Errorf("artifacts: write %s: %w", ref.Key, err)
	}
	return ref, nil
}

func (s *FileSink) StoreFile(ctx context.Context, req StoreRequest, srcPath string) (*domain.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, full, err := s.refFor(req)
	if err != nil {
		return nil, err
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("artifacts: open source: %w", err)
	}
	defer src.Close()
	if err := writeAtomic(full, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	}); err != nil {
		return nil, fmt.Errorf("artifacts: ingest %s: %w", ref.Key, err)
	}
	return ref, nil
}

func (s *FileSink) Remove(ctx context.Context, ref *domain.ArtifactRef) error {
	if ref == nil || ref.Key == "" {
		return nil
	}
	if err := os.Remove(s.Path(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("artifacts: remove %s: %w", ref.Key, err)
	}
	return nil
}

func (s *FileSink) Path(ref *domain.ArtifactRef) string {
	if ref == nil {
		return ""
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(ref.Key))
}

func (s *FileSink) refFor(req StoreRequest) (*domain.ArtifactRef, string, error) {
	dir, ok := kindDirs[req.Kind]
	if !ok {
		return nil, "", fmt.Errorf("artifacts: unknown kind %q", req.Kind)
	}
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(req.Ext)), ".")
	if ext == "" {
		return nil, "", errors.New("artifacts: extension is required")
	}
	token := req.Token
	if token == "" {
		token = uuid.NewString()[:8]
	}
	key := path.Join(dir, fmt.Sprintf("%s-%s.%s", domain.Slug(req.Title), token, ext))
	ref := &domain.ArtifactRef{
		Kind: req.Kind,
		Key:  key,
		URL:  s.baseURL + "/" + key,
	}
	return ref, filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}

// writeAtomic writes into a temp file next to dest and renames it into
// place, so readers never observe a partial artifact.
func writeAtomic(dest string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
