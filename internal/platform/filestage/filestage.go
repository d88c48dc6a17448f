// Package filestage owns the on-disk lifecycle of uploaded videos.
//
// An upload is first written to the temp directory, then either discarded or promoted into the
// permanent directory. Callers defer Release on every handle they receive; whatever was not
// promoted or committed is removed when the handle is released.
package filestage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/ctxutil"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

const (
	defaultName  = "video"
	maxNameRunes = 120
)

type Config struct {
	TempDir      string
	PermanentDir string
}

type Manager struct {
	TempDir      string
	PermanentDir string

	log *logger.Logger
	now func() time.Time

	// guards name selection + rename so two uploads in the same millisecond never collide
	mu sync.Mutex
}

func New(log *logger.Logger, cfg Config) (*Manager, error) {
	if strings.TrimSpace(cfg.TempDir) == "" {
		return nil, fmt.Errorf("filestage: temp dir required")
	}
	if strings.TrimSpace(cfg.PermanentDir) == "" {
		return nil, fmt.Errorf("filestage: permanent dir required")
	}
	return &Manager{
		TempDir:      cfg.TempDir,
		PermanentDir: cfg.PermanentDir,
		log:          log.With("component", "FileStage"),
		now:          time.Now,
	}, nil
}

// Staged is an upload sitting in the temp directory.
type Staged struct {
	m        *Manager
	Path     string
	Name     string
	Size     int64
	promoted bool
	retained bool
	released bool
}

// Promoted is an upload moved into the permanent directory.
type Promoted struct {
	m         *Manager
	Path      string
	Name      string
	committed bool
	released  bool
}

// Stage copies r into the temp directory. expectedSize < 0 skips the size check.
func (m *Manager) Stage(ctx context.Context, r io.Reader, originalName string, expectedSize int64) (*Staged, error) {
	const op = "filestage.Stage"
	ctx = ctxutil.Default(ctx)
	if r == nil {
		return nil, perrors.Storage(op, errors.New("nil reader"))
	}
	if err := os.MkdirAll(m.TempDir, 0o755); err != nil {
		return nil, perrors.Storage(op, fmt.Errorf("mkdir temp dir: %w", err))
	}

	part, err := os.CreateTemp(m.TempDir, ".upload-*.part")
	if err != nil {
		return nil, perrors.Storage(op, fmt.Errorf("create part file: %w", err))
	}
	partPath := part.Name()
	fail := func(err error) (*Staged, error) {
		_ = part.Close()
		if rmErr := os.Remove(partPath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.log.Warn("remove part file failed", "path", partPath, "error", rmErr)
		}
		return nil, perrors.Storage(op, err)
	}

	n, err := io.Copy(part, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return fail(fmt.Errorf("write part file: %w", err))
	}
	if expectedSize >= 0 && n != expectedSize {
		return fail(fmt.Errorf("short write: want=%d got=%d", expectedSize, n))
	}
	if err := part.Sync(); err != nil {
		return fail(fmt.Errorf("sync part file: %w", err))
	}
	if err := part.Close(); err != nil {
		return fail(fmt.Errorf("close part file: %w", err))
	}
	if fi, err := os.Stat(partPath); err != nil {
		return fail(fmt.Errorf("stat part file: %w", err))
	} else if fi.Size() != n {
		return fail(fmt.Errorf("size after sync: want=%d got=%d", n, fi.Size()))
	}

	name, dest, err := m.place(partPath, m.TempDir, originalName)
	if err != nil {
		if rmErr := os.Remove(partPath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.log.Warn("remove part file failed", "path", partPath, "error", rmErr)
		}
		return nil, perrors.Storage(op, err)
	}

	m.log.Debug("upload staged", "path", dest, "bytes", n)
	return &Staged{m: m, Path: dest, Name: name, Size: n}, nil
}

// Promote moves the staged file into the permanent directory under a fresh timestamped name.
// On failure the temp file is retained for inspection.
func (s *Staged) Promote(originalName string) (*Promoted, error) {
	const op = "filestage.Promote"
	if s == nil {
		return nil, perrors.Storage(op, errors.New("nil staged file"))
	}
	if s.promoted || s.released {
		return nil, perrors.Storage(op, errors.New("staged file no longer available"))
	}
	if strings.TrimSpace(originalName) == "" {
		originalName = s.Name
	}
	if err := os.MkdirAll(s.m.PermanentDir, 0o755); err != nil {
		s.retained = true
		s.m.log.Error("promotion failed, temp file retained", "path", s.Path, "error", err)
		return nil, perrors.Storage(op, fmt.Errorf("mkdir permanent dir: %w", err))
	}
	name, dest, err := s.m.place(s.Path, s.m.PermanentDir, originalName)
	if err != nil {
		s.retained = true
		s.m.log.Error("promotion failed, temp file retained", "path", s.Path, "error", err)
		return nil, perrors.Storage(op, err)
	}
	s.promoted = true
	s.m.log.Debug("upload promoted", "from", s.Path, "to", dest)
	return &Promoted{m: s.m, Path: dest, Name: name}, nil
}

// Retained reports whether a failed promotion left the temp file in place.
func (s *Staged) Retained() bool { return s != nil && s.retained }

// Release deletes the temp file unless it was promoted or retained. Safe to call repeatedly.
func (s *Staged) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if s.promoted || s.retained {
		return
	}
	s.m.Discard(s.Path)
}

// Commit marks the permanent file as referenced; Release becomes a no-op.
func (p *Promoted) Commit() {
	if p != nil {
		p.committed = true
	}
}

// Release removes the permanent file unless it was committed.
func (p *Promoted) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	if p.committed {
		return
	}
	p.m.Discard(p.Path)
}

// Discard deletes path, logging instead of failing.
func (m *Manager) Discard(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.log.Warn("discard file failed", "path", path, "error", err)
		return
	}
	m.log.Debug("file discarded", "path", path)
}

// place renames src into dir as "<epoch-millis>_<name>", stepping the timestamp past existing files.
func (m *Manager) place(src, dir, originalName string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := SanitizeName(originalName)
	ms := m.now().UnixMilli()
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("%d_%s", ms+int64(i), base)
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", "", fmt.Errorf("stat %s: %w", dest, err)
		}
		if err := os.Rename(src, dest); err != nil {
			return "", "", fmt.Errorf("rename into %s: %w", dir, err)
		}
		return name, dest, nil
	}
	return "", "", fmt.Errorf("no free name for %q in %s", base, dir)
}

// SanitizeName reduces a client-supplied file name to a safe single path element.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if r := []rune(out); len(r) > maxNameRunes {
		out = string(r[len(r)-maxNameRunes:])
	}
	if out == "" || strings.Trim(out, "_") == "" {
		return defaultName
	}
	return out
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
