package filestage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	root := t.TempDir()
	m, err := New(logger.Nop(), Config{
		TempDir:      filepath.Join(root, "TempUploads"),
		PermanentDir: filepath.Join(root, "Uploads"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return m
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir %s: %v", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestStageAndRelease(t *testing.T) {
	m := newTestManager(t)
	data := []byte("not really a video")

	st, err := m.Stage(context.Background(), bytes.NewReader(data), "clip.mp4", int64(len(data)))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if st.Name != "1700000000000_clip.mp4" {
		t.Fatalf("Stage name: want=%q got=%q", "1700000000000_clip.mp4", st.Name)
	}
	got, err := os.ReadFile(st.Path)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("staged content: err=%v got=%q", err, got)
	}
	if files := listDir(t, m.TempDir); len(files) != 1 {
		t.Fatalf("temp dir: want=1 file got=%v", files)
	}

	st.Release()
	st.Release()
	if files := listDir(t, m.TempDir); len(files) != 0 {
		t.Fatalf("temp dir after release: want empty got=%v", files)
	}
}

func TestStageSizeMismatchLeavesNothing(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Stage(context.Background(), strings.NewReader("abc"), "clip.mp4", 10)
	if !perrors.Is(err, perrors.KindStorage) {
		t.Fatalf("Stage: want storage error got=%v", err)
	}
	if files := listDir(t, m.TempDir); len(files) != 0 {
		t.Fatalf("temp dir: want empty got=%v", files)
	}
}

func TestStageCanceledContext(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Stage(ctx, strings.NewReader("abc"), "clip.mp4", -1)
	if !perrors.Is(err, perrors.KindStorage) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Stage: want canceled storage error got=%v", err)
	}
	if files := listDir(t, m.TempDir); len(files) != 0 {
		t.Fatalf("temp dir: want empty got=%v", files)
	}
}

func TestStageSameMillisecondDoesNotCollide(t *testing.T) {
	m := newTestManager(t)
	a, err := m.Stage(context.Background(), strings.NewReader("a"), "clip.mp4", -1)
	if err != nil {
		t.Fatalf("Stage a: %v", err)
	}
	b, err := m.Stage(context.Background(), strings.NewReader("b"), "clip.mp4", -1)
	if err != nil {
		t.Fatalf("Stage b: %v", err)
	}
	if a.Path == b.Path {
		t.Fatalf("Stage: paths collide at %s", a.Path)
	}
}

func TestPromoteCommit(t *testing.T) {
	m := newTestManager(t)
	st, err := m.Stage(context.Background(), strings.NewReader("video"), "clip.mp4", 5)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer st.Release()

	m.now = func() time.Time { return time.UnixMilli(1700000005000) }
	p, err := st.Promote("clip.mp4")
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	defer p.Release()
	if p.Name != "1700000005000_clip.mp4" {
		t.Fatalf("Promote name: want=%q got=%q", "1700000005000_clip.mp4", p.Name)
	}
	p.Commit()
	p.Release()
	st.Release()

	if files := listDir(t, m.PermanentDir); len(files) != 1 {
		t.Fatalf("permanent dir: want=1 got=%v", files)
	}
	if files := listDir(t, m.TempDir); len(files) != 0 {
		t.Fatalf("temp dir: want empty got=%v", files)
	}
}

func TestPromotedReleaseWithoutCommitRemovesFile(t *testing.T) {
	m := newTestManager(t)
	st, err := m.Stage(context.Background(), strings.NewReader("video"), "clip.mp4", -1)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	p, err := st.Promote("")
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	p.Release()
	st.Release()
	if files := listDir(t, m.PermanentDir); len(files) != 0 {
		t.Fatalf("permanent dir: want empty got=%v", files)
	}
}

func TestPromoteFailureRetainsTempFile(t *testing.T) {
	m := newTestManager(t)
	// a regular file where the permanent directory should be
	if err := os.WriteFile(m.PermanentDir, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	st, err := m.Stage(context.Background(), strings.NewReader("video"), "clip.mp4", -1)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := st.Promote("clip.mp4"); !perrors.Is(err, perrors.KindStorage) {
		t.Fatalf("Promote: want storage error got=%v", err)
	}
	st.Release()
	if !st.Retained() {
		t.Fatalf("Retained: want=true got=false")
	}
	if _, err := os.Stat(st.Path); err != nil {
		t.Fatalf("retained temp file missing: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":              "clip.mp4",
		"../../etc/passwd":      "passwd",
		`C:\videos\my clip.mov`: "my_clip.mov",
		"":                      "video",
		".hidden":               "hidden",
		"///":                   "video",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Fatalf("SanitizeName(%q): want=%q got=%q", in, want, got)
		}
	}
}
