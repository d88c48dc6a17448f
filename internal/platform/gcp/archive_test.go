package gcp

import (
	"context"
	"testing"

	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

func TestResolvePublicBaseURL(t *testing.T) {
	gcs := ObjectStorageConfig{Mode: ObjectStorageModeGCS}
	emu := ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"}

	cases := []struct {
		name       string
		cfg        ObjectStorageConfig
		raw        string
		wantURL    string
		wantSource string
	}{
		{"gcs default", gcs, "", "", "gcs_default"},
		{"emulator fallback", emu, "", "http://fake-gcs:4443", "emulator_host"},
		{"override", emu, "http://localhost:4443/", "http://localhost:4443", "public_base_url"},
	}
	for _, tc := range cases {
		got, source, err := resolvePublicBaseURL(tc.cfg, tc.raw)
		if err != nil {
			t.Fatalf("%s: resolvePublicBaseURL: %v", tc.name, err)
		}
		if got != tc.wantURL {
			t.Fatalf("%s: baseURL: want=%q got=%q", tc.name, tc.wantURL, got)
		}
		if source != tc.wantSource {
			t.Fatalf("%s: source: want=%q got=%q", tc.name, tc.wantSource, source)
		}
	}

	if _, _, err := resolvePublicBaseURL(gcs, "localhost:4443"); err == nil {
		t.Fatalf("relative base url: expected error, got nil")
	}
}

func TestPublicURL(t *testing.T) {
	log := logger.Nop()

	a := newBucketArchive(log, ArchiveConfig{
		Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS},
		Bucket:  "pb-videos",
		Prefix:  "/videos/",
	}, "")
	if got, want := a.PublicURL("u1/a1/clip.mp4"), "https://storage.googleapis.com/pb-videos/videos/u1/a1/clip.mp4"; got != want {
		t.Fatalf("gcs url: want=%q got=%q", want, got)
	}

	a = newBucketArchive(log, ArchiveConfig{
		Storage:   ObjectStorageConfig{Mode: ObjectStorageModeGCS},
		Bucket:    "pb-videos",
		CDNDomain: "cdn.example.com",
	}, "")
	if got, want := a.PublicURL("u1/clip.mp4"), "https://cdn.example.com/u1/clip.mp4"; got != want {
		t.Fatalf("cdn url: want=%q got=%q", want, got)
	}

	a = newBucketArchive(log, ArchiveConfig{
		Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
		Bucket:  "pb-videos",
	}, "http://localhost:4443")
	if got, want := a.PublicURL("u1/clip.mp4"), "http://localhost:4443/storage/v1/b/pb-videos/o/u1%2Fclip.mp4?alt=media"; got != want {
		t.Fatalf("emulator url: want=%q got=%q", want, got)
	}
}

func TestArchiveWithoutClient(t *testing.T) {
	a := newBucketArchive(logger.Nop(), ArchiveConfig{Bucket: "pb-videos"}, "")
	if _, err := a.Archive(context.Background(), "/does/not/matter.mp4", "k.mp4"); err == nil {
		t.Fatalf("Archive without client: expected error, got nil")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	cases := []struct {
		user, analysis, file, want string
	}{
		{"u1", "a1", "1700000000000_clip.mp4", "u1/a1/1700000000000_clip.mp4"},
		{"team/u1", "a1", "/var/videos/clip.mp4", "team_u1/a1/clip.mp4"},
		{"", " ", "", "_/_/_"},
	}
	for _, tc := range cases {
		if got := ObjectKey(tc.user, tc.analysis, tc.file); got != tc.want {
			t.Fatalf("ObjectKey(%q,%q,%q): want=%q got=%q", tc.user, tc.analysis, tc.file, tc.want, got)
		}
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a.MP4":        "video/mp4",
		"a.mov":        "video/quicktime",
		"a.webm?x=1":   "video/webm",
		"a.bin":        "",
		"dir/clip.mkv": "video/x-matroska",
	}
	for key, want := range cases {
		if got := contentTypeForKey(key); got != want {
			t.Fatalf("contentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}

func TestNoopArchive(t *testing.T) {
	a := NoopArchive()
	u, err := a.Archive(context.Background(), "/tmp/x.mp4", "x.mp4")
	if err != nil || u != "" {
		t.Fatalf("noop Archive: want=(\"\", nil) got=(%q, %v)", u, err)
	}
}
