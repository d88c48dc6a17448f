package analyzer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

func writeVideo(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "1700000000000_clip.mp4")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func newTestClient(t *testing.T, url string, cfg Config) Client {
	t.Helper()
	cfg.URL = url
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	c, err := NewClient(logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestInvokeSendsMultipartAndAccepts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("userId"); got != "user-7" {
			t.Errorf("userId: want=user-7 got=%q", got)
		}
		if got := r.FormValue("analysisType"); got != "enhanced" {
			t.Errorf("analysisType: want=enhanced got=%q", got)
		}
		f, hdr, err := r.FormFile("video")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if string(b) != "frames" || hdr.Filename != "1700000000000_clip.mp4" {
				t.Errorf("video part: name=%q content=%q", hdr.Filename, b)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, fullBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{})
	v, err := c.Invoke(context.Background(), writeVideo(t, "frames"), "user-7")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v.Kind != KindAccepted || v.Payload == nil {
		t.Fatalf("Invoke verdict: want accepted got=%+v", v)
	}
}

func TestInvokeClassifiesResponses(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		gateway bool
	}{
		{name: "missing section", status: 200, body: `{"detailed_feedbacks":[],"techniqueAnalysis":{},"shotAnalysis":{}}`, kind: KindMalformed},
		{name: "empty 200", status: 200, body: "", kind: KindRejected},
		{name: "error on 422", status: 422, body: `{"error":"no player detected"}`, kind: KindRejected},
		{name: "plain 500", status: 500, body: "boom", gateway: true},
		{name: "json 503 without error", status: 503, body: `{"detail":"down"}`, gateway: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, Config{})
			v, err := c.Invoke(context.Background(), writeVideo(t, "x"), "u")
			if tc.gateway {
				if !perrors.Is(err, perrors.KindGateway) {
					t.Fatalf("Invoke: want gateway error got=%v (%+v)", err, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if v.Kind != tc.kind {
				t.Fatalf("Invoke kind: want=%v got=%v", tc.kind, v.Kind)
			}
		})
	}
}

func TestInvokeTimeoutIsGatewayError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL, Config{Timeout: 50 * time.Millisecond})
	if _, err := c.Invoke(context.Background(), writeVideo(t, "x"), "u"); !perrors.Is(err, perrors.KindGateway) {
		t.Fatalf("Invoke: want gateway error got=%v", err)
	}
}

func TestBreakerOpensOnGatewayFailuresOnly(t *testing.T) {
	var hits int32
	var mode atomic.Value
	mode.Store("reject")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		if mode.Load() == "reject" {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, `{"error":"no player"}`)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{Breaker: BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute}})
	video := writeVideo(t, "x")

	for i := 0; i < 3; i++ {
		v, err := c.Invoke(context.Background(), video, "u")
		if err != nil || v.Kind != KindRejected {
			t.Fatalf("rejection %d: verdict=%+v err=%v", i, v, err)
		}
	}

	mode.Store("down")
	for i := 0; i < 2; i++ {
		if _, err := c.Invoke(context.Background(), video, "u"); !perrors.Is(err, perrors.KindGateway) {
			t.Fatalf("failure %d: want gateway error got=%v", i, err)
		}
	}
	before := atomic.LoadInt32(&hits)
	if _, err := c.Invoke(context.Background(), video, "u"); !perrors.Is(err, perrors.KindGateway) {
		t.Fatalf("open circuit: want gateway error got=%v", err)
	}
	if after := atomic.LoadInt32(&hits); after != before {
		t.Fatalf("open circuit reached server: hits before=%d after=%d", before, after)
	}
}

func TestBreakerIgnoresCallerAborts(t *testing.T) {
	var hits int32
	var mode atomic.Value
	mode.Store("slow")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		if mode.Load() == "slow" {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"error":"no player"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{Breaker: BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute}})
	video := writeVideo(t, "x")

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := c.Invoke(ctx, video, "u")
		cancel()
		if !perrors.Is(err, perrors.KindGateway) {
			t.Fatalf("aborted call %d: want gateway error got=%v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Invoke(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"), "u"); !perrors.Is(err, perrors.KindStorage) {
			t.Fatalf("missing file %d: want storage error got=%v", i, err)
		}
	}

	mode.Store("reject")
	before := atomic.LoadInt32(&hits)
	v, err := c.Invoke(context.Background(), video, "u")
	if err != nil || v.Kind != KindRejected {
		t.Fatalf("after aborts: want rejected verdict got verdict=%+v err=%v", v, err)
	}
	if after := atomic.LoadInt32(&hits); after != before+1 {
		t.Fatalf("after aborts: want server hit, hits before=%d after=%d", before, after)
	}
}

func TestBreakerCountsClientTimeouts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{
		Timeout: 20 * time.Millisecond,
		Breaker: BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute},
	})
	video := writeVideo(t, "x")
	for i := 0; i < 2; i++ {
		if _, err := c.Invoke(context.Background(), video, "u"); !perrors.Is(err, perrors.KindGateway) {
			t.Fatalf("timeout %d: want gateway error got=%v", i, err)
		}
	}
	before := atomic.LoadInt32(&hits)
	if _, err := c.Invoke(context.Background(), video, "u"); !perrors.Is(err, perrors.KindGateway) {
		t.Fatalf("open circuit: want gateway error got=%v", err)
	}
	if after := atomic.LoadInt32(&hits); after != before {
		t.Fatalf("open circuit reached server: hits before=%d after=%d", before, after)
	}
}

func TestInvokeBoundsWaitForSlot(t *testing.T) {
	var hits int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"error":"no player"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{MaxInFlight: 1, QueueTimeout: 50 * time.Millisecond})
	video := writeVideo(t, "x")

	done := make(chan error, 1)
	go func() {
		_, err := c.Invoke(context.Background(), video, "u")
		done <- err
	}()
	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatalf("first call never reached the server")
	}

	start := time.Now()
	_, err := c.Invoke(context.Background(), video, "u")
	if !perrors.Is(err, perrors.KindGateway) || !strings.Contains(err.Error(), "wait for slot") {
		t.Fatalf("queued call: want wait-for-slot gateway error got=%v", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Fatalf("queued call: want bounded wait got=%v", waited)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("queued call reached server: hits want=1 got=%d", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first call: %v", err)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("NewClient: want error for missing url")
	}
}
