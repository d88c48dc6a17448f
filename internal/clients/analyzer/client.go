// Package analyzer talks to the external motion-analysis engine.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/pickleball-backend/internal/observability"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/ctxutil"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

const (
	analysisType     = "enhanced"
	maxResponseBytes = 32 << 20
)

type Config struct {
	URL     string
	Timeout time.Duration
	// QueueTimeout bounds the wait for a free in-flight slot; zero means Timeout.
	QueueTimeout time.Duration
	MaxInFlight  int64
	Breaker      BreakerConfig
}

type Client interface {
	// Invoke uploads the file and classifies the analyzer's answer. A non-nil error is a gateway
	// failure, or a storage failure when the file cannot be opened; rejections and malformed
	// payloads come back as verdicts.
	Invoke(ctx context.Context, filePath, userID string) (Verdict, error)
}

type client struct {
	log          *logger.Logger
	url          string
	timeout      time.Duration
	queueTimeout time.Duration
	httpClient   *http.Client
	sem        *semaphore.Weighted
	breaker    *gobreaker.CircuitBreaker[Verdict]
}

type Option func(*client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(log *logger.Logger, cfg Config, opts ...Option) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("missing analyzer url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = cfg.Timeout
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 4
	}
	c := &client{
		log:          log.With("client", "AnalyzerClient"),
		url:          url,
		timeout:      cfg.Timeout,
		queueTimeout: cfg.QueueTimeout,
		httpClient:   &http.Client{},
		sem:          semaphore.NewWeighted(cfg.MaxInFlight),
	}
	c.breaker = newBreaker(c.log, cfg.Breaker)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) Invoke(ctx context.Context, filePath, userID string) (Verdict, error) {
	const op = "analyzer.Invoke"
	ctx = ctxutil.Default(ctx)
	ctx, span := otel.Tracer("analyzer").Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("analyzer.file", filepath.Base(filePath)))

	start := time.Now()
	f, err := os.Open(filePath)
	if err != nil {
		return c.fail(span, start, perrors.Storage(op, fmt.Errorf("open video: %w", err)))
	}
	defer f.Close()

	if err := c.acquire(ctx); err != nil {
		return c.fail(span, start, perrors.Gateway(op, fmt.Errorf("wait for slot: %w", err)))
	}
	defer c.sem.Release(1)

	v, err := c.breaker.Execute(func() (Verdict, error) {
		v, err := c.call(ctx, f, filepath.Base(filePath), userID)
		if err != nil && ctx.Err() != nil {
			// the caller left; the analyzer is not at fault
			return v, &callerAbortedError{err: err}
		}
		return v, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("circuit %s: %w", c.breaker.State(), err)
		}
		return c.fail(span, start, perrors.Gateway(op, err))
	}

	span.SetAttributes(attribute.String("analyzer.verdict", v.Kind.String()))
	observability.Current().ObserveGateway(v.Kind.String(), time.Since(start))
	c.log.Debug("analyzer verdict", "verdict", v.Kind.String(), "duration_ms", time.Since(start).Milliseconds())
	return v, nil
}

func (c *client) fail(span trace.Span, start time.Time, err error) (Verdict, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "analyzer unavailable")
	observability.Current().ObserveGateway("gateway_error", time.Since(start))
	c.log.Warn("analyzer call failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
	return Verdict{}, err
}

// acquire waits for an in-flight slot for at most queueTimeout.
func (c *client) acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.queueTimeout)
	defer cancel()
	return c.sem.Acquire(ctx, 1)
}

// call performs one upload. Only transport-level failures are returned as errors.
func (c *client) call(ctx context.Context, video io.Reader, name, userID string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pr, pw := io.Pipe()
	// unblocks the writer goroutine if the analyzer answers before reading the whole upload
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, video, name, userID))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, pr)
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Request-ID", td.RequestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Verdict{}, fmt.Errorf("read analyzer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if reason, ok := RejectionReason(raw); ok {
			return Rejected(reason), nil
		}
		return Verdict{}, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return Classify(raw), nil
}

func writeForm(mw *multipart.Writer, video io.Reader, name, userID string) error {
	part, err := mw.CreateFormFile("video", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video); err != nil {
		return fmt.Errorf("stream video: %w", err)
	}
	if err := mw.WriteField("userId", userID); err != nil {
		return err
	}
	if err := mw.WriteField("analysisType", analysisType); err != nil {
		return err
	}
	return mw.Close()
}

// callerAbortedError marks a call cut short by the caller's own context. The breaker ignores it.
type callerAbortedError struct{ err error }

func (e *callerAbortedError) Error() string { return "caller aborted: " + e.err.Error() }

func (e *callerAbortedError) Unwrap() error { return e.err }

func isCallerAborted(err error) bool {
	var ae *callerAbortedError
	return errors.As(err, &ae)
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("analyzer http %d: %s", e.StatusCode, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
