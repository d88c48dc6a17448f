package analyzer

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/pickleball-backend/internal/observability"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type BreakerConfig struct {
	// FailureThreshold consecutive gateway failures open the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial calls allowed while half-open.
	HalfOpenRequests uint32
	// Interval clears closed-state counts; zero never clears.
	Interval time.Duration
}

func newBreaker(log *logger.Logger, cfg BreakerConfig) *gobreaker.CircuitBreaker[Verdict] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	settings := gobreaker.Settings{
		Name:        "analyzer",
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		IsExcluded:  isCallerAborted,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.Current().SetBreakerState(to.String())
			log.Warn("analyzer circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[Verdict](settings)
}
