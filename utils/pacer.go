package utils

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PacerConfig bounds the spacing between outbound requests. The zero value
// performs no waiting at all, which is what deterministic tests rely on.
type PacerConfig struct {
	// MinDelay and MaxDelay bound the randomised pause before an ordinary
	// request. MinDelay doubles as the hard floor between any two requests.
	MinDelay time.Duration
	MaxDelay time.Duration
	// PageDelay applies between successive result pages of one station.
	PageDelay time.Duration
	// StationDelay applies when moving from one station to the next.
	StationDelay time.Duration
}

// Pacer spaces requests out to keep the crawl polite. A token bucket enforces
// the MinDelay floor between any two requests; page and station transitions
// wait for their own longer intervals, measured from the previous request so
// time already spent processing counts toward the pause.
type Pacer struct {
	cfg     PacerConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	last     time.Time
	started  time.Time
	requests int
}

// NewPacer creates a Pacer. rate.Every treats a zero MinDelay as unlimited.
func NewPacer(cfg PacerConfig, logger *slog.Logger) *Pacer {
	return &Pacer{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinDelay), 1),
		logger:  logger,
		started: time.Now(),
	}
}

// Wait pauses before an ordinary request. The pause is uniform between
// MinDelay and MaxDelay so the access pattern does not look mechanical.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.wait(ctx, p.randomDelay())
}

// WaitPage pauses before fetching the next result page.
func (p *Pacer) WaitPage(ctx context.Context) error {
	return p.wait(ctx, p.cfg.PageDelay)
}

// WaitStation pauses before moving on to the next station.
func (p *Pacer) WaitStation(ctx context.Context) error {
	return p.wait(ctx, p.cfg.StationDelay)
}

// Requests returns how many paced requests have been released so far.
func (p *Pacer) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

func (p *Pacer) randomDelay() time.Duration {
	if p.cfg.MaxDelay <= p.cfg.MinDelay {
		return p.cfg.MinDelay
	}
	return p.cfg.MinDelay + time.Duration(rand.Int63n(int64(p.cfg.MaxDelay-p.cfg.MinDelay)))
}

func (p *Pacer) wait(ctx context.Context, required time.Duration) error {
	p.mu.Lock()
	var remaining time.Duration
	if !p.last.IsZero() {
		if elapsed := time.Since(p.last); elapsed < required {
			remaining = required - elapsed
		}
	}
	p.mu.Unlock()

	if remaining > 0 {
		p.logger.Debug("pacing", "wait", remaining.Round(time.Millisecond))
		select {
		case <-time.After(remaining):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.last = time.Now()
	p.requests++
	n := p.requests
	avg := time.Since(p.started) / time.Duration(n)
	p.mu.Unlock()

	if n%10 == 0 {
		p.logger.Info("request pacing stats",
			"requests", n,
			"avg_interval", avg.Round(time.Millisecond))
	}
	return nil
}
