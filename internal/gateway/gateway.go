// Package gateway fronts the remote schedule store with bounded retries and
// answers from the schedule catalog whenever the store is unavailable, slow
// or empty. Callers never see store errors.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"trainfinder/internal/domain"
	"trainfinder/internal/metrics"
)

// Source is an established connection to the remote store.
type Source interface {
	Stations(ctx context.Context) ([]domain.Station, error)
	// Schedules returns candidate schedules for the pair: nominal
	// origin/destination matches and schedules stopping at both.
	Schedules(ctx context.Context, origin, destination string) ([]domain.TrainSchedule, error)
	Close(ctx context.Context) error
}

// Dialer opens a Source. Dial must honor ctx cancellation.
type Dialer interface {
	Dial(ctx context.Context) (Source, error)
}

// Fallback is the snapshot served in degraded mode.
type Fallback interface {
	AllStations() []domain.Station
	AllSchedules() []domain.TrainSchedule
}

type Gateway struct {
	dialer   Dialer
	fallback Fallback
	opts     Options
	logger   *slog.Logger

	// Written only by the Run goroutine.
	mu       sync.RWMutex
	state    State
	source   Source
	attempts int
	lastErr  string
	since    time.Time

	observers []func(Status)
}

// New returns a gateway in the disconnected state. A nil dialer means there
// is no remote store; Run then degrades immediately.
func New(dialer Dialer, fallback Fallback, opts Options, logger *slog.Logger) *Gateway {
	return &Gateway{
		dialer:   dialer,
		fallback: fallback,
		opts:     opts.withDefaults(),
		logger:   logger.With("component", "gateway"),
		state:    StateDisconnected,
		since:    time.Now(),
	}
}

// OnStateChange registers fn to be called on every transition. It must be
// called before Run and fn must not block.
func (g *Gateway) OnStateChange(fn func(Status)) {
	g.observers = append(g.observers, fn)
}

func (g *Gateway) Options() Options {
	return g.opts
}

func (g *Gateway) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Status{
		State:     g.state,
		Attempts:  g.attempts,
		LastError: g.lastErr,
		Since:     g.since,
	}
}

func (g *Gateway) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Run drives the connection state machine until ctx is done. Queries are
// never blocked by it.
func (g *Gateway) Run(ctx context.Context) {
	if g.dialer == nil {
		g.transition(StateDegraded, 0, errors.New("no remote store configured"))
		return
	}

	for {
		if g.connect(ctx) {
			<-ctx.Done()
			g.closeSource()
			g.transition(StateDisconnected, 0, nil)
			return
		}
		if ctx.Err() != nil || g.opts.ReconnectInterval == 0 {
			return
		}

		g.logger.Info("scheduled reconnection", "in", g.opts.ReconnectInterval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(g.opts.ReconnectInterval):
		}
	}
}

// connect runs one bounded cycle of connection attempts and reports whether
// it ended connected.
func (g *Gateway) connect(ctx context.Context) bool {
	g.transition(StateConnecting, 0, nil)

	var lastErr error
	attempt := 0
	for attempt < g.opts.MaxRetries {
		attempt++
		start := time.Now()

		dialCtx, cancel := context.WithTimeout(ctx, g.opts.ConnectTimeout)
		src, err := g.dialer.Dial(dialCtx)
		cancel()

		if err == nil {
			metrics.ConnectAttempts.WithLabelValues("success").Inc()
			g.mu.Lock()
			g.source = src
			g.mu.Unlock()
			g.logger.Info("connected to remote store",
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			g.transition(StateConnected, 0, nil)
			return true
		}

		metrics.ConnectAttempts.WithLabelValues("failure").Inc()
		lastErr = err
		g.logger.Warn("remote store connection failed",
			"attempt", attempt,
			"max_attempts", g.opts.MaxRetries,
			"error", err,
		)

		if ctx.Err() != nil {
			return false
		}
		g.transition(StateConnecting, attempt, err)

		if attempt < g.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(g.opts.RetryInterval):
			}
		}
	}

	g.transition(StateDegraded, attempt, lastErr)
	return false
}

func (g *Gateway) transition(state State, attempts int, err error) {
	g.mu.Lock()
	prev := g.state
	g.state = state
	g.attempts = attempts
	g.lastErr = ""
	if err != nil {
		g.lastErr = err.Error()
	}
	if prev != state {
		g.since = time.Now()
	}
	st := Status{State: g.state, Attempts: g.attempts, LastError: g.lastErr, Since: g.since}
	g.mu.Unlock()

	metrics.GatewayState.Set(float64(state))

	if prev != state {
		g.logger.Info("gateway state changed", "from", prev.String(), "to", state.String(), "attempts", attempts)
	}
	for _, fn := range g.observers {
		fn(st)
	}
}

func (g *Gateway) closeSource() {
	g.mu.Lock()
	src := g.source
	g.source = nil
	g.mu.Unlock()

	if src == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.ConnectTimeout)
	defer cancel()
	if err := src.Close(ctx); err != nil {
		g.logger.Warn("closing remote store failed", "error", err)
	}
}

// connected returns the live source, or nil unless the state is Connected.
func (g *Gateway) connected() Source {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != StateConnected {
		return nil
	}
	return g.source
}

// Stations returns all stations in line order. It never fails.
func (g *Gateway) Stations(ctx context.Context) ([]domain.Station, Origin) {
	return read(ctx, g, "stations",
		func(ctx context.Context, src Source) ([]domain.Station, error) {
			return src.Stations(ctx)
		},
		g.fallback.AllStations,
	)
}

// Schedules returns candidate schedules for origin -> destination. The
// catalog answer is the full schedule list; callers filter either way.
func (g *Gateway) Schedules(ctx context.Context, origin, destination string) ([]domain.TrainSchedule, Origin) {
	return read(ctx, g, "schedules",
		func(ctx context.Context, src Source) ([]domain.TrainSchedule, error) {
			return src.Schedules(ctx, origin, destination)
		},
		g.fallback.AllSchedules,
	)
}

type readResult[T any] struct {
	items []T
	err   error
}

// read performs one remote read bounded by ReadTimeout and substitutes the
// fallback on timeout, error or an empty result. The connection state is
// left untouched.
func read[T any](ctx context.Context, g *Gateway, op string, fetch func(context.Context, Source) ([]T, error), fallback func() []T) ([]T, Origin) {
	src := g.connected()
	if src == nil {
		metrics.ReadFallbacks.WithLabelValues(op, "not_connected").Inc()
		g.logger.Debug("serving from catalog", "operation", op, "state", g.State().String())
		return fallback(), OriginCatalog
	}

	readCtx, cancel := context.WithTimeout(ctx, g.opts.ReadTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan readResult[T], 1)
	go func() {
		items, err := fetch(readCtx, src)
		done <- readResult[T]{items: items, err: err}
	}()

	var (
		res    readResult[T]
		reason string
	)
	select {
	case res = <-done:
		switch {
		case res.err != nil && errors.Is(res.err, context.DeadlineExceeded):
			reason = "timeout"
		case res.err != nil:
			reason = "error"
		case len(res.items) == 0:
			reason = "empty"
		}
	case <-readCtx.Done():
		reason = "timeout"
	}
	metrics.StoreReadDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if reason != "" {
		metrics.ReadFallbacks.WithLabelValues(op, reason).Inc()
		g.logger.Warn("remote read failed, serving from catalog",
			"operation", op,
			"reason", reason,
			"error", res.err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fallback(), OriginCatalog
	}
	return res.items, OriginStore
}
