// Package monitor owns the warning index lifecycle: it is the only writer of
// the store, runs the periodic refresh loop, tracks the latest location fix
// and the fetch status, and answers safety queries.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meteopt/aviso/internal/adapter/ipma"
	"github.com/meteopt/aviso/internal/domain"
	"github.com/meteopt/aviso/internal/observability"
	"github.com/meteopt/aviso/internal/store"
)

// Status is the fetch state exposed to the presentation layer.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusFetching Status = "fetching"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
)

// Gateway is the slice of the IPMA client the monitor needs.
type Gateway interface {
	FetchWarnings(ctx context.Context) ([]domain.Warning, error)
	FetchForecast(ctx context.Context, forecastID string) (json.RawMessage, error)
}

// Notifier receives fire-and-forget safety alerts. Implementations must not
// block for long; errors are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, alert Alert)
}

// NopNotifier discards alerts; used when Kafka publishing is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Alert) {}

// Fix is the most recent location supplied by a caller (GPS ingest or
// simulated location). Only the latest fix is retained.
type Fix struct {
	Lat, Lon float64
	At       time.Time
}

// Assessment is a safety verdict bound to a resolved location.
type Assessment struct {
	District    string                `json:"district,omitempty"`
	AreaID      string                `json:"area_id,omitempty"`
	Safe        bool                  `json:"safe"`
	Reason      string                `json:"reason"`
	Level       domain.AwarenessLevel `json:"-"`
	LevelName   string                `json:"level"`
	Lat         float64               `json:"lat"`
	Lon         float64               `json:"lon"`
	EvaluatedAt time.Time             `json:"evaluated_at"`
}

// Alert is the payload handed to the Notifier when the latest fix's safety
// verdict flips.
type Alert struct {
	Assessment
	Transition string `json:"transition"` // "became_unsafe" or "became_safe"
}

// Monitor ties the gateway, store, and evaluator together behind a single
// refresh goroutine.
type Monitor struct {
	gateway   Gateway
	store     *store.WarningStore
	forecasts *store.ForecastCache
	notifier  Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration

	refreshCh chan struct{}
	ready     atomic.Bool

	mu          sync.Mutex
	status      Status
	lastRefresh time.Time
	fix         *Fix
	prevSafe    *bool // last published verdict for the latest fix
}

// New creates a Monitor. Pass a NopNotifier when alert publishing is off.
func New(gateway Gateway, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, interval time.Duration) *Monitor {
	return &Monitor{
		gateway:   gateway,
		store:     store.NewWarningStore(),
		forecasts: store.NewForecastCache(),
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		interval:  interval,
		refreshCh: make(chan struct{}, 1),
		status:    StatusIdle,
	}
}

// Run refreshes once at startup, then on every interval tick or manual
// trigger, until the context is cancelled. Failed refreshes retry with
// exponential backoff (200ms doubling to 5s) without disturbing the ticker.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval)

	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	var retryCh <-chan time.Time
	for {
		if err := m.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				m.logger.Info("monitor stopping", "reason", ctx.Err())
				return nil
			}
			retryCh = m.clock.After(backoff)
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			retryCh = nil
			backoff = 200 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		case <-m.refreshCh:
		case <-retryCh:
		}
	}
}

// TriggerRefresh requests an immediate refresh. Non-blocking; concurrent
// triggers coalesce into one pending refresh.
func (m *Monitor) TriggerRefresh() {
	select {
	case m.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh fetches the warnings feed and, only on success, replaces the index
// wholesale. A failed fetch leaves the prior index untouched.
func (m *Monitor) Refresh(ctx context.Context) error {
	m.setStatus(StatusFetching)
	start := time.Now()

	warnings, err := m.gateway.FetchWarnings(ctx)
	if err != nil {
		m.metrics.RefreshTotal.WithLabelValues(refreshOutcome(err)).Inc()
		m.setStatus(StatusError)
		m.logger.Warn("warnings refresh failed", "error", err)
		return err
	}

	m.store.ReplaceAll(warnings)
	m.metrics.RefreshTotal.WithLabelValues("success").Inc()
	m.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	m.metrics.ActiveWarnings.Set(float64(m.store.Len()))

	m.mu.Lock()
	m.lastRefresh = domain.Now()
	m.mu.Unlock()

	m.ready.Store(true)
	m.setStatus(StatusSuccess)
	m.logger.Info("warnings refreshed", "records", m.store.Len())

	m.reassessLatestFix(ctx)
	return nil
}

// CheckReadiness reports nil once the first refresh has succeeded.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("warning index has not been populated yet")
	}
	return nil
}

// Snapshot is the status view served by the HTTP API.
type Snapshot struct {
	Status          Status    `json:"status"`
	LastRefresh     time.Time `json:"last_refresh,omitzero"`
	IndexedWarnings int       `json:"indexed_warnings"`
}

// Status returns the current fetch state.
func (m *Monitor) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Status:          m.status,
		LastRefresh:     m.lastRefresh,
		IndexedWarnings: m.store.Len(),
	}
}

// SetFix records the latest location fix, replacing any previous one, and
// returns the assessment for it. A verdict flip relative to the previous
// assessment is pushed to the notifier.
func (m *Monitor) SetFix(ctx context.Context, lat, lon float64) Assessment {
	m.mu.Lock()
	m.fix = &Fix{Lat: lat, Lon: lon, At: domain.Now()}
	m.mu.Unlock()

	a := m.EvaluateAt(lat, lon)
	m.publishIfFlipped(ctx, a)
	return a
}

// LatestFix returns the most recent fix, if any.
func (m *Monitor) LatestFix() (Fix, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fix == nil {
		return Fix{}, false
	}
	return *m.fix, true
}

// EvaluateAt resolves a coordinate and evaluates the safety policy for its
// district at the current instant. Points outside every district come back
// unsafe with reason "Not applicable".
func (m *Monitor) EvaluateAt(lat, lon float64) Assessment {
	now := domain.Now()
	a := Assessment{Lat: lat, Lon: lon, EvaluatedAt: now}

	d, ok := domain.Resolve(lat, lon)
	if ok {
		a.District = d.Name
		a.AreaID = d.WarningAreaID
	}

	v := domain.Evaluate(a.AreaID, m.store.Lookup(a.AreaID), now)
	a.Safe = v.Safe
	a.Reason = v.Reason
	a.Level = v.Level
	a.LevelName = v.Level.String()

	verdict := "safe"
	if !a.Safe {
		verdict = "unsafe"
	}
	m.metrics.Evaluations.WithLabelValues(verdict).Inc()
	return a
}

// EvaluateLatest evaluates the most recent fix. ok is false when no fix has
// been recorded.
func (m *Monitor) EvaluateLatest() (Assessment, bool) {
	fix, ok := m.LatestFix()
	if !ok {
		return Assessment{}, false
	}
	return m.EvaluateAt(fix.Lat, fix.Lon), true
}

// ForecastFor returns the daily forecast payload for a district, serving from
// the cache when possible and caching on fetch. Last fetch wins per id.
func (m *Monitor) ForecastFor(ctx context.Context, d domain.District) (json.RawMessage, error) {
	if payload, ok := m.forecasts.Get(d.ForecastID); ok {
		m.metrics.ForecastsCache.WithLabelValues("hit").Inc()
		return payload, nil
	}
	m.metrics.ForecastsCache.WithLabelValues("miss").Inc()

	payload, err := m.gateway.FetchForecast(ctx, d.ForecastID)
	if err != nil {
		return nil, err
	}
	m.forecasts.Put(d.ForecastID, payload)
	return payload, nil
}

// reassessLatestFix re-evaluates the latest fix after a refresh so a newly
// indexed warning for the user's district is surfaced without waiting for the
// next location update.
func (m *Monitor) reassessLatestFix(ctx context.Context) {
	a, ok := m.EvaluateLatest()
	if !ok {
		return
	}
	m.publishIfFlipped(ctx, a)
}

// publishIfFlipped notifies when the verdict for the latest fix changes.
// The first assessment notifies only if it is unsafe.
func (m *Monitor) publishIfFlipped(ctx context.Context, a Assessment) {
	m.mu.Lock()
	prev := m.prevSafe
	safe := a.Safe
	m.prevSafe = &safe
	m.mu.Unlock()

	if prev != nil && *prev == a.Safe {
		return
	}
	if prev == nil && a.Safe {
		return
	}

	transition := "became_unsafe"
	if a.Safe {
		transition = "became_safe"
	}
	m.logger.Info("safety verdict changed",
		"district", a.District,
		"area", a.AreaID,
		"safe", a.Safe,
		"reason", a.Reason,
	)
	m.notifier.Notify(ctx, Alert{Assessment: a, Transition: transition})
}

func (m *Monitor) setStatus(s Status) {
	m.mu.Lock()
	from := m.status
	m.status = s
	m.mu.Unlock()

	m.metrics.FetchStatus.Set(statusValue(s))
	if from != s {
		m.logger.Debug("fetch status changed", "from", from, "to", s)
	}
}

func statusValue(s Status) float64 {
	switch s {
	case StatusFetching:
		return 1
	case StatusSuccess:
		return 2
	case StatusError:
		return 3
	default:
		return 0
	}
}

func refreshOutcome(err error) string {
	switch {
	case errors.Is(err, ipma.ErrDecode):
		return "decode_error"
	default:
		return "network_error"
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
