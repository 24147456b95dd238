package monitor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meteopt/aviso/internal/adapter/ipma"
	"github.com/meteopt/aviso/internal/domain"
	"github.com/meteopt/aviso/internal/monitor"
	"github.com/meteopt/aviso/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockGateway struct {
	mu        sync.Mutex
	warnings  []domain.Warning
	err       error
	calls     atomic.Int64
	forecasts map[string]json.RawMessage
	fcCalls   atomic.Int64
}

func (g *mockGateway) FetchWarnings(context.Context) ([]domain.Warning, error) {
	g.calls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.warnings, nil
}

func (g *mockGateway) FetchForecast(_ context.Context, id string) (json.RawMessage, error) {
	g.fcCalls.Add(1)
	if id == "" {
		return nil, ipma.ErrNoForecastID
	}
	if payload, ok := g.forecasts[id]; ok {
		return payload, nil
	}
	return nil, fmt.Errorf("%w: status 404", ipma.ErrNetwork)
}

func (g *mockGateway) set(warnings []domain.Warning, err error) {
	g.mu.Lock()
	g.warnings = warnings
	g.err = err
	g.mu.Unlock()
}

type captureNotifier struct {
	mu     sync.Mutex
	alerts []monitor.Alert
}

func (n *captureNotifier) Notify(_ context.Context, a monitor.Alert) {
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
}

func (n *captureNotifier) all() []monitor.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]monitor.Alert(nil), n.alerts...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMonitor(g monitor.Gateway, n monitor.Notifier) *monitor.Monitor {
	if n == nil {
		n = monitor.NopNotifier{}
	}
	return monitor.New(g, n, discardLogger(), observability.NewMetricsForTesting(), clockwork.NewRealClock(), time.Minute)
}

// frozenNow pins the domain clock and returns the pinned instant.
func frozenNow(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2025, time.March, 20, 15, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
	return now
}

func lisbonWarning(level domain.AwarenessLevel, desc string, now time.Time) domain.Warning {
	return domain.Warning{
		AreaID:      "LSB",
		Start:       now.Add(-time.Hour),
		End:         now.Add(time.Hour),
		Level:       level,
		Description: desc,
	}
}

// --- tests ---

func TestRefresh_PopulatesIndexAndReadiness(t *testing.T) {
	now := frozenNow(t)
	g := &mockGateway{warnings: []domain.Warning{lisbonWarning(domain.LevelYellow, "Vento", now)}}
	m := newMonitor(g, nil)

	require.Error(t, m.CheckReadiness(context.Background()))
	require.NoError(t, m.Refresh(context.Background()))
	require.NoError(t, m.CheckReadiness(context.Background()))

	snap := m.Status()
	assert.Equal(t, monitor.StatusSuccess, snap.Status)
	assert.Equal(t, 1, snap.IndexedWarnings)
	assert.True(t, snap.LastRefresh.Equal(now))
}

func TestRefresh_FailureLeavesPriorIndexUntouched(t *testing.T) {
	now := frozenNow(t)
	g := &mockGateway{warnings: []domain.Warning{lisbonWarning(domain.LevelOrange, "Vento Forte", now)}}
	m := newMonitor(g, nil)
	require.NoError(t, m.Refresh(context.Background()))

	// Lisboa city centre is unsafe on the first index.
	a := m.EvaluateAt(38.72, -9.14)
	require.False(t, a.Safe)

	g.set(nil, fmt.Errorf("%w: status 502", ipma.ErrNetwork))
	require.Error(t, m.Refresh(context.Background()))

	assert.Equal(t, monitor.StatusError, m.Status().Status)
	// Prior index still serves; readiness is retained.
	a = m.EvaluateAt(38.72, -9.14)
	assert.False(t, a.Safe)
	assert.Equal(t, "Vento Forte", a.Reason)
	assert.NoError(t, m.CheckReadiness(context.Background()))
}

func TestEvaluateAt_OutsideAllDistricts(t *testing.T) {
	frozenNow(t)
	m := newMonitor(&mockGateway{}, nil)

	a := m.EvaluateAt(40.42, -3.70) // Madrid
	assert.False(t, a.Safe)
	assert.Equal(t, "Not applicable", a.Reason)
	assert.Empty(t, a.District)
	assert.Empty(t, a.AreaID)
}

func TestEvaluateAt_NoWarningsForDistrict(t *testing.T) {
	frozenNow(t)
	g := &mockGateway{}
	m := newMonitor(g, nil)
	require.NoError(t, m.Refresh(context.Background()))

	a := m.EvaluateAt(37.02, -7.93) // Faro
	assert.True(t, a.Safe)
	assert.Equal(t, "No active warnings for this area", a.Reason)
	assert.Equal(t, "Faro", a.District)
	assert.Equal(t, "FAR", a.AreaID)
}

func TestSetFix_LatestOnlyAndAlertOnUnsafe(t *testing.T) {
	now := frozenNow(t)
	g := &mockGateway{warnings: []domain.Warning{lisbonWarning(domain.LevelRed, "Agitação Marítima", now)}}
	n := &captureNotifier{}
	m := newMonitor(g, n)
	require.NoError(t, m.Refresh(context.Background()))

	_, ok := m.EvaluateLatest()
	assert.False(t, ok)

	// First fix lands in unsafe Lisboa: one became_unsafe alert.
	a := m.SetFix(context.Background(), 38.72, -9.14)
	require.False(t, a.Safe)
	alerts := n.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "became_unsafe", alerts[0].Transition)
	assert.Equal(t, "Lisboa", alerts[0].District)

	// Moving to quiet Faro flips the verdict: one became_safe alert.
	a = m.SetFix(context.Background(), 37.02, -7.93)
	require.True(t, a.Safe)
	alerts = n.all()
	require.Len(t, alerts, 2)
	assert.Equal(t, "became_safe", alerts[1].Transition)

	// Only the latest fix is retained.
	fix, ok := m.LatestFix()
	require.True(t, ok)
	assert.Equal(t, 37.02, fix.Lat)
	assert.Equal(t, -7.93, fix.Lon)
	assert.True(t, fix.At.Equal(now))
}

func TestSetFix_FirstSafeFixDoesNotAlert(t *testing.T) {
	frozenNow(t)
	n := &captureNotifier{}
	m := newMonitor(&mockGateway{}, n)
	require.NoError(t, m.Refresh(context.Background()))

	a := m.SetFix(context.Background(), 37.02, -7.93)
	require.True(t, a.Safe)
	assert.Empty(t, n.all())
}

func TestRefresh_ReassessesLatestFix(t *testing.T) {
	now := frozenNow(t)
	g := &mockGateway{}
	n := &captureNotifier{}
	m := newMonitor(g, n)
	require.NoError(t, m.Refresh(context.Background()))

	m.SetFix(context.Background(), 38.72, -9.14)
	require.Empty(t, n.all())

	// A new batch puts Lisboa under a red warning; the refresh itself should
	// surface the flip without a new location update.
	g.set([]domain.Warning{lisbonWarning(domain.LevelRed, "Vento", now)}, nil)
	require.NoError(t, m.Refresh(context.Background()))

	alerts := n.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "became_unsafe", alerts[0].Transition)
}

func TestForecastFor_CachesPerForecastID(t *testing.T) {
	frozenNow(t)
	g := &mockGateway{forecasts: map[string]json.RawMessage{
		"1110600": json.RawMessage(`{"owner":"IPMA"}`),
	}}
	m := newMonitor(g, nil)

	lisboa, ok := domain.Resolve(38.72, -9.14)
	require.True(t, ok)

	payload, err := m.ForecastFor(context.Background(), lisboa)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"IPMA"}`, string(payload))
	assert.Equal(t, int64(1), g.fcCalls.Load())

	// Second request is served from the cache.
	_, err = m.ForecastFor(context.Background(), lisboa)
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.fcCalls.Load())

	// Setúbal shares Lisboa's forecast id upstream, so it hits the same entry.
	setubal, ok := domain.Resolve(38.52, -8.89)
	require.True(t, ok)
	require.Equal(t, "Setúbal", setubal.Name)
	_, err = m.ForecastFor(context.Background(), setubal)
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.fcCalls.Load())
}

func TestRun_RefreshesOnIntervalUntilCancelled(t *testing.T) {
	frozenNow(t)
	g := &mockGateway{}
	m := monitor.New(g, monitor.NopNotifier{}, discardLogger(), observability.NewMetricsForTesting(), clockwork.NewRealClock(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return g.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestRun_ManualTriggerCoalesces(t *testing.T) {
	frozenNow(t)
	g := &mockGateway{}
	m := monitor.New(g, monitor.NopNotifier{}, discardLogger(), observability.NewMetricsForTesting(), clockwork.NewRealClock(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// A burst of triggers produces at most one extra refresh each time the
	// loop wakes; it never queues unboundedly.
	for range 5 {
		m.TriggerRefresh()
	}
	require.Eventually(t, func() bool { return g.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, g.calls.Load(), int64(3))

	cancel()
	require.NoError(t, <-errCh)
}

func TestRefresh_OutcomeClassification(t *testing.T) {
	frozenNow(t)
	g := &mockGateway{err: fmt.Errorf("%w: body", ipma.ErrDecode)}
	m := newMonitor(g, nil)

	err := m.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ipma.ErrDecode))
	assert.Equal(t, monitor.StatusError, m.Status().Status)
}
