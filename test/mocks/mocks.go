package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

// CacheMock is an in-memory ports.Cache that records calls.
// GetFn/SetFn override the map-backed behavior when set.
type CacheMock struct {
	GetFn func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error

	mu       sync.Mutex
	data     map[string][]byte
	GetCalls int
	SetCalls []SetCall
}

// SetCall captures one Set invocation.
type SetCall struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value, TTL: ttl})
	m.mu.Unlock()
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

// Put seeds an entry without recording a Set call.
func (m *CacheMock) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
}

// RouteProviderMock is a lightweight mock for ports.RouteProvider
type RouteProviderMock struct {
	FetchFn func(ctx context.Context, coordinates route.Coordinates) (route.Result, error)

	mu    sync.Mutex
	Calls int
}

func (m *RouteProviderMock) Fetch(ctx context.Context, coordinates route.Coordinates) (route.Result, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, coordinates)
	}
	return nil, fmt.Errorf("%w: no fetch configured", route.ErrUpstream)
}

// CallCount is Calls read under the lock.
func (m *RouteProviderMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// RouteOptimizerMock implements ports.RouteOptimizer
type RouteOptimizerMock struct {
	OptimizeFn func(ctx context.Context, coordinates route.Coordinates) (*route.Lookup, error)
}

func (m *RouteOptimizerMock) Optimize(ctx context.Context, coordinates route.Coordinates) (*route.Lookup, error) {
	if m.OptimizeFn != nil {
		return m.OptimizeFn(ctx, coordinates)
	}
	return nil, fmt.Errorf("not configured")
}

// RouteMetricsMock counts observations per outcome.
type RouteMetricsMock struct {
	mu                 sync.Mutex
	Outcomes           map[route.Outcome]int
	CacheWriteFailures int
	UpstreamCalls      int
	UpstreamErrors     int
}

func (m *RouteMetricsMock) ObserveOutcome(o route.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Outcomes == nil {
		m.Outcomes = make(map[route.Outcome]int)
	}
	m.Outcomes[o]++
}

func (m *RouteMetricsMock) ObserveCacheWriteFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheWriteFailures++
}

func (m *RouteMetricsMock) ObserveUpstream(d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamCalls++
	if err != nil {
		m.UpstreamErrors++
	}
}

// RateLimiterServiceMock implements ports.RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, clientID string) (bool, int, int, time.Time, error)
}

// Allow implements ports.RateLimiterService.
func (m *RateLimiterServiceMock) Allow(ctx context.Context, clientID string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, clientID)
	}
	return true, 0, 0, time.Now(), nil
}

// HealthCheckerMock implements ports.HealthChecker
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}
