package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	impl "github.com/routeoptima/route-optima/internal/application/services"
	"github.com/routeoptima/route-optima/internal/core/domain/route"
	"github.com/routeoptima/route-optima/internal/infrastructure/mapbox"
	infraRedis "github.com/routeoptima/route-optima/internal/infrastructure/redis"
	tmocks "github.com/routeoptima/route-optima/test/mocks"
)

const dhaka = route.Coordinates("90.3866,23.7182;90.3742,23.7461")

func okResult() route.Result {
	r, _ := route.Decode([]byte(`{"code":"Ok","trips":[{"distance":3872.2,"duration":612.4}],"waypoints":[{"waypoint_index":0},{"waypoint_index":1}]}`))
	return r
}

func okProvider() *tmocks.RouteProviderMock {
	return &tmocks.RouteProviderMock{FetchFn: func(ctx context.Context, c route.Coordinates) (route.Result, error) {
		return okResult(), nil
	}}
}

func TestOptimize_MissFetchesOnceAndStores(t *testing.T) {
	cache := &tmocks.CacheMock{}
	provider := okProvider()
	metrics := &tmocks.RouteMetricsMock{}
	svc := impl.NewRouteService(cache, provider, &impl.RouteServiceConfig{Metrics: metrics}, logrus.New())

	res, err := svc.Optimize(context.Background(), dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeMissStored, res.Outcome)
	assert.Equal(t, false, res.Result[route.CacheField])
	assert.Equal(t, 1, provider.Calls)

	require.Len(t, cache.SetCalls, 1)
	assert.Equal(t, string(dhaka), cache.SetCalls[0].Key)
	assert.Equal(t, route.DefaultCacheTTL, cache.SetCalls[0].TTL)
	stored, err := route.Decode(cache.SetCalls[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "Ok", stored.Code())

	assert.Equal(t, 1, metrics.Outcomes[route.OutcomeMissStored])
	assert.Equal(t, 1, metrics.UpstreamCalls)
}

func TestOptimize_HitSkipsUpstream(t *testing.T) {
	cache := &tmocks.CacheMock{}
	cache.Put(string(dhaka), []byte(`{"cache":false,"code":"Ok","trips":[]}`))
	provider := okProvider()
	svc := impl.NewRouteService(cache, provider, nil, nil)

	res, err := svc.Optimize(context.Background(), dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeHit, res.Outcome)
	assert.Equal(t, true, res.Result[route.CacheField])
	assert.Equal(t, 0, provider.Calls)
	assert.Empty(t, cache.SetCalls)
}

func TestOptimize_RepeatedHitsAreIdentical(t *testing.T) {
	cache := &tmocks.CacheMock{}
	svc := impl.NewRouteService(cache, okProvider(), nil, nil)
	ctx := context.Background()

	_, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)

	first, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)
	second, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)

	a, _ := json.Marshal(first.Result)
	b, _ := json.Marshal(second.Result)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, true, first.Result[route.CacheField])
}

func TestOptimize_NonOkIsNotCachedAndNotAnnotated(t *testing.T) {
	cache := &tmocks.CacheMock{}
	provider := &tmocks.RouteProviderMock{FetchFn: func(ctx context.Context, c route.Coordinates) (route.Result, error) {
		return route.Result{"code": "NoTrips", "message": "no trip found"}, nil
	}}
	svc := impl.NewRouteService(cache, provider, nil, nil)
	ctx := context.Background()

	res, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeMissUncacheable, res.Outcome)
	assert.Equal(t, route.Result{"code": "NoTrips", "message": "no trip found"}, res.Result)
	assert.Empty(t, cache.SetCalls)

	res, err = svc.Optimize(ctx, dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeMissUncacheable, res.Outcome)
	assert.Equal(t, 2, provider.Calls)
}

func TestOptimize_UpstreamErrorPropagates(t *testing.T) {
	cache := &tmocks.CacheMock{}
	provider := &tmocks.RouteProviderMock{FetchFn: func(ctx context.Context, c route.Coordinates) (route.Result, error) {
		return nil, fmt.Errorf("%w: connection refused", route.ErrUpstream)
	}}
	metrics := &tmocks.RouteMetricsMock{}
	svc := impl.NewRouteService(cache, provider, &impl.RouteServiceConfig{Metrics: metrics}, nil)

	res, err := svc.Optimize(context.Background(), dhaka)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, route.ErrUpstream))
	assert.False(t, errors.Is(err, route.ErrCacheConnection))
	assert.Empty(t, cache.SetCalls)
	assert.Equal(t, 1, metrics.Outcomes[route.OutcomeFetchFailed])
	assert.Equal(t, 1, metrics.UpstreamErrors)
}

func TestOptimize_CacheFailureIsNotAMiss(t *testing.T) {
	cache := &tmocks.CacheMock{GetFn: func(ctx context.Context, key string) ([]byte, bool, error) {
		return nil, false, fmt.Errorf("%w: i/o timeout", route.ErrCacheConnection)
	}}
	provider := okProvider()
	svc := impl.NewRouteService(cache, provider, nil, nil)

	res, err := svc.Optimize(context.Background(), dhaka)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, route.ErrCacheConnection))
	assert.Equal(t, 0, provider.Calls)
}

func TestOptimize_CallerCancellationIsNotCountedAsCacheFailure(t *testing.T) {
	cache := &tmocks.CacheMock{GetFn: func(ctx context.Context, key string) ([]byte, bool, error) {
		return nil, false, fmt.Errorf("get: %w", ctx.Err())
	}}
	provider := okProvider()
	metrics := &tmocks.RouteMetricsMock{}
	svc := impl.NewRouteService(cache, provider, &impl.RouteServiceConfig{Metrics: metrics}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Optimize(ctx, dhaka)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, route.ErrCacheConnection))
	assert.Equal(t, 0, metrics.Outcomes[route.OutcomeCacheFailed])
	assert.Equal(t, 0, provider.Calls)
}

func TestOptimize_StoreFailureStillReturnsResult(t *testing.T) {
	cache := &tmocks.CacheMock{SetFn: func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
		return fmt.Errorf("%w: broken pipe", route.ErrCacheConnection)
	}}
	metrics := &tmocks.RouteMetricsMock{}
	svc := impl.NewRouteService(cache, okProvider(), &impl.RouteServiceConfig{Metrics: metrics}, nil)

	res, err := svc.Optimize(context.Background(), dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeMissStored, res.Outcome)
	assert.Equal(t, false, res.Result[route.CacheField])
	assert.Equal(t, 1, metrics.CacheWriteFailures)
}

func TestOptimize_CorruptEntryIsRefetchedAndOverwritten(t *testing.T) {
	cache := &tmocks.CacheMock{}
	cache.Put(string(dhaka), []byte(`{not json`))
	provider := okProvider()
	svc := impl.NewRouteService(cache, provider, nil, nil)

	res, err := svc.Optimize(context.Background(), dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeMissStored, res.Outcome)
	assert.Equal(t, 1, provider.Calls)
	require.Len(t, cache.SetCalls, 1)
}

func TestOptimize_EmptyCoordinates(t *testing.T) {
	cache := &tmocks.CacheMock{}
	svc := impl.NewRouteService(cache, okProvider(), nil, nil)
	_, err := svc.Optimize(context.Background(), "")
	assert.True(t, errors.Is(err, route.ErrEmptyCoordinates))
	assert.Equal(t, 0, cache.GetCalls)
}

func TestOptimize_CustomTTL(t *testing.T) {
	cache := &tmocks.CacheMock{}
	svc := impl.NewRouteService(cache, okProvider(), &impl.RouteServiceConfig{TTL: time.Minute}, nil)
	_, err := svc.Optimize(context.Background(), dhaka)
	require.NoError(t, err)
	require.Len(t, cache.SetCalls, 1)
	assert.Equal(t, time.Minute, cache.SetCalls[0].TTL)
}

func TestOptimize_ConcurrentMissesAreTolerated(t *testing.T) {
	release := make(chan struct{})
	provider := &tmocks.RouteProviderMock{FetchFn: func(ctx context.Context, c route.Coordinates) (route.Result, error) {
		<-release
		return okResult(), nil
	}}
	cache := &tmocks.CacheMock{}
	svc := impl.NewRouteService(cache, provider, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Optimize(context.Background(), dhaka)
			assert.NoError(t, err)
			assert.Equal(t, route.OutcomeMissStored, res.Outcome)
		}()
	}
	// Both goroutines must be past the cache lookup before either fetch returns.
	require.Eventually(t, func() bool {
		return provider.CallCount() == 2
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Len(t, cache.SetCalls, 2)
}

// Full path: real Redis adapter (miniredis) and real Mapbox client (httptest).
func TestOptimize_EndToEndScenario(t *testing.T) {
	var upstreamCalls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		upstreamCalls++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"code":"Ok","trips":[{"geometry":{"coordinates":[[90.3866,23.7182],[90.3742,23.7461]],"type":"LineString"}}]}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	provider, err := mapbox.NewClient(&mapbox.ClientConfig{BaseURL: srv.URL, AccessToken: "pk.test"}, nil)
	require.NoError(t, err)
	svc := impl.NewRouteService(infraRedis.NewRedisCache(client, ""), provider, nil, nil)
	ctx := context.Background()

	first, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)
	assert.Equal(t, false, first.Result[route.CacheField])
	assert.True(t, mr.Exists(string(dhaka)))
	assert.Equal(t, time.Hour, mr.TTL(string(dhaka)))

	second, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)
	assert.Equal(t, true, second.Result[route.CacheField])
	assert.Equal(t, first.Result["trips"], second.Result["trips"])
	assert.Equal(t, 1, upstreamCalls)

	mr.FastForward(3601 * time.Second)
	third, err := svc.Optimize(ctx, dhaka)
	require.NoError(t, err)
	assert.Equal(t, route.OutcomeMissStored, third.Outcome)
	assert.Equal(t, 2, upstreamCalls)
}
