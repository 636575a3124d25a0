package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
	"github.com/routeoptima/route-optima/internal/core/ports"
)

// RouteService implements ports.RouteOptimizer with cache-aside semantics.
// It holds no per-request state; concurrent misses on one key may both fetch
// and both write, the last write wins.
type RouteService struct {
	cache    ports.Cache
	provider ports.RouteProvider
	ttl      time.Duration
	metrics  ports.RouteMetrics
	logger   *logrus.Logger
}

// RouteServiceConfig groups the optional parts of a RouteService.
type RouteServiceConfig struct {
	TTL     time.Duration
	Metrics ports.RouteMetrics
}

func NewRouteService(cache ports.Cache, provider ports.RouteProvider, cfg *RouteServiceConfig, logger *logrus.Logger) *RouteService {
	s := &RouteService{cache: cache, provider: provider, ttl: route.DefaultCacheTTL, logger: logger}
	if cfg != nil {
		if cfg.TTL > 0 {
			s.ttl = cfg.TTL
		}
		s.metrics = cfg.Metrics
	}
	return s
}

// Optimize returns the route for coordinates, from cache when possible.
//
// Only results whose "code" is "Ok" are stored. Those are annotated with
// cache=false (miss) or cache=true (hit). Any other provider answer is
// returned exactly as received, without the flag.
func (s *RouteService) Optimize(ctx context.Context, coordinates route.Coordinates) (*route.Lookup, error) {
	if coordinates == "" {
		return nil, route.ErrEmptyCoordinates
	}
	key := string(coordinates)
	log := s.entry(coordinates)

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			log.WithError(err).Debug("route lookup abandoned by caller")
			return nil, fmt.Errorf("route lookup: %w", err)
		}
		s.observe(route.OutcomeCacheFailed)
		log.WithError(err).Error("route cache lookup failed")
		return nil, fmt.Errorf("route lookup: %w", err)
	}
	if ok {
		result, decErr := route.Decode(data)
		if decErr == nil {
			result.MarkCached(true)
			s.observe(route.OutcomeHit)
			log.Debug("route served from cache")
			return &route.Lookup{Result: result, Outcome: route.OutcomeHit}, nil
		}
		// Overwritten by the fetch below if the provider answers Ok.
		log.WithError(decErr).Warn("discarding undecodable cache entry")
	}

	start := time.Now()
	result, err := s.provider.Fetch(ctx, coordinates)
	if s.metrics != nil {
		s.metrics.ObserveUpstream(time.Since(start), err)
	}
	if err != nil {
		s.observe(route.OutcomeFetchFailed)
		log.WithError(err).Error("route provider fetch failed")
		return nil, fmt.Errorf("route fetch: %w", err)
	}

	if !result.IsOk() {
		s.observe(route.OutcomeMissUncacheable)
		log.WithField("code", result.Code()).Info("route provider returned a non-Ok result; not caching")
		return &route.Lookup{Result: result, Outcome: route.OutcomeMissUncacheable}, nil
	}

	result.MarkCached(false)
	s.store(ctx, key, result, log)
	s.observe(route.OutcomeMissStored)
	return &route.Lookup{Result: result, Outcome: route.OutcomeMissStored}, nil
}

// store writes result; failures are logged and never reach the caller.
func (s *RouteService) store(ctx context.Context, key string, result route.Result, log *logrus.Entry) {
	payload, err := result.Encode()
	if err == nil {
		err = s.cache.Set(ctx, key, payload, s.ttl)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveCacheWriteFailure()
		}
		log.WithError(err).Warn("failed to store route in cache")
		return
	}
	log.WithField("ttl", s.ttl.String()).Debug("route stored in cache")
}

func (s *RouteService) observe(o route.Outcome) {
	if s.metrics != nil {
		s.metrics.ObserveOutcome(o)
	}
}

func (s *RouteService) entry(coordinates route.Coordinates) *logrus.Entry {
	logger := s.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("coordinates", string(coordinates))
}
