package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StatusOK is the value of the upstream "code" field for a successful optimization.
const StatusOK = "Ok"

// DefaultCacheTTL is how long a successful upstream result stays cached.
const DefaultCacheTTL = 3600 * time.Second

const (
	// CodeField is the upstream status field.
	CodeField = "code"
	// CacheField is the cache-origin flag added to every annotated result.
	CacheField = "cache"
)

var (
	// ErrCacheConnection is returned when the cache store cannot be reached.
	ErrCacheConnection = errors.New("cache store unavailable")
	// ErrCacheAuth is returned when the cache store rejects the configured credential.
	ErrCacheAuth = fmt.Errorf("%w: authentication rejected", ErrCacheConnection)
	// ErrUpstream is returned when the route provider call fails or its body cannot be decoded.
	ErrUpstream = errors.New("upstream route provider failed")
	// ErrEmptyCoordinates is returned for an empty coordinate key.
	ErrEmptyCoordinates = errors.New("coordinates are required")
)

// Coordinates is the raw "lon,lat;lon,lat" string used verbatim as cache key.
type Coordinates string

// Result is a decoded upstream response object.
type Result map[string]any

// Outcome is the terminal state of a single optimization lookup.
type Outcome string

const (
	OutcomeHit             Outcome = "hit"
	OutcomeMissStored      Outcome = "miss_stored"
	OutcomeMissUncacheable Outcome = "miss_uncacheable"
	OutcomeFetchFailed     Outcome = "fetch_failed"
	OutcomeCacheFailed     Outcome = "cache_failed"
)

// Lookup is what the orchestrator hands back to its caller.
type Lookup struct {
	Result  Result
	Outcome Outcome
}

// Code returns the upstream status code, or "" when absent or not a string.
func (r Result) Code() string {
	s, _ := r[CodeField].(string)
	return s
}

// IsOk reports whether the provider considered the request successful.
func (r Result) IsOk() bool {
	return r.Code() == StatusOK
}

// MarkCached sets the cache-origin flag.
func (r Result) MarkCached(cached bool) {
	r[CacheField] = cached
}

// Decode parses a JSON object, keeping numbers as json.Number so values
// re-encode exactly as they were received.
func Decode(data []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Result
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON object")
	}
	return r, nil
}

// Encode serializes the result.
func (r Result) Encode() ([]byte, error) {
	return json.Marshal(r)
}
