package route_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

func TestDecode_KeepsNumbersVerbatim(t *testing.T) {
	in := `{"code":"Ok","trips":[{"distance":1234.5678901234567,"duration":99}]}`
	r, err := route.Decode([]byte(in))
	require.NoError(t, err)
	out, err := r.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Contains(t, string(out), "1234.5678901234567")
}

func TestDecode_RejectsNonObjects(t *testing.T) {
	for _, in := range []string{`null`, `[1,2]`, `"Ok"`, `{"code":"Ok"} {}`, `not json`} {
		_, err := route.Decode([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestResult_IsOk(t *testing.T) {
	assert.True(t, route.Result{"code": "Ok"}.IsOk())
	assert.False(t, route.Result{"code": "NoRoute"}.IsOk())
	assert.False(t, route.Result{"code": 200}.IsOk())
	assert.False(t, route.Result{}.IsOk())
}

func TestErrCacheAuth_IsConnectionError(t *testing.T) {
	assert.True(t, errors.Is(route.ErrCacheAuth, route.ErrCacheConnection))
	assert.False(t, errors.Is(route.ErrUpstream, route.ErrCacheConnection))
}
