package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/okrtree/pkg/observability"
)

func TestHooksRecordMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	h := New(reg)

	h.OnLoadComplete(ctx, "file", 42, time.Millisecond, nil)
	h.OnLayoutComplete(ctx, 42, time.Millisecond, nil)
	h.OnLayoutComplete(ctx, 0, time.Millisecond, errors.New("cycle"))
	h.OnRecompute(ctx, 7, time.Millisecond, nil)
	h.OnCacheHit(ctx, "layout")
	h.OnCacheHit(ctx, "layout")
	h.OnCacheMiss(ctx, "records")
	h.OnCacheSet(ctx, "artifact", 512)
	h.OnResponse(ctx, "GET", "okr.example.com", "/okrs/", 200, time.Millisecond)
	h.OnError(ctx, "GET", "okr.example.com", "/users/", errors.New("refused"))

	assert.Equal(t, 42.0, testutil.ToFloat64(h.loadRecords))
	assert.Equal(t, 7.0, testutil.ToFloat64(h.boardVersion))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.cacheEvents.WithLabelValues("hit", "layout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.cacheEvents.WithLabelValues("miss", "records")))
	assert.Equal(t, 512.0, testutil.ToFloat64(h.cacheBytes.WithLabelValues("artifact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.httpRequests.WithLabelValues("okr.example.com", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.httpRequests.WithLabelValues("okr.example.com", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.recomputes.WithLabelValues("ok")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["okrtree_layout_duration_seconds"])
	assert.True(t, names["okrtree_layout_nodes"])
}

func TestRegisterInstallsGlobalHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	h := New(prometheus.NewRegistry())
	h.Register()

	assert.Same(t, h, observability.Pipeline())
	assert.Same(t, h, observability.Cache())
	assert.Same(t, h, observability.HTTP())
}
