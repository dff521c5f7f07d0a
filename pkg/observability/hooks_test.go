package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "file")
	p.OnLoadComplete(ctx, "file", 12, time.Second, nil)
	p.OnLayoutStart(ctx, 12)
	p.OnLayoutComplete(ctx, 12, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)
	p.OnRecompute(ctx, 3, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "records")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "okr.example.com", "/okrs/")
	h.OnResponse(ctx, "GET", "okr.example.com", "/okrs/", 200, time.Second)
	h.OnError(ctx, "GET", "okr.example.com", "/okrs/", nil)
}

type countingPipeline struct {
	NoopPipelineHooks
	layouts int
}

func (c *countingPipeline) OnLayoutStart(context.Context, int) { c.layouts++ }

type countingCache struct {
	NoopCacheHooks
	hits int
}

func (c *countingCache) OnCacheHit(context.Context, string) { c.hits++ }

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.IsType(t, NoopPipelineHooks{}, Pipeline())
	assert.IsType(t, NoopCacheHooks{}, Cache())
	assert.IsType(t, NoopHTTPHooks{}, HTTP())

	p := &countingPipeline{}
	SetPipelineHooks(p)
	Pipeline().OnLayoutStart(context.Background(), 3)
	assert.Equal(t, 1, p.layouts)

	c := &countingCache{}
	SetCacheHooks(c)
	Cache().OnCacheHit(context.Background(), "layout")
	assert.Equal(t, 1, c.hits)

	SetHTTPHooks(nil)
	assert.IsType(t, NoopHTTPHooks{}, HTTP())

	Reset()
	assert.IsType(t, NoopPipelineHooks{}, Pipeline())
	assert.IsType(t, NoopCacheHooks{}, Cache())
}

func TestHooksConcurrentInstall(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCacheHooks(&countingCache{})
		}()
		go func() {
			defer wg.Done()
			Cache().OnCacheMiss(context.Background(), "records")
		}()
	}
	wg.Wait()

	assert.IsType(t, &countingCache{}, Cache())
}
