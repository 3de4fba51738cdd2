package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/config"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...einoembedding.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(len(texts[i])), 0.5}
	}
	return out, nil
}

// downCache 模拟 Redis 不可达：不调用 loader 直接返回错误
type downCache struct {
	calls int
}

func (c *downCache) GetOrLoadSafe(context.Context, string, time.Duration, func() (interface{}, error)) ([]byte, error) {
	c.calls++
	return nil, fmt.Errorf("dial tcp: i/o timeout")
}

// loadingCache 模拟缓存未命中：直接执行 loader 并返回其结果
type loadingCache struct{}

func (loadingCache) GetOrLoadSafe(_ context.Context, _ string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	data, err := loader()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// hitCache 模拟缓存命中：返回固定向量，不触碰 loader
type hitCache struct {
	vector []float32
}

func (c *hitCache) GetOrLoadSafe(context.Context, string, time.Duration, func() (interface{}, error)) ([]byte, error) {
	return json.Marshal(c.vector)
}

func newTestProvider(inner einoembedding.Embedder, cache QueryCache) *Provider {
	return NewProvider(inner, cache, &config.EmbeddingConfig{
		Provider:   "openai",
		Model:      "bge-m3",
		BatchSize:  2,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
	})
}

func TestEmbedOneFallsBackWhenCacheUnavailable(t *testing.T) {
	inner := &fakeEmbedder{}
	cache := &downCache{}
	p := newTestProvider(inner, cache)

	vec, err := p.EmbedOne(context.Background(), "receiving inspection sop")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, 1, inner.calls, "cache failure should degrade to a single direct embed")
}

func TestEmbedOnePropagatesEmbedderError(t *testing.T) {
	inner := &fakeEmbedder{err: fmt.Errorf("upstream 503")}
	p := newTestProvider(inner, loadingCache{})

	_, err := p.EmbedOne(context.Background(), "receiving inspection sop")
	require.Error(t, err)

	var transient *retrieval.TransientError
	assert.ErrorAs(t, err, &transient)
	assert.Equal(t, 1, inner.calls, "embedder failure must not trigger a second direct embed")
}

func TestEmbedOneUsesCachedVector(t *testing.T) {
	inner := &fakeEmbedder{}
	p := newTestProvider(inner, &hitCache{vector: []float32{0.1, 0.2, 0.3}})

	vec, err := p.EmbedOne(context.Background(), "receiving inspection sop")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Zero(t, inner.calls)
}

func TestEmbedOneWithoutCacheEmbedsDirectly(t *testing.T) {
	inner := &fakeEmbedder{}
	p := newTestProvider(inner, nil)

	vec, err := p.EmbedOne(context.Background(), "receiving inspection sop")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestEmbedSplitsBatches(t *testing.T) {
	inner := &fakeEmbedder{}
	p := newTestProvider(inner, nil)

	vecs, err := p.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 2, inner.calls, "batch size 2 splits three texts into two calls")
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(3), vecs[2][0])
}
