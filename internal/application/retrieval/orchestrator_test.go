package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sop-assistant-api/internal/application/expansion"
)

// fakeBackend 同时充当 Embedder 与 VectorIndex，向量首元素编码查询序号
type fakeBackend struct {
	mu      sync.Mutex
	textIDs map[string]float32
	texts   []string

	hits         map[string][]*SearchHit
	embedErr     map[string]error
	embedErrOnce map[string]error
	searchErr    map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		textIDs:      make(map[string]float32),
		hits:         make(map[string][]*SearchHit),
		embedErr:     make(map[string]error),
		embedErrOnce: make(map[string]error),
		searchErr:    make(map[string]error),
	}
}

func (f *fakeBackend) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.embedErr[text]; err != nil {
		return nil, err
	}
	if err := f.embedErrOnce[text]; err != nil {
		delete(f.embedErrOnce, text)
		return nil, err
	}
	id, ok := f.textIDs[text]
	if !ok {
		id = float32(len(f.texts))
		f.textIDs[text] = id
		f.texts = append(f.texts, text)
	}
	return []float32{id}, nil
}

func (f *fakeBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.EmbedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeBackend) Search(ctx context.Context, vec []float32, topK int) ([]*SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text := f.texts[int(vec[0])]
	if err := f.searchErr[text]; err != nil {
		return nil, err
	}
	results := f.hits[text]
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (f *fakeBackend) EnsureCollection(ctx context.Context) error            { return nil }
func (f *fakeBackend) InsertChunks(ctx context.Context, c []*DocumentChunk) error { return nil }
func (f *fakeBackend) DeleteBySource(ctx context.Context, s string) error    { return nil }
func (f *fakeBackend) Count(ctx context.Context) (int64, error)              { return 0, nil }
func (f *fakeBackend) HasAny(ctx context.Context) (bool, error)              { return false, nil }

func hit(sourceID, content string, score float32) *SearchHit {
	return &SearchHit{SourceID: sourceID, Content: content, Filename: sourceID + ".pdf", Score: score}
}

func newTestOrchestrator(b *fakeBackend) *Orchestrator {
	return NewOrchestrator(expansion.NewExpander(nil), b, b, DefaultPolicy())
}

func TestRetrieve_DedupBySourceID(t *testing.T) {
	b := newFakeBackend()
	b.hits["ap"] = []*SearchHit{hit("doc1_0", "first copy", 0.9), hit("doc2_0", "other", 0.8)}
	b.hits["accounts payable"] = []*SearchHit{hit("doc1_0", "second copy", 0.95), hit("doc3_0", "third", 0.7)}

	o := newTestOrchestrator(b)
	result, err := o.Retrieve(context.Background(), "ap", 5)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, p := range result.Passages {
		seen[p.SourceID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "source %s duplicated", id)
	}

	// 变体顺序优先：doc1_0 保留的是首个变体（原查询）的内容
	for _, p := range result.Passages {
		if p.SourceID == "doc1_0" {
			assert.Equal(t, "first copy", p.Content)
		}
	}
}

func TestRetrieve_BudgetInvariant(t *testing.T) {
	b := newFakeBackend()
	many := make([]*SearchHit, 0, 100)
	for i := 0; i < 100; i++ {
		many = append(many, hit(string(rune('a'+i%26))+string(rune('0'+i/26))+"_0", "text", 0.5))
	}
	b.hits["quality control procedures"] = many

	o := newTestOrchestrator(b)
	budget := 3
	result, err := o.Retrieve(context.Background(), "quality control procedures", budget)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Passages), budget*4)

	for i, p := range result.Passages {
		assert.Equal(t, i, p.Rank)
	}
}

func TestRetrieve_EmptyIndexReturnsEmpty(t *testing.T) {
	b := newFakeBackend()

	o := newTestOrchestrator(b)
	result, err := o.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, result.Passages)
	assert.True(t, result.UsedFallback)
}

func TestRetrieve_FallbackToOriginalQuery(t *testing.T) {
	b := newFakeBackend()
	// 原查询的 embedding 首次失败（瞬时），其余变体成功但无结果，
	// 合并为空后兜底直检重试原查询并成功
	b.embedErrOnce["ap"] = errors.New("transient failure")
	b.hits["ap"] = []*SearchHit{hit("doc9_0", "direct", 0.6)}

	o := newTestOrchestrator(b)
	result, err := o.Retrieve(context.Background(), "ap", 5)
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "doc9_0", result.Passages[0].SourceID)
}

func TestRetrieve_PartialVariantFailureTolerated(t *testing.T) {
	b := newFakeBackend()
	b.embedErr["accounts payable"] = errors.New("rate limited")
	b.hits["ap"] = []*SearchHit{hit("doc1_0", "from original", 0.9)}

	o := newTestOrchestrator(b)
	result, err := o.Retrieve(context.Background(), "ap", 5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.FailedVariants, 1)
	require.NotEmpty(t, result.Passages)
	assert.Equal(t, "doc1_0", result.Passages[0].SourceID)
}

func TestRetrieve_AllVariantsFailed(t *testing.T) {
	b := newFakeBackend()
	o := newTestOrchestrator(b)
	// 所有变体的 embedding 调用都失败
	for _, v := range expansion.NewExpander(nil).Expand("ap") {
		b.embedErr[v] = errors.New("provider down")
	}

	_, err := o.Retrieve(context.Background(), "ap", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieve_VariantsCapped(t *testing.T) {
	b := newFakeBackend()
	o := newTestOrchestrator(b)

	// "qc qa sop" 可扩展出超过 8 个变体
	result, err := o.Retrieve(context.Background(), "qc qa sop", 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Variants), 8)
	assert.Equal(t, "qc qa sop", result.Variants[0])
}

func TestRetrieve_EmptyQuestionRejected(t *testing.T) {
	b := newFakeBackend()
	o := newTestOrchestrator(b)

	_, err := o.Retrieve(context.Background(), "   ", 5)
	assert.Error(t, err)
}

func TestPolicy_Knobs(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 15, p.PerVariantK(5))
	assert.Equal(t, 100, p.PerVariantK(50))
	assert.Equal(t, 20, p.FinalLimit(5))
	assert.Equal(t, 200, p.FinalLimit(80))
}
