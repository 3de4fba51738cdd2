package experts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *Router {
	return NewRouter(DefaultCatalog(), 3, "ManufacturingExpert")
}

func TestParseMentions_ExactMatch(t *testing.T) {
	r := newTestRouter()

	ids := r.ParseMentions("@QualityExpert how do we validate this")
	require.Len(t, ids, 1)
	assert.Equal(t, "QualityExpert", ids[0])
}

func TestParseMentions_OrderPreserved(t *testing.T) {
	r := newTestRouter()

	ids := r.ParseMentions("@QualityExpert @ManufacturingExpert how do we validate this")
	assert.Equal(t, []string{"QualityExpert", "ManufacturingExpert"}, ids)
}

func TestParseMentions_PartialToken(t *testing.T) {
	r := newTestRouter()

	// 提及词是标识的子串
	ids := r.ParseMentions("@quality can you review this batch record")
	require.Len(t, ids, 1)
	assert.Equal(t, "QualityExpert", ids[0])
}

func TestParseMentions_DuplicatesCollapsed(t *testing.T) {
	r := newTestRouter()

	ids := r.ParseMentions("@quality @QualityExpert same expert twice")
	assert.Equal(t, []string{"QualityExpert"}, ids)
}

func TestParseMentions_UnknownAndMalformed(t *testing.T) {
	r := newTestRouter()

	assert.Empty(t, r.ParseMentions("@zzzznobody what is this"))
	assert.Empty(t, r.ParseMentions("stray @ with nothing after"))
	assert.Empty(t, r.ParseMentions("no mentions at all"))
}

func TestRoute_MentionsBypassScoring(t *testing.T) {
	r := newTestRouter()

	// 即使查询内容与 SafetyExpert 高度相关，显式提及也完全接管
	ids := r.Route("@AccountingExpert what are the OSHA machine guarding requirements")
	assert.Equal(t, []string{"AccountingExpert"}, ids)
}

func TestRoute_RelevanceSelection(t *testing.T) {
	r := newTestRouter()

	ids := r.Route("we need help with OSHA compliance and hazard assessments")
	require.NotEmpty(t, ids)
	assert.Equal(t, "SafetyExpert", ids[0])
	assert.LessOrEqual(t, len(ids), 3)
}

func TestRoute_FallbackNeverEmpty(t *testing.T) {
	r := newTestRouter()

	ids := r.Route("xyzzy plugh nothing relevant here")
	assert.Equal(t, []string{"ManufacturingExpert"}, ids)
}

func TestRelevance_MentionShortCircuits(t *testing.T) {
	r := newTestRouter()
	p, ok := DefaultCatalog().Get("QualityExpert")
	require.True(t, ok)

	assert.Equal(t, 1.0, r.Relevance("@qualityexpert check this", p))
}

func TestRelevance_CappedAtOne(t *testing.T) {
	r := newTestRouter()
	p, ok := DefaultCatalog().Get("QualityExpert")
	require.True(t, ok)

	// 命中大量专长关键词，分数仍封顶 1.0
	score := r.Relevance("quality assurance quality control root cause analysis defect analysis quality audits", p)
	assert.Equal(t, 1.0, score)
}

func TestRelevance_ZeroForUnrelated(t *testing.T) {
	r := newTestRouter()
	p, ok := DefaultCatalog().Get("EnvironmentalExpert")
	require.True(t, ok)

	assert.Equal(t, 0.0, r.Relevance("completely unrelated text", p))
}

func TestCatalog_CaseInsensitiveLookup(t *testing.T) {
	c := DefaultCatalog()

	p, ok := c.Get("manufacturingexpert")
	require.True(t, ok)
	assert.Equal(t, "ManufacturingExpert", p.ID)

	_, ok = c.Get("NoSuchExpert")
	assert.False(t, ok)
}
