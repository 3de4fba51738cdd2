package retrieval

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByRunes_ShortTextSinglePiece(t *testing.T) {
	chunks := splitByRunes("short text", 800, 80)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitByRunes_Empty(t *testing.T) {
	assert.Nil(t, splitByRunes("", 800, 80))
	assert.Nil(t, splitByRunes("   ", 800, 80))
}

func TestSplitByRunes_OverlapStep(t *testing.T) {
	text := strings.Repeat("x", 2000)
	chunks := splitByRunes(text, 800, 80)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 800)
	}
	// 步长 720：起点 0、720、1440，共 3 块
	assert.Len(t, chunks, 3)
}

func TestSplitByRunes_MultibyteSafe(t *testing.T) {
	text := strings.Repeat("混合中文と日本語", 200)
	chunks := splitByRunes(text, 100, 10)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
		// 多字节字符不应被从中间截断
		assert.True(t, utf8.ValidString(c))
	}
}

func TestBuildPromptContext_Format(t *testing.T) {
	passages := []Passage{
		{SourceID: "sop1_0", DisplayName: "Mixing SOP Rev3.pdf", Content: "Step 1: verify scale calibration."},
		{SourceID: "sop2_0", DisplayName: "Cleaning SOP.pdf", Content: "Use approved sanitizer only."},
	}

	got := BuildPromptContext(passages)
	assert.Contains(t, got, "**From Mixing SOP Rev3.pdf:**\nStep 1: verify scale calibration.")
	assert.Contains(t, got, "\n---\n")
	assert.Contains(t, got, "**From Cleaning SOP.pdf:**")
}

func TestBuildPromptContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildPromptContext(nil))
}

func TestExpansionNote(t *testing.T) {
	assert.Equal(t, "", ExpansionNote(nil))
	assert.Equal(t, "", ExpansionNote(&Result{Variants: []string{"only one"}}))

	note := ExpansionNote(&Result{Variants: []string{"ap", "accounts payable", "a/p"}})
	assert.Contains(t, note, "accounts payable")
}

func TestSourceNames_DedupInOrder(t *testing.T) {
	passages := []Passage{
		{DisplayName: "A.pdf"},
		{DisplayName: "B.pdf"},
		{DisplayName: "A.pdf"},
		{DisplayName: ""},
	}
	assert.Equal(t, []string{"A.pdf", "B.pdf"}, SourceNames(passages))
}
