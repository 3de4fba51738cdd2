package expansion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_AlwaysIncludesOriginalFirst(t *testing.T) {
	e := NewExpander(nil)

	for _, query := range []string{"ap", "how do we handle ap invoices", "", "  ", "UNKNOWN TOKEN XYZ"} {
		variants := e.Expand(query)
		require.NotEmpty(t, variants, "query %q", query)
		assert.Equal(t, query, variants[0])
	}
}

func TestExpand_EmptyQueryReturnsItself(t *testing.T) {
	e := NewExpander(nil)

	assert.Equal(t, []string{""}, e.Expand(""))
}

func TestExpand_SingleAbbreviation(t *testing.T) {
	e := NewExpander(nil)

	variants := e.Expand("ap")
	assert.Contains(t, variants, "accounts payable")
	assert.Contains(t, variants, "account payable")
	assert.Contains(t, variants, "a/p")
}

func TestExpand_WordLevelCombinations(t *testing.T) {
	e := NewExpander(nil)

	variants := e.Expand("qty reqd")
	assert.Contains(t, variants, "quantity required")
	assert.Contains(t, variants, "quantity reqd")
	assert.Contains(t, variants, "qty required")
}

func TestExpand_ReverseLookup(t *testing.T) {
	e := NewExpander(nil)

	// 全称反查缩写
	variants := e.Expand("quantity required")
	assert.Contains(t, variants, "qty reqd")
	assert.Contains(t, variants, "qty required")
}

func TestExpand_InitialismMatch(t *testing.T) {
	e := NewExpander(nil)

	// "a p" 按首字母对齐匹配 ap
	variants := e.Expand("a p")
	assert.Contains(t, variants, "accounts payable")
}

func TestExpand_LongQuerySkipsCrossProduct(t *testing.T) {
	e := NewExpander(nil)

	variants := e.Expand("how do we handle qty shortages today")
	// 超过 3 个词不做组合扩展
	for _, v := range variants {
		assert.NotContains(t, v, "quantity shortages")
	}
	assert.Equal(t, "how do we handle qty shortages today", variants[0])
}

func TestExpand_NoDuplicates(t *testing.T) {
	e := NewExpander(nil)

	variants := e.Expand("sop for qc")
	seen := make(map[string]int)
	for _, v := range variants {
		seen[v]++
	}
	for v, n := range seen {
		assert.Equal(t, 1, n, "variant %q appeared %d times", v, n)
	}
}

func TestExpand_Idempotent(t *testing.T) {
	e := NewExpander(nil)

	first := e.Expand("po status")
	second := e.Expand(first[0])
	assert.ElementsMatch(t, first, second)
}

func TestExpand_BoundedOutput(t *testing.T) {
	e := NewExpander(nil)

	// 三词查询的组合扩展上限为 10，加上整句与首字母匹配，总量仍然有限
	variants := e.Expand("qc qa sop")
	assert.LessOrEqual(t, len(variants), 30)
}

func TestTable_ReverseIndex(t *testing.T) {
	table := DefaultTable()

	keys := table.Reverse("accounts payable")
	assert.Contains(t, keys, "ap")

	assert.Nil(t, table.Reverse("no such phrase"))
	assert.Nil(t, table.Forward("nosuchkey"))
}

func TestTable_KeysSorted(t *testing.T) {
	table := DefaultTable()

	keys := table.Keys()
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1], keys[i])
	}
}
