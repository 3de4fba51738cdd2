package experts

import (
	"regexp"
	"sort"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// 相关性打分权重
const (
	mentionScore        = 1.0
	specializationScore = 0.3
	titleWordScore      = 0.2
	maxScore            = 1.0
)

// Router 根据 @提及或关键词相关性选择专家
type Router struct {
	catalog         *Catalog
	maxAutoSelected int
	fallbackID      string
}

// NewRouter 创建专家路由器
func NewRouter(catalog *Catalog, maxAutoSelected int, fallbackID string) *Router {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if maxAutoSelected <= 0 {
		maxAutoSelected = 3
	}
	if fallbackID == "" {
		fallbackID = "ManufacturingExpert"
	}
	return &Router{
		catalog:         catalog,
		maxAutoSelected: maxAutoSelected,
		fallbackID:      fallbackID,
	}
}

// Route 返回应处理该查询的专家标识列表
// 规则：显式 @提及优先且完全绕过打分；否则按相关性取前 N；都没有则回退到默认专家
func (r *Router) Route(query string) []string {
	if mentioned := r.ParseMentions(query); len(mentioned) > 0 {
		return mentioned
	}

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, r.catalog.Len())
	for _, p := range r.catalog.List() {
		if s := r.Relevance(query, p); s > 0 {
			candidates = append(candidates, scored{id: p.ID, score: s})
		}
	}
	// 稳定排序，同分时保持目录顺序
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) == 0 {
		return []string{r.fallbackID}
	}
	if len(candidates) > r.maxAutoSelected {
		candidates = candidates[:r.maxAutoSelected]
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids
}

// ParseMentions 解析查询中的 @提及，按首次出现顺序返回匹配到的专家标识
// 提及词与专家标识做双向子串匹配（不区分大小写），每个提及词取首个命中的专家
func (r *Router) ParseMentions(query string) []string {
	matches := mentionPattern.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var result []string
	for _, m := range matches {
		token := strings.ToLower(m[1])
		for _, p := range r.catalog.List() {
			id := strings.ToLower(p.ID)
			if token == id || strings.Contains(id, token) || strings.Contains(token, id) {
				if _, dup := seen[p.ID]; !dup {
					seen[p.ID] = struct{}{}
					result = append(result, p.ID)
				}
				break
			}
		}
	}
	return result
}

// Relevance 计算专家与查询的相关性分数，范围 [0, 1]
func (r *Router) Relevance(query string, p Persona) float64 {
	lowered := strings.ToLower(query)

	if strings.Contains(lowered, "@"+strings.ToLower(p.ID)) {
		return mentionScore
	}

	score := 0.0
	for _, spec := range p.Specializations {
		if strings.Contains(lowered, strings.ToLower(spec)) {
			score += specializationScore
		}
	}
	for _, word := range strings.Fields(strings.ToLower(p.Title)) {
		if strings.Contains(lowered, word) {
			score += titleWordScore
			break
		}
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}
