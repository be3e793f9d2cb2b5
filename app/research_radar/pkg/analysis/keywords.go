package analysis

import (
	"sort"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// MaxKeywords 分析结果中保留的关键词数量
const MaxKeywords = 20

// RankKeywords 统计语料中所有 token 的频次，返回频次最高的 limit 个。
// 频次相同时先出现的关键词排在前面。
func RankKeywords(texts []string, limit int) []model.KeywordCount {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	ranked := make([]model.KeywordCount, 0, len(order))
	for _, kw := range order {
		ranked = append(ranked, model.KeywordCount{Keyword: kw, Count: counts[kw]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
