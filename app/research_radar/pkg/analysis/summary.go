package analysis

import (
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// Summarize 基于原始文章和论文计算汇总统计
func Summarize(articles []model.Article, papers []model.Paper) model.SummaryStats {
	return model.SummaryStats{
		TotalSources:     len(articles) + len(papers),
		DateRange:        dateRange(articles, papers),
		MostActiveSource: mostActiveSource(articles),
	}
}

// dateRange ISO-8601 字符串的字典序即时间序，所以直接取字典序最小和最大值
func dateRange(articles []model.Article, papers []model.Paper) string {
	var lo, hi string
	found := false
	visit := func(d string) {
		if d == "" {
			return
		}
		if !found {
			lo, hi, found = d, d, true
			return
		}
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	for _, a := range articles {
		visit(a.PublishedAt)
	}
	for _, p := range papers {
		visit(p.PublishedAt)
	}

	if !found {
		return model.NotAvailable
	}
	return datePrefix(lo) + " to " + datePrefix(hi)
}

func datePrefix(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// mostActiveSource 出现次数最多的来源；并列时取最先出现的那个
func mostActiveSource(articles []model.Article) string {
	counts := make(map[string]int)
	var order []string
	for _, a := range articles {
		if a.Source == "" {
			continue
		}
		if _, seen := counts[a.Source]; !seen {
			order = append(order, a.Source)
		}
		counts[a.Source]++
	}

	best, bestCount := model.NotAvailable, 0
	for _, src := range order {
		if counts[src] > bestCount {
			best, bestCount = src, counts[src]
		}
	}
	return best
}
