package model

import "sort"

// Article 新闻文章，由 fetch-news 阶段产生，创建后不再修改
type Article struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"` // ISO-8601
	Description string `json:"description"`
}

// MaxPaperAuthors 每篇论文最多保留的作者数
const MaxPaperAuthors = 5

// Paper arXiv 论文，由 fetch-research 阶段产生
type Paper struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"` // 有序，最多 5 位
	Abstract    string   `json:"abstract"`
	ArxivID     string   `json:"arxiv_id"`
	PublishedAt string   `json:"published_at"`
	Categories  []string `json:"categories"` // 去重后按字典序排列
}

// NormalizeCategories 去掉空值和重复项，返回排好序的分类集合
func NormalizeCategories(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// KeywordCount 关键词及其出现次数
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// ThemeScore 主题及其短语命中得分
type ThemeScore struct {
	Theme string
	Score int
}

// SummaryStats 汇总统计
type SummaryStats struct {
	TotalSources     int    `json:"total_sources"`
	DateRange        string `json:"date_range"`
	MostActiveSource string `json:"most_active_source"`
}

// AnalysisResult 趋势分析结果，每次运行生成一次，之后只读
type AnalysisResult struct {
	TopKeywords    []KeywordCount `json:"top_keywords"`    // 最多 20 个，按次数降序
	TrendingThemes []string       `json:"trending_themes"` // 最多 8 个，按得分降序
	ArticleCount   int            `json:"article_count"`
	PaperCount     int            `json:"paper_count"`
	SummaryStats   SummaryStats   `json:"summary_stats"`
	RunDate        string         `json:"run_date"`
}

// TopKeywordNames 返回前 n 个关键词的名称
func (r *AnalysisResult) TopKeywordNames(n int) []string {
	if r == nil {
		return []string{}
	}
	if n > len(r.TopKeywords) {
		n = len(r.TopKeywords)
	}
	names := make([]string, 0, n)
	for _, k := range r.TopKeywords[:n] {
		names = append(names, k.Keyword)
	}
	return names
}

// TopTheme 返回得分最高的主题，没有时返回 "N/A"
func (r *AnalysisResult) TopTheme() string {
	if r == nil || len(r.TrendingThemes) == 0 {
		return NotAvailable
	}
	return r.TrendingThemes[0]
}

// NotAvailable 缺失统计值的占位符
const NotAvailable = "N/A"
