package analysis

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// Corpus 依次取每篇文章的 title+description、每篇论文的 title+abstract
func Corpus(articles []model.Article, papers []model.Paper) []string {
	texts := make([]string, 0, len(articles)+len(papers))
	for _, a := range articles {
		texts = append(texts, a.Title+" "+a.Description)
	}
	for _, p := range papers {
		texts = append(texts, p.Title+" "+p.Abstract)
	}
	return texts
}

// Analyze 把文章和论文集合转换为趋势分析结果。不做任何 I/O，空输入得到全零结果
func Analyze(articles []model.Article, papers []model.Paper, runDate string) *model.AnalysisResult {
	if runDate == "" {
		runDate = time.Now().UTC().Format(time.RFC3339)
	}

	texts := Corpus(articles, papers)

	scores := DetectThemes(texts, MaxThemes)
	themes := make([]string, 0, len(scores))
	for _, s := range scores {
		themes = append(themes, s.Theme)
	}

	return &model.AnalysisResult{
		TopKeywords:    RankKeywords(texts, MaxKeywords),
		TrendingThemes: themes,
		ArticleCount:   len(articles),
		PaperCount:     len(papers),
		SummaryStats:   Summarize(articles, papers),
		RunDate:        runDate,
	}
}

// Analyzer analyze-trends 阶段的实现，在 Analyze 外面加上日志
type Analyzer struct {
	log logrus.FieldLogger
}

// NewAnalyzer 创建分析器
func NewAnalyzer(log logrus.FieldLogger) *Analyzer {
	return &Analyzer{log: log}
}

// Analyze 执行趋势分析
func (a *Analyzer) Analyze(articles []model.Article, papers []model.Paper, runDate string) (*model.AnalysisResult, error) {
	result := Analyze(articles, papers, runDate)
	a.log.WithFields(logrus.Fields{
		"top_theme": result.TopTheme(),
		"keywords":  len(result.TopKeywords),
	}).Info("趋势分析完成")
	return result, nil
}
