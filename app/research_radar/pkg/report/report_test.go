package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{233, 69, 96, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func newTestBuilder(t *testing.T, dir string) *Builder {
	log, _ := logtest.NewNullLogger()
	b := NewBuilder(dir, log)
	b.now = func() time.Time { return time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC) }
	return b
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "keyword_bar.png")
	writePNG(t, chart)

	var articles []model.Article
	for i := 0; i < 12; i++ {
		articles = append(articles, model.Article{
			Title:       "Robots and résumés " + strings.Repeat("x", i),
			Source:      "TechCrunch",
			PublishedAt: "2026-02-01T00:00:00Z",
			Description: strings.Repeat("long description ", 30),
		})
	}
	papers := []model.Paper{{
		Title: "Scaling Laws", Authors: []string{"A", "B", "C", "D"},
		Abstract: "We study scaling.", ArxivID: "2602.01234v1", PublishedAt: "2026-02-05T18:00:00Z",
	}}

	res, err := newTestBuilder(t, filepath.Join(dir, "reports")).Build(model.ReportRequest{
		Articles: articles,
		Papers:   papers,
		Analysis: &model.AnalysisResult{
			TopKeywords:    []model.KeywordCount{{Keyword: "gpt", Count: 4}, {Keyword: "agents", Count: 2}},
			TrendingThemes: []string{"Large Language Models"},
			ArticleCount:   12,
			PaperCount:     1,
			SummaryStats:   model.SummaryStats{TotalSources: 13, DateRange: "2026-02-01 to 2026-02-05", MostActiveSource: "TechCrunch"},
		},
		Charts: &model.ChartSet{KeywordBar: chart, ThemePie: filepath.Join(dir, "missing.png"), VolumeTrend: ""},
	})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, filepath.Join(dir, "reports", "AI_Report_20260208.pdf"), res.PDFPath)
	assert.GreaterOrEqual(t, res.PageCount, 4)
	assert.Equal(t, "2026-02-08T09:00:00Z", res.GeneratedAt)

	data, err := os.ReadFile(res.PDFPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuild_EmptyInputs(t *testing.T) {
	res, err := newTestBuilder(t, t.TempDir()).Build(model.ReportRequest{Analysis: &model.AnalysisResult{}})
	require.NoError(t, err)
	assert.Equal(t, 4, res.PageCount)
}

func TestBuild_NilAnalysis(t *testing.T) {
	_, err := newTestBuilder(t, t.TempDir()).Build(model.ReportRequest{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}
