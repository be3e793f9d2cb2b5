package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

const (
	reportTitle   = "AI Research Intelligence Report"
	maxItems      = 10
	maxTitleChars = 120
	maxDescChars  = 200
	maxAbstract   = 250
	pageMargin    = 15.0
	contentWidth  = 210.0 - 2*pageMargin
)

type rgb struct{ r, g, b int }

var (
	darkBG    = rgb{26, 26, 46}
	accent    = rgb{15, 52, 96}
	red       = rgb{233, 69, 96}
	lightGray = rgb{204, 204, 204}
	bodyText  = rgb{33, 33, 33}
	rowShade  = rgb{236, 238, 245}
)

// Builder 生成 PDF 周报
type Builder struct {
	dir string
	now func() time.Time
	log logrus.FieldLogger
}

// NewBuilder 创建报告生成器，输出到 dir
func NewBuilder(dir string, log logrus.FieldLogger) *Builder {
	return &Builder{dir: dir, now: time.Now, log: log}
}

// FileName 返回某天报告的文件名
func FileName(day time.Time) string {
	return fmt.Sprintf("AI_Report_%s.pdf", day.Format("20060102"))
}

// Build 排版并写出 PDF
func (b *Builder) Build(req model.ReportRequest) (*model.ReportResult, error) {
	if req.Analysis == nil {
		return nil, fmt.Errorf("analysis result is nil")
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}

	now := b.now()
	path := filepath.Join(b.dir, FileName(now))
	runDate := now.Format("January 02, 2006")

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pageMargin, 20, pageMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(reportTitle, true)

	pdf.SetHeaderFunc(func() {
		setFill(pdf, darkBG)
		pdf.Rect(0, 0, 210, 12, "F")
		pdf.SetFont("Helvetica", "B", 9)
		setText(pdf, red)
		pdf.SetXY(10, 3)
		pdf.CellFormat(100, 6, reportTitle, "", 0, "L", false, 0, "")
		setText(pdf, lightGray)
		pdf.SetXY(100, 3)
		pdf.CellFormat(100, 6, runDate, "", 0, "R", false, 0, "")
		pdf.SetY(20)
	})
	pdf.SetFooterFunc(func() {
		setFill(pdf, darkBG)
		pdf.Rect(0, 287, 210, 10, "F")
		pdf.SetY(-9)
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, lightGray)
		pdf.CellFormat(0, 6, "Page "+strconv.Itoa(pdf.PageNo())+"  |  Confidential - Internal Use Only", "", 0, "C", false, 0, "")
	})

	w := &writer{pdf: pdf, tr: tr}
	w.cover(runDate)
	w.executiveSummary(req.Analysis)
	w.keywords(req.Analysis, chartPath(req.Charts, func(c *model.ChartSet) string { return c.KeywordBar }))

	pdf.AddPage()
	w.themes(
		chartPath(req.Charts, func(c *model.ChartSet) string { return c.ThemePie }),
		chartPath(req.Charts, func(c *model.ChartSet) string { return c.VolumeTrend }),
	)

	pdf.AddPage()
	w.articles(req.Articles)

	pdf.AddPage()
	w.papers(req.Papers)

	pageCount := pdf.PageCount()
	if err := pdf.OutputFileAndClose(path); err != nil {
		return nil, fmt.Errorf("write pdf failed: %w", err)
	}

	b.log.Infof("generate_pdf: 已保存 %s (%d 页)", path, pageCount)
	return &model.ReportResult{
		PDFPath:     path,
		PageCount:   pageCount,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}, nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) cover(runDate string) {
	w.pdf.AddPage()
	w.pdf.Ln(15)
	w.pdf.SetFont("Helvetica", "B", 28)
	setText(w.pdf, darkBG)
	w.pdf.CellFormat(0, 14, "AI Research Intelligence", "", 1, "C", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 13)
	setText(w.pdf, accent)
	w.pdf.CellFormat(0, 7, "Weekly Briefing Report", "", 1, "C", false, 0, "")
	w.pdf.CellFormat(0, 7, runDate, "", 1, "C", false, 0, "")
	w.pdf.Ln(3)
	setDraw(w.pdf, red)
	w.pdf.SetLineWidth(0.4)
	y := w.pdf.GetY()
	w.pdf.Line(pageMargin, y, pageMargin+contentWidth, y)
	w.pdf.Ln(6)
}

func (w *writer) section(title string) {
	w.pdf.Ln(4)
	w.pdf.SetFont("Helvetica", "B", 14)
	setText(w.pdf, red)
	w.pdf.CellFormat(0, 8, w.tr(title), "", 1, "L", false, 0, "")
	w.pdf.Ln(1)
}

func (w *writer) executiveSummary(a *model.AnalysisResult) {
	w.section("Executive Summary")
	themes := a.TrendingThemes
	if len(themes) > 3 {
		themes = themes[:3]
	}
	topThemes := strings.Join(themes, ", ")
	if topThemes == "" {
		topThemes = model.NotAvailable
	}
	text := fmt.Sprintf(
		"This week's AI intelligence report covers %d news articles and %d research papers published between %s. "+
			"The most active source was %s. Top trending themes: %s.",
		a.ArticleCount, a.PaperCount, a.SummaryStats.DateRange, a.SummaryStats.MostActiveSource, topThemes,
	)
	w.body(text)
}

func (w *writer) keywords(a *model.AnalysisResult, chart string) {
	w.section("Top Keywords")
	w.image(chart, 160)

	top := a.TopKeywords
	if len(top) > maxItems {
		top = top[:maxItems]
	}
	if len(top) == 0 {
		return
	}
	w.pdf.Ln(3)
	w.pdf.SetFont("Helvetica", "B", 9)
	setFill(w.pdf, accent)
	setText(w.pdf, rgb{255, 255, 255})
	w.pdf.CellFormat(100, 7, "Keyword", "1", 0, "L", true, 0, "")
	w.pdf.CellFormat(60, 7, "Frequency", "1", 1, "C", true, 0, "")
	w.pdf.SetFont("Helvetica", "", 9)
	setText(w.pdf, bodyText)
	for i, k := range top {
		fill := i%2 == 0
		setFill(w.pdf, rowShade)
		w.pdf.CellFormat(100, 6, w.tr(k.Keyword), "1", 0, "L", fill, 0, "")
		w.pdf.CellFormat(60, 6, strconv.Itoa(k.Count), "1", 1, "C", fill, 0, "")
	}
}

func (w *writer) themes(pie, volume string) {
	w.section("Trending Themes")
	w.image(pie, 120)
	if exists(volume) {
		w.section("Content Volume Breakdown")
		w.image(volume, 140)
	}
}

func (w *writer) articles(articles []model.Article) {
	w.section("Top News Articles")
	for i, a := range limit(articles) {
		title := truncate(orDefault(a.Title, "Untitled"), maxTitleChars)
		w.heading(fmt.Sprintf("%d. %s", i+1, title))
		w.small(fmt.Sprintf("Source: %s  |  Published: %s", orDefault(a.Source, "Unknown"), truncate(a.PublishedAt, 10)))
		if a.Description != "" {
			w.small(truncate(a.Description, maxDescChars))
		}
		w.pdf.Ln(2.5)
	}
}

func (w *writer) papers(papers []model.Paper) {
	w.section("AI Research Papers")
	for i, p := range limitPapers(papers) {
		authors := p.Authors
		if len(authors) > 3 {
			authors = authors[:3]
		}
		w.heading(fmt.Sprintf("%d. %s", i+1, truncate(orDefault(p.Title, "Untitled"), maxTitleChars)))
		w.small(fmt.Sprintf("Authors: %s  |  Published: %s  |  ArXiv: %s",
			strings.Join(authors, ", "), truncate(p.PublishedAt, 10), p.ArxivID))
		if p.Abstract != "" {
			w.small(truncate(p.Abstract, maxAbstract) + "...")
		}
		w.pdf.Ln(3)
	}
}

func (w *writer) heading(s string) {
	w.pdf.SetFont("Helvetica", "B", 9)
	setText(w.pdf, bodyText)
	w.pdf.MultiCell(0, 5, w.tr(s), "", "L", false)
}

func (w *writer) body(s string) {
	w.pdf.SetFont("Helvetica", "", 9)
	setText(w.pdf, bodyText)
	w.pdf.MultiCell(0, 5, w.tr(s), "", "L", false)
}

func (w *writer) small(s string) {
	w.pdf.SetFont("Helvetica", "", 8)
	setText(w.pdf, rgb{90, 90, 90})
	w.pdf.MultiCell(0, 4.2, w.tr(s), "", "L", false)
}

// image 按宽度等比插入图片，文件不存在时跳过
func (w *writer) image(path string, width float64) {
	if !exists(path) {
		return
	}
	x := pageMargin + (contentWidth-width)/2
	w.pdf.ImageOptions(path, x, w.pdf.GetY(), width, 0, true, fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
}

func chartPath(c *model.ChartSet, pick func(*model.ChartSet) string) string {
	if c == nil {
		return ""
	}
	return pick(c)
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func limit(articles []model.Article) []model.Article {
	if len(articles) > maxItems {
		return articles[:maxItems]
	}
	return articles
}

func limitPapers(papers []model.Paper) []model.Paper {
	if len(papers) > maxItems {
		return papers[:maxItems]
	}
	return papers
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
