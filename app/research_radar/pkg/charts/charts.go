package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// 图表种类，同时作为文件名前缀
const (
	KindKeywordBar  = "keyword_bar"
	KindThemePie    = "theme_pie"
	KindVolumeTrend = "volume_trend"
)

const (
	maxBarKeywords = 10
	maxPieThemes   = 6
	fallbackTheme  = "General AI"
)

var (
	brandColor  = drawing.ColorFromHex("1A1A2E")
	accentColor = drawing.ColorFromHex("16213E")
	highlight   = drawing.ColorFromHex("E94560")
	palette     = []drawing.Color{
		drawing.ColorFromHex("E94560"),
		drawing.ColorFromHex("0F3460"),
		drawing.ColorFromHex("533483"),
		drawing.ColorFromHex("2B9348"),
		drawing.ColorFromHex("F4A261"),
		drawing.ColorFromHex("E76F51"),
	}
)

// Renderer 把分析结果渲染为 PNG 图表
type Renderer struct {
	dir string
	now func() time.Time
	log logrus.FieldLogger
}

// NewRenderer 创建图表渲染器，输出到 dir
func NewRenderer(dir string, log logrus.FieldLogger) *Renderer {
	return &Renderer{dir: dir, now: time.Now, log: log}
}

// Render 生成关键词柱状图、主题饼图和内容量柱状图
func (r *Renderer) Render(analysis *model.AnalysisResult) (*model.ChartSet, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis result is nil")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create charts directory: %w", err)
	}
	stamp := r.now().Format("20060102")

	keywordBar := r.path(KindKeywordBar, stamp)
	if err := renderBar(keywordBar, "Top AI Keywords This Week", KeywordBars(analysis.TopKeywords)); err != nil {
		return nil, fmt.Errorf("render %s: %w", KindKeywordBar, err)
	}
	r.log.Infof("已生成图表: %s", keywordBar)

	themePie := r.path(KindThemePie, stamp)
	if err := renderPie(themePie, "Trending AI Themes", ThemeSlices(analysis.TrendingThemes, analysis.TopKeywords)); err != nil {
		return nil, fmt.Errorf("render %s: %w", KindThemePie, err)
	}
	r.log.Infof("已生成图表: %s", themePie)

	volume := r.path(KindVolumeTrend, stamp)
	if err := renderBar(volume, "Weekly Content Volume", VolumeBars(analysis.ArticleCount, analysis.PaperCount)); err != nil {
		return nil, fmt.Errorf("render %s: %w", KindVolumeTrend, err)
	}
	r.log.Infof("已生成图表: %s", volume)

	return &model.ChartSet{KeywordBar: keywordBar, ThemePie: themePie, VolumeTrend: volume}, nil
}

func (r *Renderer) path(kind, stamp string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.png", kind, stamp))
}

// KeywordBars 取前 10 个关键词作为柱状图数据
func KeywordBars(top []model.KeywordCount) []chart.Value {
	if len(top) > maxBarKeywords {
		top = top[:maxBarKeywords]
	}
	bars := make([]chart.Value, 0, len(top))
	for _, k := range top {
		bars = append(bars, chart.Value{
			Label: k.Keyword,
			Value: float64(k.Count),
			Style: chart.Style{FillColor: highlight, StrokeColor: highlight},
		})
	}
	return bars
}

// ThemeSlices 取前 6 个主题；扇区大小借用同位置关键词的频次，不足时为 1
func ThemeSlices(themes []string, top []model.KeywordCount) []chart.Value {
	if len(themes) > maxPieThemes {
		themes = themes[:maxPieThemes]
	}
	if len(themes) == 0 {
		themes = []string{fallbackTheme}
	}
	slices := make([]chart.Value, 0, len(themes))
	for i, theme := range themes {
		size := 1.0
		if i < len(top) && top[i].Count > 0 {
			size = float64(top[i].Count)
		}
		c := palette[i%len(palette)]
		slices = append(slices, chart.Value{
			Label: theme,
			Value: size,
			Style: chart.Style{FillColor: c, StrokeColor: brandColor, StrokeWidth: 2},
		})
	}
	return slices
}

// VolumeBars 新闻、论文和总数
func VolumeBars(articles, papers int) []chart.Value {
	values := []struct {
		label string
		n     int
	}{
		{"News Articles", articles},
		{"Research Papers", papers},
		{"Total Sources", articles + papers},
	}
	bars := make([]chart.Value, 0, len(values))
	for i, v := range values {
		c := palette[i%len(palette)]
		bars = append(bars, chart.Value{
			Label: v.label + " (" + strconv.Itoa(v.n) + ")",
			Value: float64(v.n),
			Style: chart.Style{FillColor: c, StrokeColor: c},
		})
	}
	return bars
}

// YMax 纵轴上限，至少为 1，避免全零数据导致空区间
func YMax(bars []chart.Value) float64 {
	m := 0.0
	for _, b := range bars {
		if b.Value > m {
			m = b.Value
		}
	}
	if m <= 0 {
		return 1
	}
	return m * 1.2
}

func renderBar(path, title string, bars []chart.Value) error {
	if len(bars) == 0 {
		bars = []chart.Value{{Label: "no data", Value: 0}}
	}
	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: drawing.ColorWhite},
		Width:      1000,
		Height:     600,
		BarWidth:   50,
		Background: chart.Style{
			Padding:   chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
			FillColor: brandColor,
		},
		Canvas: chart.Style{FillColor: accentColor},
		XAxis:  chart.Style{FontColor: drawing.ColorWhite, FontSize: 8},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: drawing.ColorWhite},
			Range: &chart.ContinuousRange{Min: 0, Max: YMax(bars)},
		},
		Bars: bars,
	}
	return writePNG(path, graph.Render)
}

func renderPie(path, title string, slices []chart.Value) error {
	graph := chart.PieChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: drawing.ColorWhite},
		Width:      800,
		Height:     800,
		Background: chart.Style{FillColor: brandColor},
		Values:     slices,
	}
	return writePNG(path, graph.Render)
}

func writePNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(chart.PNG, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
