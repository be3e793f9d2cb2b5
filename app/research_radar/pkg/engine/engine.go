package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/analysis"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/charts"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/config"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/mailer"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/report"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/runlog"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/search"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/search/factory"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/sheets"
)

// RunIDLayout 运行 ID 的时间格式
const RunIDLayout = "20060102_150405"

// 各阶段协作者接口
type (
	NewsFetcher  = search.NewsFetcher
	PaperFetcher = search.PaperFetcher

	TrendAnalyzer interface {
		Analyze(articles []model.Article, papers []model.Paper, runDate string) (*model.AnalysisResult, error)
	}
	ChartRenderer interface {
		Render(analysis *model.AnalysisResult) (*model.ChartSet, error)
	}
	ReportBuilder interface {
		Build(req model.ReportRequest) (*model.ReportResult, error)
	}
	SheetUpdater interface {
		Update(ctx context.Context, row model.SheetRow) model.SheetResult
	}
	Mailer interface {
		Send(ctx context.Context, req model.EmailRequest) (*model.EmailResult, error)
	}
	FailureNotifier interface {
		NotifyFailure(ctx context.Context, notice model.FailureNotice) error
	}
	RunLogWriter interface {
		Write(rec *model.RunRecord) (string, error)
	}
)

// Deps 引擎依赖的协作者
type Deps struct {
	News     NewsFetcher
	Papers   PaperFetcher
	Analyzer TrendAnalyzer
	Charts   ChartRenderer
	Report   ReportBuilder
	Sheets   SheetUpdater
	Mailer   Mailer
	Notifier FailureNotifier
	RunLog   RunLogWriter
}

func (d Deps) validate() error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("news", d.News != nil)
	check("papers", d.Papers != nil)
	check("analyzer", d.Analyzer != nil)
	check("charts", d.Charts != nil)
	check("report", d.Report != nil)
	check("sheets", d.Sheets != nil)
	check("mailer", d.Mailer != nil)
	check("runlog", d.RunLog != nil)
	if len(missing) > 0 {
		return fmt.Errorf("engine dependencies missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Engine 运行编排器：按固定顺序执行 8 个阶段，并按策略表决定中止或继续
type Engine struct {
	deps Deps
	log  logrus.FieldLogger
	now  func() time.Time
}

// New 使用给定协作者创建引擎
func New(deps Deps, log logrus.FieldLogger) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{deps: deps, log: log, now: time.Now}, nil
}

// NewEngine 根据配置创建引擎实例
func NewEngine(cfg *config.Config, log logrus.FieldLogger) (*Engine, error) {
	fetchers, err := factory.NewFetchers(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("抓取客户端初始化失败: %w", err)
	}
	m := mailer.New(cfg.Email, log)

	return New(Deps{
		News:     fetchers.News,
		Papers:   fetchers.Papers,
		Analyzer: analysis.NewAnalyzer(log),
		Charts:   charts.NewRenderer(cfg.ChartsDir(), log),
		Report:   report.NewBuilder(cfg.ReportsDir(), log),
		Sheets:   sheets.NewUpdater(cfg.Sheets, log),
		Mailer:   m,
		Notifier: m,
		RunLog:   runlog.NewWriter(cfg.Log.Dir, log),
	}, log)
}

// runState 阶段之间传递的数据
type runState struct {
	runDate  string
	articles []model.Article
	papers   []model.Paper
	analysis *model.AnalysisResult
	charts   *model.ChartSet
	report   *model.ReportResult
	sheetURL string
}

type step struct {
	stage StageName
	title string
	run   func(ctx context.Context, st *runState, rec *model.RunRecord) error
}

func (e *Engine) steps() []step {
	return []step{
		{StageFetchNews, "Fetching AI news...", e.fetchNews},
		{StageFetchResearch, "Fetching ArXiv research papers...", e.fetchResearch},
		{StageAnalyzeTrends, "Analyzing trends and keywords...", e.analyzeTrends},
		{StageGenerateCharts, "Generating charts...", e.generateCharts},
		{StageGeneratePDF, "Generating PDF report...", e.generatePDF},
		{StageUpdateSheets, "Updating Google Sheets...", e.updateSheets},
		{StageSendEmail, "Sending email report...", e.sendEmail},
	}
}

// Run 执行一次完整运行，返回最终的运行记录。
// 中止时返回 *StageError，此时运行记录已写盘
func (e *Engine) Run(ctx context.Context) (*model.RunRecord, error) {
	start := e.now()
	runID := start.Format(RunIDLayout)
	st := &runState{runDate: start.UTC().Format(time.RFC3339)}
	rec := model.NewRunRecord(runID, st.runDate)

	banner := strings.Repeat("=", 60)
	e.log.Info(banner)
	e.log.Infof("AI Research Intelligence Pipeline - Run ID: %s", runID)
	e.log.Infof("Start time: %s", start.UTC().Format("2006-01-02 15:04:05 UTC"))
	e.log.Info(banner)

	total := len(Stages)
	for i, s := range e.steps() {
		e.log.Infof("[Step %d/%d] %s", i+1, total, s.title)
		res := e.runStage(ctx, s.stage, func(ctx context.Context) error {
			return s.run(ctx, st, rec)
		})
		if res.OK() {
			continue
		}
		if PolicyFor(res.Stage) == NonBlocking {
			e.log.WithField("stage", res.Stage).Warnf("阶段失败，继续运行: %v", res.Err)
			continue
		}
		return rec, e.abort(ctx, rec, st, res)
	}

	e.log.Infof("[Step %d/%d] Writing run summary log...", total, total)
	end := e.now()
	rec.Status = model.RunStatusCompleted
	rec.Finish(end.UTC().Format(time.RFC3339))
	if res := e.writeLog(ctx, rec); !res.OK() {
		return rec, &StageError{Stage: res.Stage, Err: res.Err}
	}

	e.logSummary(rec, end.Sub(start))
	return rec, nil
}

// runStage 执行单个阶段，阶段内的 panic 转换为错误
func (e *Engine) runStage(ctx context.Context, stage StageName, fn func(ctx context.Context) error) (res StageResult) {
	res.Stage = stage
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	res.Err = fn(ctx)
	return res
}

func (e *Engine) fetchNews(ctx context.Context, st *runState, _ *model.RunRecord) error {
	res, err := e.deps.News.FetchNews(ctx)
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	st.articles = res.Articles
	e.log.Infof("  -> %d articles fetched", res.Count)
	return nil
}

func (e *Engine) fetchResearch(ctx context.Context, st *runState, _ *model.RunRecord) error {
	res, err := e.deps.Papers.FetchPapers(ctx)
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	st.papers = res.Papers
	e.log.Infof("  -> %d papers fetched", res.Count)
	return nil
}

func (e *Engine) analyzeTrends(_ context.Context, st *runState, rec *model.RunRecord) error {
	a, err := e.deps.Analyzer.Analyze(st.articles, st.papers, st.runDate)
	if err != nil {
		return err
	}
	if a == nil {
		return errors.New("analysis returned no result")
	}
	st.analysis = a
	rec.ArticlesProcessed = a.ArticleCount
	rec.PapersProcessed = a.PaperCount
	rec.Top5Keywords = a.TopKeywordNames(5)
	e.log.Infof("  -> Top theme: %s", a.TopTheme())
	e.log.Infof("  -> Top keywords: %s", strings.Join(rec.Top5Keywords, ", "))
	return nil
}

func (e *Engine) generateCharts(_ context.Context, st *runState, _ *model.RunRecord) error {
	set, err := e.deps.Charts.Render(st.analysis)
	if err != nil {
		return err
	}
	if err := set.Validate(); err != nil {
		return err
	}
	st.charts = set
	e.log.Infof("  -> Charts: %s, %s, %s", set.KeywordBar, set.ThemePie, set.VolumeTrend)
	return nil
}

func (e *Engine) generatePDF(_ context.Context, st *runState, rec *model.RunRecord) error {
	res, err := e.deps.Report.Build(model.ReportRequest{
		Articles: st.articles,
		Papers:   st.papers,
		Analysis: st.analysis,
		Charts:   st.charts,
	})
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	st.report = res
	rec.PDFPath = res.PDFPath
	e.log.Infof("  -> PDF: %s (%d pages)", res.PDFPath, res.PageCount)
	return nil
}

func (e *Engine) updateSheets(ctx context.Context, st *runState, rec *model.RunRecord) error {
	// 先记为失败，协作者 panic 时保持该状态
	rec.SheetsStatus = model.SheetsFailed
	res := e.deps.Sheets.Update(ctx, model.SheetRow{
		RunDate:      st.runDate,
		ArticleCount: st.analysis.ArticleCount,
		PaperCount:   st.analysis.PaperCount,
		TopKeywords:  st.analysis.TopKeywords,
		PDFPath:      rec.PDFPath,
		Status:       "success",
	})
	if !res.Updated {
		e.log.Warnf("  -> Sheets: FAILED (non-blocking): %s", res.Error)
		return nil
	}
	rec.SheetsStatus = model.SheetsUpdated
	st.sheetURL = res.SheetURL
	e.log.Info("  -> Sheets: updated")
	return nil
}

func (e *Engine) sendEmail(ctx context.Context, st *runState, rec *model.RunRecord) error {
	res, err := e.deps.Mailer.Send(ctx, model.EmailRequest{
		PDFPath:      rec.PDFPath,
		RunDate:      st.runDate,
		ArticleCount: st.analysis.ArticleCount,
		PaperCount:   st.analysis.PaperCount,
		TopKeywords:  st.analysis.TopKeywords,
		SheetURL:     st.sheetURL,
	})
	if err != nil {
		rec.EmailStatus = model.EmailFailed
		return err
	}
	if res == nil || !res.Sent {
		rec.EmailStatus = model.EmailFailed
		e.log.Warn("  -> Email: FAILED")
		return nil
	}
	rec.EmailStatus = model.EmailSent
	e.log.Info("  -> Email: sent")
	return nil
}

func (e *Engine) writeLog(ctx context.Context, rec *model.RunRecord) StageResult {
	return e.runStage(ctx, StageWriteLog, func(context.Context) error {
		_, err := e.deps.RunLog.Write(rec)
		return err
	})
}

// abort 中止路径：尝试发送失败通知，写出部分运行记录，返回 StageError
func (e *Engine) abort(ctx context.Context, rec *model.RunRecord, st *runState, res StageResult) error {
	stageErr := &StageError{Stage: res.Stage, Err: res.Err}
	e.log.WithField("stage", res.Stage).Errorf("运行失败: %v", res.Err)

	// 运行被信号取消时仍要发出通知并写出记录
	ctx = context.WithoutCancel(ctx)

	rec.EmailStatus = e.notifyFailure(ctx, model.FailureNotice{
		RunID:   rec.RunID,
		RunDate: st.runDate,
		Stage:   string(res.Stage),
		Error:   res.Err.Error(),
	})
	rec.Status = model.RunStatusAborted
	rec.FailedStage = string(res.Stage)
	rec.Error = res.Err.Error()
	rec.Finish(e.now().UTC().Format(time.RFC3339))

	if w := e.writeLog(ctx, rec); !w.OK() {
		e.log.Errorf("写入运行日志失败: %v", w.Err)
	}
	return stageErr
}

// notifyFailure 尽力发送失败通知，错误和 panic 只记录不传播
func (e *Engine) notifyFailure(ctx context.Context, notice model.FailureNotice) (status string) {
	if e.deps.Notifier == nil {
		e.log.Warn("未配置失败通知")
		return model.EmailFailureNotificationFailed
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("发送失败通知时 panic: %v", r)
			status = model.EmailFailureNotificationFailed
		}
	}()
	if err := e.deps.Notifier.NotifyFailure(ctx, notice); err != nil {
		e.log.Errorf("无法发送失败通知: %v", err)
		return model.EmailFailureNotificationFailed
	}
	e.log.Infof("已发送失败通知，失败阶段: %s", notice.Stage)
	return model.EmailFailureNotificationSent
}

func (e *Engine) logSummary(rec *model.RunRecord, d time.Duration) {
	banner := strings.Repeat("=", 60)
	e.log.Info(banner)
	e.log.Infof("Pipeline complete in %ds", int(d.Seconds()))
	e.log.Infof("  Articles: %d", rec.ArticlesProcessed)
	e.log.Infof("  Papers:   %d", rec.PapersProcessed)
	e.log.Infof("  Keywords: %s", strings.Join(rec.Top5Keywords, ", "))
	e.log.Infof("  PDF:      %s", rec.PDFPath)
	e.log.Infof("  Email:    %s", rec.EmailStatus)
	e.log.Infof("  Sheets:   %s", rec.SheetsStatus)
	e.log.Info(banner)
}
