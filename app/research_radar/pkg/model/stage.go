package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPayload 阶段间传递的数据不完整或不一致
var ErrMalformedPayload = errors.New("malformed stage payload")

// ValidationError 指出哪个载荷的哪个字段不合法
type ValidationError struct {
	Payload string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Payload, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrMalformedPayload
}

func invalid(payload, field, reason string) error {
	return &ValidationError{Payload: payload, Field: field, Reason: reason}
}

// NewsResult fetch-news 阶段输出
type NewsResult struct {
	Articles  []Article `json:"articles"`
	Count     int       `json:"count"`
	FetchedAt string    `json:"fetched_at"`
}

// Validate 校验 fetch-news 输出
func (r *NewsResult) Validate() error {
	if r == nil {
		return invalid("news result", "payload", "missing")
	}
	if r.Count != len(r.Articles) {
		return invalid("news result", "count", fmt.Sprintf("count %d does not match %d articles", r.Count, len(r.Articles)))
	}
	if r.FetchedAt == "" {
		return invalid("news result", "fetched_at", "empty")
	}
	for i, a := range r.Articles {
		if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.URL) == "" {
			return invalid("news result", fmt.Sprintf("articles[%d]", i), "neither title nor url present")
		}
	}
	return nil
}

// ResearchResult fetch-research 阶段输出
type ResearchResult struct {
	Papers    []Paper `json:"papers"`
	Count     int     `json:"count"`
	FetchedAt string  `json:"fetched_at"`
}

// Validate 校验 fetch-research 输出
func (r *ResearchResult) Validate() error {
	if r == nil {
		return invalid("research result", "payload", "missing")
	}
	if r.Count != len(r.Papers) {
		return invalid("research result", "count", fmt.Sprintf("count %d does not match %d papers", r.Count, len(r.Papers)))
	}
	if r.FetchedAt == "" {
		return invalid("research result", "fetched_at", "empty")
	}
	for i, p := range r.Papers {
		if strings.TrimSpace(p.Title) == "" {
			return invalid("research result", fmt.Sprintf("papers[%d].title", i), "empty")
		}
		if p.ArxivID == "" {
			return invalid("research result", fmt.Sprintf("papers[%d].arxiv_id", i), "empty")
		}
		if len(p.Authors) > MaxPaperAuthors {
			return invalid("research result", fmt.Sprintf("papers[%d].authors", i), fmt.Sprintf("%d authors exceeds %d", len(p.Authors), MaxPaperAuthors))
		}
	}
	return nil
}

// ChartSet generate-charts 阶段输出的图表路径
type ChartSet struct {
	KeywordBar  string `json:"keyword_bar"`
	ThemePie    string `json:"theme_pie"`
	VolumeTrend string `json:"volume_trend"`
}

// Validate 三张图都必须生成
func (c *ChartSet) Validate() error {
	if c == nil {
		return invalid("charts", "payload", "missing")
	}
	for name, path := range map[string]string{
		"keyword_bar":  c.KeywordBar,
		"theme_pie":    c.ThemePie,
		"volume_trend": c.VolumeTrend,
	} {
		if path == "" {
			return invalid("charts", name, "empty path")
		}
	}
	return nil
}

// ReportRequest generate-pdf 阶段输入
type ReportRequest struct {
	Articles []Article
	Papers   []Paper
	Analysis *AnalysisResult
	Charts   *ChartSet
}

// ReportResult generate-pdf 阶段输出
type ReportResult struct {
	PDFPath     string `json:"pdf_path"`
	PageCount   int    `json:"page_count"`
	GeneratedAt string `json:"generated_at"`
}

// Validate 校验 PDF 输出
func (r *ReportResult) Validate() error {
	if r == nil {
		return invalid("report", "payload", "missing")
	}
	if r.PDFPath == "" {
		return invalid("report", "pdf_path", "empty")
	}
	if r.PageCount < 1 {
		return invalid("report", "page_count", "no pages rendered")
	}
	return nil
}

// SheetRow update-sheets 阶段输入
type SheetRow struct {
	RunDate      string
	ArticleCount int
	PaperCount   int
	TopKeywords  []KeywordCount
	PDFPath      string
	Status       string
}

// SheetResult update-sheets 阶段输出；失败时 Updated 为 false 并带上 Error
type SheetResult struct {
	Updated   bool   `json:"updated"`
	SheetURL  string `json:"sheet_url"`
	RowsAdded int    `json:"rows_added"`
	Error     string `json:"error,omitempty"`
}

// EmailRequest send-email 阶段输入
type EmailRequest struct {
	PDFPath      string
	RunDate      string
	ArticleCount int
	PaperCount   int
	TopKeywords  []KeywordCount
	SheetURL     string
	FailureMode  bool
	// 以下字段仅在 FailureMode 下使用
	RunID        string
	FailedStage  string
	Error        string
}

// EmailResult send-email 阶段输出
type EmailResult struct {
	Sent bool `json:"sent"`
}

// FailureNotice 运行中止时发送的失败通知
type FailureNotice struct {
	RunID   string
	RunDate string
	Stage   string
	Error   string
}
