package model

// 运行状态
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// 邮件状态
const (
	EmailNotSent                   = "not_sent"
	EmailSent                      = "sent"
	EmailFailed                    = "failed"
	EmailFailureNotificationSent   = "failure_notification_sent"
	EmailFailureNotificationFailed = "failure_notification_failed"
)

// 表格状态
const (
	SheetsNotUpdated = "not_updated"
	SheetsUpdated    = "updated"
	SheetsFailed     = "failed"
)

// RunRecord 单次运行的审计记录。开始时以占位值创建，由编排器逐阶段更新，结束时写盘一次
type RunRecord struct {
	RunID             string   `json:"run_id"`
	StartTime         string   `json:"start_time"`
	EndTime           *string  `json:"end_time"`
	ArticlesProcessed int      `json:"articles_processed"`
	PapersProcessed   int      `json:"papers_processed"`
	Top5Keywords      []string `json:"top_5_keywords"`
	PDFPath           string   `json:"pdf_path"`
	EmailStatus       string   `json:"email_status"`
	SheetsStatus      string   `json:"sheets_status"`
	Status            string   `json:"status"`
	FailedStage       string   `json:"failed_stage,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// NewRunRecord 创建带占位值的运行记录
func NewRunRecord(runID, startTime string) *RunRecord {
	return &RunRecord{
		RunID:        runID,
		StartTime:    startTime,
		Top5Keywords: []string{},
		EmailStatus:  EmailNotSent,
		SheetsStatus: SheetsNotUpdated,
		Status:       RunStatusRunning,
	}
}

// Finish 记录结束时间
func (r *RunRecord) Finish(endTime string) {
	r.EndTime = &endTime
}
