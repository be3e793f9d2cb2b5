package engine

import "fmt"

// StageName 流水线阶段名
type StageName string

// 固定的 8 个阶段，按执行顺序排列
const (
	StageFetchNews      StageName = "fetch-news"
	StageFetchResearch  StageName = "fetch-research"
	StageAnalyzeTrends  StageName = "analyze-trends"
	StageGenerateCharts StageName = "generate-charts"
	StageGeneratePDF    StageName = "generate-pdf"
	StageUpdateSheets   StageName = "update-sheets"
	StageSendEmail      StageName = "send-email"
	StageWriteLog       StageName = "write-log"
)

// Stages 执行顺序
var Stages = []StageName{
	StageFetchNews,
	StageFetchResearch,
	StageAnalyzeTrends,
	StageGenerateCharts,
	StageGeneratePDF,
	StageUpdateSheets,
	StageSendEmail,
	StageWriteLog,
}

// Policy 阶段失败时的处理方式
type Policy int

const (
	// FailFast 失败即中止运行
	FailFast Policy = iota
	// NonBlocking 失败只记录，继续后续阶段
	NonBlocking
	// Always 无论成功与否都会执行
	Always
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case NonBlocking:
		return "non-blocking"
	case Always:
		return "always"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// StagePolicies 每个阶段的失败策略
var StagePolicies = map[StageName]Policy{
	StageFetchNews:      FailFast,
	StageFetchResearch:  FailFast,
	StageAnalyzeTrends:  FailFast,
	StageGenerateCharts: FailFast,
	StageGeneratePDF:    FailFast,
	StageUpdateSheets:   NonBlocking,
	StageSendEmail:      FailFast,
	StageWriteLog:       Always,
}

// PolicyFor 未登记的阶段按 FailFast 处理
func PolicyFor(stage StageName) Policy {
	if p, ok := StagePolicies[stage]; ok {
		return p
	}
	return FailFast
}

// StageResult 单个阶段的执行结果
type StageResult struct {
	Stage StageName
	Err   error
}

// OK 阶段是否成功
func (r StageResult) OK() bool { return r.Err == nil }

// StageError 导致运行中止的阶段错误
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
