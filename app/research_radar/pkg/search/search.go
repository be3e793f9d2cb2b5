package search

import (
	"context"
	"time"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// NewsFetcher 定义新闻抓取接口
type NewsFetcher interface {
	FetchNews(ctx context.Context) (*model.NewsResult, error)
}

// PaperFetcher 定义论文抓取接口
type PaperFetcher interface {
	FetchPapers(ctx context.Context) (*model.ResearchResult, error)
}

// Request 通用抓取请求
type Request struct {
	Query      string
	DaysBack   int
	MaxResults int
}

// Window 返回以 now 为终点、回溯 DaysBack 天的时间窗口
func (r Request) Window(now time.Time) (from, to time.Time) {
	days := r.DaysBack
	if days < 0 {
		days = 0
	}
	return now.AddDate(0, 0, -days), now
}

// FetchedAt 抓取时间戳，统一使用 UTC RFC3339
func FetchedAt(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
