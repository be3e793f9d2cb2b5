package factory

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/arxiv"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/config"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/newsapi"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/retry"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/search"
)

// Fetchers 抓取阶段用到的两个客户端
type Fetchers struct {
	News   search.NewsFetcher
	Papers search.PaperFetcher
}

// NewLimiter 根据配置创建限流器：每分钟 RPM 次，突发 QPS 次
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	limit := rate.Limit(float64(cfg.RPM) / 60.0)
	burst := cfg.QPS
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

// NewFetchers 根据配置创建新闻与论文客户端，两者共用同一个限流器和重试策略
func NewFetchers(cfg *config.Config, log logrus.FieldLogger) (*Fetchers, error) {
	if cfg.News.APIKey == "" {
		return nil, fmt.Errorf("news api key is missing")
	}

	limiter := NewLimiter(cfg.Concurrency)
	policy := retry.NewPolicy(cfg.Retry.MaxAttempts, cfg.RetryDelay(), log)

	news := newsapi.NewClient(newsapi.Options{
		APIKey:  cfg.News.APIKey,
		BaseURL: cfg.News.BaseURL,
		Request: search.Request{
			Query:      cfg.News.Query,
			DaysBack:   cfg.News.DaysBack,
			MaxResults: cfg.News.MaxArticles,
		},
		Timeout:  time.Duration(cfg.News.TimeoutSec) * time.Second,
		Backfill: cfg.News.BackfillDescriptions,
		Limiter:  limiter,
		Retry:    policy,
		Log:      log,
	})

	papers := arxiv.NewClient(arxiv.Options{
		BaseURL: cfg.Research.BaseURL,
		Request: search.Request{
			Query:      cfg.Research.Query,
			DaysBack:   cfg.Research.DaysBack,
			MaxResults: cfg.Research.MaxPapers,
		},
		Timeout: time.Duration(cfg.Research.TimeoutSec) * time.Second,
		Limiter: limiter,
		Retry:   policy,
		Log:     log,
	})

	return &Fetchers{News: news, Papers: papers}, nil
}
