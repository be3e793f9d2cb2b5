package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/retry"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/search"
)

// DefaultBaseURL NewsAPI everything 接口
const DefaultBaseURL = "https://newsapi.org/v2/everything"

// 单页上限由 NewsAPI 规定
const maxPageSize = 100

// 回填摘要的最大长度
const backfillChars = 300

// Extractor 从文章页面提取正文
type Extractor func(pageURL string, timeout time.Duration) (string, error)

// Options 客户端参数
type Options struct {
	APIKey   string
	BaseURL  string
	Request  search.Request
	Timeout  time.Duration
	Backfill bool
	Limiter  *rate.Limiter
	Retry    *retry.Policy
	Log      logrus.FieldLogger
}

// Client NewsAPI 客户端
type Client struct {
	apiKey    string
	baseURL   string
	req       search.Request
	timeout   time.Duration
	backfill  bool
	client    *http.Client
	limiter   *rate.Limiter
	retry     *retry.Policy
	sanitizer *bluemonday.Policy
	extract   Extractor
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewClient 创建一个新的 NewsAPI 客户端
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Retry == nil {
		opts.Retry = retry.NewPolicy(retry.DefaultMaxAttempts, retry.DefaultDelay, opts.Log)
	}
	return &Client{
		apiKey:    opts.APIKey,
		baseURL:   opts.BaseURL,
		req:       opts.Request,
		timeout:   opts.Timeout,
		backfill:  opts.Backfill,
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   opts.Limiter,
		retry:     opts.Retry,
		sanitizer: bluemonday.StrictPolicy(),
		extract:   readabilityText,
		now:       time.Now,
		log:       opts.Log,
	}
}

// Ensure Client implements search.NewsFetcher
var _ search.NewsFetcher = (*Client)(nil)

// everythingResponse NewsAPI 响应
type everythingResponse struct {
	Status       string        `json:"status"`
	Code         string        `json:"code"`
	Message      string        `json:"message"`
	TotalResults int           `json:"totalResults"`
	Articles     []articleJSON `json:"articles"`
}

type articleJSON struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// FetchNews 抓取最近 DaysBack 天的新闻
func (c *Client) FetchNews(ctx context.Context) (*model.NewsResult, error) {
	var resp *everythingResponse
	err := c.retry.Do(ctx, "fetch_news", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		r, err := c.doSearch(ctx)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles := make([]model.Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		a := model.Article{
			Title:       strings.TrimSpace(item.Title),
			Source:      item.Source.Name,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
			Description: c.clean(item.Description),
		}
		if a.Title == "" && a.URL == "" {
			continue
		}
		if a.Description == "" && c.backfill && a.URL != "" {
			a.Description = c.backfillDescription(a.URL)
		}
		articles = append(articles, a)
	}

	c.log.Infof("fetch_news: 获取到 %d 篇文章", len(articles))
	return &model.NewsResult{
		Articles:  articles,
		Count:     len(articles),
		FetchedAt: search.FetchedAt(c.now()),
	}, nil
}

func (c *Client) doSearch(ctx context.Context) (*everythingResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	from, to := c.req.Window(c.now().UTC())
	pageSize := c.req.MaxResults
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	q := u.Query()
	q.Set("q", c.req.Query)
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))
	q.Set("language", "en")
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("read body failed: %w", err))
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		c.log.Error("NewsAPI 触发限流")
		return nil, retry.Permanent(fmt.Errorf("newsapi: %w (status %d)", retry.ErrRateLimited, res.StatusCode))
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, retry.Transient(fmt.Errorf("newsapi error (status %d): %s", res.StatusCode, string(body)))
	}

	var out everythingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if out.Status != "ok" {
		msg := out.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, fmt.Errorf("NewsAPI error: %s", msg)
	}
	return &out, nil
}

// clean 去掉摘要里的 HTML 标签
func (c *Client) clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}

func (c *Client) backfillDescription(pageURL string) string {
	text, err := c.extract(pageURL, c.timeout)
	if err != nil {
		c.log.Debugf("抓取正文失败 [%s]: %v", pageURL, err)
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > backfillChars {
		text = string(r[:backfillChars])
	}
	return text
}

func readabilityText(pageURL string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(pageURL, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}
