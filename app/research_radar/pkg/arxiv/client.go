package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/retry"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/search"
)

// DefaultBaseURL arXiv 查询接口
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// Options 客户端参数
type Options struct {
	BaseURL string
	Request search.Request
	Timeout time.Duration
	Limiter *rate.Limiter
	Retry   *retry.Policy
	Log     logrus.FieldLogger
}

// Client arXiv API 客户端
type Client struct {
	baseURL string
	req     search.Request
	client  *http.Client
	limiter *rate.Limiter
	retry   *retry.Policy
	parser  *gofeed.Parser
	now     func() time.Time
	log     logrus.FieldLogger
}

// NewClient 创建一个新的 arXiv 客户端
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
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
		baseURL: opts.BaseURL,
		req:     opts.Request,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: opts.Limiter,
		retry:   opts.Retry,
		parser:  gofeed.NewParser(),
		now:     time.Now,
		log:     opts.Log,
	}
}

// Ensure Client implements search.PaperFetcher
var _ search.PaperFetcher = (*Client)(nil)

// FetchPapers 抓取最近 DaysBack 天提交的论文
func (c *Client) FetchPapers(ctx context.Context) (*model.ResearchResult, error) {
	var body string
	err := c.retry.Do(ctx, "fetch_research", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		b, err := c.doQuery(ctx)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	feed, err := c.parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse atom feed failed: %w", err)
	}

	now := c.now()
	cutoff, _ := c.req.Window(now)
	papers := make([]model.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		p, err := toPaper(item, cutoff)
		if errors.Is(err, errIncompleteEntry) {
			c.log.WithField("id", item.GUID).Warnf("fetch_research: 跳过缺少标题或 ID 的条目")
			continue
		}
		if err != nil {
			continue
		}
		papers = append(papers, p)
	}

	c.log.Infof("fetch_research: 获取到 %d 篇论文", len(papers))
	return &model.ResearchResult{
		Papers:    papers,
		Count:     len(papers),
		FetchedAt: search.FetchedAt(now),
	}, nil
}

func (c *Client) doQuery(ctx context.Context) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("search_query", "all:"+c.req.Query)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(c.req.MaxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("read body failed: %w", err))
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return "", retry.Permanent(fmt.Errorf("arxiv: %w (status %d)", retry.ErrRateLimited, res.StatusCode))
	}
	if res.StatusCode != http.StatusOK {
		return "", retry.Transient(fmt.Errorf("arxiv api error (status %d): %s", res.StatusCode, string(body)))
	}
	return string(body), nil
}

var (
	errOutsideWindow   = errors.New("entry outside date window")
	errIncompleteEntry = errors.New("entry missing title or id")
)

// toPaper 把 Atom 条目转换为论文；日期缺失或早于 cutoff 时返回 errOutsideWindow
func toPaper(item *gofeed.Item, cutoff time.Time) (model.Paper, error) {
	if item.PublishedParsed == nil || item.PublishedParsed.Before(cutoff) {
		return model.Paper{}, errOutsideWindow
	}

	id := item.GUID
	if i := strings.Index(id, "/abs/"); i >= 0 {
		id = id[i+len("/abs/"):]
	}

	title := collapse(item.Title)
	if title == "" || id == "" {
		return model.Paper{}, errIncompleteEntry
	}

	authors := make([]string, 0, model.MaxPaperAuthors)
	for _, a := range item.Authors {
		if a == nil {
			continue
		}
		if len(authors) == model.MaxPaperAuthors {
			break
		}
		authors = append(authors, a.Name)
	}

	categories := append([]string{}, primaryCategories(item)...)
	categories = append(categories, item.Categories...)

	return model.Paper{
		Title:       title,
		Authors:     authors,
		Abstract:    strings.TrimSpace(item.Description),
		ArxivID:     id,
		PublishedAt: item.Published,
		Categories:  model.NormalizeCategories(categories),
	}, nil
}

// primaryCategories 读取 arxiv:primary_category 扩展
func primaryCategories(item *gofeed.Item) []string {
	var out []string
	for _, ext := range item.Extensions["arxiv"]["primary_category"] {
		out = append(out, ext.Attrs["term"])
	}
	return out
}

// arXiv 标题常带换行和缩进
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
