package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 必需的环境变量
const (
	EnvNewsAPIKey        = "NEWS_API_KEY"
	EnvGmailUser         = "GMAIL_USER"
	EnvGmailAppPassword  = "GMAIL_APP_PASSWORD"
	EnvEmailRecipients   = "EMAIL_RECIPIENTS"
	EnvGoogleSheetID     = "GOOGLE_SHEET_ID"
	EnvSheetsCredentials = "GOOGLE_SHEETS_CREDENTIALS"
)

// RequiredEnv 运行前必须全部存在的配置项
var RequiredEnv = []string{
	EnvNewsAPIKey,
	EnvGmailUser,
	EnvGmailAppPassword,
	EnvEmailRecipients,
	EnvGoogleSheetID,
	EnvSheetsCredentials,
}

// ErrMissingConfiguration 缺少必需配置
var ErrMissingConfiguration = errors.New("missing required configuration")

// ConfigurationError 列出所有缺失的配置项
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "Missing required environment variables: " + strings.Join(e.Missing, ", ")
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// Config 项目配置结构体
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Output      OutputConfig      `yaml:"output"`
	News        NewsConfig        `yaml:"news"`
	Research    ResearchConfig    `yaml:"research"`
	Retry       RetryConfig       `yaml:"retry"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Email       EmailConfig       `yaml:"email"`
	Sheets      SheetsConfig      `yaml:"sheets"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // 为空时使用 <output.base_dir>/logs
}

// OutputConfig 产物输出目录
type OutputConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// NewsConfig 新闻抓取配置
type NewsConfig struct {
	APIKey               string `yaml:"-"`
	BaseURL              string `yaml:"base_url"`
	Query                string `yaml:"query"`
	DaysBack             int    `yaml:"days_back"`
	MaxArticles          int    `yaml:"max_articles"`
	TimeoutSec           int    `yaml:"timeout_sec"`
	BackfillDescriptions bool   `yaml:"backfill_descriptions"`
}

// ResearchConfig arXiv 论文抓取配置
type ResearchConfig struct {
	BaseURL    string `yaml:"base_url"`
	Query      string `yaml:"query"`
	DaysBack   int    `yaml:"days_back"`
	MaxPapers  int    `yaml:"max_papers"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RetryConfig 网络请求重试配置
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	DelaySec    int `yaml:"delay_sec"`
}

// ConcurrencyConfig 请求频率控制
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// EmailConfig SMTP 配置，账号信息来自环境变量
type EmailConfig struct {
	SMTPHost   string   `yaml:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port"`
	User       string   `yaml:"-"`
	Password   string   `yaml:"-"`
	Recipients []string `yaml:"-"`
}

// SheetsConfig Google Sheets 配置
type SheetsConfig struct {
	SheetID         string `yaml:"-"`
	CredentialsFile string `yaml:"-"`
	SheetName       string `yaml:"sheet_name"`
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Output: OutputConfig{BaseDir: "temp"},
		News: NewsConfig{
			BaseURL:     "https://newsapi.org/v2/everything",
			Query:       "artificial intelligence machine learning",
			DaysBack:    7,
			MaxArticles: 50,
			TimeoutSec:  15,
		},
		Research: ResearchConfig{
			BaseURL:    "http://export.arxiv.org/api/query",
			Query:      "artificial intelligence large language models deep learning",
			DaysBack:   7,
			MaxPapers:  30,
			TimeoutSec: 20,
		},
		Retry:       RetryConfig{MaxAttempts: 3, DelaySec: 5},
		Concurrency: ConcurrencyConfig{QPS: 1, RPM: 30},
		Email:       EmailConfig{SMTPHost: "smtp.gmail.com", SMTPPort: 587},
		Sheets:      SheetsConfig{SheetName: "Run Log"},
	}
}

// LoadConfig 从指定路径加载配置。文件不存在时使用默认值；
// 随后加载 .env 并从环境变量读取密钥，最后校验必需项
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	c.News.APIKey = getenv(EnvNewsAPIKey)
	c.Email.User = getenv(EnvGmailUser)
	c.Email.Password = getenv(EnvGmailAppPassword)
	c.Email.Recipients = splitList(getenv(EnvEmailRecipients))
	c.Sheets.SheetID = getenv(EnvGoogleSheetID)
	c.Sheets.CredentialsFile = getenv(EnvSheetsCredentials)
}

// applyDefaults 配置文件里写成 0 或空的字段回退到默认值
func (c *Config) applyDefaults() {
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Output.BaseDir == "" {
		c.Output.BaseDir = d.Output.BaseDir
	}
	if c.Log.Dir == "" {
		c.Log.Dir = filepath.Join(c.Output.BaseDir, "logs")
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = d.News.BaseURL
	}
	if c.News.DaysBack <= 0 {
		c.News.DaysBack = d.News.DaysBack
	}
	if c.News.MaxArticles <= 0 {
		c.News.MaxArticles = d.News.MaxArticles
	}
	if c.News.TimeoutSec <= 0 {
		c.News.TimeoutSec = d.News.TimeoutSec
	}
	if c.Research.BaseURL == "" {
		c.Research.BaseURL = d.Research.BaseURL
	}
	if c.Research.DaysBack <= 0 {
		c.Research.DaysBack = d.Research.DaysBack
	}
	if c.Research.MaxPapers <= 0 {
		c.Research.MaxPapers = d.Research.MaxPapers
	}
	if c.Research.TimeoutSec <= 0 {
		c.Research.TimeoutSec = d.Research.TimeoutSec
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if c.Retry.DelaySec < 0 {
		c.Retry.DelaySec = d.Retry.DelaySec
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = d.Concurrency.QPS
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = d.Concurrency.RPM
	}
	if c.Email.SMTPHost == "" {
		c.Email.SMTPHost = d.Email.SMTPHost
	}
	if c.Email.SMTPPort <= 0 {
		c.Email.SMTPPort = d.Email.SMTPPort
	}
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = d.Sheets.SheetName
	}
}

// Validate 检查所有必需的环境变量，一次性报告全部缺失项
func (c *Config) Validate(getenv func(string) string) error {
	var missing []string
	for _, key := range RequiredEnv {
		if strings.TrimSpace(getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// RetryDelay 重试间隔
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelaySec) * time.Second
}

// ChartsDir 图表输出目录
func (c *Config) ChartsDir() string {
	return filepath.Join(c.Output.BaseDir, "charts")
}

// ReportsDir PDF 输出目录
func (c *Config) ReportsDir() string {
	return filepath.Join(c.Output.BaseDir, "reports")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
