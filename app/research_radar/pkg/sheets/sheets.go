package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/config"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// DefaultSheetName 运行记录所在的工作表
const DefaultSheetName = "Run Log"

// ColumnHeaders 表头
var ColumnHeaders = []interface{}{
	"Run Date", "Articles", "Papers", "Top Keywords",
	"Trending Theme", "PDF Path", "Status", "Timestamp",
}

// Client 用到的 Sheets API 调用
type Client interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) error
	Values(ctx context.Context, spreadsheetID, rangeA1 string) ([][]interface{}, error)
	Update(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]interface{}) error
	Append(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]interface{}) (int, error)
}

// Connector 创建 Sheets 客户端
type Connector func(ctx context.Context) (Client, error)

// Updater 向 Google Sheets 追加运行记录。所有失败都转换为 SheetResult，不会中断运行
type Updater struct {
	sheetID   string
	sheetName string
	connect   Connector
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewUpdater 使用服务账号凭据文件创建 Updater
func NewUpdater(cfg config.SheetsConfig, log logrus.FieldLogger) *Updater {
	credentials := cfg.CredentialsFile
	return NewUpdaterWithConnector(cfg, func(ctx context.Context) (Client, error) {
		svc, err := gsheets.NewService(ctx,
			option.WithCredentialsFile(credentials),
			option.WithScopes(gsheets.SpreadsheetsScope),
		)
		if err != nil {
			return nil, fmt.Errorf("create sheets service failed: %w", err)
		}
		return &apiClient{svc: svc}, nil
	}, log)
}

// NewUpdaterWithConnector 使用自定义连接方式创建 Updater
func NewUpdaterWithConnector(cfg config.SheetsConfig, connect Connector, log logrus.FieldLogger) *Updater {
	name := cfg.SheetName
	if name == "" {
		name = DefaultSheetName
	}
	return &Updater{
		sheetID:   cfg.SheetID,
		sheetName: name,
		connect:   connect,
		now:       time.Now,
		log:       log,
	}
}

// SheetURL 表格链接
func SheetURL(sheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + sheetID
}

// Update 追加一行运行记录
func (u *Updater) Update(ctx context.Context, row model.SheetRow) (res model.SheetResult) {
	defer func() {
		if r := recover(); r != nil {
			u.log.Errorf("update_sheets panic: %v", r)
			res = model.SheetResult{Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if err := u.update(ctx, row); err != nil {
		u.log.Errorf("update_sheets 失败: %v", err)
		return model.SheetResult{Error: err.Error()}
	}

	url := SheetURL(u.sheetID)
	u.log.Infof("update_sheets: 已追加一行到 %s", url)
	return model.SheetResult{Updated: true, SheetURL: url, RowsAdded: 1}
}

func (u *Updater) update(ctx context.Context, row model.SheetRow) error {
	if u.sheetID == "" {
		return fmt.Errorf("sheet id is missing")
	}
	client, err := u.connect(ctx)
	if err != nil {
		return err
	}
	if err := u.ensureSheet(ctx, client); err != nil {
		return err
	}
	if err := u.ensureHeaders(ctx, client); err != nil {
		return err
	}
	if _, err := client.Append(ctx, u.sheetID, u.sheetName+"!A1", [][]interface{}{u.Row(row)}); err != nil {
		return fmt.Errorf("append row failed: %w", err)
	}
	return nil
}

func (u *Updater) ensureSheet(ctx context.Context, client Client) error {
	titles, err := client.SheetTitles(ctx, u.sheetID)
	if err != nil {
		return fmt.Errorf("get spreadsheet failed: %w", err)
	}
	for _, t := range titles {
		if t == u.sheetName {
			return nil
		}
	}
	if err := client.AddSheet(ctx, u.sheetID, u.sheetName); err != nil {
		return fmt.Errorf("add sheet failed: %w", err)
	}
	u.log.Infof("update_sheets: 已创建工作表 '%s'", u.sheetName)
	return nil
}

func (u *Updater) ensureHeaders(ctx context.Context, client Client) error {
	rows, err := client.Values(ctx, u.sheetID, u.sheetName+"!A1:H1")
	if err != nil {
		return fmt.Errorf("read header failed: %w", err)
	}
	if len(rows) > 0 {
		return nil
	}
	if err := client.Update(ctx, u.sheetID, u.sheetName+"!A1", [][]interface{}{ColumnHeaders}); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}
	return nil
}

// Row 把运行信息转换为表格行
func (u *Updater) Row(row model.SheetRow) []interface{} {
	runDate := row.RunDate
	if len(runDate) > 10 {
		runDate = runDate[:10]
	}
	top := row.TopKeywords
	if len(top) > 5 {
		top = top[:5]
	}
	names := make([]string, 0, len(top))
	for _, k := range top {
		names = append(names, k.Keyword)
	}
	return []interface{}{
		runDate,
		row.ArticleCount,
		row.PaperCount,
		strings.Join(names, ", "),
		"",
		row.PDFPath,
		row.Status,
		u.now().UTC().Format(time.RFC3339),
	}
}

// apiClient 基于 sheets/v4 的实现
type apiClient struct {
	svc *gsheets.Service
}

func (c *apiClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (c *apiClient) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: title}},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (c *apiClient) Values(ctx context.Context, spreadsheetID, rangeA1 string) ([][]interface{}, error) {
	vr, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return vr.Values, nil
}

func (c *apiClient) Update(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rangeA1, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (c *apiClient) Append(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]interface{}) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, rangeA1, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if resp.Updates == nil {
		return len(rows), nil
	}
	return int(resp.Updates.UpdatedRows), nil
}
