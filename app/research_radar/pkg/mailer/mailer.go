package mailer

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/mail.v2"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/config"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// Sender 发送邮件
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer 通过 SMTP 发送周报和失败通知
type Mailer struct {
	from   string
	to     []string
	sender Sender
	log    logrus.FieldLogger
}

// New 根据配置创建 Mailer，强制 STARTTLS
func New(cfg config.EmailConfig, log logrus.FieldLogger) *Mailer {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.User, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return NewWithSender(cfg.User, cfg.Recipients, d, log)
}

// NewWithSender 使用自定义 Sender 创建 Mailer
func NewWithSender(from string, to []string, sender Sender, log logrus.FieldLogger) *Mailer {
	return &Mailer{from: from, to: to, sender: sender, log: log}
}

// Send 发送带 PDF 附件的周报
func (m *Mailer) Send(ctx context.Context, req model.EmailRequest) (*model.EmailResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg, err := m.reportMessage(req)
	if err != nil {
		return nil, err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return nil, fmt.Errorf("send email failed: %w", err)
	}
	m.log.Infof("send_email: 已发送给 %d 位收件人", len(m.to))
	return &model.EmailResult{Sent: true}, nil
}

// NotifyFailure 发送运行失败通知
func (m *Mailer) NotifyFailure(ctx context.Context, n model.FailureNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.failureMessage(n)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send failure notification failed: %w", err)
	}
	return nil
}

func (m *Mailer) newMessage(subject string) (*mail.Message, error) {
	if m.from == "" {
		return nil, fmt.Errorf("sender address is missing")
	}
	if len(m.to) == 0 {
		return nil, fmt.Errorf("no email recipients configured")
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", subject)
	return msg, nil
}

func (m *Mailer) reportMessage(req model.EmailRequest) (*mail.Message, error) {
	if req.FailureMode {
		return m.failureMessage(model.FailureNotice{
			RunID:   req.RunID,
			RunDate: req.RunDate,
			Stage:   req.FailedStage,
			Error:   req.Error,
		})
	}
	msg, err := m.newMessage("AI Research Intelligence Report - " + day(req.RunDate))
	if err != nil {
		return nil, err
	}
	msg.SetBody("text/html", reportBody(req))

	if req.PDFPath != "" {
		if _, err := os.Stat(req.PDFPath); err != nil {
			return nil, fmt.Errorf("report attachment unavailable: %w", err)
		}
		msg.Attach(req.PDFPath)
	}
	return msg, nil
}

func (m *Mailer) failureMessage(n model.FailureNotice) (*mail.Message, error) {
	msg, err := m.newMessage("[FAILED] AI Research Intelligence Pipeline - " + day(n.RunDate))
	if err != nil {
		return nil, err
	}
	msg.SetBody("text/plain", failureBody(n))
	return msg, nil
}

func reportBody(req model.EmailRequest) string {
	top := req.TopKeywords
	if len(top) > 5 {
		top = top[:5]
	}

	var b strings.Builder
	b.WriteString("<h2>AI Research Intelligence - Weekly Briefing</h2>\n")
	fmt.Fprintf(&b, "<p>Run date: %s</p>\n", html.EscapeString(day(req.RunDate)))
	fmt.Fprintf(&b, "<p>This week's report covers <b>%d</b> news articles and <b>%d</b> research papers.</p>\n",
		req.ArticleCount, req.PaperCount)
	if len(top) > 0 {
		b.WriteString("<p>Top keywords:</p>\n<ol>\n")
		for _, k := range top {
			fmt.Fprintf(&b, "<li>%s (%d)</li>\n", html.EscapeString(k.Keyword), k.Count)
		}
		b.WriteString("</ol>\n")
	}
	if req.SheetURL != "" {
		fmt.Fprintf(&b, "<p>Run history: <a href=\"%s\">%s</a></p>\n",
			html.EscapeString(req.SheetURL), html.EscapeString(req.SheetURL))
	}
	b.WriteString("<p>The full PDF report is attached.</p>\n")
	return b.String()
}

func failureBody(n model.FailureNotice) string {
	var b strings.Builder
	b.WriteString("The AI Research Intelligence pipeline did not complete.\n\n")
	if n.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", n.RunID)
	}
	fmt.Fprintf(&b, "Run date: %s\n", n.RunDate)
	if n.Stage != "" {
		fmt.Fprintf(&b, "Failed stage: %s\n", n.Stage)
	}
	if n.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", n.Error)
	}
	b.WriteString("\nCheck the run log for details.\n")
	return b.String()
}

func day(runDate string) string {
	if len(runDate) > 10 {
		return runDate[:10]
	}
	return runDate
}
