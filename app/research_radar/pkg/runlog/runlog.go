package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/model"
)

// Writer 把每次运行的 RunRecord 写成一个 JSON 文件
type Writer struct {
	dir string
	log logrus.FieldLogger
}

// NewWriter 创建 Writer，目录在首次写入时创建
func NewWriter(dir string, log logrus.FieldLogger) *Writer {
	return &Writer{dir: dir, log: log}
}

// Path 返回某次运行的日志路径
func (w *Writer) Path(runID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("run_%s.json", runID))
}

// Write 写出运行记录并返回文件路径
func (w *Writer) Write(rec *model.RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("run record is nil")
	}
	if rec.RunID == "" {
		return "", fmt.Errorf("run record has no run id")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run record failed: %w", err)
	}
	path := w.Path(rec.RunID)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write run log failed: %w", err)
	}
	w.log.Infof("运行日志已保存: %s", path)
	return path, nil
}
