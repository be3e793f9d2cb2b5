package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/research_radar/app/research_radar/pkg/config"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/engine"
	"github.com/iWorld-y/research_radar/app/research_radar/pkg/logger"
)

var (
	cfgFile string
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "research_radar",
	Short: "Weekly AI research intelligence pipeline",
	Long: `research_radar 抓取一周内的 AI 新闻与 arXiv 论文，分析趋势，
生成图表和 PDF 报告，更新 Google Sheets 运行记录并通过邮件发送。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "configs/config.yaml", "配置文件路径")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "只校验配置，不执行流水线")
}

func run(cmd *cobra.Command, _ []string) error {
	// 1. 加载配置
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	// 2. 初始化日志
	logFile := filepath.Join(cfg.Log.Dir, "run_"+time.Now().Format(engine.RunIDLayout)+".log")
	log, closeLog, err := logger.New(cfg.Log.Level, logFile)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer closeLog()

	if dryRun {
		log.Info("配置校验通过 (dry-run)，跳过运行")
		return nil
	}

	// 3. 组装并执行流水线
	eng, err := engine.NewEngine(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := eng.Run(ctx); err != nil {
		log.Errorf("运行失败: %v", err)
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
