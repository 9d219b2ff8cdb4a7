package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/pinger"
	"github.com/Kevin-Rudy/pingscope/pkg/report"
	"github.com/Kevin-Rudy/pingscope/pkg/session"
	"github.com/Kevin-Rudy/pingscope/pkg/tui"
	"github.com/urfave/cli/v2"
)

// settingsTimeout TUI提交配置修改的等待上限
const settingsTimeout = 2 * time.Second

// runApp 主要应用逻辑处理函数
func runApp(c *cli.Context) error {
	targets := c.Args().Slice()
	if len(targets) == 0 {
		return cli.Exit("错误: 必须指定至少一个要ping的目标地址\n使用方法: pingscope <目标主机...>", 1)
	}
	if c.IsSet("4") && c.Bool("6") {
		return cli.Exit("错误: -4 和 -6 选项不能同时使用", 1)
	}

	appConfig, err := buildConfigFromCLI(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("配置加载失败: %v", err), 1)
	}
	if err := validateConfig(appConfig); err != nil {
		return cli.Exit(fmt.Sprintf("配置验证失败: %v", err), 1)
	}

	log, closeLog, err := openLogger(appConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开日志文件: %v", err), 1)
	}
	defer closeLog()
	appConfig.PingerConfig.Logger = log
	appConfig.SessionConfig.Logger = log

	out := c.App.Writer
	fmt.Fprintf(out, "正在启动 %s v%s...\n", AppName, AppVersion)
	printRunningConfig(out, appConfig)
	showSystemInfo(out, appConfig.PingerConfig.Engine)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.MetricsAddr != "" {
		if err := startMetricsServer(ctx, appConfig.MetricsAddr, log); err != nil {
			return cli.Exit(fmt.Sprintf("无法启动指标服务: %v", err), 1)
		}
	}

	fmt.Fprintln(out, "\n正在初始化ping引擎...")
	source, err := pinger.NewPinger(appConfig.Targets, appConfig.PingerConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建ping引擎: %v", err), 1)
	}
	monitor, err := session.NewMonitor(source, appConfig.Targets, appConfig.SessionConfig)
	if err != nil {
		source.Stop()
		return cli.Exit(fmt.Sprintf("无法创建监控器: %v", err), 1)
	}
	fmt.Fprintln(out, "ping引擎初始化成功")

	monitor.Start()
	var runErr error
	if appConfig.Headless {
		runHeadless(ctx, monitor, log)
	} else {
		runErr = runTUI(ctx, monitor, appConfig)
	}

	reports, err := monitor.Stop()
	if err != nil {
		log.Error("monitor: stop failed", "error", err)
	}
	if runErr != nil {
		return cli.Exit(fmt.Sprintf("TUI运行出错: %v", runErr), 1)
	}
	if err := finishSession(out, appConfig, reports); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintln(out, "\n程序已退出")
	return nil
}

// openLogger 无头模式输出到终端；TUI模式下写入日志文件或丢弃
func openLogger(config *AppConfig) (*slog.Logger, func(), error) {
	if config.LogFile != "" {
		f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return newLogger(f, config.Verbose, true), func() { _ = f.Close() }, nil
	}
	if config.Headless {
		return newLogger(os.Stdout, config.Verbose, false), func() {}, nil
	}
	return newLogger(io.Discard, config.Verbose, true), func() {}, nil
}

// runTUI 运行界面直到用户退出或收到信号
func runTUI(ctx context.Context, monitor *session.Monitor, config *AppConfig) error {
	fmt.Println("\n正在启动TUI界面...")
	printUsageInstructions()

	onSettings := func(patch core.SettingsPatch) error {
		ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
		defer cancel()
		return monitor.UpdateSettings(ctx, patch)
	}
	tuiInstance := tui.NewTUI(monitor.Updates(), config.Targets, config.SessionConfig.Settings, onSettings, config.TUIConfig)

	stopOnSignal := context.AfterFunc(ctx, tuiInstance.Stop)
	defer stopOnSignal()

	// 阻塞直到用户退出
	return tuiInstance.Run()
}

// runHeadless 以日志形式输出偏差事件和实时分析，直到收到信号
func runHeadless(ctx context.Context, monitor *session.Monitor, log *slog.Logger) {
	log.Info("pingscope: running without TUI, press Ctrl+C to stop")
	updates := monitor.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			logUpdate(log, u)
		}
	}
}

func logUpdate(log *slog.Logger, u session.Update) {
	if u.Analysis != nil {
		a := u.Analysis
		log.Info("session: live analysis", "target", u.Target, "grade", a.QualityGrade,
			"samples", a.TotalSamples, "loss", a.PacketLossPercent, "p95", a.LatencyP95, "bursts", a.BurstCount)
		return
	}

	if latency, ok := u.Sample.Value(); ok {
		log.Debug("session: sample", "target", u.Target, "seq", u.Sample.Seq, "latency", latency, "mean", u.Stats.Mean, "jitter", u.Stats.Jitter)
	} else {
		log.Debug("session: sample lost", "target", u.Target, "seq", u.Sample.Seq)
	}
	for _, ev := range u.Events {
		log.Warn("session: deviation", "target", u.Target, "type", ev.Type, "value", ev.Value, "threshold", ev.Threshold, "id", ev.ID)
	}
}

// finishSession 输出汇总表，并按需导出样本历史
func finishSession(w io.Writer, config *AppConfig, reports []session.Report) error {
	if len(reports) == 0 {
		return nil
	}

	rows := make([]report.Row, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, report.Row{Target: r.Target, Analysis: r.Analysis})
	}
	fmt.Fprintln(w, "\n会话报告:")
	report.WriteSummary(w, rows)

	if config.ExportPath == "" {
		return nil
	}
	if err := exportHistory(config.ExportPath, reports); err != nil {
		return fmt.Errorf("导出样本历史失败: %w", err)
	}
	fmt.Fprintf(w, "样本历史已导出到 %s\n", config.ExportPath)
	return nil
}

// exportHistory 把所有目标的样本历史写入同一个JSONL文件
func exportHistory(path string, reports []session.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	for _, r := range reports {
		if err := report.WriteJSONL(f, r.Target, r.History); err != nil {
			return err
		}
	}
	return nil
}
