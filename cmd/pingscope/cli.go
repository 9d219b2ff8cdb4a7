package main

import (
	"fmt"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/pinger"
	"github.com/urfave/cli/v2"
)

// createCliApp 创建CLI应用实例
func createCliApp() *cli.App {
	return &cli.App{
		Name:      AppName,
		Version:   AppVersion,
		Usage:     AppDesc,
		Flags:     createCliFlags(),
		Action:    runApp,
		ArgsUsage: "<目标主机...>",
		Commands:  createCommands(),
	}
}

// createCliFlags 创建CLI参数定义，默认值与各组件的DefaultConfig保持一致
func createCliFlags() []cli.Flag {
	return []cli.Flag{
		// 探测
		&cli.BoolFlag{
			Name:  "4",
			Usage: "使用IPv4进行域名解析（默认）",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "6",
			Usage: "使用IPv6进行域名解析",
		},
		&cli.DurationFlag{
			Name:    "watch-interval",
			Aliases: []string{"n"},
			Value:   time.Second,
			Usage:   "ping间隔时间 (例如: 200ms, 1s)",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Value:   2 * time.Second,
			Usage:   "ping超时时间 (例如: 2s, 1000ms)",
		},
		&cli.StringFlag{
			Name:  "engine",
			Value: string(pinger.EngineNative),
			Usage: "探测引擎: native 或 probing",
		},

		// 偏差检测
		&cli.StringFlag{
			Name:  "method",
			Value: "iqr",
			Usage: "延迟尖峰检测方法: iqr, zscore 或 manual",
		},
		&cli.Float64Flag{
			Name:  "iqr-multiplier",
			Value: 1.5,
			Usage: "IQR方法的倍数",
		},
		&cli.Float64Flag{
			Name:  "zscore",
			Value: 3.0,
			Usage: "Z分数方法的阈值",
		},
		&cli.Float64Flag{
			Name:  "latency-threshold",
			Usage: "manual方法的延迟阈值 (ms)",
		},
		&cli.Float64Flag{
			Name:  "jitter-threshold",
			Usage: "固定的抖动阈值 (ms)，不设置时自适应",
		},
		&cli.IntFlag{
			Name:    "window",
			Aliases: []string{"w"},
			Value:   100,
			Usage:   "滚动统计窗口大小（样本数）",
		},
		&cli.StringFlag{
			Name:  "detection-config",
			Usage: "从YAML文件加载检测配置，命令行参数优先",
		},
		&cli.DurationFlag{
			Name:  "live-analysis",
			Value: 10 * time.Second,
			Usage: "实时会话分析间隔，0表示关闭",
		},

		// 输出
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Prometheus指标监听地址 (例如: :9090)",
		},
		&cli.StringFlag{
			Name:  "export",
			Usage: "退出时把样本历史导出为JSONL文件",
		},
		&cli.BoolFlag{
			Name:  "no-tui",
			Usage: "不启动TUI，以日志形式输出事件",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "日志文件路径，TUI模式下未设置时丢弃日志",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "输出调试日志",
		},

		// TUI
		&cli.DurationFlag{
			Name:    "refresh-rate",
			Aliases: []string{"r"},
			Value:   200 * time.Millisecond,
			Usage:   "UI刷新频率 (例如: 100ms, 500ms)",
		},
		&cli.IntFlag{
			Name:    "chart-history",
			Aliases: []string{"b"},
			Value:   150,
			Usage:   "图表中每个目标保留的点数",
		},
		&cli.IntFlag{
			Name:  "event-lines",
			Value: 200,
			Usage: "事件日志保留的行数",
		},
	}
}

// createCommands 创建子命令
func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "analyze",
			Aliases:   []string{"a"},
			Usage:     "对导出的JSONL样本历史重新计算会话分析",
			ArgsUsage: "<文件>",
			Action:    runAnalyze,
		},
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "显示详细版本信息",
			Action: func(c *cli.Context) error {
				w := c.App.Writer
				fmt.Fprintf(w, "%s v%s\n", AppName, AppVersion)
				fmt.Fprintf(w, "描述: %s\n", AppDesc)
				for _, engine := range []pinger.Engine{pinger.EngineNative, pinger.EngineProbing} {
					info := pinger.GetSystemInfo(engine)
					fmt.Fprintf(w, "系统: %s  权限: %s  %s引擎: %s\n", info.OS, info.Privilege, engine, info.Implementation)
				}
				return nil
			},
		},
	}
}
