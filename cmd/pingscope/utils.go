package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Kevin-Rudy/pingscope/pkg/pinger"
)

// 程序信息常量
const (
	AppName    = "pingscope"
	AppVersion = "0.2.0"
	AppDesc    = "多目标PING延迟质量监测：滚动统计、偏差检测和会话评级"
)

// showSystemInfo 显示系统环境和探测实现
func showSystemInfo(w io.Writer, engine pinger.Engine) {
	info := pinger.GetSystemInfo(engine)
	fmt.Fprintln(w, "\n系统信息:")
	fmt.Fprintf(w, "  操作系统: %s\n", info.OS)
	fmt.Fprintf(w, "  权限状态: %s\n", info.Privilege)
	fmt.Fprintf(w, "  实现方式: %s\n", info.Implementation)
}

// printRunningConfig 打印运行配置信息
func printRunningConfig(w io.Writer, config *AppConfig) {
	s := config.SessionConfig.Settings
	fmt.Fprintf(w, "目标地址: %v\n", config.Targets)
	fmt.Fprintf(w, "ping间隔: %v  超时: %v  引擎: %s\n", config.PingerConfig.Interval, config.PingerConfig.Timeout, config.PingerConfig.Engine)
	fmt.Fprintf(w, "检测方法: %s  滚动窗口: %d\n", s.Method, s.RollingWindowSize)
	if config.SessionConfig.LiveAnalysisInterval > 0 {
		fmt.Fprintf(w, "实时分析间隔: %v\n", config.SessionConfig.LiveAnalysisInterval)
	}
}

// printUsageInstructions 显示TUI操作说明
func printUsageInstructions() {
	fmt.Fprintln(os.Stdout, "操作说明:")
	fmt.Fprintln(os.Stdout, "  ↑/↓ 方向键  - 导航选择目标，在边界继续按切换到全选")
	fmt.Fprintln(os.Stdout, "  m           - 切换检测算法 (iqr → zscore → manual)")
	fmt.Fprintln(os.Stdout, "  [ / ]       - 缩小/放大滚动窗口")
	fmt.Fprintln(os.Stdout, "  q 或 Ctrl+C - 退出程序并输出会话报告")
	fmt.Fprintln(os.Stdout, "========================================")
}
