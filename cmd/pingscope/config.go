package main

import (
	"fmt"
	"os"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/pinger"
	"github.com/Kevin-Rudy/pingscope/pkg/session"
	"github.com/Kevin-Rudy/pingscope/pkg/tui"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用层配置聚合
type AppConfig struct {
	PingerConfig  *pinger.Config
	SessionConfig *session.Config
	TUIConfig     *tui.Config
	Targets       []string

	MetricsAddr string
	ExportPath  string
	LogFile     string
	Headless    bool
	Verbose     bool
}

// loadDetectionFile 读取YAML检测配置，文件中未出现的字段保持默认
func loadDetectionFile(path string) (core.SettingsPatch, error) {
	var patch core.SettingsPatch
	data, err := os.ReadFile(path)
	if err != nil {
		return patch, fmt.Errorf("读取检测配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &patch); err != nil {
		return patch, fmt.Errorf("解析检测配置 %s 失败: %w", path, err)
	}
	return patch, nil
}

// buildDetectionSettings 依次叠加默认值、YAML文件和命令行参数
func buildDetectionSettings(c *cli.Context) (core.DetectionSettings, error) {
	settings := core.DefaultDetectionSettings()
	if path := c.String("detection-config"); path != "" {
		patch, err := loadDetectionFile(path)
		if err != nil {
			return settings, err
		}
		settings = settings.Merge(patch)
	}

	if c.IsSet("method") {
		settings.Method = core.DetectionMethod(c.String("method"))
	}
	if c.IsSet("iqr-multiplier") {
		settings.IQRMultiplier = c.Float64("iqr-multiplier")
	}
	if c.IsSet("zscore") {
		settings.ZScoreThreshold = c.Float64("zscore")
	}
	if c.IsSet("latency-threshold") {
		v := c.Float64("latency-threshold")
		settings.ManualLatencyThreshold = &v
	}
	if c.IsSet("jitter-threshold") {
		v := c.Float64("jitter-threshold")
		settings.ManualJitterThreshold = &v
	}
	if c.IsSet("window") {
		settings.RollingWindowSize = c.Int("window")
	}
	return settings, nil
}

// buildConfigFromCLI 从命令行参数构建配置
func buildConfigFromCLI(c *cli.Context) (*AppConfig, error) {
	pingerConfig := pinger.DefaultConfig()
	if c.Bool("6") {
		pingerConfig.IPVersion = 6
	}
	if c.IsSet("watch-interval") {
		pingerConfig.Interval = c.Duration("watch-interval")
	}
	if c.IsSet("timeout") {
		pingerConfig.Timeout = c.Duration("timeout")
	}
	if c.IsSet("engine") {
		pingerConfig.Engine = pinger.Engine(c.String("engine"))
	}

	settings, err := buildDetectionSettings(c)
	if err != nil {
		return nil, err
	}
	sessionConfig := session.DefaultConfig()
	sessionConfig.Settings = settings
	if c.IsSet("live-analysis") {
		sessionConfig.LiveAnalysisInterval = c.Duration("live-analysis")
	}

	var tuiOpts []tui.Option
	if c.IsSet("refresh-rate") {
		tuiOpts = append(tuiOpts, tui.WithRefreshInterval(c.Duration("refresh-rate")))
	}
	if c.IsSet("chart-history") {
		tuiOpts = append(tuiOpts, tui.WithChartHistorySize(c.Int("chart-history")))
	}
	if c.IsSet("event-lines") {
		tuiOpts = append(tuiOpts, tui.WithEventLines(c.Int("event-lines")))
	}
	tuiConfig := tui.NewConfigWithOptions(tuiOpts...)

	return &AppConfig{
		PingerConfig:  pingerConfig,
		SessionConfig: sessionConfig,
		TUIConfig:     tuiConfig,
		Targets:       c.Args().Slice(),
		MetricsAddr:   c.String("metrics-addr"),
		ExportPath:    c.String("export"),
		LogFile:       c.String("log-file"),
		Headless:      c.Bool("no-tui"),
		Verbose:       c.Bool("verbose"),
	}, nil
}

// validateConfig 验证配置的合理性
func validateConfig(config *AppConfig) error {
	if err := config.PingerConfig.Validate(); err != nil {
		return fmt.Errorf("pinger配置错误: %w", err)
	}
	if err := config.SessionConfig.Validate(); err != nil {
		return fmt.Errorf("检测配置错误: %w", err)
	}
	if !config.Headless {
		if err := config.TUIConfig.Validate(); err != nil {
			return fmt.Errorf("tui配置错误: %w", err)
		}
	}
	return nil
}
