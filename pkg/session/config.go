// Package session 监控器配置定义
package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/jonboulle/clockwork"
)

// Config 监控器的配置结构
type Config struct {
	Settings             core.DetectionSettings // 初始检测配置
	LiveAnalysisInterval time.Duration          // 实时分析间隔，0表示关闭
	InboxSize            int                    // 每个会话的收件箱缓冲区大小
	UpdateBufferSize     int                    // 输出通道缓冲区大小
	Clock                clockwork.Clock
	Logger               *slog.Logger
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Settings:             core.DefaultDetectionSettings(),
		LiveAnalysisInterval: 10 * time.Second,
		InboxSize:            64,
		UpdateBufferSize:     256,
		Clock:                clockwork.NewRealClock(),
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if c.LiveAnalysisInterval < 0 {
		return errors.New("实时分析间隔不能为负数")
	}
	if c.LiveAnalysisInterval > 0 && c.LiveAnalysisInterval < time.Second {
		return errors.New("实时分析间隔不能小于1s")
	}
	if c.InboxSize <= 0 {
		return errors.New("收件箱大小必须大于0")
	}
	if c.UpdateBufferSize <= 0 {
		return errors.New("输出缓冲区大小必须大于0")
	}
	if c.Clock == nil {
		return errors.New("时钟不能为空")
	}
	return nil
}
