// Package tui 配置定义
package tui

import (
	"errors"
	"time"
)

// Config TUI组件的配置结构
type Config struct {
	RefreshInterval  time.Duration // UI刷新间隔
	ChartHistorySize int           // 每个目标在图表中保留的点数
	MaxEventLines    int           // 事件日志保留的行数
	MinChartWidth    int           // 最小图表宽度
	MinChartHeight   int           // 最小图表高度
	MaxChartSize     int           // 最大图表尺寸（防止极端值）
	ValueBufferRatio float64       // Y轴上下留白比例
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:  200 * time.Millisecond,
		ChartHistorySize: 150,
		MaxEventLines:    200,
		MinChartWidth:    20,
		MinChartHeight:   5,
		MaxChartSize:     1000,
		ValueBufferRatio: 0.1,
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.RefreshInterval < 10*time.Millisecond {
		return errors.New("UI刷新间隔不能小于10ms")
	}
	if c.ChartHistorySize < 10 {
		return errors.New("图表历史点数不能小于10")
	}
	if c.ChartHistorySize > 1000 {
		return errors.New("图表历史点数不能超过1000")
	}
	if c.MaxEventLines <= 0 {
		return errors.New("事件日志行数必须大于0")
	}
	if c.MinChartWidth <= 0 || c.MinChartHeight <= 0 {
		return errors.New("最小图表尺寸必须大于0")
	}
	if c.MaxChartSize <= 0 {
		return errors.New("最大图表尺寸必须大于0")
	}
	if c.ValueBufferRatio < 0 {
		return errors.New("值缓冲比例不能为负数")
	}
	return nil
}
