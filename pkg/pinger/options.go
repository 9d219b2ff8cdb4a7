// Package pinger 选项模式支持
package pinger

import (
	"log/slog"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
)

// Option 配置选项函数类型
type Option func(*Config)

// WithIPVersion 设置IP版本
func WithIPVersion(version int) Option {
	return func(c *Config) {
		c.IPVersion = version
	}
}

// WithInterval 设置ping间隔
func WithInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.Interval = interval
	}
}

// WithTimeout 设置超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithBufferSize 设置缓冲区大小
func WithBufferSize(size int) Option {
	return func(c *Config) {
		c.BufferSize = size
	}
}

// WithEngine 设置探测引擎
func WithEngine(engine Engine) Option {
	return func(c *Config) {
		c.Engine = engine
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// NewPingerWithOptions 使用选项模式创建Pinger
func NewPingerWithOptions(targets []string, opts ...Option) (core.DataSource, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return NewPinger(targets, config)
}
