// Package session 选项模式支持
package session

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
)

// Option 会话配置选项函数类型
type Option func(*Session)

// WithClock 设置时钟，探测结果缺少发送时间时使用
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}
