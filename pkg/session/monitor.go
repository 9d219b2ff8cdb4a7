// Package session 多目标监控器
// 监控器把数据源的结果按目标分发给各自的会话actor，每个actor在独立的goroutine中独占其会话
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/metrics"
	"github.com/alitto/pond/v2"
)

var (
	ErrUnknownTarget = errors.New("未知的监控目标")
	ErrStopped       = errors.New("监控器已停止")
)

// message 发送给会话actor的消息，每次只设置一个字段
type message struct {
	result  *core.PingResult
	patch   *core.SettingsPatch
	analyze chan core.SessionAnalysis
}

// analyzeRequest 实时分析请求，经由分发循环转交给对应的actor
type analyzeRequest struct {
	target string
	reply  chan core.SessionAnalysis
}

// Monitor 多目标监控器
type Monitor struct {
	source  core.DataSource
	targets []string
	cfg     *Config
	log     *slog.Logger

	inboxes  map[string]chan message // 启动后只读
	updates  chan Update
	patches  chan core.SettingsPatch
	requests chan analyzeRequest
	done     chan struct{} // 分发循环退出后关闭

	pool  pond.ResultPool[Report]
	group pond.ResultTaskGroup[Report]

	startOnce sync.Once
	stopOnce  sync.Once
	reports   []Report
	stopErr   error
}

// NewMonitor 创建监控器，每个目标对应一个会话
func NewMonitor(source core.DataSource, targets []string, cfg *Config) (*Monitor, error) {
	if source == nil {
		return nil, errors.New("数据源不能为空")
	}
	if len(targets) == 0 {
		return nil, errors.New("必须指定至少一个目标")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("监控器配置错误: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := &Monitor{
		source:   source,
		targets:  targets,
		cfg:      cfg,
		log:      log,
		inboxes:  make(map[string]chan message, len(targets)),
		updates:  make(chan Update, cfg.UpdateBufferSize),
		patches:  make(chan core.SettingsPatch),
		requests: make(chan analyzeRequest),
		done:     make(chan struct{}),
		// 每个会话在生命周期内独占一个worker
		pool: pond.NewResultPool[Report](len(targets)),
	}
	for _, target := range targets {
		if _, exists := m.inboxes[target]; exists {
			return nil, fmt.Errorf("重复的目标: %s", target)
		}
		m.inboxes[target] = make(chan message, cfg.InboxSize)
	}
	return m, nil
}

// Updates 返回输出通道，监控器停止后关闭
func (m *Monitor) Updates() <-chan Update {
	return m.updates
}

// Start 启动数据源、会话actor和分发循环，非阻塞
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		m.group = m.pool.NewGroup()
		for _, target := range m.targets {
			sess := New(target, m.cfg.Settings, WithClock(m.cfg.Clock), WithLogger(m.log))
			inbox := m.inboxes[target]
			m.group.Submit(func() Report {
				return m.runActor(sess, inbox)
			})
		}
		metrics.SessionsActive.Add(float64(len(m.targets)))

		m.source.Start()
		go m.dispatch()
	})
}

// dispatch 把数据源的结果和配置更新分发给各个actor
// 数据源通道关闭后关闭所有收件箱，actor随之完成最终分析
func (m *Monitor) dispatch() {
	defer close(m.done)
	defer func() {
		for _, inbox := range m.inboxes {
			close(inbox)
		}
	}()

	stream := m.source.DataStream()
	for {
		select {
		case result, ok := <-stream:
			if !ok {
				return
			}
			inbox, exists := m.inboxes[result.Identifier]
			if !exists {
				m.log.Warn("monitor: result for unknown target dropped", "target", result.Identifier)
				continue
			}
			r := result
			inbox <- message{result: &r}

		case patch := <-m.patches:
			for _, inbox := range m.inboxes {
				p := patch
				inbox <- message{patch: &p}
			}

		case req := <-m.requests:
			m.inboxes[req.target] <- message{analyze: req.reply}
		}
	}
}

// runActor 会话actor的主循环，会话只在这个goroutine中被访问
func (m *Monitor) runActor(sess *Session, inbox <-chan message) Report {
	var tick <-chan time.Time
	if m.cfg.LiveAnalysisInterval > 0 {
		ticker := m.cfg.Clock.NewTicker(m.cfg.LiveAnalysisInterval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return sess.Finish()
			}
			switch {
			case msg.result != nil:
				m.publish(sess.Record(*msg.result))
			case msg.patch != nil:
				sess.UpdateSettings(*msg.patch)
			case msg.analyze != nil:
				msg.analyze <- sess.Analyze()
			}

		case <-tick:
			a := sess.Analyze()
			m.publish(Update{Target: sess.Target(), Analysis: &a})
		}
	}
}

// publish 非阻塞地发送更新，通道满时丢弃
func (m *Monitor) publish(u Update) {
	select {
	case m.updates <- u:
	default:
		m.log.Debug("monitor: update dropped, consumer too slow", "target", u.Target)
	}
}

// UpdateSettings 向所有会话广播部分配置更新
// 返回时补丁已被分发循环接收，此后分发的结果都使用新配置
func (m *Monitor) UpdateSettings(ctx context.Context, patch core.SettingsPatch) error {
	select {
	case m.patches <- patch:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Analyze 请求指定目标的实时分析，由会话actor基于其当前历史计算
func (m *Monitor) Analyze(ctx context.Context, target string) (core.SessionAnalysis, error) {
	if _, exists := m.inboxes[target]; !exists {
		return core.SessionAnalysis{}, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}

	req := analyzeRequest{target: target, reply: make(chan core.SessionAnalysis, 1)}
	select {
	case m.requests <- req:
	case <-m.done:
		return core.SessionAnalysis{}, ErrStopped
	case <-ctx.Done():
		return core.SessionAnalysis{}, ctx.Err()
	}

	select {
	case a := <-req.reply:
		return a, nil
	case <-ctx.Done():
		return core.SessionAnalysis{}, ctx.Err()
	}
}

// Stop 停止数据源，等待所有会话完成最终分析并返回报告
// 报告顺序与目标顺序一致，重复调用返回相同结果
func (m *Monitor) Stop() ([]Report, error) {
	m.stopOnce.Do(func() {
		m.Start()
		m.source.Stop()
		<-m.done

		m.reports, m.stopErr = m.group.Wait()
		m.pool.StopAndWait()
		metrics.SessionsActive.Sub(float64(len(m.targets)))
		close(m.updates)
	})
	return m.reports, m.stopErr
}
