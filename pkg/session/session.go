// Package session 实现单个监控会话的运行时
// 每个会话独占一个滚动窗口和一个偏差检测器，由单一所有者按到达顺序驱动，不做内部同步
package session

import (
	"io"
	"log/slog"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/analyzer"
	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/detector"
	"github.com/Kevin-Rudy/pingscope/pkg/metrics"
	"github.com/Kevin-Rudy/pingscope/pkg/window"
	"github.com/jonboulle/clockwork"
)

// Update 表示一个样本处理后的输出，或一次周期性的实时分析
type Update struct {
	Target   string
	Sample   core.Sample
	Stats    core.RollingStats
	Events   []core.DeviationEvent
	Analysis *core.SessionAnalysis // 非nil时为实时分析，其余字段为空
}

// Report 表示会话结束时的最终结果
type Report struct {
	Target   string
	Analysis core.SessionAnalysis
	History  []core.Sample
	Events   []core.DeviationEvent
}

// Session 单个目标的监控会话
type Session struct {
	target   string
	clock    clockwork.Clock
	log      *slog.Logger
	window   *window.Engine
	detector *detector.Detector

	history []core.Sample
	events  []core.DeviationEvent
	nextSeq int64
	lost    int
	lastTs  int64
}

// New 创建会话
func New(target string, settings core.DetectionSettings, opts ...Option) *Session {
	s := &Session{
		target:   target,
		clock:    clockwork.NewRealClock(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		window:   window.New(settings.RollingWindowSize),
		detector: detector.New(settings),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("target", target)
	return s
}

// Target 返回会话目标
func (s *Session) Target() string {
	return s.target
}

// Settings 返回当前检测配置
func (s *Session) Settings() core.DetectionSettings {
	return s.detector.Settings()
}

// Record 处理一个探测结果：转换为样本，更新窗口，运行检测
func (s *Session) Record(result core.PingResult) Update {
	sample := s.toSample(result)
	if sample.Timestamp < s.lastTs {
		// 检测器假设严格的到达顺序
		s.log.Warn("session: sample out of order", "seq", sample.Seq, "timestamp", sample.Timestamp, "last", s.lastTs)
	}
	s.lastTs = sample.Timestamp
	s.history = append(s.history, sample)
	if sample.Lost() {
		s.lost++
	}

	st := s.window.Update(sample.Latency)
	st.PacketLossRate = float64(s.lost) / float64(len(s.history)) * 100

	events := s.detector.Detect(sample, st)
	s.events = append(s.events, events...)
	for _, ev := range events {
		s.log.Debug("session: deviation", "type", ev.Type, "value", ev.Value, "threshold", ev.Threshold, "id", ev.ID)
	}
	metrics.ObserveSample(s.target, sample, st, events)

	return Update{
		Target: s.target,
		Sample: sample,
		Stats:  st,
		Events: events,
	}
}

// toSample 把探测结果转换成样本，缺失的序列号和时间戳由会话补齐
func (s *Session) toSample(result core.PingResult) core.Sample {
	seq := result.Seq
	if seq <= 0 {
		s.nextSeq++
		seq = s.nextSeq
	} else if seq > s.nextSeq {
		s.nextSeq = seq
	}

	ts := result.SendTime
	if ts.IsZero() {
		ts = s.clock.Now()
	}

	if result.Lost() {
		return core.NewLostSample(seq, ts.UnixMilli())
	}
	return core.NewSample(seq, ts.UnixMilli(), result.Latency)
}

// UpdateSettings 合并部分配置；窗口大小变化时调整窗口，不重置检测器状态
func (s *Session) UpdateSettings(patch core.SettingsPatch) core.DetectionSettings {
	settings := s.detector.UpdateSettings(patch)
	if settings.RollingWindowSize != s.window.Size() {
		s.window.Resize(settings.RollingWindowSize)
	}
	s.log.Info("session: settings updated", "method", settings.Method, "window", s.window.Size())
	return settings
}

// History 返回样本历史的快照副本
func (s *Session) History() []core.Sample {
	out := make([]core.Sample, len(s.history))
	copy(out, s.history)
	return out
}

// Events 返回已产生事件的副本
func (s *Session) Events() []core.DeviationEvent {
	out := make([]core.DeviationEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Analyze 基于当前历史快照做实时分析，结果不具权威性
func (s *Session) Analyze() core.SessionAnalysis {
	return s.analyze("live", false)
}

// Finish 计算最终分析，只应在会话停止后调用
func (s *Session) Finish() Report {
	a := s.analyze("final", true)
	s.log.Info("session: finished", "samples", a.TotalSamples, "grade", a.QualityGrade, "bursts", a.BurstCount)
	return Report{
		Target:   s.target,
		Analysis: a,
		History:  s.History(),
		Events:   s.Events(),
	}
}

func (s *Session) analyze(kind string, final bool) core.SessionAnalysis {
	start := time.Now()
	a := analyzer.Analyze(s.history)
	a.Final = final
	metrics.AnalysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.ObserveGrade(s.target, a.QualityGrade)
	return a
}
