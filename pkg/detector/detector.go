// Package detector 实现逐样本的偏差检测
// 检测器状态是显式的值类型，Detect 是纯函数：(状态, 样本, 统计, 配置) -> (新状态, 事件)
package detector

import (
	"fmt"
	"math"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
)

// State 检测器的全部可变状态
type State struct {
	LastLatency  *float64 // 上一个成功延迟，丢包后清空
	EventCounter uint64   // 单调递增的事件计数，仅用于生成唯一ID
}

// Detect 对一个样本做检测，样本必须按到达顺序传入
// 所有异常配置都降级为“该维度不触发”，不会返回错误
func Detect(state State, sample core.Sample, stats core.RollingStats, settings core.DetectionSettings) (State, []core.DeviationEvent) {
	// 丢包检查优先，且与其他事件互斥
	latency, ok := sample.Value()
	if !ok {
		state.LastLatency = nil
		ev := state.newEvent(core.DeviationPacketLoss, sample.Timestamp, 0, 0)
		return state, []core.DeviationEvent{ev}
	}

	var events []core.DeviationEvent

	// 预热期内统计不可靠，只更新 lastLatency
	if stats.SampleCount >= core.WarmupSamples {
		if threshold, spike := latencySpike(latency, stats, settings); spike {
			events = append(events, state.newEvent(core.DeviationLatencySpike, sample.Timestamp, latency, threshold))
		}
		if delta, threshold, spike := jitterSpike(latency, state.LastLatency, stats, settings); spike {
			events = append(events, state.newEvent(core.DeviationJitter, sample.Timestamp, delta, threshold))
		}
	}

	v := latency
	state.LastLatency = &v
	return state, events
}

// latencySpike 按配置的策略判断延迟尖峰，返回上报阈值
func latencySpike(latency float64, stats core.RollingStats, settings core.DetectionSettings) (float64, bool) {
	switch settings.Method {
	case core.MethodIQR:
		if !finite(settings.IQRMultiplier) {
			return 0, false
		}
		threshold := math.Max(stats.Q3+settings.IQRMultiplier*stats.IQR, stats.Median+core.IQRFloorMarginMs)
		return threshold, latency > threshold
	case core.MethodZScore:
		// 完全平坦的窗口无法计算z分数
		if stats.StdDev == 0 || !finite(settings.ZScoreThreshold) {
			return 0, false
		}
		z := (latency - stats.Mean) / stats.StdDev
		threshold := stats.Mean + settings.ZScoreThreshold*stats.StdDev
		return threshold, z > settings.ZScoreThreshold
	case core.MethodManual:
		if settings.ManualLatencyThreshold == nil || !finite(*settings.ManualLatencyThreshold) {
			return 0, false
		}
		threshold := *settings.ManualLatencyThreshold
		return threshold, latency > threshold
	}
	return 0, false
}

// jitterSpike 判断相邻样本差值是否超过抖动阈值，与延迟策略无关
func jitterSpike(latency float64, last *float64, stats core.RollingStats, settings core.DetectionSettings) (delta, threshold float64, spike bool) {
	if last == nil {
		return 0, 0, false
	}
	delta = math.Abs(latency - *last)

	if settings.ManualJitterThreshold != nil {
		threshold = *settings.ManualJitterThreshold
		if !finite(threshold) {
			return delta, 0, false
		}
	} else {
		threshold = math.Max(2*stats.Jitter, core.JitterFloorMs)
	}
	return delta, threshold, delta > threshold
}

// newEvent 生成事件并推进计数器，ID格式为 {type}-{timestamp}-{counter}
func (s *State) newEvent(typ core.DeviationType, timestamp int64, value, threshold float64) core.DeviationEvent {
	s.EventCounter++
	return core.DeviationEvent{
		ID:        fmt.Sprintf("%s-%d-%d", typ, timestamp, s.EventCounter),
		Timestamp: timestamp,
		Type:      typ,
		Value:     value,
		Threshold: threshold,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Detector 持有配置和状态的检测器，每个会话独占一个
type Detector struct {
	settings core.DetectionSettings
	state    State
}

// New 创建检测器
func New(settings core.DetectionSettings) *Detector {
	return &Detector{settings: settings}
}

// Detect 检测一个样本并推进内部状态
func (d *Detector) Detect(sample core.Sample, stats core.RollingStats) []core.DeviationEvent {
	var events []core.DeviationEvent
	d.state, events = Detect(d.state, sample, stats, d.settings)
	return events
}

// UpdateSettings 合并部分配置，不重置 lastLatency 和事件计数
func (d *Detector) UpdateSettings(patch core.SettingsPatch) core.DetectionSettings {
	d.settings = d.settings.Merge(patch)
	return d.settings
}

// Settings 返回当前配置
func (d *Detector) Settings() core.DetectionSettings {
	return d.settings
}

// State 返回当前状态的副本
func (d *Detector) State() State {
	return d.state
}
