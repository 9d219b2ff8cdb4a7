// Package window 实现有界滚动窗口统计引擎
// 窗口只保存最近的成功延迟，丢包不占位置，每次更新后整体重新计算统计
package window

import (
	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/stats"
)

// Engine 滚动窗口统计引擎
// 每个会话独占一个实例，不做内部同步
type Engine struct {
	size        int       // 窗口上限
	latencies   []float64 // 最近的成功延迟，按到达顺序
	deltas      []float64 // 相邻成功延迟的绝对差，用于抖动
	lastLatency *float64  // 上一个成功延迟，丢包后清空
}

// New 创建指定大小的滚动窗口，小于1时按1处理
func New(size int) *Engine {
	if size < 1 {
		size = 1
	}
	return &Engine{
		size:      size,
		latencies: make([]float64, 0, size),
		deltas:    make([]float64, 0, size),
	}
}

// Size 返回窗口上限
func (e *Engine) Size() int {
	return e.size
}

// Len 返回窗口中的成功样本数
func (e *Engine) Len() int {
	return len(e.latencies)
}

// Resize 修改窗口上限，缩小时丢弃最旧的数据，不影响抖动连续性
func (e *Engine) Resize(size int) {
	if size < 1 {
		size = 1
	}
	e.size = size
	e.latencies = trim(e.latencies, size)
	e.deltas = trim(e.deltas, size)
}

// Update 写入一个样本并返回重新计算后的统计
// latency 为 nil 表示丢包：窗口内容不变，只清空 lastLatency，抖动不会跨越丢包计算
func (e *Engine) Update(latency *float64) core.RollingStats {
	if latency == nil {
		e.lastLatency = nil
		return e.Stats()
	}

	v := *latency
	e.latencies = trim(append(e.latencies, v), e.size)

	if e.lastLatency != nil {
		d := v - *e.lastLatency
		if d < 0 {
			d = -d
		}
		e.deltas = trim(append(e.deltas, d), e.size)
	}
	e.lastLatency = &v

	return e.Stats()
}

// Stats 根据当前窗口内容计算统计，空窗口返回全0
// PacketLossRate 由调用方按整个会话填写
func (e *Engine) Stats() core.RollingStats {
	n := len(e.latencies)
	if n == 0 {
		return core.RollingStats{}
	}

	sorted := stats.Sorted(e.latencies)
	// 均值和标准差按到达顺序累加
	mean := stats.Mean(e.latencies)
	q1 := sorted[stats.RankIndex(n, 0.25)]
	q3 := sorted[stats.RankIndex(n, 0.75)]

	return core.RollingStats{
		Mean:        mean,
		Median:      stats.MiddleMedian(sorted),
		StdDev:      stats.PopulationStdDev(e.latencies, mean),
		Min:         sorted[0],
		Max:         sorted[n-1],
		P95:         sorted[stats.RankIndex(n, 0.95)],
		P99:         sorted[stats.RankIndex(n, 0.99)],
		Q1:          q1,
		Q3:          q3,
		IQR:         q3 - q1,
		Jitter:      stats.Mean(e.deltas),
		SampleCount: n,
	}
}

// trim 保留切片末尾最多 size 个元素
func trim(values []float64, size int) []float64 {
	if len(values) <= size {
		return values
	}
	// 复制到新的底层数组，防止底层数组随运行时间增长
	out := make([]float64, size, size+1)
	copy(out, values[len(values)-size:])
	return out
}
