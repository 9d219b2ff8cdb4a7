// Package analyzer 突发簇检测
package analyzer

import (
	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/stats"
)

// isSpikeSample 尖峰样本：丢包或延迟 >= BurstSpikeThresholdMs
func isSpikeSample(s core.Sample) bool {
	v, ok := s.Value()
	return !ok || v >= core.BurstSpikeThresholdMs
}

// burstBuilder 累积单个突发簇
type burstBuilder struct {
	burst   core.LatencyBurst
	sum     float64
	success int
}

func (b *burstBuilder) add(s core.Sample) {
	b.burst.EndTimestamp = s.Timestamp
	b.burst.SampleCount++
	if v, ok := s.Value(); ok {
		b.success++
		b.sum += v
		if b.success == 1 || v > b.burst.MaxLatency {
			b.burst.MaxLatency = v
		}
	}
}

func (b *burstBuilder) build() core.LatencyBurst {
	out := b.burst
	if b.success > 0 {
		out.MeanLatency = b.sum / float64(b.success)
	}
	return out
}

// detectBursts 按时间顺序遍历尖峰样本，相邻间隔超过 BurstGapMs 时开启新簇
func detectBursts(ordered []core.Sample) []core.LatencyBurst {
	var (
		bursts  []core.LatencyBurst
		current *burstBuilder
		lastTs  int64
	)

	for _, s := range ordered {
		if !isSpikeSample(s) {
			continue
		}
		if current == nil || s.Timestamp-lastTs > core.BurstGapMs {
			if current != nil {
				bursts = append(bursts, current.build())
			}
			current = &burstBuilder{burst: core.LatencyBurst{
				Index:          len(bursts),
				StartTimestamp: s.Timestamp,
			}}
		}
		current.add(s)
		lastTs = s.Timestamp
	}
	if current != nil {
		bursts = append(bursts, current.build())
	}
	return bursts
}

// applyBursts 汇总突发簇：大小的中位数和最大值，簇间间隔的中位数和P95
func applyBursts(a *core.SessionAnalysis, bursts []core.LatencyBurst) {
	a.Bursts = bursts
	if a.Bursts == nil {
		a.Bursts = []core.LatencyBurst{}
	}
	a.BurstCount = len(bursts)
	if len(bursts) == 0 {
		return
	}

	sizes := make([]float64, 0, len(bursts))
	for _, b := range bursts {
		sizes = append(sizes, float64(b.SampleCount))
		if b.SampleCount > a.MaxBurstSize {
			a.MaxBurstSize = b.SampleCount
		}
	}
	a.MedianBurstSize = stats.NearestRank(stats.Sorted(sizes), 0.5)

	if len(bursts) < 2 {
		return
	}
	gaps := make([]float64, 0, len(bursts)-1)
	for i := 1; i < len(bursts); i++ {
		gaps = append(gaps, float64(bursts[i].StartTimestamp-bursts[i-1].EndTimestamp)/1000)
	}
	sorted := stats.Sorted(gaps)
	median := stats.NearestRank(sorted, 0.5)
	p95 := stats.NearestRank(sorted, 0.95)
	a.MedianInterBurstSeconds = &median
	a.P95InterBurstSeconds = &p95
}
