// Package analyzer 实现会话级的离线分析
// 基于完整的有序样本历史计算时间指标、延迟分布、尾部阈值、突发簇和质量评级
// 分析是纯函数：不修改输入，相同输入得到完全相同的结果
package analyzer

import (
	"sort"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/stats"
)

// Analyze 分析一个会话的完整样本历史
func Analyze(samples []core.Sample) core.SessionAnalysis {
	ordered := orderByTime(samples)

	latencies := make([]float64, 0, len(ordered))
	for _, s := range ordered {
		if v, ok := s.Value(); ok {
			latencies = append(latencies, v)
		}
	}

	a := core.SessionAnalysis{
		TotalSamples:      len(ordered),
		SuccessfulSamples: len(latencies),
		LostSamples:       len(ordered) - len(latencies),
	}
	if a.TotalSamples > 0 {
		a.PacketLossPercent = float64(a.LostSamples) / float64(a.TotalSamples) * 100
	}

	applyTiming(&a, ordered)
	applyDistribution(&a, latencies)
	a.Thresholds = thresholdCounts(latencies)
	applyBursts(&a, detectBursts(ordered))
	a.QualityGrade, a.QualitySummary = grade(a)

	return a
}

// orderByTime 按时间戳（同时间戳按序列号）排序的副本
func orderByTime(samples []core.Sample) []core.Sample {
	out := make([]core.Sample, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// applyTiming 计算会话跨度和采样间隔，少于2个样本时全为0
func applyTiming(a *core.SessionAnalysis, ordered []core.Sample) {
	if len(ordered) < 2 {
		return
	}

	a.DurationSeconds = float64(ordered[len(ordered)-1].Timestamp-ordered[0].Timestamp) / 1000

	intervals := make([]float64, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		intervals = append(intervals, float64(ordered[i].Timestamp-ordered[i-1].Timestamp)/1000)
	}

	a.MeanIntervalSeconds = stats.Mean(intervals)
	sorted := stats.Sorted(intervals)
	a.MedianIntervalSeconds = stats.NearestRank(sorted, 0.5)
	a.P95IntervalSeconds = stats.NearestRank(sorted, 0.95)
}

// applyDistribution 计算所有成功样本的延迟分布，没有成功样本时全为0
func applyDistribution(a *core.SessionAnalysis, latencies []float64) {
	if len(latencies) == 0 {
		return
	}

	sorted := stats.Sorted(latencies)
	n := len(sorted)
	mean := stats.Mean(latencies)

	a.LatencyMin = sorted[0]
	a.LatencyMax = sorted[n-1]
	a.LatencyMean = mean
	a.LatencyMedian = stats.NearestRank(sorted, 0.5)
	a.LatencyP95 = stats.NearestRank(sorted, 0.95)
	// RankIndex 已钳制到 n-1，越界时即为最大值
	a.LatencyP99 = stats.NearestRank(sorted, 0.99)
	a.LatencyStdDev = stats.PopulationStdDev(latencies, mean)
}

// thresholdCounts 统计各尾部风险阈值的命中数和占成功样本的百分比
func thresholdCounts(latencies []float64) []core.ThresholdCount {
	out := make([]core.ThresholdCount, 0, len(core.TailRiskThresholdsMs))
	for _, threshold := range core.TailRiskThresholdsMs {
		tc := core.ThresholdCount{ThresholdMs: threshold}
		for _, v := range latencies {
			if v >= threshold {
				tc.Count++
			}
		}
		if len(latencies) > 0 {
			tc.Percentage = float64(tc.Count) / float64(len(latencies)) * 100
		}
		out = append(out, tc)
	}
	return out
}
