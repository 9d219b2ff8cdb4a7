// Package stats 提供滚动窗口和会话分析共用的统计函数
// 百分位统一采用 floor 最近秩法，不做线性插值
package stats

import (
	"math"
	"sort"
)

// Sorted 返回升序排列的副本，不修改输入
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// RankIndex 返回 floor(n·p) 并钳制到 [0, n-1]
func RankIndex(n int, p float64) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// NearestRank 返回已排序切片在比例 p 处的最近秩值，空切片返回0
func NearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[RankIndex(len(sorted), p)]
}

// MiddleMedian 偶数个元素取中间两个的平均值，奇数个取中间元素
func MiddleMedian(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Mean 算术平均值，空切片返回0
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev 总体标准差（除以n而不是n-1）
func PopulationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
