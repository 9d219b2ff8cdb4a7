// Package analyzer 质量评级
package analyzer

import (
	"fmt"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
)

const (
	noDataSummary  = "No data: the session has no samples to grade."
	allLostSummary = "every probe in the session was lost, no latency was measured."
)

// grade 按优先级顺序评估规则，第一个命中的规则生效
func grade(a core.SessionAnalysis) (core.QualityGrade, string) {
	if a.TotalSamples == 0 {
		return core.GradeF, noDataSummary
	}

	pct10 := a.ThresholdPercent(10)
	pct20 := a.ThresholdPercent(20)
	pct50 := a.ThresholdPercent(50)
	g := Grade(pct10, pct20, a.LatencyP95)
	if a.SuccessfulSamples == 0 {
		// 评级仍由规则决定，只在描述中说明全部丢包
		return g, fmt.Sprintf("Grade %s: %s", g, allLostSummary)
	}
	return g, summarize(g, pct10, pct20, pct50, a.LatencyP95)
}

// Grade 五级评级规则，依次为 A..F
func Grade(pct10ms, pct20ms, p95 float64) core.QualityGrade {
	switch {
	case pct10ms < 1 && p95 < 10:
		return core.GradeA
	case pct10ms < 3 && pct20ms < 1:
		return core.GradeB
	case pct10ms < 5 || (pct20ms < 1 && pct10ms < 10):
		return core.GradeC
	case pct10ms < 10 || pct20ms < 3:
		return core.GradeD
	default:
		return core.GradeF
	}
}

func summarize(g core.QualityGrade, pct10, pct20, pct50, p95 float64) string {
	switch g {
	case core.GradeA:
		return fmt.Sprintf("Excellent: %.2f%% of samples at or above 10ms, P95 %.2fms.", pct10, p95)
	case core.GradeB:
		return fmt.Sprintf("Good: %.2f%% of samples at or above 10ms and %.2f%% at or above 20ms.", pct10, pct20)
	case core.GradeC:
		return fmt.Sprintf("Fair: %.2f%% of samples at or above 10ms, %.2f%% at or above 20ms.", pct10, pct20)
	case core.GradeD:
		return fmt.Sprintf("Poor: %.2f%% of samples at or above 10ms, %.2f%% at or above 20ms, P95 %.2fms.", pct10, pct20, p95)
	default:
		return fmt.Sprintf("Bad: %.2f%% of samples at or above 10ms, %.2f%% at or above 20ms, %.2f%% at or above 50ms.", pct10, pct20, pct50)
	}
}
