// Package tui 工具函数和辅助类型
package tui

import (
	"fmt"
	"math"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/gdamore/tcell/v2"
)

// formatLatency 提供自适应的延迟格式化
func formatLatency(latency float64) string {
	switch {
	case math.IsNaN(latency):
		return "N/A"
	case latency < 1.0:
		return fmt.Sprintf("%.0fµs", latency*1000)
	case latency < 1000.0:
		return fmt.Sprintf("%.1fms", latency)
	default:
		return fmt.Sprintf("%.2fs", latency/1000)
	}
}

// colorSequence 目标颜色，按目标顺序循环分配
var colorSequence = []string{
	"[green]", "[yellow]", "[blue]", "[magenta]", "[cyan]", "[red]",
	"[orange]", "[purple]", "[lime]", "[pink]",
	"[darkcyan]", "[darkgreen]", "[darkblue]", "[darkmagenta]",
}

// getTargetColor 根据目标在命令行中的位置分配稳定的颜色
func (t *TUI) getTargetColor(identifier string) string {
	for i, target := range t.targets {
		if target == identifier {
			return colorSequence[i%len(colorSequence)]
		}
	}
	return "[white]"
}

// gradeColor 评级对应的颜色
func gradeColor(grade string) tcell.Color {
	switch core.QualityGrade(grade) {
	case core.GradeA:
		return tcell.ColorGreen
	case core.GradeB:
		return tcell.ColorLime
	case core.GradeC:
		return tcell.ColorYellow
	case core.GradeD:
		return tcell.ColorOrange
	case core.GradeF:
		return tcell.ColorRed
	default:
		return tcell.ColorGray
	}
}

// abs 返回整数的绝对值
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
