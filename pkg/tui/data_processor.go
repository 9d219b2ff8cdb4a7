// Package tui 数据处理模块
package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/session"
)

// point 图表上的一个点，丢包为NaN
type point struct {
	at      time.Time
	latency float64
}

// targetView 单个目标在界面上的状态
type targetView struct {
	stats    core.RollingStats
	samples  int
	lost     int
	last     core.Sample
	points   []point
	analysis *core.SessionAnalysis // 最近一次实时分析
}

// eventLine 事件日志中的一行
type eventLine struct {
	target string
	event  core.DeviationEvent
}

// handleUpdate 把一个更新合并进界面状态
func (t *TUI) handleUpdate(u session.Update) {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()

	view, exists := t.views[u.Target]
	if !exists {
		return
	}

	if u.Analysis != nil {
		a := *u.Analysis
		view.analysis = &a
		return
	}

	view.stats = u.Stats
	view.samples++
	view.last = u.Sample

	p := point{at: time.UnixMilli(u.Sample.Timestamp), latency: math.NaN()}
	if v, ok := u.Sample.Value(); ok {
		p.latency = v
	} else {
		view.lost++
	}
	view.points = append(view.points, p)
	if len(view.points) > t.tuiConfig.ChartHistorySize {
		view.points = view.points[len(view.points)-t.tuiConfig.ChartHistorySize:]
	}

	for _, ev := range u.Events {
		t.eventLog = append(t.eventLog, eventLine{target: u.Target, event: ev})
	}
	if len(t.eventLog) > t.tuiConfig.MaxEventLines {
		t.eventLog = t.eventLog[len(t.eventLog)-t.tuiConfig.MaxEventLines:]
	}
}

// activeTargets 返回已收到数据的目标，保持命令行顺序
// 调用方需持有statsMu
func (t *TUI) activeTargets() []string {
	var active []string
	for _, target := range t.targets {
		if v := t.views[target]; v != nil && (v.samples > 0 || v.analysis != nil) {
			active = append(active, target)
		}
	}
	return active
}

// tableHeaders 统计表的列
var tableHeaders = []string{"目标", "样本", "丢包率", "最新", "平均", "中位数", "P95", "P99", "标准差", "抖动", "IQR", "评级"}

// tableRow 生成目标对应的统计表行
func tableRow(target string, v *targetView) []string {
	last := "t/o"
	if lat, ok := v.last.Value(); ok {
		last = formatLatency(lat)
	}
	if v.samples == 0 {
		last = "N/A"
	}

	row := []string{
		target,
		fmt.Sprintf("%d", v.samples),
		fmt.Sprintf("%.1f%%", v.stats.PacketLossRate),
		last,
	}

	if v.stats.SampleCount == 0 {
		row = append(row, "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A")
	} else {
		row = append(row,
			formatLatency(v.stats.Mean),
			formatLatency(v.stats.Median),
			formatLatency(v.stats.P95),
			formatLatency(v.stats.P99),
			formatLatency(v.stats.StdDev),
			formatLatency(v.stats.Jitter),
			formatLatency(v.stats.IQR),
		)
	}

	grade := "-"
	if v.analysis != nil {
		grade = string(v.analysis.QualityGrade)
	}
	return append(row, grade)
}

// formatEvent 生成事件日志中的一行文本
func formatEvent(line eventLine) string {
	at := time.UnixMilli(line.event.Timestamp).Format("15:04:05")
	switch line.event.Type {
	case core.DeviationPacketLoss:
		return fmt.Sprintf("[gray]%s[white] %s [red]丢包[white]", at, line.target)
	case core.DeviationLatencySpike:
		return fmt.Sprintf("[gray]%s[white] %s [yellow]延迟尖峰[white] %s > %s",
			at, line.target, formatLatency(line.event.Value), formatLatency(line.event.Threshold))
	case core.DeviationJitter:
		return fmt.Sprintf("[gray]%s[white] %s [magenta]抖动[white] Δ%s > %s",
			at, line.target, formatLatency(line.event.Value), formatLatency(line.event.Threshold))
	default:
		return fmt.Sprintf("[gray]%s[white] %s %s", at, line.target, line.event.Type)
	}
}
