// Package tui 布局管理模块
package tui

import (
	"fmt"
	"strings"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// setupUI 设置用户界面布局：统计表、图表、事件日志、状态栏
func (t *TUI) setupUI() {
	t.table = tview.NewTable()
	t.table.SetFixed(1, 1)
	t.table.SetBorders(false)

	t.chart = tview.NewTextView()
	t.chart.SetWordWrap(false)
	t.chart.SetDynamicColors(true)
	t.chart.SetText("[yellow]正在初始化，等待数据...[white]")

	t.events = tview.NewTextView()
	t.events.SetDynamicColors(true)
	t.events.SetScrollable(true)
	t.events.SetBorder(true)
	t.events.SetTitle(" 偏差事件 ")
	t.events.SetTitleAlign(tview.AlignLeft)

	t.status = tview.NewTextView()
	t.status.SetDynamicColors(true)

	t.flex = tview.NewFlex()
	t.flex.SetDirection(tview.FlexRow)
	t.flex.AddItem(t.table, len(t.targets)+1, 0, false)
	t.flex.AddItem(t.chart, 0, 3, false)
	t.flex.AddItem(t.events, 0, 1, false)
	t.flex.AddItem(t.status, 1, 0, false)

	t.renderTable()
	t.renderStatus()
	t.app.SetRoot(t.flex, true)
}

// renderTable 重建统计表
func (t *TUI) renderTable() {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	t.table.Clear()
	for col, header := range tableHeaders {
		cell := tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1)
		if col > 0 {
			cell.SetAlign(tview.AlignRight)
		}
		t.table.SetCell(0, col, cell)
	}

	for i, target := range t.targets {
		row := tableRow(target, t.views[target])
		for col, text := range row {
			cell := tview.NewTableCell(text).SetExpansion(1)
			switch {
			case col == 0:
				cell.SetText(t.getTargetColor(target) + text)
			case col == len(row)-1:
				cell.SetTextColor(gradeColor(text)).SetAlign(tview.AlignCenter)
			default:
				cell.SetAlign(tview.AlignRight)
			}
			t.table.SetCell(i+1, col, cell)
		}
	}
}

// renderEvents 显示最近的偏差事件，最新的在最上面
func (t *TUI) renderEvents() {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	if len(t.eventLog) == 0 {
		t.events.SetText("[gray]暂无偏差事件[white]")
		return
	}

	lines := make([]string, 0, len(t.eventLog))
	for i := len(t.eventLog) - 1; i >= 0; i-- {
		lines = append(lines, formatEvent(t.eventLog[i]))
	}
	t.events.SetText(strings.Join(lines, "\n"))
	t.events.ScrollToBeginning()
}

// renderStatus 显示当前检测配置、选中目标的实时评级和按键提示
func (t *TUI) renderStatus() {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "[green]pingscope[white] 检测:%s 窗口:%d", t.settings.Method, t.settings.RollingWindowSize)
	if t.settings.Method == core.MethodManual && t.settings.ManualLatencyThreshold != nil {
		fmt.Fprintf(&b, " 阈值:%s", formatLatency(*t.settings.ManualLatencyThreshold))
	}

	if target := t.selectedTarget(); target != "" {
		if v := t.views[target]; v != nil && v.analysis != nil {
			fmt.Fprintf(&b, " | %s%s[white] %s", t.getTargetColor(target), target, v.analysis.QualitySummary)
		}
	}
	if t.notice != "" {
		fmt.Fprintf(&b, " | [red]%s[white]", t.notice)
	}
	b.WriteString(" | [gray]↑↓ 选择  m 切换算法  [ ] 调整窗口  q 退出[white]")
	t.status.SetText(b.String())
}

// updateChart 更新图表显示
func (t *TUI) updateChart() {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	_, _, width, height := t.chart.GetInnerRect()
	if width < 20 {
		width = 80
	}
	if height < 10 {
		height = 15
	}

	var series []chartSeries
	if target := t.selectedTarget(); target != "" {
		series = append(series, t.seriesFor(target))
	} else {
		for _, target := range t.activeTargets() {
			series = append(series, t.seriesFor(target))
		}
	}
	t.chart.SetText(t.renderChart(series, width, height))
}

// seriesFor 生成目标的图表序列，调用方需持有statsMu
func (t *TUI) seriesFor(target string) chartSeries {
	v := t.views[target]
	points := make([]point, len(v.points))
	copy(points, v.points)
	return chartSeries{name: target, color: t.getTargetColor(target), points: points}
}

// safeUIUpdate 安全地执行UI更新操作
func (t *TUI) safeUIUpdate(updateFunc func()) {
	defer func() {
		// 应用已停止时忽略
		_ = recover()
	}()
	t.app.QueueUpdateDraw(updateFunc)
}
