// Package tui 交互控制模块
package tui

import (
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/gdamore/tcell/v2"
)

// navigationLimiter 导航事件频率控制，连续threshold次事件后休息rest时长
type navigationLimiter struct {
	threshold int
	rest      time.Duration
	counter   int
	resting   bool
	last      time.Time
}

// allow 判断是否应该处理导航事件，允许时同时记录本次事件
func (n *navigationLimiter) allow(now time.Time) bool {
	if n.resting {
		if now.Sub(n.last) < n.rest {
			return false
		}
		n.resting = false
		n.counter = 0
	}

	n.counter++
	n.last = now
	if n.counter >= n.threshold {
		n.resting = true
	}
	return true
}

// setupKeyBindings 设置键盘绑定
func (t *TUI) setupKeyBindings() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.Stop()
			return nil
		case tcell.KeyUp:
			if t.nav.allow(time.Now()) {
				t.navigateUp()
			}
			return nil
		case tcell.KeyDown:
			if t.nav.allow(time.Now()) {
				t.navigateDown()
			}
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				t.Stop()
				return nil
			case 'm', 'M':
				t.cycleMethod()
				return nil
			case '[':
				t.resizeWindow(0.5)
				return nil
			case ']':
				t.resizeWindow(2)
				return nil
			}
		}
		return event
	})
}

// navigateUp 向上导航，越过第一行时回到全选
func (t *TUI) navigateUp() {
	t.statsMu.Lock()
	n := len(t.targets)
	switch {
	case n == 0:
	case t.selectedRow == -1:
		t.selectedRow = n - 1
	case t.selectedRow > 0:
		t.selectedRow--
	default:
		t.selectedRow = -1
	}
	t.statsMu.Unlock()

	if !t.testMode {
		t.updateSelection()
		t.updateChart()
		t.renderStatus()
	}
}

// navigateDown 向下导航，越过最后一行时回到全选
func (t *TUI) navigateDown() {
	t.statsMu.Lock()
	n := len(t.targets)
	switch {
	case n == 0:
	case t.selectedRow == -1:
		t.selectedRow = 0
	case t.selectedRow < n-1:
		t.selectedRow++
	default:
		t.selectedRow = -1
	}
	t.statsMu.Unlock()

	if !t.testMode {
		t.updateSelection()
		t.updateChart()
		t.renderStatus()
	}
}

// selectedTarget 返回选中的目标，全选时为空，调用方需持有statsMu
func (t *TUI) selectedTarget() string {
	if t.selectedRow < 0 || t.selectedRow >= len(t.targets) {
		return ""
	}
	return t.targets[t.selectedRow]
}

// updateSelection 高亮选中的行
func (t *TUI) updateSelection() {
	t.statsMu.RLock()
	selected := t.selectedRow
	t.statsMu.RUnlock()

	for row := 1; row < t.table.GetRowCount(); row++ {
		bg := tcell.ColorDefault
		if row-1 == selected {
			bg = tcell.ColorDarkCyan
		}
		for col := 0; col < t.table.GetColumnCount(); col++ {
			if cell := t.table.GetCell(row, col); cell != nil {
				cell.SetBackgroundColor(bg)
			}
		}
	}
}

// methodCycle 按键m切换检测算法的顺序
var methodCycle = map[core.DetectionMethod]core.DetectionMethod{
	core.MethodIQR:    core.MethodZScore,
	core.MethodZScore: core.MethodManual,
	core.MethodManual: core.MethodIQR,
}

// cycleMethod 切换到下一个检测算法
func (t *TUI) cycleMethod() {
	t.statsMu.RLock()
	next, ok := methodCycle[t.settings.Method]
	t.statsMu.RUnlock()
	if !ok {
		next = core.MethodIQR
	}
	t.applySettings(core.SettingsPatch{Method: &next})
}

// resizeWindow 按比例调整滚动窗口大小，最小为10
func (t *TUI) resizeWindow(factor float64) {
	t.statsMu.RLock()
	size := int(float64(t.settings.RollingWindowSize) * factor)
	t.statsMu.RUnlock()
	if size < core.WarmupSamples {
		size = core.WarmupSamples
	}
	t.applySettings(core.SettingsPatch{RollingWindowSize: &size})
}

// applySettings 提交配置修改，成功后更新本地副本
func (t *TUI) applySettings(patch core.SettingsPatch) {
	t.statsMu.Lock()
	merged := t.settings.Merge(patch)
	if err := merged.Validate(); err != nil {
		t.notice = err.Error()
		t.statsMu.Unlock()
		t.refreshStatus()
		return
	}
	t.statsMu.Unlock()

	var err error
	if t.onSettings != nil {
		// 在锁外调用，避免与监控器互相等待
		err = t.onSettings(patch)
	}

	t.statsMu.Lock()
	if err != nil {
		t.notice = err.Error()
	} else {
		t.settings = merged
		t.notice = ""
	}
	t.statsMu.Unlock()
	t.refreshStatus()
}

func (t *TUI) refreshStatus() {
	if !t.testMode {
		t.renderStatus()
	}
}
