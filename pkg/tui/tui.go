// Package tui 提供实时监控的终端用户界面
// 展示每个目标的滚动统计、延迟曲线、偏差事件日志和实时质量评级
package tui

import (
	"sync"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/Kevin-Rudy/pingscope/pkg/session"
	"github.com/rivo/tview"
)

// SettingsFunc 把界面上的配置修改提交给监控器
type SettingsFunc func(core.SettingsPatch) error

// TUI 主界面结构
type TUI struct {
	app    *tview.Application
	flex   *tview.Flex
	table  *tview.Table
	chart  *tview.TextView
	events *tview.TextView
	status *tview.TextView

	updates    <-chan session.Update
	onSettings SettingsFunc
	tuiConfig  *Config

	// 界面状态，由statsMu保护
	statsMu     sync.RWMutex
	targets     []string // 命令行输入的目标顺序
	views       map[string]*targetView
	eventLog    []eventLine
	settings    core.DetectionSettings
	selectedRow int // -1 表示全选
	notice      string

	nav navigationLimiter

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once

	// 测试模式下不操作图形组件
	testMode bool
}

// NewTUI 创建新的TUI实例
func NewTUI(updates <-chan session.Update, targets []string, settings core.DetectionSettings, onSettings SettingsFunc, tuiConfig *Config) *TUI {
	t := newTUI(updates, targets, settings, onSettings, tuiConfig)
	t.setupUI()
	t.setupKeyBindings()
	return t
}

// NewTUIForTest 创建用于测试的TUI实例（不初始化图形组件）
func NewTUIForTest(updates <-chan session.Update, targets []string, settings core.DetectionSettings, onSettings SettingsFunc, tuiConfig *Config) *TUI {
	t := newTUI(updates, targets, settings, onSettings, tuiConfig)
	t.testMode = true
	return t
}

func newTUI(updates <-chan session.Update, targets []string, settings core.DetectionSettings, onSettings SettingsFunc, tuiConfig *Config) *TUI {
	if tuiConfig == nil {
		tuiConfig = DefaultConfig()
	}
	views := make(map[string]*targetView, len(targets))
	for _, target := range targets {
		views[target] = &targetView{}
	}
	return &TUI{
		app:         tview.NewApplication(),
		updates:     updates,
		onSettings:  onSettings,
		tuiConfig:   tuiConfig,
		targets:     targets,
		views:       views,
		settings:    settings,
		selectedRow: -1,
		nav:         navigationLimiter{threshold: 5, rest: 100 * time.Millisecond},
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Run 启动TUI界面，阻塞到用户退出
func (t *TUI) Run() error {
	go t.processData()

	err := t.app.Run()

	t.Stop()
	<-t.doneChan
	return err
}

// Stop 停止TUI界面，可重复调用
func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.app.Stop()
	})
}

// processData 消费监控器的更新，并按固定间隔刷新界面
func (t *TUI) processData() {
	defer close(t.doneChan)

	uiTicker := time.NewTicker(t.tuiConfig.RefreshInterval)
	defer uiTicker.Stop()

	for {
		select {
		case u, ok := <-t.updates:
			if !ok {
				// 监控器已停止，保留最后的画面
				t.handleUIRefresh()
				<-t.stopChan
				return
			}
			t.handleUpdate(u)

		case <-uiTicker.C:
			t.handleUIRefresh()

		case <-t.stopChan:
			return
		}
	}
}

// handleUIRefresh 处理UI刷新
func (t *TUI) handleUIRefresh() {
	if t.testMode {
		return
	}
	t.safeUIUpdate(func() {
		t.renderTable()
		t.updateSelection()
		t.updateChart()
		t.renderEvents()
		t.renderStatus()
	})
}
