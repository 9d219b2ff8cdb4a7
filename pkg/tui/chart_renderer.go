// Package tui 图表渲染模块
// 使用盲文字符绘制延迟曲线，每个字符是2x4的点阵
package tui

import (
	"fmt"
	"math"
	"strings"
)

// chartSeries 一个目标的曲线
type chartSeries struct {
	name   string
	color  string
	points []point
}

// brailleCell 盲文画布的一个字符
type brailleCell struct {
	char  int
	color string
}

// brailleDotMap 点阵坐标到盲文位的映射 (y:0..3, x:0..1)
var brailleDotMap = [4][2]int{
	{0b00000001, 0b00001000},
	{0b00000010, 0b00010000},
	{0b00000100, 0b00100000},
	{0b01000000, 0b10000000},
}

// brailleCanvas 子像素分辨率为 (width*2) x (height*4)
type brailleCanvas struct {
	cells  [][]brailleCell // [x][y]
	width  int
	height int
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	cells := make([][]brailleCell, width)
	for i := range cells {
		cells[i] = make([]brailleCell, height)
	}
	return &brailleCanvas{cells: cells, width: width, height: height}
}

// set 点亮一个子像素，越界时忽略
func (c *brailleCanvas) set(x, y int, color string) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cx][cy].char |= brailleDotMap[y%4][x%2]
	c.cells[cx][cy].color = color
}

// line 使用布雷森汉姆算法绘制线段
func (c *brailleCanvas) line(x1, y1, x2, y2 int, color string) {
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	x, y := x1, y1
	for {
		c.set(x, y, color)
		if x == x2 && y == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// row 输出第y行的tview文本
func (c *brailleCanvas) row(y int) string {
	var b strings.Builder
	for x := 0; x < c.width; x++ {
		cell := c.cells[x][y]
		if cell.char == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(cell.color)
		b.WriteRune(rune(0x2800 + cell.char))
		b.WriteString("[white]")
	}
	return b.String()
}

// validateChartSize 验证图表尺寸是否合理
func (t *TUI) validateChartSize(width, height int) string {
	if height < t.tuiConfig.MinChartHeight || width < t.tuiConfig.MinChartWidth {
		return "终端尺寸过小"
	}
	if width > t.tuiConfig.MaxChartSize || height > t.tuiConfig.MaxChartSize {
		return "终端尺寸过大"
	}
	return ""
}

// valueRange 计算所有成功点的Y轴范围，带上下留白
func (t *TUI) valueRange(series []chartSeries) (minVal, maxVal float64, ok bool) {
	minVal, maxVal = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.points {
			if math.IsNaN(p.latency) {
				continue
			}
			minVal = math.Min(minVal, p.latency)
			maxVal = math.Max(maxVal, p.latency)
		}
	}
	if math.IsInf(minVal, 1) {
		return 0, 0, false
	}

	if maxVal == minVal {
		maxVal++
		minVal--
	}
	maxVal += maxVal * t.tuiConfig.ValueBufferRatio
	minVal -= minVal * t.tuiConfig.ValueBufferRatio
	if minVal < 0 {
		minVal = 0
	}
	return minVal, maxVal, true
}

// renderChart 绘制延迟曲线，X轴为最近的样本序号，丢包画在顶部
func (t *TUI) renderChart(series []chartSeries, width, height int) string {
	if sizeErr := t.validateChartSize(width, height); sizeErr != "" {
		return sizeErr
	}
	if len(series) == 0 {
		return "没有数据"
	}

	minVal, maxVal, ok := t.valueRange(series)
	if !ok {
		return "当前窗口内没有有效数据"
	}
	span := maxVal - minVal

	topLabel, bottomLabel := formatLatency(maxVal), formatLatency(minVal)
	labelWidth := max(len(topLabel), len(bottomLabel)) + 2

	bodyHeight := height - 2 // X轴和时间刻度
	chartWidth := width - labelWidth
	if bodyHeight <= 0 || chartWidth <= 0 {
		return "可绘制区域过小"
	}

	canvas := newBrailleCanvas(chartWidth, bodyHeight)
	pixelsX, pixelsY := chartWidth*2, bodyHeight*4
	slots := t.tuiConfig.ChartHistorySize

	for _, s := range series {
		// 最新的点对齐到右边缘
		offset := slots - len(s.points)
		lastX, lastY := -1, -1
		for i, p := range s.points {
			x := (offset + i) * (pixelsX - 1) / max(slots-1, 1)

			y := 0
			if !math.IsNaN(p.latency) {
				normalized := (p.latency - minVal) / span
				y = int((1.0 - normalized) * float64(pixelsY-1))
			}
			y = min(max(y, 0), pixelsY-1)

			if lastX >= 0 {
				canvas.line(lastX, lastY, x, y, s.color)
			} else {
				canvas.set(x, y, s.color)
			}
			lastX, lastY = x, y
		}
	}

	// Y轴刻度在数值上均匀分布
	labels := make(map[int]string)
	labelCount := min(5, bodyHeight)
	if labelCount > 1 {
		for i := 0; i < labelCount; i++ {
			normalized := float64(i) / float64(labelCount-1)
			labels[int(normalized*float64(bodyHeight-1))] = formatLatency(maxVal - normalized*span)
		}
	}

	lines := make([]string, 0, height)
	for y := 0; y < bodyHeight; y++ {
		lines = append(lines, fmt.Sprintf("[gray]%*s[white] [gray]│[white]", labelWidth-2, labels[y])+canvas.row(y))
	}
	lines = append(lines, "[gray]"+fmt.Sprintf("%-*s└%s", labelWidth-1, "", strings.Repeat("─", chartWidth))+"[white]")

	// 时间刻度取自最长序列的首尾
	var longest []point
	for _, s := range series {
		if len(s.points) > len(longest) {
			longest = s.points
		}
	}
	if len(longest) > 0 {
		start := longest[0].at.Format("15:04:05")
		end := longest[len(longest)-1].at.Format("15:04:05")
		gap := max(chartWidth-len(start)-len(end), 1)
		lines = append(lines, "[gray]"+fmt.Sprintf("%-*s%s%*s%s", labelWidth, "", start, gap, "", end)+"[white]")
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
