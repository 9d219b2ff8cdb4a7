// Package report 分析结果的表格渲染
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/olekukonko/tablewriter"
)

// Row 汇总表中的一行
type Row struct {
	Target   string
	Analysis core.SessionAnalysis
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func ms(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func optionalSeconds(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// WriteSummary 每个目标一行的汇总表
func WriteSummary(w io.Writer, rows []Row) {
	table := newTable(w, []string{
		"Target", "Grade",
		"Samples\n(#)", "Loss\n(%)",
		"RTT\nMin", "RTT\nMean", "RTT\nMedian", "RTT\nP95", "RTT\nP99", "RTT\nMax", "RTT\nStdDev",
		">=10ms\n(%)", ">=20ms\n(%)",
		"Bursts\n(#)",
	})
	for _, r := range rows {
		a := r.Analysis
		table.Append([]string{
			r.Target,
			string(a.QualityGrade),
			strconv.Itoa(a.TotalSamples),
			fmt.Sprintf("%.2f", a.PacketLossPercent),
			ms(a.LatencyMin),
			ms(a.LatencyMean),
			ms(a.LatencyMedian),
			ms(a.LatencyP95),
			ms(a.LatencyP99),
			ms(a.LatencyMax),
			ms(a.LatencyStdDev),
			fmt.Sprintf("%.2f", a.ThresholdPercent(10)),
			fmt.Sprintf("%.2f", a.ThresholdPercent(20)),
			strconv.Itoa(a.BurstCount),
		})
	}
	table.Render()
}

// WriteAnalysis 渲染单个目标的完整分析：概要、尾部阈值和突发簇
func WriteAnalysis(w io.Writer, target string, a core.SessionAnalysis) {
	kind := "live"
	if a.Final {
		kind = "final"
	}
	fmt.Fprintf(w, "Target: %s (%s)\n", target, kind)
	fmt.Fprintf(w, "Grade: %s  %s\n", a.QualityGrade, a.QualitySummary)
	fmt.Fprintln(w, "* latencies are in milliseconds (ms), intervals in seconds (s)")

	overview := newTable(w, []string{"Metric", "Value"})
	overview.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	overview.AppendBulk([][]string{
		{"Samples", strconv.Itoa(a.TotalSamples)},
		{"Successful", strconv.Itoa(a.SuccessfulSamples)},
		{"Lost", strconv.Itoa(a.LostSamples)},
		{"Loss (%)", fmt.Sprintf("%.2f", a.PacketLossPercent)},
		{"Duration", (time.Duration(a.DurationSeconds * float64(time.Second))).Round(time.Millisecond).String()},
		{"Interval Mean", fmt.Sprintf("%.3f", a.MeanIntervalSeconds)},
		{"Interval Median", fmt.Sprintf("%.3f", a.MedianIntervalSeconds)},
		{"Interval P95", fmt.Sprintf("%.3f", a.P95IntervalSeconds)},
		{"RTT Min", ms(a.LatencyMin)},
		{"RTT Mean", ms(a.LatencyMean)},
		{"RTT Median", ms(a.LatencyMedian)},
		{"RTT P95", ms(a.LatencyP95)},
		{"RTT P99", ms(a.LatencyP99)},
		{"RTT Max", ms(a.LatencyMax)},
		{"RTT StdDev", ms(a.LatencyStdDev)},
	})
	overview.Render()

	thresholds := newTable(w, []string{"Threshold\n(ms)", "Count\n(#)", "Share\n(%)"})
	for _, tc := range a.Thresholds {
		thresholds.Append([]string{
			fmt.Sprintf(">= %g", tc.ThresholdMs),
			strconv.Itoa(tc.Count),
			fmt.Sprintf("%.2f", tc.Percentage),
		})
	}
	thresholds.Render()

	fmt.Fprintf(w, "Bursts: %d  median size %.1f  max size %d  inter-burst median %ss  p95 %ss\n",
		a.BurstCount, a.MedianBurstSize, a.MaxBurstSize,
		optionalSeconds(a.MedianInterBurstSeconds), optionalSeconds(a.P95InterBurstSeconds))
	if len(a.Bursts) == 0 {
		return
	}

	bursts := newTable(w, []string{"#", "Start", "End", "Samples\n(#)", "Max\n(ms)", "Mean\n(ms)"})
	for _, b := range a.Bursts {
		bursts.Append([]string{
			strconv.Itoa(b.Index),
			time.UnixMilli(b.StartTimestamp).UTC().Format(time.RFC3339),
			time.UnixMilli(b.EndTimestamp).UTC().Format(time.RFC3339),
			strconv.Itoa(b.SampleCount),
			ms(b.MaxLatency),
			ms(b.MeanLatency),
		})
	}
	bursts.Render()
}
