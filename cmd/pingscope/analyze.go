package main

import (
	"fmt"
	"os"

	"github.com/Kevin-Rudy/pingscope/pkg/analyzer"
	"github.com/Kevin-Rudy/pingscope/pkg/report"
	"github.com/urfave/cli/v2"
)

// runAnalyze 读取导出的样本历史，重新计算每个目标的最终分析
func runAnalyze(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("错误: 必须指定一个JSONL文件\n使用方法: pingscope analyze <文件>", 1)
	}
	path := c.Args().First()

	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法打开文件: %v", err), 1)
	}
	defer f.Close()

	series, err := report.ReadJSONL(f)
	if err != nil {
		return cli.Exit(fmt.Sprintf("读取 %s 失败: %v", path, err), 1)
	}
	if len(series) == 0 {
		return cli.Exit(fmt.Sprintf("%s 中没有样本", path), 1)
	}

	w := c.App.Writer
	rows := make([]report.Row, 0, len(series))
	for i, s := range series {
		a := analyzer.Analyze(s.Samples)
		a.Final = true
		if i > 0 {
			fmt.Fprintln(w)
		}
		report.WriteAnalysis(w, s.Target, a)
		rows = append(rows, report.Row{Target: s.Target, Analysis: a})
	}

	if len(rows) > 1 {
		fmt.Fprintln(w, "\n汇总:")
		report.WriteSummary(w, rows)
	}
	return nil
}
