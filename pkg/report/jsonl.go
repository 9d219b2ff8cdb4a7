// Package report 提供会话历史的离线读写和分析结果的表格渲染
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
)

// maxLineSize 单行JSON的最大长度
const maxLineSize = 1 << 20

// record JSON-lines文件中的一行，样本字段平铺
type record struct {
	Target string `json:"target,omitempty"`
	core.Sample
}

// Series 单个目标的样本序列，按文件中的出现顺序
type Series struct {
	Target  string
	Samples []core.Sample
}

// WriteJSONL 以每行一个JSON对象的格式写出样本历史
func WriteJSONL(w io.Writer, target string, samples []core.Sample) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, s := range samples {
		if err := enc.Encode(record{Target: target, Sample: s}); err != nil {
			return fmt.Errorf("写入样本 seq=%d 失败: %w", s.Seq, err)
		}
	}
	return bw.Flush()
}

// ReadJSONL 读取样本历史，按目标分组，目标顺序为首次出现的顺序
// 空行被跳过，任何无法解析的行都会返回带行号的错误
func ReadJSONL(r io.Reader) ([]Series, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var series []Series
	index := make(map[string]int)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("第%d行解析失败: %w", line, err)
		}

		i, ok := index[rec.Target]
		if !ok {
			i = len(series)
			index[rec.Target] = i
			series = append(series, Series{Target: rec.Target})
		}
		series[i].Samples = append(series[i].Samples, rec.Sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取第%d行后失败: %w", line, err)
	}
	return series, nil
}
