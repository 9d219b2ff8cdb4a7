package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Kevin-Rudy/pingscope/pkg/analyzer"
	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestJSONLRoundTripKeepsLossAsNull(t *testing.T) {
	samples := []core.Sample{
		core.NewSample(1, 1000, 12.5),
		core.NewLostSample(2, 2000),
		core.NewSample(3, 3000, 0),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, "1.1.1.1", samples))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.JSONEq(t, `{"target":"1.1.1.1","timestamp":2000,"latency":null,"seq":2}`, lines[1])

	series, err := ReadJSONL(&buf)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Equal(t, "1.1.1.1", series[0].Target)
	if diff := cmp.Diff(samples, series[0].Samples); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}
	// 0ms是合法的成功样本，不能被当作丢包
	require.False(t, series[0].Samples[2].Lost())
}

func TestReadJSONLGroupsByTarget(t *testing.T) {
	input := `{"target":"b","timestamp":1,"latency":1,"seq":1}

{"target":"a","timestamp":1,"latency":2,"seq":1}
{"target":"b","timestamp":2,"latency":null,"seq":2}
{"timestamp":5,"latency":3,"seq":1}
`
	series, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.Equal(t, "b", series[0].Target)
	require.Len(t, series[0].Samples, 2)
	require.True(t, series[0].Samples[1].Lost())
	require.Equal(t, "a", series[1].Target)
	require.Equal(t, "", series[2].Target)
}

func TestReadJSONLReportsLineNumber(t *testing.T) {
	input := "{\"timestamp\":1,\"latency\":1,\"seq\":1}\nnot json\n"
	_, err := ReadJSONL(strings.NewReader(input))
	require.Error(t, err)
	require.Contains(t, err.Error(), "第2行")
}

func TestWriteSummary(t *testing.T) {
	samples := make([]core.Sample, 0, 10)
	for i := 0; i < 10; i++ {
		samples = append(samples, core.NewSample(int64(i+1), int64(i*1000), 5))
	}
	a := analyzer.Analyze(samples)

	var buf bytes.Buffer
	WriteSummary(&buf, []Row{{Target: "example.com", Analysis: a}})
	out := buf.String()
	require.Contains(t, out, "example.com")
	require.Contains(t, out, "5.000")
	require.Contains(t, out, "Grade")
}

func TestWriteAnalysisIncludesBursts(t *testing.T) {
	samples := []core.Sample{
		core.NewSample(1, 0, 5),
		core.NewSample(2, 1000, 25),
		core.NewSample(3, 2000, 30),
		core.NewSample(4, 3000, 5),
		core.NewLostSample(5, 4000),
	}
	a := analyzer.Analyze(samples)
	a.Final = true
	require.Equal(t, 1, a.BurstCount)

	var buf bytes.Buffer
	WriteAnalysis(&buf, "t", a)
	out := buf.String()
	require.Contains(t, out, "Target: t (final)")
	require.Contains(t, out, "Grade: "+string(a.QualityGrade))
	require.Contains(t, out, ">= 10")
	require.Contains(t, out, "Bursts: 1")
	require.Contains(t, out, "30.000")
}

func TestWriteAnalysisEmptySession(t *testing.T) {
	var buf bytes.Buffer
	WriteAnalysis(&buf, "t", analyzer.Analyze(nil))
	out := buf.String()
	require.Contains(t, out, "Target: t (live)")
	require.Contains(t, out, "Grade: F")
	require.NotContains(t, out, "Start")
}
