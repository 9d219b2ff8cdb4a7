package window

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func feed(e *Engine, values ...float64) core.RollingStats {
	var st core.RollingStats
	for _, v := range values {
		st = e.Update(ptr(v))
	}
	return st
}

func TestEngine_EmptyWindow(t *testing.T) {
	t.Parallel()

	e := New(10)
	st := e.Stats()
	require.Equal(t, core.RollingStats{}, st)

	// 只有丢包时窗口仍为空
	st = e.Update(nil)
	require.Equal(t, 0, st.SampleCount)
	require.False(t, math.IsNaN(st.Mean))
	require.False(t, math.IsNaN(st.StdDev))
}

func TestEngine_NearestRankFiveValues(t *testing.T) {
	t.Parallel()

	e := New(10)
	st := feed(e, 10, 20, 30, 40, 50)

	require.Equal(t, 5, st.SampleCount)
	require.Equal(t, 30.0, st.Mean)
	require.Equal(t, 30.0, st.Median)
	require.Equal(t, 20.0, st.Q1)
	require.Equal(t, 40.0, st.Q3)
	require.Equal(t, 20.0, st.IQR)
	require.Equal(t, 50.0, st.P95)
	require.Equal(t, 50.0, st.P99)
	require.Equal(t, 10.0, st.Min)
	require.Equal(t, 50.0, st.Max)
	require.InDelta(t, math.Sqrt(200), st.StdDev, 1e-12)
	require.Equal(t, 10.0, st.Jitter)
}

func TestEngine_EvenMedianAverages(t *testing.T) {
	t.Parallel()

	e := New(10)
	st := feed(e, 40, 10, 30, 20)
	require.Equal(t, 25.0, st.Median)
	// floor(4*0.25)=1, floor(4*0.75)=3
	require.Equal(t, 20.0, st.Q1)
	require.Equal(t, 40.0, st.Q3)
}

func TestEngine_EvictsOldest(t *testing.T) {
	t.Parallel()

	e := New(3)
	st := feed(e, 100, 1, 2, 3)
	require.Equal(t, 3, st.SampleCount)
	require.Equal(t, 1.0, st.Min)
	require.Equal(t, 3.0, st.Max)

	// 抖动差值同样受窗口大小约束
	require.Equal(t, 3, len(e.deltas))
	require.InDelta(t, (99.0+1+1)/3, st.Jitter, 1e-12)
	st = e.Update(ptr(4))
	require.Equal(t, 1.0, st.Jitter)
}

func TestEngine_LossResetsJitterContinuity(t *testing.T) {
	t.Parallel()

	e := New(10)
	feed(e, 10, 12)
	st := e.Update(nil)
	require.Equal(t, 2, st.SampleCount)
	require.Equal(t, 2.0, st.Jitter)

	// 丢包后的第一个样本不产生差值，50 和 12 之间不计算抖动
	st = e.Update(ptr(50))
	require.Equal(t, 3, st.SampleCount)
	require.Equal(t, 2.0, st.Jitter)

	st = e.Update(ptr(54))
	require.Equal(t, 3.0, st.Jitter)
}

func TestEngine_Resize(t *testing.T) {
	t.Parallel()

	e := New(5)
	feed(e, 1, 2, 3, 4, 5)
	e.Resize(2)
	st := e.Stats()
	require.Equal(t, 2, st.SampleCount)
	require.Equal(t, 4.0, st.Min)
	require.Equal(t, 5.0, st.Max)

	// lastLatency 保留，缩小窗口后抖动继续计算
	st = e.Update(ptr(7))
	require.Equal(t, 1.5, st.Jitter)

	e.Resize(0)
	require.Equal(t, 1, e.Size())
}

func TestEngine_OrderInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for _, size := range []int{1, 2, 3, 7, 20, 100} {
		e := New(size)
		for i := 0; i < 500; i++ {
			var st core.RollingStats
			if rng.Intn(10) == 0 {
				st = e.Update(nil)
			} else {
				st = e.Update(ptr(rng.ExpFloat64() * 20))
			}
			if st.SampleCount == 0 {
				continue
			}
			require.LessOrEqual(t, st.Q1, st.Median)
			require.LessOrEqual(t, st.Median, st.Q3)
			require.LessOrEqual(t, st.Min, st.P95)
			require.LessOrEqual(t, st.P95, st.P99)
			require.LessOrEqual(t, st.P99, st.Max)
			require.LessOrEqual(t, st.SampleCount, size)
		}
	}
}
