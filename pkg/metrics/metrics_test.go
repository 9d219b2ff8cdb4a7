package metrics

import (
	"testing"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveSample(t *testing.T) {
	target := "metrics-test-sample"
	st := core.RollingStats{Mean: 12, P95: 20, Jitter: 1.5, PacketLossRate: 25, SampleCount: 3}

	ObserveSample(target, core.NewSample(1, 1, 12), st, nil)
	ObserveSample(target, core.NewLostSample(2, 2), st, []core.DeviationEvent{{Type: core.DeviationPacketLoss}})

	require.Equal(t, 1.0, testutil.ToFloat64(SamplesTotal.WithLabelValues(target, "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(SamplesTotal.WithLabelValues(target, "lost")))
	require.Equal(t, 1.0, testutil.ToFloat64(DeviationEventsTotal.WithLabelValues(target, "packet_loss")))
	require.Equal(t, 20.0, testutil.ToFloat64(RollingLatency.WithLabelValues(target, "p95")))
	require.Equal(t, 25.0, testutil.ToFloat64(PacketLossPercent.WithLabelValues(target)))
}

func TestObserveGrade(t *testing.T) {
	target := "metrics-test-grade"

	ObserveGrade(target, core.GradeA)
	require.Equal(t, 1.0, testutil.ToFloat64(QualityGrade.WithLabelValues(target, "A")))

	ObserveGrade(target, core.GradeC)
	require.Equal(t, 0.0, testutil.ToFloat64(QualityGrade.WithLabelValues(target, "A")))
	require.Equal(t, 1.0, testutil.ToFloat64(QualityGrade.WithLabelValues(target, "C")))
}
