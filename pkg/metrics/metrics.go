// Package metrics 定义会话运行时导出的Prometheus指标
package metrics

import (
	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pingscope_build_info",
			Help: "Build information of pingscope",
		},
		[]string{"version"},
	)

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pingscope_sessions_active",
		Help: "Number of monitoring sessions currently running",
	})

	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pingscope_samples_total",
		Help: "Total number of samples processed per target",
	}, []string{"target", "result"})

	DeviationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pingscope_deviation_events_total",
		Help: "Total number of deviation events emitted per target",
	}, []string{"target", "type"})

	RollingLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pingscope_rolling_latency_ms",
		Help: "Rolling window latency statistics in milliseconds",
	}, []string{"target", "stat"})

	PacketLossPercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pingscope_packet_loss_percent",
		Help: "Session-wide packet loss percentage",
	}, []string{"target"})

	QualityGrade = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pingscope_quality_grade",
		Help: "Latest session quality grade, 1 for the current grade and 0 otherwise",
	}, []string{"target", "grade"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pingscope_analysis_duration_seconds",
		Help:    "Duration of session analysis runs",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 0.1ms .. ~1.6s
	}, []string{"kind"})
)

var grades = []core.QualityGrade{core.GradeA, core.GradeB, core.GradeC, core.GradeD, core.GradeF}

// ObserveSample 记录一个样本的处理结果
func ObserveSample(target string, sample core.Sample, st core.RollingStats, events []core.DeviationEvent) {
	result := "ok"
	if sample.Lost() {
		result = "lost"
	}
	SamplesTotal.WithLabelValues(target, result).Inc()

	for _, ev := range events {
		DeviationEventsTotal.WithLabelValues(target, string(ev.Type)).Inc()
	}

	RollingLatency.WithLabelValues(target, "mean").Set(st.Mean)
	RollingLatency.WithLabelValues(target, "median").Set(st.Median)
	RollingLatency.WithLabelValues(target, "p95").Set(st.P95)
	RollingLatency.WithLabelValues(target, "p99").Set(st.P99)
	RollingLatency.WithLabelValues(target, "stddev").Set(st.StdDev)
	RollingLatency.WithLabelValues(target, "jitter").Set(st.Jitter)
	PacketLossPercent.WithLabelValues(target).Set(st.PacketLossRate)
}

// ObserveGrade 记录最新的质量评级
func ObserveGrade(target string, grade core.QualityGrade) {
	for _, g := range grades {
		v := 0.0
		if g == grade {
			v = 1
		}
		QualityGrade.WithLabelValues(target, string(g)).Set(v)
	}
}
