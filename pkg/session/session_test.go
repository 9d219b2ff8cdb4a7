package session

import (
	"math"
	"testing"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func result(seq int64, at time.Time, latency float64) core.PingResult {
	return core.PingResult{Identifier: "t", Seq: seq, Latency: latency, SendTime: at}
}

func TestSessionRecordDetectsSpikeAfterWarmup(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New("t", core.DefaultDetectionSettings())

	for i := 0; i < 10; i++ {
		u := s.Record(result(int64(i+1), start.Add(time.Duration(i)*time.Second), 10))
		require.Empty(t, u.Events, "sample %d", i+1)
	}

	u := s.Record(result(11, start.Add(10*time.Second), 50))
	require.Equal(t, 11, u.Stats.SampleCount)
	require.Len(t, u.Events, 2)
	require.Equal(t, core.DeviationLatencySpike, u.Events[0].Type)
	require.Equal(t, 50.0, u.Events[0].Value)
	require.Equal(t, 11.0, u.Events[0].Threshold)
	require.Equal(t, core.DeviationJitter, u.Events[1].Type)
	require.Equal(t, 40.0, u.Events[1].Value)

	require.Len(t, s.History(), 11)
	require.Len(t, s.Events(), 2)
}

func TestSessionPacketLoss(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New("t", core.DefaultDetectionSettings())

	s.Record(result(1, start, 10))
	u := s.Record(result(2, start.Add(time.Second), math.NaN()))

	require.True(t, u.Sample.Lost())
	require.Equal(t, start.Add(time.Second).UnixMilli(), u.Sample.Timestamp)
	require.Len(t, u.Events, 1)
	require.Equal(t, core.DeviationPacketLoss, u.Events[0].Type)
	require.Zero(t, u.Events[0].Value)
	require.Zero(t, u.Events[0].Threshold)
	require.Equal(t, 50.0, u.Stats.PacketLossRate)
	// 丢包不进入窗口
	require.Equal(t, 1, u.Stats.SampleCount)
}

func TestSessionFillsMissingSeqAndTimestamp(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := New("t", core.DefaultDetectionSettings(), WithClock(clock))

	u1 := s.Record(core.PingResult{Identifier: "t", Latency: 10})
	clock.Advance(time.Second)
	u2 := s.Record(core.PingResult{Identifier: "t", Latency: 12})

	require.Equal(t, int64(1), u1.Sample.Seq)
	require.Equal(t, int64(2), u2.Sample.Seq)
	require.Equal(t, clock.Now().Add(-time.Second).UnixMilli(), u1.Sample.Timestamp)
	require.Equal(t, clock.Now().UnixMilli(), u2.Sample.Timestamp)
}

func TestSessionUpdateSettingsResizesWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New("t", core.DefaultDetectionSettings())
	for i := 0; i < 20; i++ {
		s.Record(result(int64(i+1), start.Add(time.Duration(i)*time.Second), float64(i+1)))
	}

	size := 5
	method := core.MethodZScore
	settings := s.UpdateSettings(core.SettingsPatch{RollingWindowSize: &size, Method: &method})
	require.Equal(t, 5, settings.RollingWindowSize)
	require.Equal(t, core.MethodZScore, s.Settings().Method)
	// IQR倍数保持不变
	require.Equal(t, 1.5, s.Settings().IQRMultiplier)

	u := s.Record(result(21, start.Add(20*time.Second), 21))
	require.Equal(t, 5, u.Stats.SampleCount)
	require.Equal(t, 17.0, u.Stats.Min)
	// 历史不受窗口大小影响
	require.Len(t, s.History(), 21)
}

func TestSessionAnalyzeAndFinish(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New("t", core.DefaultDetectionSettings())
	for i := 0; i < 10; i++ {
		s.Record(result(int64(i+1), start.Add(time.Duration(i)*time.Second), 5))
	}

	live := s.Analyze()
	require.False(t, live.Final)
	require.Equal(t, 10, live.TotalSamples)
	require.Equal(t, core.GradeA, live.QualityGrade)

	report := s.Finish()
	require.True(t, report.Analysis.Final)
	require.Equal(t, "t", report.Target)
	require.Len(t, report.History, 10)
	require.Empty(t, report.Events)
	require.Equal(t, 9.0, report.Analysis.DurationSeconds)
}

func TestSessionHistoryIsSnapshot(t *testing.T) {
	s := New("t", core.DefaultDetectionSettings())
	s.Record(result(1, time.Unix(1, 0), 10))

	h := s.History()
	h[0].Seq = 99
	require.Equal(t, int64(1), s.History()[0].Seq)
}
