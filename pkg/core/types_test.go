package core

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSampleLost 测试丢包样本与成功样本的区分
func TestSampleLost(t *testing.T) {
	s := NewSample(1, 1000, 12.5)
	require.False(t, s.Lost())
	v, ok := s.Value()
	require.True(t, ok)
	require.Equal(t, 12.5, v)

	// 延迟为0是合法的成功样本，而不是丢包
	zero := NewSample(2, 1001, 0)
	require.False(t, zero.Lost())

	lost := NewLostSample(3, 1002)
	require.True(t, lost.Lost())
	_, ok = lost.Value()
	require.False(t, ok)
}

// TestSampleJSON 测试丢包样本序列化为null
func TestSampleJSON(t *testing.T) {
	data, err := json.Marshal(NewLostSample(7, 42))
	require.NoError(t, err)
	require.JSONEq(t, `{"timestamp":42,"latency":null,"seq":7}`, string(data))

	var decoded Sample
	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":5,"latency":3.5,"seq":1}`), &decoded))
	v, ok := decoded.Value()
	require.True(t, ok)
	require.Equal(t, 3.5, v)
}

// TestPingResultLost 测试PingResult的超时判定
func TestPingResultLost(t *testing.T) {
	require.True(t, PingResult{Latency: math.NaN()}.Lost())
	require.True(t, PingResult{Latency: math.Inf(1)}.Lost())
	require.False(t, PingResult{Latency: 15.5, SendTime: time.Now()}.Lost())
}

// TestSettingsValidate 测试检测配置验证
func TestSettingsValidate(t *testing.T) {
	s := DefaultDetectionSettings()
	require.NoError(t, s.Validate())

	bad := s
	bad.Method = "median"
	require.Error(t, bad.Validate())

	bad = s
	bad.IQRMultiplier = math.NaN()
	require.Error(t, bad.Validate())

	bad = s
	bad.RollingWindowSize = 0
	require.Error(t, bad.Validate())

	neg := -1.0
	bad = s
	bad.ManualJitterThreshold = &neg
	require.Error(t, bad.Validate())
}

// TestSettingsMerge 测试部分更新只修改指定字段
func TestSettingsMerge(t *testing.T) {
	s := DefaultDetectionSettings()
	method := MethodManual
	threshold := 15.0
	size := 50

	merged := s.Merge(SettingsPatch{
		Method:                 &method,
		ManualLatencyThreshold: &threshold,
		RollingWindowSize:      &size,
	})
	require.Equal(t, MethodManual, merged.Method)
	require.Equal(t, 15.0, *merged.ManualLatencyThreshold)
	require.Equal(t, 50, merged.RollingWindowSize)
	require.Equal(t, s.IQRMultiplier, merged.IQRMultiplier)
	require.Equal(t, s.ZScoreThreshold, merged.ZScoreThreshold)

	// 修改补丁中的值不能影响已合并的配置
	threshold = 99
	require.Equal(t, 15.0, *merged.ManualLatencyThreshold)

	cleared := merged.Merge(SettingsPatch{ClearManualLatencyThreshold: true})
	require.Nil(t, cleared.ManualLatencyThreshold)
	require.NotNil(t, merged.ManualLatencyThreshold)
}

// TestThresholdPercent 测试按阈值查找百分比
func TestThresholdPercent(t *testing.T) {
	a := SessionAnalysis{Thresholds: []ThresholdCount{
		{ThresholdMs: 10, Count: 2, Percentage: 20},
		{ThresholdMs: 20, Count: 1, Percentage: 10},
	}}
	require.Equal(t, 20.0, a.ThresholdPercent(10))
	require.Equal(t, 10.0, a.ThresholdPercent(20))
	require.Equal(t, 0.0, a.ThresholdPercent(50))
}
