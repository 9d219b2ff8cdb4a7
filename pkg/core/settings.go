// Package core 检测配置定义
package core

import (
	"errors"
	"fmt"
	"math"
)

// DetectionMethod 延迟尖峰检测策略
type DetectionMethod string

const (
	MethodIQR    DetectionMethod = "iqr"
	MethodZScore DetectionMethod = "zscore"
	MethodManual DetectionMethod = "manual"
)

// Valid 判断检测策略是否可识别
func (m DetectionMethod) Valid() bool {
	switch m {
	case MethodIQR, MethodZScore, MethodManual:
		return true
	}
	return false
}

// DetectionSettings 偏差检测配置，会话中可以被部分更新
type DetectionSettings struct {
	Method                 DetectionMethod `json:"detectionMethod" yaml:"detectionMethod"`
	IQRMultiplier          float64         `json:"iqrMultiplier" yaml:"iqrMultiplier"`
	ZScoreThreshold        float64         `json:"zScoreThreshold" yaml:"zScoreThreshold"`
	ManualLatencyThreshold *float64        `json:"manualLatencyThreshold" yaml:"manualLatencyThreshold"`
	ManualJitterThreshold  *float64        `json:"manualJitterThreshold" yaml:"manualJitterThreshold"`
	RollingWindowSize      int             `json:"rollingWindowSize" yaml:"rollingWindowSize"`
}

// DefaultDetectionSettings 返回默认检测配置
func DefaultDetectionSettings() DetectionSettings {
	return DetectionSettings{
		Method:            MethodIQR,
		IQRMultiplier:     1.5,
		ZScoreThreshold:   3.0,
		RollingWindowSize: 100,
	}
}

// Validate 验证配置的合理性
// 检测器本身对非法配置降级为“不触发”，这里供CLI等入口提前报错
func (s DetectionSettings) Validate() error {
	if !s.Method.Valid() {
		return fmt.Errorf("未知的检测方法: %q", s.Method)
	}
	if !positiveFinite(s.IQRMultiplier) {
		return errors.New("IQR倍数必须为正数")
	}
	if !positiveFinite(s.ZScoreThreshold) {
		return errors.New("Z分数阈值必须为正数")
	}
	if s.ManualLatencyThreshold != nil && !positiveFinite(*s.ManualLatencyThreshold) {
		return errors.New("手动延迟阈值必须为正数")
	}
	if s.ManualJitterThreshold != nil && !positiveFinite(*s.ManualJitterThreshold) {
		return errors.New("手动抖动阈值必须为正数")
	}
	if s.RollingWindowSize < 1 {
		return errors.New("滚动窗口大小必须大于0")
	}
	return nil
}

// SettingsPatch 表示检测配置的部分更新，nil字段保持不变
type SettingsPatch struct {
	Method                 *DetectionMethod `json:"detectionMethod,omitempty" yaml:"detectionMethod,omitempty"`
	IQRMultiplier          *float64         `json:"iqrMultiplier,omitempty" yaml:"iqrMultiplier,omitempty"`
	ZScoreThreshold        *float64         `json:"zScoreThreshold,omitempty" yaml:"zScoreThreshold,omitempty"`
	ManualLatencyThreshold *float64         `json:"manualLatencyThreshold,omitempty" yaml:"manualLatencyThreshold,omitempty"`
	ManualJitterThreshold  *float64         `json:"manualJitterThreshold,omitempty" yaml:"manualJitterThreshold,omitempty"`
	RollingWindowSize      *int             `json:"rollingWindowSize,omitempty" yaml:"rollingWindowSize,omitempty"`

	// 显式清除手动阈值
	ClearManualLatencyThreshold bool `json:"clearManualLatencyThreshold,omitempty" yaml:"clearManualLatencyThreshold,omitempty"`
	ClearManualJitterThreshold  bool `json:"clearManualJitterThreshold,omitempty" yaml:"clearManualJitterThreshold,omitempty"`
}

// Merge 将部分更新合并进当前配置，返回新配置
func (s DetectionSettings) Merge(p SettingsPatch) DetectionSettings {
	out := s
	if p.Method != nil {
		out.Method = *p.Method
	}
	if p.IQRMultiplier != nil {
		out.IQRMultiplier = *p.IQRMultiplier
	}
	if p.ZScoreThreshold != nil {
		out.ZScoreThreshold = *p.ZScoreThreshold
	}
	if p.ManualLatencyThreshold != nil {
		v := *p.ManualLatencyThreshold
		out.ManualLatencyThreshold = &v
	}
	if p.ClearManualLatencyThreshold {
		out.ManualLatencyThreshold = nil
	}
	if p.ManualJitterThreshold != nil {
		v := *p.ManualJitterThreshold
		out.ManualJitterThreshold = &v
	}
	if p.ClearManualJitterThreshold {
		out.ManualJitterThreshold = nil
	}
	if p.RollingWindowSize != nil {
		out.RollingWindowSize = *p.RollingWindowSize
	}
	return out
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
