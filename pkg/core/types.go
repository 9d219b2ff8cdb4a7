// Package core 定义了延迟质量引擎的核心数据结构和数据源接口
// 这些类型在探测器、统计引擎、偏差检测器和会话分析器之间传递
package core

import (
	"math"
	"time"
)

// PingResult 表示探测器产生的单次ping原始结果
// 用于在数据源和会话之间传递单次ping的结果
type PingResult struct {
	Identifier  string    // 目标标识符（如IP地址、域名等）
	Seq         int64     // 探测序列号，由探测器单调递增分配；0表示未分配
	Latency     float64   // 延迟(ms)。超时或失败时为 math.NaN()
	SendTime    time.Time // ping发送时间，作为样本时间戳
	ReceiveTime time.Time // ping接收时间，超时时为零值
}

// Lost 判断该结果是否为丢包
func (r PingResult) Lost() bool {
	return math.IsNaN(r.Latency) || math.IsInf(r.Latency, 0) || r.Latency < 0
}

// Sample 表示一个不可变的延迟样本
// Latency 为 nil 表示丢包/超时，绝不用0表示丢包
type Sample struct {
	Timestamp int64    `json:"timestamp"` // 毫秒时间戳
	Latency   *float64 `json:"latency"`   // 延迟(ms)，nil表示丢包
	Seq       int64    `json:"seq"`       // 序列号
}

// NewSample 创建一个成功样本
func NewSample(seq int64, timestamp int64, latency float64) Sample {
	v := latency
	return Sample{Timestamp: timestamp, Latency: &v, Seq: seq}
}

// NewLostSample 创建一个丢包样本
func NewLostSample(seq int64, timestamp int64) Sample {
	return Sample{Timestamp: timestamp, Seq: seq}
}

// Lost 判断样本是否为丢包
func (s Sample) Lost() bool {
	return s.Latency == nil
}

// Value 返回延迟值和是否成功
func (s Sample) Value() (float64, bool) {
	if s.Latency == nil {
		return 0, false
	}
	return *s.Latency, true
}

// RollingStats 表示滚动窗口的统计结果，每次窗口更新后整体重新计算
type RollingStats struct {
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	StdDev         float64 `json:"stdDev"` // 总体标准差（除以n）
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	P95            float64 `json:"p95"`
	P99            float64 `json:"p99"`
	Q1             float64 `json:"q1"`
	Q3             float64 `json:"q3"`
	IQR            float64 `json:"iqr"`
	Jitter         float64 `json:"jitter"`
	SampleCount    int     `json:"sampleCount"`
	PacketLossRate float64 `json:"packetLossRate"` // 由调用方按整个会话计算（百分比）
}

// DeviationType 偏差事件类型
type DeviationType string

const (
	DeviationLatencySpike DeviationType = "latency_spike"
	DeviationPacketLoss   DeviationType = "packet_loss"
	DeviationJitter       DeviationType = "jitter"
)

// DeviationEvent 表示检测器产生的一次偏差事件
// packet_loss 事件的 Value 和 Threshold 约定都为0
type DeviationEvent struct {
	ID        string        `json:"id"`
	Timestamp int64         `json:"timestamp"`
	Type      DeviationType `json:"type"`
	Value     float64       `json:"value"`
	Threshold float64       `json:"threshold"`
}

// LatencyBurst 表示一段连续的尖峰样本簇
type LatencyBurst struct {
	Index          int     `json:"index"`
	StartTimestamp int64   `json:"startTimestamp"`
	EndTimestamp   int64   `json:"endTimestamp"`
	SampleCount    int     `json:"sampleCount"`
	MaxLatency     float64 `json:"maxLatency"`
	MeanLatency    float64 `json:"meanLatency"`
}

// ThresholdCount 表示某个尾部风险阈值的命中统计
type ThresholdCount struct {
	ThresholdMs float64 `json:"thresholdMs"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// QualityGrade 会话质量等级
type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
	GradeD QualityGrade = "D"
	GradeF QualityGrade = "F"
)

// SessionAnalysis 表示一次会话分析的完整结果，是值对象
type SessionAnalysis struct {
	// 样本计数
	TotalSamples      int     `json:"totalSamples"`
	SuccessfulSamples int     `json:"successfulSamples"`
	LostSamples       int     `json:"lostSamples"`
	PacketLossPercent float64 `json:"packetLossPercent"`

	// 时间指标（秒）
	DurationSeconds       float64 `json:"durationSeconds"`
	MeanIntervalSeconds   float64 `json:"meanIntervalSeconds"`
	MedianIntervalSeconds float64 `json:"medianIntervalSeconds"`
	P95IntervalSeconds    float64 `json:"p95IntervalSeconds"`

	// 延迟分布（毫秒）
	LatencyMin    float64 `json:"latencyMin"`
	LatencyMean   float64 `json:"latencyMean"`
	LatencyMedian float64 `json:"latencyMedian"`
	LatencyP95    float64 `json:"latencyP95"`
	LatencyP99    float64 `json:"latencyP99"`
	LatencyMax    float64 `json:"latencyMax"`
	LatencyStdDev float64 `json:"latencyStdDev"`

	// 尾部风险阈值
	Thresholds []ThresholdCount `json:"thresholds"`

	// 突发簇汇总
	BurstCount              int            `json:"burstCount"`
	MedianBurstSize         float64        `json:"medianBurstSize"`
	MaxBurstSize            int            `json:"maxBurstSize"`
	MedianInterBurstSeconds *float64       `json:"medianInterBurstSeconds"`
	P95InterBurstSeconds    *float64       `json:"p95InterBurstSeconds"`
	Bursts                  []LatencyBurst `json:"bursts"`

	// 质量评级
	QualityGrade   QualityGrade `json:"qualityGrade"`
	QualitySummary string       `json:"qualitySummary"`

	// Final 为 true 表示会话已完全停止后计算，只有最终分析值得持久化
	Final bool `json:"final"`
}

// ThresholdPercent 返回指定阈值的百分比，不存在时返回0
func (a SessionAnalysis) ThresholdPercent(thresholdMs float64) float64 {
	for _, tc := range a.Thresholds {
		if tc.ThresholdMs == thresholdMs {
			return tc.Percentage
		}
	}
	return 0
}

// DataSource 定义了探测器（Prober）的标准接口
// 任何探测实现都应该实现这个接口，核心引擎不关心测量方式
type DataSource interface {
	// DataStream 返回一个只读通道，用于接收实时的ping结果
	// 实现者应该在独立的goroutine中持续发送PingResult数据到这个通道
	DataStream() <-chan PingResult

	// Start 启动数据收集，非阻塞
	Start()

	// Stop 停止数据收集并清理资源
	// 调用此方法后，DataStream()返回的通道应该被关闭
	Stop()
}
