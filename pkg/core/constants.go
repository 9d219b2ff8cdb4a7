package core

// 以下常量属于对外契约，下游报告和导出依赖这些精确值

// TailRiskThresholdsMs 尾部风险阈值(ms)
var TailRiskThresholdsMs = []float64{10, 20, 50, 100}

const (
	// BurstSpikeThresholdMs 突发簇的尖峰样本阈值，与尾部风险的10ms阈值相互独立
	BurstSpikeThresholdMs = 10.0

	// BurstGapMs 相邻尖峰样本的最大间隔，超过则开启新的突发簇
	BurstGapMs = 5000

	// WarmupSamples 少于该数量的成功样本时不做检测
	WarmupSamples = 10

	// IQRFloorMarginMs IQR阈值相对中位数的最小余量
	IQRFloorMarginMs = 1.0

	// JitterFloorMs 自动抖动阈值的下限
	JitterFloorMs = 2.0
)
