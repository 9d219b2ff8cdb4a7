// Package pinger - 平台能力接口定义
package pinger

// platformCapability 定义平台能力接口
// 特权模式所有平台统一使用raw socket，非特权模式由各平台自行实现
type platformCapability interface {
	// hasPrivilegedAccess 检查是否有特权访问能力
	// Windows: 管理员权限
	// Linux: CAP_NET_RAW或root
	// macOS: root
	hasPrivilegedAccess() bool

	// unprivilegedOpener 返回非特权模式的探测器构造函数
	unprivilegedOpener(config *Config) (opener, error)
}
