//go:build linux

package pinger

import (
	"net"
	"os"
)

// linuxCapability Linux平台能力实现
type linuxCapability struct{}

// hasPrivilegedAccess 检查CAP_NET_RAW或root权限
func (l *linuxCapability) hasPrivilegedAccess() bool {
	if os.Geteuid() == 0 {
		return true
	}

	// 能打开原始套接字即说明具有CAP_NET_RAW
	conn, err := net.Dial("ip4:icmp", "127.0.0.1")
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// unprivilegedOpener 使用DGRAM ICMP套接字
func (l *linuxCapability) unprivilegedOpener(config *Config) (opener, error) {
	return func(target string) (targetProbe, error) {
		return newDgramProbe(target, config)
	}, nil
}

// getPlatformCapability 获取Linux平台的能力实现
func getPlatformCapability() platformCapability {
	return &linuxCapability{}
}
