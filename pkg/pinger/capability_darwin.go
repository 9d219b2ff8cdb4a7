//go:build darwin

package pinger

import (
	"errors"
	"os"
)

// darwinCapability macOS平台能力实现
type darwinCapability struct{}

// hasPrivilegedAccess 检查root权限
func (d *darwinCapability) hasPrivilegedAccess() bool {
	return os.Geteuid() == 0
}

// unprivilegedOpener macOS的原生引擎需要root，可改用probing引擎
func (d *darwinCapability) unprivilegedOpener(config *Config) (opener, error) {
	return nil, errors.New("macOS的native引擎需要root权限，请使用sudo运行或改用 --engine probing")
}

// getPlatformCapability 获取macOS平台的能力实现
func getPlatformCapability() platformCapability {
	return &darwinCapability{}
}
