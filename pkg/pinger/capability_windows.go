//go:build windows

package pinger

import "golang.org/x/sys/windows"

// windowsCapability Windows平台能力实现
type windowsCapability struct{}

// hasPrivilegedAccess 检查当前进程是否属于管理员组
func (w *windowsCapability) hasPrivilegedAccess() bool {
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	isMember, err := windows.Token(0).IsMember(sid)
	if err != nil {
		return false
	}
	return isMember
}

// unprivilegedOpener 使用Icmp.dll，每个目标独占一个ICMP句柄
func (w *windowsCapability) unprivilegedOpener(config *Config) (opener, error) {
	if err := icmpDLL.Load(); err != nil {
		return nil, err
	}
	return func(target string) (targetProbe, error) {
		return newWindowsProbe(target, config)
	}, nil
}

// getPlatformCapability 获取Windows平台的能力实现
func getPlatformCapability() platformCapability {
	return &windowsCapability{}
}
