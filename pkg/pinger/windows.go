//go:build windows

// Package pinger - Windows非特权模式实现
// 使用Icmp.dll系统调用，仅支持IPv4
package pinger

import (
	"context"
	"errors"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	icmpDLL = windows.NewLazySystemDLL("Icmp.dll")

	icmpCreateFile  = icmpDLL.NewProc("IcmpCreateFile")
	icmpCloseHandle = icmpDLL.NewProc("IcmpCloseHandle")
	icmpSendEcho    = icmpDLL.NewProc("IcmpSendEcho")
)

// icmpEchoReply 对应Windows的ICMP_ECHO_REPLY结构体
type icmpEchoReply struct {
	Address       uint32
	Status        uint32
	RoundTripTime uint32
	DataSize      uint16
	Reserved      uint16
	Data          uintptr
	Options       icmpOptions
}

// icmpOptions 对应Windows的IP_OPTION_INFORMATION结构体
type icmpOptions struct {
	Ttl         uint8
	Tos         uint8
	Flags       uint8
	OptionsSize uint8
	OptionsData uintptr
}

// windowsProbe 基于Icmp.dll的探测器，每个目标独占一个句柄
type windowsProbe struct {
	handle   syscall.Handle
	destAddr uint32
	timeout  time.Duration
}

// newWindowsProbe 解析目标并创建ICMP句柄
func newWindowsProbe(target string, config *Config) (targetProbe, error) {
	if config.IPVersion != 4 {
		return nil, errors.New("Windows ICMP API仅支持IPv4，请以管理员身份运行以使用IPv6")
	}
	dst, err := config.ResolveTarget(target)
	if err != nil {
		return nil, err
	}

	ret, _, callErr := icmpCreateFile.Call()
	if ret == 0 || ret == uintptr(syscall.InvalidHandle) {
		return nil, callErr
	}

	// 网络字节序的IPv4地址
	ip := dst.IP.To4()
	return &windowsProbe{
		handle:   syscall.Handle(ret),
		destAddr: uint32(ip[0]) | uint32(ip[1])<<8 | uint32(ip[2])<<16 | uint32(ip[3])<<24,
		timeout:  config.Timeout,
	}, nil
}

// ping IcmpSendEcho是阻塞调用，最长等待配置的超时时间
func (p *windowsProbe) ping(_ context.Context, _ int) reply {
	replyBuffer := make([]byte, unsafe.Sizeof(icmpEchoReply{})+uintptr(len(payload))+8)

	sent := time.Now()
	ret, _, _ := icmpSendEcho.Call(
		uintptr(p.handle),
		uintptr(p.destAddr),
		uintptr(unsafe.Pointer(&payload[0])),
		uintptr(len(payload)),
		0,
		uintptr(unsafe.Pointer(&replyBuffer[0])),
		uintptr(len(replyBuffer)),
		uintptr(uint32(p.timeout.Milliseconds())),
	)
	received := time.Now()

	if ret == 0 {
		return lostReply(sent)
	}

	r := (*icmpEchoReply)(unsafe.Pointer(&replyBuffer[0]))
	if r.Status != 0 { // IP_SUCCESS
		return lostReply(sent)
	}

	// API返回的往返时间只有毫秒精度，为0时使用本地计时
	rtt := received.Sub(sent)
	if r.RoundTripTime > 0 {
		rtt = time.Duration(r.RoundTripTime) * time.Millisecond
	}
	return okReply(sent, rtt)
}

func (p *windowsProbe) close() {
	if p.handle != syscall.InvalidHandle {
		icmpCloseHandle.Call(uintptr(p.handle))
		p.handle = syscall.InvalidHandle
	}
}
