// Package pinger - pro-bing引擎实现
// 每个间隔创建一个只发一个包的pro-bing pinger，跨平台行为一致
package pinger

import (
	"context"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// probingProbe 基于pro-bing的探测器
type probingProbe struct {
	addr       string // 已解析的IP，避免每次探测都做DNS查询
	network    string
	privileged bool
	timeout    time.Duration
}

// probingOpener 返回pro-bing探测器的构造函数
// Windows上pro-bing只支持特权模式，其他平台无权限时使用UDP ICMP
func probingOpener(config *Config) opener {
	privileged := runtime.GOOS == "windows" || HasPrivilegedAccess()
	return func(target string) (targetProbe, error) {
		dst, err := config.ResolveTarget(target)
		if err != nil {
			return nil, err
		}
		return &probingProbe{
			addr:       dst.String(),
			network:    config.network(),
			privileged: privileged,
			timeout:    config.Timeout,
		}, nil
	}
}

// ping 发送一个包，超时或出错都记为丢包
func (p *probingProbe) ping(ctx context.Context, _ int) reply {
	pinger, err := probing.NewPinger(p.addr)
	if err != nil {
		return lostReply(time.Now())
	}
	defer pinger.Stop()

	pinger.SetNetwork(p.network)
	pinger.SetPrivileged(p.privileged)
	pinger.Count = 1
	pinger.Timeout = p.timeout

	var rtt time.Duration
	var recv bool
	pinger.OnRecv = func(pkt *probing.Packet) {
		rtt = pkt.Rtt
		recv = true
	}

	sent := time.Now()
	if err := pinger.RunWithContext(ctx); err != nil {
		return lostReply(sent)
	}

	stats := pinger.Statistics()
	if !recv || stats == nil || stats.PacketsRecv == 0 {
		return lostReply(sent)
	}
	return okReply(sent, rtt)
}

func (p *probingProbe) close() {}
