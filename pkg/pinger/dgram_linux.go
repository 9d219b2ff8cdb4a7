//go:build linux

// Package pinger - Linux非特权模式实现
// 使用SOCK_DGRAM类型的ICMP套接字，需要 net.ipv4.ping_group_range 包含当前用户组
package pinger

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/icmp"
)

// dgramProbe 基于DGRAM ICMP套接字的探测器
// 内核会改写回显ID，因此只按来源地址和序列号匹配回复
type dgramProbe struct {
	conn      *icmp.PacketConn
	dst       *net.UDPAddr
	ipVersion int
	timeout   time.Duration
	buf       []byte
}

// newDgramProbe 为目标打开一个DGRAM ICMP套接字
func newDgramProbe(target string, config *Config) (targetProbe, error) {
	dst, err := config.ResolveTarget(target)
	if err != nil {
		return nil, err
	}

	network, laddr := "udp4", "0.0.0.0"
	if config.IPVersion == 6 {
		network, laddr = "udp6", "::"
	}
	conn, err := icmp.ListenPacket(network, laddr)
	if err != nil {
		return nil, err
	}

	return &dgramProbe{
		conn:      conn,
		dst:       &net.UDPAddr{IP: dst.IP, Zone: dst.Zone},
		ipVersion: config.IPVersion,
		timeout:   config.Timeout,
		buf:       make([]byte, 1500),
	}, nil
}

// ping 发送一个回显请求并等待匹配的回复
func (p *dgramProbe) ping(ctx context.Context, seq int) reply {
	data, err := marshalEcho(p.ipVersion, 0, seq)
	if err != nil {
		return lostReply(time.Now())
	}

	sent := time.Now()
	_ = p.conn.SetDeadline(sent.Add(p.timeout))
	stop := context.AfterFunc(ctx, func() { _ = p.conn.SetReadDeadline(time.Now()) })
	defer stop()

	if _, err := p.conn.WriteTo(data, p.dst); err != nil {
		return lostReply(sent)
	}

	for {
		n, from, err := p.conn.ReadFrom(p.buf)
		if err != nil {
			return lostReply(sent)
		}
		if addr, ok := from.(*net.UDPAddr); ok && !addr.IP.Equal(p.dst.IP) {
			continue
		}
		if matchEcho(p.ipVersion, p.buf[:n], 0, seq, false) {
			return okReply(sent, time.Since(sent))
		}
	}
}

func (p *dgramProbe) close() {
	_ = p.conn.Close()
}
