// Package pinger - 特权模式实现
// 使用原始套接字，需要管理员/root权限，支持所有操作系统
package pinger

import (
	"context"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// payload 回显请求携带的数据
var payload = []byte("pingscope")

// echoType 返回请求和回复的ICMP类型以及协议号
func echoType(ipVersion int) (request, replyType icmp.Type, proto int) {
	if ipVersion == 6 {
		return ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply.Protocol()
	}
	return ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply, ipv4.ICMPTypeEchoReply.Protocol()
}

// marshalEcho 序列化一个回显请求
func marshalEcho(ipVersion, id, seq int) ([]byte, error) {
	request, _, _ := echoType(ipVersion)
	msg := &icmp.Message{
		Type: request,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: payload},
	}
	return msg.Marshal(nil)
}

// matchEcho 判断收到的数据是否为指定序列号的回显回复，checkID为false时不比较ID
func matchEcho(ipVersion int, data []byte, id, seq int, checkID bool) bool {
	_, replyType, proto := echoType(ipVersion)
	msg, err := icmp.ParseMessage(proto, data)
	if err != nil || msg.Type != replyType {
		return false
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok || echo.Seq != seq {
		return false
	}
	return !checkID || echo.ID == id
}

// privilegedProbe 基于原始套接字的探测器，每个目标一个连接
type privilegedProbe struct {
	conn      net.Conn
	id        int
	ipVersion int
	timeout   time.Duration
	buf       []byte
}

// newPrivilegedProbe 解析目标并建立原始套接字连接
func newPrivilegedProbe(target string, config *Config) (targetProbe, error) {
	dst, err := config.ResolveTarget(target)
	if err != nil {
		return nil, err
	}

	network := "ip4:icmp"
	if config.IPVersion == 6 {
		network = "ip6:ipv6-icmp"
	}
	conn, err := net.Dial(network, dst.String())
	if err != nil {
		return nil, err
	}

	return &privilegedProbe{
		conn:      conn,
		id:        os.Getpid() & 0xffff,
		ipVersion: config.IPVersion,
		timeout:   config.Timeout,
		buf:       make([]byte, 1500),
	}, nil
}

// ping 发送一个回显请求并等待匹配的回复
func (p *privilegedProbe) ping(ctx context.Context, seq int) reply {
	data, err := marshalEcho(p.ipVersion, p.id, seq)
	if err != nil {
		return lostReply(time.Now())
	}

	sent := time.Now()
	deadline := sent.Add(p.timeout)
	_ = p.conn.SetDeadline(deadline)
	// 停止时立即中断阻塞的读
	stop := context.AfterFunc(ctx, func() { _ = p.conn.SetReadDeadline(time.Now()) })
	defer stop()

	if _, err := p.conn.Write(data); err != nil {
		return lostReply(sent)
	}

	for {
		n, err := p.conn.Read(p.buf)
		if err != nil {
			return lostReply(sent)
		}
		if matchEcho(p.ipVersion, p.buf[:n], p.id, seq, true) {
			return okReply(sent, time.Since(sent))
		}
	}
}

func (p *privilegedProbe) close() {
	_ = p.conn.Close()
}
