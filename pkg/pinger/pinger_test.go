package pinger

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// fakeProbe 按顺序返回预设延迟的探测器，NaN表示丢包
type fakeProbe struct {
	latencies []float64
	calls     int
	seqs      []int
	closed    *atomic.Bool
}

func (f *fakeProbe) ping(_ context.Context, seq int) reply {
	f.seqs = append(f.seqs, seq)
	sent := time.Now()
	v := f.latencies[f.calls%len(f.latencies)]
	f.calls++
	if math.IsNaN(v) {
		return lostReply(sent)
	}
	return okReply(sent, time.Duration(v*float64(time.Millisecond)))
}

func (f *fakeProbe) close() {
	if f.closed != nil {
		f.closed.Store(true)
	}
}

func testConfig() *Config {
	config := DefaultConfig()
	config.Interval = 10 * time.Millisecond
	return config
}

// collect 读取n个结果，超时返回已收到的部分
func collect(stream <-chan core.PingResult, n int, timeout time.Duration) []core.PingResult {
	results := make([]core.PingResult, 0, n)
	deadline := time.After(timeout)
	for len(results) < n {
		select {
		case r, ok := <-stream:
			if !ok {
				return results
			}
			results = append(results, r)
		case <-deadline:
			return results
		}
	}
	return results
}

// TestNewBasePinger 测试基础pinger的创建
func TestNewBasePinger(t *testing.T) {
	config := testConfig()
	bp := newBasePinger([]string{"a", "b"}, config, nil)

	if len(bp.targets) != 2 {
		t.Errorf("Expected 2 targets, got %d", len(bp.targets))
	}
	if cap(bp.dataChan) != config.BufferSize {
		t.Errorf("Expected buffer size %d, got %d", config.BufferSize, cap(bp.dataChan))
	}
	if bp.log == nil {
		t.Error("Expected logger to default to a discard logger")
	}
}

// TestBasePingerEmitsSequencedResults 测试序列号分配和丢包表示
func TestBasePingerEmitsSequencedResults(t *testing.T) {
	var closed atomic.Bool
	probe := &fakeProbe{latencies: []float64{12.5, math.NaN(), 8}, closed: &closed}
	bp := newBasePinger([]string{"a"}, testConfig(), func(string) (targetProbe, error) {
		return probe, nil
	})

	bp.Start()
	results := collect(bp.DataStream(), 3, 2*time.Second)
	bp.Stop()

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Identifier != "a" {
			t.Errorf("Expected identifier 'a', got '%s'", r.Identifier)
		}
		if r.Seq != int64(i+1) {
			t.Errorf("Expected seq %d, got %d", i+1, r.Seq)
		}
		if r.SendTime.IsZero() {
			t.Errorf("Expected send time on result %d", i+1)
		}
	}
	if math.Abs(results[0].Latency-12.5) > 1e-9 {
		t.Errorf("Expected latency 12.5, got %f", results[0].Latency)
	}
	if !results[1].Lost() || !results[1].ReceiveTime.IsZero() {
		t.Errorf("Expected second result to be lost, got %+v", results[1])
	}
	if !closed.Load() {
		t.Error("Expected probe to be closed after Stop()")
	}
}

// TestBasePingerRetriesOpen 测试探测器创建失败时记为丢包并在下个间隔重试
func TestBasePingerRetriesOpen(t *testing.T) {
	var attempts atomic.Int32
	bp := newBasePinger([]string{"a"}, testConfig(), func(string) (targetProbe, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("network unreachable")
		}
		return &fakeProbe{latencies: []float64{5}}, nil
	})

	bp.Start()
	results := collect(bp.DataStream(), 2, 2*time.Second)
	bp.Stop()

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !results[0].Lost() {
		t.Errorf("Expected first result to be lost, got latency %f", results[0].Latency)
	}
	if results[1].Lost() || results[1].Seq != 2 {
		t.Errorf("Expected second result to succeed with seq 2, got %+v", results[1])
	}
}

// TestOpenRetryScaledToInterval 测试重试等待从探测间隔开始按1.5倍增长，且不超过上限
func TestOpenRetryScaledToInterval(t *testing.T) {
	config := DefaultConfig()
	config.Interval = 100 * time.Millisecond
	bp := newBasePinger([]string{"a"}, config, nil)

	bo := bp.openRetry()
	expected := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond, 225 * time.Millisecond}
	for i, want := range expected {
		if got := bo.NextBackOff(); got != want {
			t.Errorf("Expected wait %d to be %v, got %v", i+1, want, got)
		}
	}

	for i := 0; i < 50; i++ {
		bo.NextBackOff()
	}
	if got := bo.NextBackOff(); got != maxOpenBackoff {
		t.Errorf("Expected wait to be capped at %v, got %v", maxOpenBackoff, got)
	}

	bo.Reset()
	if got := bo.NextBackOff(); got != config.Interval {
		t.Errorf("Expected wait after reset to be %v, got %v", config.Interval, got)
	}
}

// TestBasePingerOpenBackoff 测试探测器持续创建失败时按指数退避重试，每个间隔仍记一次丢包
func TestBasePingerOpenBackoff(t *testing.T) {
	var attempts atomic.Int32
	bp := newBasePinger([]string{"a"}, testConfig(), func(string) (targetProbe, error) {
		attempts.Add(1)
		return nil, errors.New("network unreachable")
	})

	bp.Start()
	results := collect(bp.DataStream(), 12, 2*time.Second)
	got := attempts.Load()
	bp.Stop()

	if len(results) != 12 {
		t.Fatalf("Expected 12 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Lost() || r.Seq != int64(i+1) {
			t.Errorf("Expected lost result with seq %d, got %+v", i+1, r)
		}
	}
	// 第1、2、3、5、8个间隔尝试创建
	if got < 5 || got > 6 {
		t.Errorf("Expected 5 open attempts in 12 intervals, got %d", got)
	}
}

// TestBasePingerStopClosesStream 测试未启动时Stop也会关闭数据通道，且可重复调用
func TestBasePingerStopClosesStream(t *testing.T) {
	bp := newBasePinger([]string{"a"}, testConfig(), nil)
	bp.Stop()
	bp.Stop()

	select {
	case _, ok := <-bp.DataStream():
		if ok {
			t.Error("Data channel should be closed after Stop()")
		}
	case <-time.After(time.Second):
		t.Error("Data channel was not closed")
	}

	// 停止后再启动不应产生任何goroutine
	bp.Start()
	if bp.running {
		t.Error("Pinger should not restart after Stop()")
	}
}

// TestEmitDropsWhenFull 测试通道满时丢弃结果而不阻塞
func TestEmitDropsWhenFull(t *testing.T) {
	config := testConfig()
	config.BufferSize = 10
	bp := newBasePinger([]string{"a"}, config, nil)

	for i := 0; i < 25; i++ {
		bp.emit("a", int64(i+1), okReply(time.Now(), time.Millisecond))
	}

	if len(bp.dataChan) != 10 {
		t.Errorf("Expected 10 buffered results, got %d", len(bp.dataChan))
	}
	first := <-bp.dataChan
	if first.Seq != 1 {
		t.Errorf("Expected oldest buffered seq 1, got %d", first.Seq)
	}
	bp.Stop()
}

// TestConfigValidation 测试配置验证
func TestConfigValidation(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	cases := map[string]func(*Config){
		"ip version": func(c *Config) { c.IPVersion = 3 },
		"interval":   func(c *Config) { c.Interval = 0 },
		"timeout":    func(c *Config) { c.Timeout = 50 * time.Millisecond },
		"buffer":     func(c *Config) { c.BufferSize = 0 },
		"engine":     func(c *Config) { c.Engine = "icmpx" },
	}
	for name, mutate := range cases {
		config := DefaultConfig()
		mutate(config)
		if err := config.Validate(); err == nil {
			t.Errorf("Expected error for invalid %s", name)
		}
	}

	config := DefaultConfig()
	config.Engine = EngineProbing
	if err := config.Validate(); err != nil {
		t.Errorf("Probing engine should be valid: %v", err)
	}
}

// TestConfigTargetValidation 测试目标验证
func TestConfigTargetValidation(t *testing.T) {
	config := DefaultConfig()

	if err := config.ValidateTargets([]string{"127.0.0.1"}); err != nil {
		t.Errorf("Expected loopback to be valid, got %v", err)
	}
	if err := config.ValidateTargets([]string{""}); err == nil {
		t.Error("Expected error for empty target")
	}
	if err := config.ValidateTargets([]string{"127.0.0.1", "127.0.0.1"}); err == nil {
		t.Error("Expected error for duplicate target")
	}

	config.IPVersion = 6
	if err := config.ValidateTargets([]string{"::1"}); err != nil {
		t.Errorf("Expected ::1 to be valid for IPv6, got %v", err)
	}
	if err := config.ValidateTargets([]string{"127.0.0.1"}); err == nil {
		t.Error("Expected error for IPv4 literal with IPv6 config")
	}
}

// TestMatchEcho 测试回显回复的匹配规则
func TestMatchEcho(t *testing.T) {
	marshal := func(typ icmp.Type, id, seq int) []byte {
		msg := &icmp.Message{Type: typ, Body: &icmp.Echo{ID: id, Seq: seq, Data: payload}}
		data, err := msg.Marshal(nil)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		return data
	}

	reply4 := marshal(ipv4.ICMPTypeEchoReply, 7, 42)
	if !matchEcho(4, reply4, 7, 42, true) {
		t.Error("Expected matching IPv4 reply")
	}
	if matchEcho(4, reply4, 7, 43, true) {
		t.Error("Expected seq mismatch to be rejected")
	}
	if matchEcho(4, reply4, 8, 42, true) {
		t.Error("Expected id mismatch to be rejected")
	}
	if !matchEcho(4, reply4, 8, 42, false) {
		t.Error("Expected id to be ignored when checkID is false")
	}
	if matchEcho(4, marshal(ipv4.ICMPTypeEcho, 7, 42), 7, 42, true) {
		t.Error("Expected echo request to be rejected")
	}
	if !matchEcho(6, marshal(ipv6.ICMPTypeEchoReply, 7, 42), 7, 42, true) {
		t.Error("Expected matching IPv6 reply")
	}
}

// TestNewPingerWithOptions 测试选项模式API
func TestNewPingerWithOptions(t *testing.T) {
	if _, err := NewPingerWithOptions([]string{}); err == nil {
		t.Error("Expected error for empty targets")
	}
	if _, err := NewPingerWithOptions([]string{"127.0.0.1"}, WithIPVersion(3)); err == nil {
		t.Error("Expected error for invalid IP version")
	}
	if _, err := NewPingerWithOptions([]string{"127.0.0.1"}, WithEngine("bogus")); err == nil {
		t.Error("Expected error for unknown engine")
	}

	// probing引擎在创建时不打开套接字
	p, err := NewPingerWithOptions([]string{"127.0.0.1"},
		WithEngine(EngineProbing),
		WithInterval(500*time.Millisecond),
		WithTimeout(time.Second),
		WithBufferSize(10),
	)
	if err != nil {
		t.Fatalf("Expected probing pinger, got error %v", err)
	}
	p.Stop()
}

// TestGetSystemInfo 测试系统信息描述
func TestGetSystemInfo(t *testing.T) {
	for _, engine := range []Engine{EngineNative, EngineProbing} {
		info := GetSystemInfo(engine)
		if info.OS == "" || info.Privilege == "" || info.Implementation == "" {
			t.Errorf("Expected complete system info for %s, got %+v", engine, info)
		}
		t.Logf("%s: %+v", engine, info)
	}
}

// BenchmarkEmit 基准测试结果发送性能
func BenchmarkEmit(b *testing.B) {
	bp := newBasePinger([]string{"a"}, DefaultConfig(), nil)
	go func() {
		for range bp.DataStream() {
		}
	}()

	r := okReply(time.Now(), time.Millisecond)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bp.emit("a", int64(i), r)
	}
	b.StopTimer()
	bp.Stop()
}
