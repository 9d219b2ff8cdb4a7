// Package pinger 实现了core.DataSource接口，提供ping功能
// 每个目标在独立的goroutine中按固定间隔探测，序列号由该goroutine单调分配
package pinger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Kevin-Rudy/pingscope/pkg/core"
	"github.com/cenkalti/backoff/v4"
)

// maxOpenBackoff 重新创建探测器的最长等待
const maxOpenBackoff = 30 * time.Second

// reply 单次探测的结果
type reply struct {
	latency  float64 // 毫秒，丢包为NaN
	sent     time.Time
	received time.Time
}

// lostReply 构造一次丢包结果
func lostReply(sent time.Time) reply {
	return reply{latency: math.NaN(), sent: sent}
}

// okReply 根据往返时间构造成功结果
func okReply(sent time.Time, rtt time.Duration) reply {
	return reply{latency: float64(rtt.Nanoseconds()) / 1e6, sent: sent, received: sent.Add(rtt)}
}

// targetProbe 单个目标的探测器，只在该目标的goroutine中使用
type targetProbe interface {
	ping(ctx context.Context, seq int) reply
	close()
}

// opener 为目标创建探测器
type opener func(target string) (targetProbe, error)

// basePinger 所有引擎共用的调度结构
type basePinger struct {
	targets  []string
	config   *Config
	log      *slog.Logger
	open     opener
	dataChan chan core.PingResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
}

// newBasePinger 创建基础pinger结构
func newBasePinger(targets []string, config *Config, open opener) *basePinger {
	log := config.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &basePinger{
		targets:  targets,
		config:   config,
		log:      log,
		open:     open,
		dataChan: make(chan core.PingResult, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// DataStream 实现core.DataSource接口
func (bp *basePinger) DataStream() <-chan core.PingResult {
	return bp.dataChan
}

// Start 实现core.DataSource接口，为每个目标启动一个goroutine
func (bp *basePinger) Start() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.running || bp.stopped {
		return
	}
	bp.running = true

	for _, target := range bp.targets {
		bp.wg.Add(1)
		go bp.pingTarget(target)
	}
}

// Stop 实现core.DataSource接口，等待所有goroutine退出后关闭数据通道
func (bp *basePinger) Stop() {
	bp.mu.Lock()
	if bp.stopped {
		bp.mu.Unlock()
		return
	}
	bp.stopped = true
	bp.running = false
	bp.mu.Unlock()

	bp.cancel()
	bp.wg.Wait()
	close(bp.dataChan)
}

// openRetry 探测器创建失败后的重试节奏，以探测间隔为单位
func (bp *basePinger) openRetry() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = bp.config.Interval
	bo.MaxInterval = max(maxOpenBackoff, bp.config.Interval)
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	// 构造时已按默认间隔Reset，修改参数后需要重新Reset
	bo.Reset()
	return bo
}

// pingTarget 对单个目标按间隔探测
// 探测器创建失败时每个间隔仍记一次丢包，重新创建按指数退避进行
func (bp *basePinger) pingTarget(target string) {
	defer bp.wg.Done()

	var probe targetProbe
	defer func() {
		if probe != nil {
			probe.close()
		}
	}()

	ticker := time.NewTicker(bp.config.Interval)
	defer ticker.Stop()

	bo := bp.openRetry()
	var seq, retryAt int64
	for {
		select {
		case <-bp.ctx.Done():
			return
		case <-ticker.C:
		}

		seq++
		if probe == nil {
			if seq < retryAt {
				bp.emit(target, seq, lostReply(time.Now()))
				continue
			}
			p, err := bp.open(target)
			if err != nil {
				wait := bo.NextBackOff()
				retryAt = seq + int64(wait/bp.config.Interval)
				bp.log.Warn("pinger: failed to open probe", "target", target, "error", err, "retryIn", wait)
				bp.emit(target, seq, lostReply(time.Now()))
				continue
			}
			bo.Reset()
			probe = p
		}

		// ICMP序列号只有16位
		r := probe.ping(bp.ctx, int(seq&0xffff))
		if bp.ctx.Err() != nil {
			// 停止期间被中断的探测不算丢包
			return
		}
		bp.emit(target, seq, r)
	}
}

// emit 发送ping结果到数据通道，通道满时丢弃
func (bp *basePinger) emit(target string, seq int64, r reply) {
	result := core.PingResult{
		Identifier:  target,
		Seq:         seq,
		Latency:     r.latency,
		SendTime:    r.sent,
		ReceiveTime: r.received,
	}

	select {
	case bp.dataChan <- result:
	case <-bp.ctx.Done():
	default:
		bp.log.Debug("pinger: result dropped, buffer full", "target", target, "seq", seq)
	}
}

// NewPinger 根据配置的引擎创建Pinger实例
func NewPinger(targets []string, config *Config) (core.DataSource, error) {
	if len(targets) == 0 {
		return nil, errors.New("必须指定至少一个目标")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := config.ValidateTargets(targets); err != nil {
		return nil, err
	}

	switch config.Engine {
	case EngineProbing:
		return newBasePinger(targets, config, probingOpener(config)), nil
	default:
		open, err := nativeOpener(config)
		if err != nil {
			return nil, err
		}
		return newBasePinger(targets, config, open), nil
	}
}

// nativeOpener 优先使用特权模式，否则降级到平台相关的非特权实现
func nativeOpener(config *Config) (opener, error) {
	platform := getPlatformCapability()
	if platform.hasPrivilegedAccess() {
		return func(target string) (targetProbe, error) {
			return newPrivilegedProbe(target, config)
		}, nil
	}
	return platform.unprivilegedOpener(config)
}

// SystemInfo 描述当前平台和将要使用的探测实现
type SystemInfo struct {
	OS             string
	Privilege      string
	Implementation string
}

// GetSystemInfo 获取系统信息
func GetSystemInfo(engine Engine) SystemInfo {
	info := SystemInfo{OS: runtime.GOOS}
	switch runtime.GOOS {
	case "windows":
		info.OS = "Windows"
	case "linux":
		info.OS = "Linux"
	case "darwin":
		info.OS = "macOS"
	}

	hasPriv := HasPrivilegedAccess()
	if hasPriv {
		info.Privilege = "特权模式"
	} else {
		info.Privilege = "非特权模式"
	}

	if engine == EngineProbing {
		if hasPriv || runtime.GOOS == "windows" {
			info.Implementation = "pro-bing (Raw Socket)"
		} else {
			info.Implementation = "pro-bing (UDP ICMP)"
		}
		return info
	}

	switch {
	case hasPriv:
		info.Implementation = "Raw Socket"
	case runtime.GOOS == "windows":
		info.Implementation = "Windows ICMP API"
	case runtime.GOOS == "linux":
		info.Implementation = "Linux DGRAM Socket"
	default:
		info.Implementation = "不可用 (需要root权限)"
	}
	return info
}

// HasPrivilegedAccess 检查是否有特权访问能力
func HasPrivilegedAccess() bool {
	return getPlatformCapability().hasPrivilegedAccess()
}
