// Package pinger 配置定义
package pinger

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Engine 探测引擎类型
type Engine string

const (
	EngineNative  Engine = "native"  // 自带的ICMP实现，按平台和权限自动选择
	EngineProbing Engine = "probing" // 基于pro-bing库
)

// Valid 判断引擎类型是否可识别
func (e Engine) Valid() bool {
	return e == EngineNative || e == EngineProbing
}

// Config pinger组件的配置结构
type Config struct {
	IPVersion  int           // IP版本，4或6
	Interval   time.Duration // ping间隔时间
	Timeout    time.Duration // ping超时时间
	BufferSize int           // 数据通道缓冲区大小
	Engine     Engine        // 探测引擎
	Logger     *slog.Logger  // 为空时丢弃日志
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		IPVersion:  4,
		Interval:   time.Second,
		Timeout:    2 * time.Second,
		BufferSize: 100,
		Engine:     EngineNative,
	}
}

// network 返回解析地址用的网络名
func (c *Config) network() string {
	if c.IPVersion == 6 {
		return "ip6"
	}
	return "ip4"
}

// ResolveTarget 按配置的IP版本解析目标
func (c *Config) ResolveTarget(target string) (*net.IPAddr, error) {
	if target == "" {
		return nil, errors.New("目标地址不能为空")
	}
	addr, err := net.ResolveIPAddr(c.network(), target)
	if err != nil {
		return nil, fmt.Errorf("无法将 '%s' 解析为IPv%d地址: %w", target, c.IPVersion, err)
	}
	return addr, nil
}

// ValidateTargets 验证目标地址是否符合当前IP版本配置
func (c *Config) ValidateTargets(targets []string) error {
	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		if _, err := c.ResolveTarget(target); err != nil {
			return err
		}
		if seen[target] {
			return fmt.Errorf("重复的目标: %s", target)
		}
		seen[target] = true
	}
	return nil
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.IPVersion != 4 && c.IPVersion != 6 {
		return errors.New("IP版本必须是4或6")
	}
	if c.Interval < 10*time.Millisecond {
		return errors.New("ping间隔不能小于10ms")
	}
	if c.Timeout < 100*time.Millisecond {
		return errors.New("超时时间不能小于100ms")
	}
	if c.BufferSize <= 0 {
		return errors.New("缓冲区大小必须大于0")
	}
	if !c.Engine.Valid() {
		return fmt.Errorf("未知的探测引擎: %q", c.Engine)
	}
	return nil
}
