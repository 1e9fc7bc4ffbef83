package config

import "time"

// BreakerConfig 是目录服务客户端熔断器的参数。
type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"maxRequests" json:"maxRequests" yaml:"maxRequests"`                         // 半开状态下允许通过的请求数
	Interval            time.Duration `mapstructure:"interval" json:"interval" yaml:"interval"`                                  // 闭合状态下清空计数的周期
	Timeout             time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`                                     // 打开状态持续多久后进入半开
	ConsecutiveFailures uint32        `mapstructure:"consecutiveFailures" json:"consecutiveFailures" yaml:"consecutiveFailures"` // 连续失败多少次后打开
}

// DirectoryConfig 是商家目录 REST 服务的连接配置，用于按 ID 加载完整的商家记录。
type DirectoryConfig struct {
	BaseURL string        `mapstructure:"baseURL" json:"baseURL" yaml:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	Breaker BreakerConfig `mapstructure:"breaker" json:"breaker" yaml:"breaker"`
}
