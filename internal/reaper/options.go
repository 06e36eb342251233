package reaper

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultCacheSize 为 1 GiB。
	DefaultCacheSize int64 = 1 << 30
	// DefaultInterval 是两次巡检之间的默认间隔。
	DefaultInterval = 10 * time.Second
)

// Options 控制 Reaper 的预算、巡检间隔与淘汰策略。
type Options struct {
	// CacheSize 是根目录允许占用的最大字节数，<=0 时使用 DefaultCacheSize。
	CacheSize int64
	// Interval 是两次巡检之间的等待时间，<=0 时使用 DefaultInterval。
	Interval time.Duration
	// EvictionStrategy 为策略名称，空值表示不淘汰。
	EvictionStrategy string
	// Logger 为空时使用 logrus 标准 logger。
	Logger logrus.FieldLogger
}

// DefaultOptions 返回默认配置。
func DefaultOptions() Options {
	return Options{
		CacheSize: DefaultCacheSize,
		Interval:  DefaultInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}
