package config

import (
	"errors"
	"strings"

	"github.com/any-hub/diskstore/internal/eviction"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}

	cache := &c.Cache
	if strings.TrimSpace(cache.StoragePath) == "" {
		return newFieldError(cacheField("StoragePath"), "不能为空")
	}
	if cache.CacheSize <= 0 {
		return newFieldError(cacheField("CacheSize"), "必须大于 0")
	}
	if cache.ReaperInterval.DurationValue() <= 0 {
		return newFieldError(cacheField("ReaperInterval"), "必须大于 0")
	}

	meta, ok := eviction.Resolve(cache.EvictionStrategy)
	if !ok {
		return newFieldError(cacheField("EvictionStrategy"), "仅支持 "+strings.Join(eviction.Names(), "/"))
	}
	cache.EvictionStrategy = meta.Name

	return nil
}
