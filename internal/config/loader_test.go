package config

import (
	"testing"
	"time"
)

func TestLoadFailsWithMissingFile(t *testing.T) {
	if _, err := Load(fixture("missing.toml")); err == nil {
		t.Fatalf("不存在的配置文件应返回错误")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `LogLevel = "debug"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("ListenPort 默认值错误: %d", cfg.Global.ListenPort)
	}
	if cfg.Cache.CacheSize != 1<<30 {
		t.Fatalf("CacheSize 默认应为 1GiB，得到 %d", cfg.Cache.CacheSize)
	}
	if cfg.Cache.ReaperInterval.DurationValue() != 10*time.Second {
		t.Fatalf("ReaperInterval 默认应为 10s，得到 %v", cfg.Cache.ReaperInterval.DurationValue())
	}
	if cfg.Cache.EvictionStrategy != "none" {
		t.Fatalf("默认不淘汰，得到 %q", cfg.Cache.EvictionStrategy)
	}
}

func TestLoadAcceptsIntegerSeconds(t *testing.T) {
	cfg := `
[Cache]
StoragePath = "./data"
ReaperInterval = 3
`
	loaded, err := Load(writeTempConfig(t, cfg))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if loaded.Cache.ReaperInterval.DurationValue() != 3*time.Second {
		t.Fatalf("纯数字应按秒解析，得到 %v", loaded.Cache.ReaperInterval.DurationValue())
	}
}

func TestLoadAcceptsDurationStrings(t *testing.T) {
	cases := map[string]time.Duration{
		`"2m"`:   2 * time.Minute,
		`"45"`:   45 * time.Second,
		`"0x1E"`: 30 * time.Second,
		`"1.5"`:  1500 * time.Millisecond,
	}
	for raw, want := range cases {
		cfg := "[Cache]\nStoragePath = \"./data\"\nReaperInterval = " + raw + "\n"
		loaded, err := Load(writeTempConfig(t, cfg))
		if err != nil {
			t.Fatalf("ReaperInterval = %s: Load 返回错误: %v", raw, err)
		}
		if got := loaded.Cache.ReaperInterval.DurationValue(); got != want {
			t.Fatalf("ReaperInterval = %s: 得到 %v，期望 %v", raw, got, want)
		}
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
[Cache]
StoragePath = "./data"
ReaperInterval = "boom"
`
	if _, err := Load(writeTempConfig(t, cfg)); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("DISKSTORE_CACHE_CACHESIZE", "4096")
	cfg, err := Load(writeTempConfig(t, `LogLevel = "info"`))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Cache.CacheSize != 4096 {
		t.Fatalf("环境变量应覆盖 CacheSize，得到 %d", cfg.Cache.CacheSize)
	}
}
