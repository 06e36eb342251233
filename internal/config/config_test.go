package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadValidFixture(t *testing.T) {
	cfg, err := Load(fixture("valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("ListenPort 应当被解析，得到 %d", cfg.Global.ListenPort)
	}
	if !filepath.IsAbs(cfg.Cache.StoragePath) {
		t.Fatalf("StoragePath 应转换为绝对路径: %s", cfg.Cache.StoragePath)
	}
	if cfg.Cache.CacheSize != 1048576 {
		t.Fatalf("CacheSize 解析错误: %d", cfg.Cache.CacheSize)
	}
	if cfg.Cache.ReaperInterval.DurationValue() != 30*time.Second {
		t.Fatalf("ReaperInterval 解析错误: %v", cfg.Cache.ReaperInterval.DurationValue())
	}
	if cfg.Cache.EvictionStrategy != "lru" {
		t.Fatalf("EvictionStrategy 应被规范化为小写，得到 %q", cfg.Cache.EvictionStrategy)
	}
}

func TestLoadRejectsInvalidFixture(t *testing.T) {
	_, err := Load(fixture("invalid.toml"))
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("期望 FieldError，得到 %v", err)
	}
	if fieldErr.Field != "Cache.CacheSize" {
		t.Fatalf("错误字段不符: %s", fieldErr.Field)
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestEvictionStrategyValidation(t *testing.T) {
	testCases := []struct {
		name      string
		strategy  string
		want      string
		shouldErr bool
	}{
		{"empty means none", "", "none", false},
		{"none ok", "none", "none", false},
		{"lru ok", "lru", "lru", false},
		{"upper case lru", "LRU", "lru", false},
		{"unsupported", "fifo", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.EvictionStrategy = tc.strategy
			err := cfg.Validate()
			if tc.shouldErr {
				if err == nil {
					t.Fatalf("expected error for strategy %q", tc.strategy)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for strategy %q: %v", tc.strategy, err)
			}
			if cfg.Cache.EvictionStrategy != tc.want {
				t.Fatalf("strategy normalized to %q, want %q", cfg.Cache.EvictionStrategy, tc.want)
			}
		})
	}
}

func TestValidateRequiresPositiveInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.ReaperInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ReaperInterval 为 0 时应报错")
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	testCases := map[string]time.Duration{
		"":     0,
		"15":   15 * time.Second,
		"0x10": 16 * time.Second,
		"2m":   2 * time.Minute,
	}
	for raw, want := range testCases {
		var d Duration
		if err := d.UnmarshalText([]byte(raw)); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", raw, err)
		}
		if d.DurationValue() != want {
			t.Fatalf("UnmarshalText(%q) = %v, want %v", raw, d.DurationValue(), want)
		}
	}
	var d Duration
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort: 5000,
			LogLevel:   "info",
		},
		Cache: CacheConfig{
			StoragePath:    "./data",
			CacheSize:      1 << 20,
			ReaperInterval: Duration(time.Second),
		},
	}
}
