package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/diskstore/internal/config"
	"github.com/any-hub/diskstore/internal/logging"
)

// blockedLogPath 返回一个父路径是普通文件的日志路径，即使以 root 运行 MkdirAll 也会失败。
func blockedLogPath(t *testing.T) string {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("创建占位文件失败: %v", err)
	}
	return filepath.Join(blocker, "sub", "diskstore.log")
}

func TestLoggingFallbackToStdout(t *testing.T) {
	dir := t.TempDir()
	logPath := blockedLogPath(t)
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "info"
LogFilePath = "%s"
ListenPort = 5000

[Cache]
StoragePath = "%s"
CacheSize = 1048576
EvictionStrategy = "lru"
`, logPath, filepath.Join(dir, "storage")))

	useBufferWriters(t)
	resetStandardLogger(t)
	code := run(cliOptions{configPath: configPath, checkOnly: true})
	if code != 0 {
		t.Fatalf("日志 fallback 不应导致失败，得到 %d", code)
	}
	if _, err := os.Stat(logPath); err == nil {
		t.Fatalf("不应创建日志文件: %s", logPath)
	}
}

func TestInitLoggerReportsFallback(t *testing.T) {
	resetStandardLogger(t)
	stderr := captureStderr(t)

	logger, err := logging.InitLogger(config.GlobalConfig{
		LogLevel:    "debug",
		LogFilePath: blockedLogPath(t),
	})
	if err != nil {
		t.Fatalf("InitLogger 返回错误: %v", err)
	}
	if logger.Out != os.Stdout {
		t.Fatalf("日志目录不可用时应降级到 stdout")
	}
	if logrus.StandardLogger().Out != os.Stdout {
		t.Fatalf("标准 logger 应与降级后的输出保持一致")
	}
	if got := stderr(); !strings.Contains(got, "logger_fallback") {
		t.Fatalf("stderr 应包含 logger_fallback，得到 %q", got)
	}
}

// resetStandardLogger 在测试结束后恢复 logrus 标准 logger 的输出与级别。
func resetStandardLogger(t *testing.T) {
	t.Helper()
	std := logrus.StandardLogger()
	out, level, formatter := std.Out, std.GetLevel(), std.Formatter
	t.Cleanup(func() {
		std.SetOutput(out)
		std.SetLevel(level)
		std.SetFormatter(formatter)
	})
}

// captureStderr 临时替换 os.Stderr，返回读取已写入内容的函数。
func captureStderr(t *testing.T) func() string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("创建管道失败: %v", err)
	}
	original := os.Stderr
	os.Stderr = w
	t.Cleanup(func() {
		os.Stderr = original
		r.Close()
	})
	return func() string {
		os.Stderr = original
		w.Close()
		data, _ := io.ReadAll(r)
		return string(data)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
