package cache

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/diskstore/internal/reaper"
)

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<root>/<shard1>/<shard2>/<encoded key chunks...>
//
// 每个条目仅由一个正文文件组成，大小与访问时间由文件系统提供。
type Store interface {
	// Read 返回可流式读取的缓存条目；不存在时返回 ErrNotFound。
	// checksum 非空时先校验全文，不匹配则删除条目并返回 *ChecksumMismatchError。
	Read(key, checksum string) (*ReadResult, error)

	// Write 在独占锁下覆盖写入条目并 fsync，返回一个新的读句柄。
	Write(key string, body io.Reader, checksum string) (*ReadResult, error)

	// Exists 仅判断条目文件是否存在。
	Exists(key string) bool

	// Delete 删除条目并清理空的上级目录，重复删除同样返回 true。
	Delete(key string) (bool, error)

	// Fetch 命中时等价于 Read；未命中时调用 producer 写入后再读取。
	Fetch(key, checksum string, producer Producer) (*ReadResult, error)
}

// Producer 在缓存未命中时提供条目正文。若返回值实现 io.Closer，写入后会被关闭。
type Producer func() (io.Reader, error)

// Options 控制 Store 以及其 Reaper 的行为。零值字段使用 reaper 的默认值。
type Options struct {
	CacheSize        int64
	ReaperInterval   time.Duration
	EvictionStrategy string

	// Registry 为 nil 时使用进程级默认 Registry。
	Registry *reaper.Registry
	Logger   logrus.FieldLogger
}

// Entry 描述一个已落盘的缓存条目。
type Entry struct {
	Key       string    `json:"key"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader，调用方负责关闭 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrChecksumMismatch 表示条目内容与期望摘要不一致，条目已被删除。
	ErrChecksumMismatch = errors.New("cache entry checksum mismatch")
	// ErrInvalidPath 表示路径不属于当前 Store 的编码布局。
	ErrInvalidPath = errors.New("invalid cache path")
	// ErrInvalidChecksum 表示期望摘要无法解析。
	ErrInvalidChecksum = errors.New("invalid checksum")
)

// ChecksumMismatchError 携带不匹配的细节，errors.Is(err, ErrChecksumMismatch) 成立。
type ChecksumMismatchError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %q: expected %s, got %s", e.Key, e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrChecksumMismatch
}
