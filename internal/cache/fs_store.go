package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/diskstore/internal/eviction"
	"github.com/any-hub/diskstore/internal/logging"
	"github.com/any-hub/diskstore/internal/reaper"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// maxOpenAttempts 限制“目录被并发删除”或“锁住的 inode 已被替换”时的重试次数。
	maxOpenAttempts = 16
)

var errWriteContention = errors.New("cache entry kept changing while acquiring write lock")

// DiskStore 是 Store 的文件系统实现，同一根目录在进程内共享一个 Reaper。
type DiskStore struct {
	root    string
	reaper  *reaper.Reaper
	logger  logrus.FieldLogger
	fetches singleflight.Group
}

var _ Store = (*DiskStore)(nil)

// NewStore 以 root 为根目录构建磁盘缓存，root 为空时使用当前目录。
// 构造时会为 root 启动（或复用）Reaper，已存在的 Reaper 保持首个调用方的配置。
func NewStore(root string, opts Options) (*DiskStore, error) {
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	registry := opts.Registry
	if registry == nil {
		registry = reaper.Default()
	}

	r, err := registry.SpawnFor(abs, reaper.Options{
		CacheSize:        opts.CacheSize,
		Interval:         opts.ReaperInterval,
		EvictionStrategy: opts.EvictionStrategy,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("spawn reaper: %w", err)
	}

	return &DiskStore{
		root:   abs,
		reaper: r,
		logger: logger,
	}, nil
}

// Root 返回绝对根目录。
func (s *DiskStore) Root() string { return s.root }

// Reaper 返回负责该根目录的 Reaper。
func (s *DiskStore) Reaper() *reaper.Reaper { return s.reaper }

// Path 返回 key 对应的条目文件路径。
func (s *DiskStore) Path(key string) string {
	return EncodeKey(s.root, key)
}

func (s *DiskStore) Read(key, checksum string) (*ReadResult, error) {
	filePath := s.Path(key)

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	// 超长键的前缀段是目录，不是条目。
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	if checksum != "" {
		v, err := hashReader(f, checksum)
		if err != nil {
			f.Close()
			return nil, err
		}
		if !v.Matches() {
			f.Close()
			s.discard(key, filePath)
			return nil, &ChecksumMismatchError{Key: key, Expected: checksum, Actual: v.Actual()}
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}

	s.touch(key, filePath)

	return &ReadResult{
		Entry: Entry{
			Key:       key,
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		},
		Reader: f,
	}, nil
}

// Write 返回的 Reader 直接指向刚写入的 inode，即使条目随后被删除或淘汰也能读取。
func (s *DiskStore) Write(key string, body io.Reader, checksum string) (*ReadResult, error) {
	var v *verifier
	if checksum != "" {
		var err error
		if v, err = newVerifier(checksum); err != nil {
			return nil, err
		}
	}

	filePath := s.Path(key)
	f, err := s.writeLocked(key, filePath, body, v)
	if err != nil {
		var mismatch *ChecksumMismatchError
		if errors.As(err, &mismatch) {
			s.pruneParents(filepath.Dir(filePath))
			s.logger.WithFields(logging.StoreFields(s.root, key)).Warn("checksum_mismatch")
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	s.touch(key, filePath)
	s.logger.WithFields(logging.StoreFields(s.root, key)).Debug("cache_write")

	return &ReadResult{
		Entry: Entry{
			Key:       key,
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		},
		Reader: f,
	}, nil
}

// writeLocked 在 flock(2) 独占锁下截断并写入 filePath，fsync 后解锁。
// 打开时不截断，避免破坏仍持有锁的其他写入者。写入失败或校验不匹配时在持锁期间删除文件，
// 保证不会误删排在后面的写入者的结果。成功时返回已回到开头的文件句柄。
func (s *DiskStore) writeLocked(key, filePath string, body io.Reader, v *verifier) (_ *os.File, err error) {
	f, err := openLocked(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			os.Remove(filePath)
		}
		if unlockErr := unlockFile(int(f.Fd())); unlockErr != nil && err == nil {
			err = unlockErr
		}
		if err != nil {
			f.Close()
		}
	}()

	if err := f.Truncate(0); err != nil {
		return nil, err
	}

	var dst io.Writer = f
	if v != nil {
		dst = io.MultiWriter(f, v)
	}
	if _, err := io.Copy(dst, body); err != nil {
		return nil, err
	}
	if v != nil && !v.Matches() {
		return nil, &ChecksumMismatchError{Key: key, Expected: v.expected, Actual: v.Actual()}
	}
	if err := f.Sync(); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return f, nil
}

// openLocked 打开（必要时创建）filePath 并获取独占锁。若加锁期间该路径被删除或替换，
// 锁住的 inode 已不可见，需要重新打开。
func openLocked(filePath string) (*os.File, error) {
	for range maxOpenAttempts {
		f, err := openForWrite(filePath)
		if err != nil {
			return nil, err
		}
		if err := lockExclusive(int(f.Fd())); err != nil {
			f.Close()
			return nil, err
		}

		same, err := lockedFileAtPath(f, filePath)
		if same {
			return f, nil
		}
		_ = unlockFile(int(f.Fd()))
		f.Close()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, errWriteContention
}

// openForWrite 创建分片目录并打开文件。目录可能在 MkdirAll 与 OpenFile 之间
// 被并发的 Delete 清理掉，此时重建目录后重试。
func openForWrite(filePath string) (*os.File, error) {
	var err error
	for range maxOpenAttempts {
		if err = os.MkdirAll(filepath.Dir(filePath), dirPerm); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		var f *os.File
		f, err = os.OpenFile(filePath, os.O_CREATE|os.O_RDWR, filePerm)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, err
}

func lockedFileAtPath(f *os.File, filePath string) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}
	pathInfo, err := os.Stat(filePath)
	if err != nil {
		return false, err
	}
	return os.SameFile(openInfo, pathInfo), nil
}

func (s *DiskStore) Exists(key string) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && !info.IsDir()
}

func (s *DiskStore) Delete(key string) (bool, error) {
	filePath := s.Path(key)
	if info, err := os.Lstat(filePath); err == nil && info.IsDir() {
		return true, nil
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	s.pruneParents(filepath.Dir(filePath))
	return true, nil
}

// pruneParents 自下而上删除空目录，直到根目录（不含）。清理失败不影响调用方结果。
func (s *DiskStore) pruneParents(dir string) {
	if _, err := eviction.RemoveEmptyParents(s.root, dir); err != nil {
		s.logger.WithError(err).WithField("directory", dir).Debug("cache_prune_failed")
	}
}

// discard 删除校验失败的条目，失败只记录日志。
func (s *DiskStore) discard(key, filePath string) {
	fields := logging.StoreFields(s.root, key)
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WithFields(fields).WithError(err).Warn("checksum_mismatch_remove_failed")
		return
	}
	s.pruneParents(filepath.Dir(filePath))
	s.logger.WithFields(fields).Warn("checksum_mismatch")
}

// touch 刷新访问时间，保证 relatime/noatime 挂载下 LRU 依然有效；mtime 保持不变。
func (s *DiskStore) touch(key, filePath string) {
	if err := os.Chtimes(filePath, time.Now(), time.Time{}); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WithFields(logging.StoreFields(s.root, key)).WithError(err).Debug("cache_touch_failed")
	}
}
