package reaper

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/diskstore/internal/eviction"
	"github.com/any-hub/diskstore/internal/logging"
)

// ErrAlreadyStarted 表示 Start 被重复调用或在 Stop 之后调用。
var ErrAlreadyStarted = errors.New("reaper already started")

// State 描述 Reaper 的生命周期：Created → Running → Stopped。
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SweepResult 汇总一次清理的结果。
type SweepResult struct {
	FilesRemoved       int
	BytesFreed         int64
	DirectoriesRemoved int
	Failures           int
}

// Stats 是 Reaper 自启动以来的累计数据，供诊断接口读取。
type Stats struct {
	Sweeps             int64
	FilesRemoved       int64
	BytesFreed         int64
	DirectoriesRemoved int64
	Failures           int64
	LastSweep          time.Time
}

// Reaper 绑定到一个缓存根目录，在后台按间隔执行容量巡检。
type Reaper struct {
	id     string
	path   string
	opts   Options
	policy eviction.Policy
	logger logrus.FieldLogger

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// New 构造处于 Created 状态的 Reaper，策略名称未注册时返回错误。
func New(path string, opts Options) (*Reaper, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve reaper path: %w", err)
	}
	opts = opts.withDefaults()

	policy, err := eviction.New(opts.EvictionStrategy, eviction.Params{Root: abs, Budget: opts.CacheSize})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Reaper{
		id:     id,
		path:   abs,
		opts:   opts,
		policy: policy,
		logger: opts.Logger.WithFields(logging.ReaperFields(abs, id)),
		state:  StateCreated,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// ID 返回实例标识，用于关联日志。
func (r *Reaper) ID() string { return r.id }

// Path 返回绝对根目录。
func (r *Reaper) Path() string { return r.path }

// Options 返回补齐默认值后的配置。
func (r *Reaper) Options() Options { return r.opts }

// State 返回当前生命周期状态。
func (r *Reaper) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Alive 表示巡检循环仍在运行。
func (r *Reaper) Alive() bool {
	return r.State() == StateRunning
}

// Start 启动后台巡检循环，只能调用一次。
func (r *Reaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateCreated {
		return ErrAlreadyStarted
	}
	r.state = StateRunning
	go r.loop()

	r.logger.WithFields(logrus.Fields{
		"action":            "reaper_start",
		"cache_size":        r.opts.CacheSize,
		"interval":          r.opts.Interval.String(),
		"eviction_strategy": r.opts.EvictionStrategy,
	}).Info("reaper started")
	return nil
}

// Stop 通知循环退出并等待其结束；正在进行的删除会先完成。可重复调用。
func (r *Reaper) Stop() {
	r.mu.Lock()
	switch r.state {
	case StateCreated:
		close(r.done)
	case StateRunning:
		close(r.stop)
	}
	r.state = StateStopped
	r.mu.Unlock()

	<-r.done
}

// CurrentSize 返回根目录下普通文件的总字节数。
func (r *Reaper) CurrentSize() (int64, error) {
	return eviction.TotalSize(r.path)
}

// NeedsEviction 判断当前占用是否超过预算。
func (r *Reaper) NeedsEviction() (bool, error) {
	size, err := r.CurrentSize()
	if err != nil {
		return false, err
	}
	return size > r.opts.CacheSize, nil
}

// Stats 返回累计统计的副本。
func (r *Reaper) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

func (r *Reaper) loop() {
	defer close(r.done)

	timer := time.NewTimer(r.opts.Interval)
	defer timer.Stop()

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		r.cycle()

		select {
		case <-r.stop:
			return
		case <-timer.C:
			timer.Reset(r.opts.Interval)
		}
	}
}

func (r *Reaper) cycle() {
	needs, err := r.NeedsEviction()
	if err != nil {
		r.logger.WithError(err).WithField("action", "reaper_size").Warn("failed to measure cache size")
		return
	}
	if !needs {
		return
	}
	if _, err := r.Sweep(); err != nil {
		r.logger.WithError(err).WithField("action", "reaper_sweep").Warn("sweep finished with errors")
	}
}

// Sweep 执行一次清理：先删除策略选中的文件，再删除空目录。
// 单个条目的失败只记录日志，不会中断本轮清理。
func (r *Reaper) Sweep() (SweepResult, error) {
	var (
		result SweepResult
		errs   []error
	)

	files, err := r.policy.FilesToEvict()
	if err != nil {
		errs = append(errs, fmt.Errorf("select files: %w", err))
	}
	for _, file := range files {
		removed, err := eviction.RemoveFile(file.Path)
		if err != nil {
			result.Failures++
			r.logger.WithError(err).WithFields(logrus.Fields{
				"action": "reaper_evict_file",
				"file":   file.Path,
			}).Warn("evict file failed")
			continue
		}
		if removed {
			result.FilesRemoved++
			result.BytesFreed += file.Size
		}
	}

	dirs, err := r.policy.DirectoriesToEvict()
	if err != nil {
		errs = append(errs, fmt.Errorf("select directories: %w", err))
	}
	for _, dir := range dirs {
		removed, err := eviction.RemoveDir(dir)
		if err != nil {
			result.Failures++
			r.logger.WithError(err).WithFields(logrus.Fields{
				"action":    "reaper_evict_dir",
				"directory": dir,
			}).Warn("evict directory failed")
			continue
		}
		if !removed {
			continue
		}
		result.DirectoriesRemoved++

		// 父目录可能因此变空，一路向上清理到根目录为止。
		parents, err := eviction.RemoveEmptyParents(r.path, filepath.Dir(dir))
		result.DirectoriesRemoved += parents
		if err != nil {
			result.Failures++
			r.logger.WithError(err).WithFields(logrus.Fields{
				"action":    "reaper_evict_dir",
				"directory": filepath.Dir(dir),
			}).Warn("evict parent directory failed")
		}
	}

	r.record(result)
	r.logger.WithFields(logrus.Fields{
		"action":              "reaper_sweep",
		"files_removed":       result.FilesRemoved,
		"bytes_freed":         result.BytesFreed,
		"directories_removed": result.DirectoriesRemoved,
		"failures":            result.Failures,
	}).Info("sweep completed")

	return result, errors.Join(errs...)
}

func (r *Reaper) record(result SweepResult) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	r.stats.Sweeps++
	r.stats.FilesRemoved += int64(result.FilesRemoved)
	r.stats.BytesFreed += result.BytesFreed
	r.stats.DirectoriesRemoved += int64(result.DirectoriesRemoved)
	r.stats.Failures += int64(result.Failures)
	r.stats.LastSweep = time.Now()
}
