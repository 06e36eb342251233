package reaper

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// Registry 保证同一进程内每个根目录最多只有一个 Reaper。
// 条目在首次 SpawnFor 时创建，直到 KillAll 才会被清除。
type Registry struct {
	mu      sync.Mutex
	reapers map[string]*Reaper
}

// NewRegistry 返回空注册表，测试或嵌入方可以注入独立实例。
func NewRegistry() *Registry {
	return &Registry{reapers: make(map[string]*Reaper)}
}

var defaultRegistry = NewRegistry()

// Default 返回进程级注册表。
func Default() *Registry { return defaultRegistry }

// SpawnFor 在默认注册表上调用 Registry.SpawnFor。
func SpawnFor(path string, opts Options) (*Reaper, error) {
	return defaultRegistry.SpawnFor(path, opts)
}

// KillAll 停止默认注册表中的全部 Reaper 并清空注册表。
func KillAll() {
	defaultRegistry.KillAll()
}

// SpawnFor 返回 path 对应的 Reaper；不存在时用 opts 构造、启动并登记。
// 已登记路径上的 opts 会被忽略，第一个调用方的配置一直生效。
func (g *Registry) SpawnFor(path string, opts Options) (*Reaper, error) {
	key, err := registryKey(path)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.reapers[key]; ok {
		return existing, nil
	}

	reaper, err := New(key, opts)
	if err != nil {
		return nil, err
	}
	if err := reaper.Start(); err != nil {
		return nil, err
	}
	g.reapers[key] = reaper
	return reaper, nil
}

// Lookup 返回已登记的 Reaper。
func (g *Registry) Lookup(path string) (*Reaper, bool) {
	key, err := registryKey(path)
	if err != nil {
		return nil, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	reaper, ok := g.reapers[key]
	return reaper, ok
}

// List 返回按路径排序的全部 Reaper。
func (g *Registry) List() []*Reaper {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.reapers) == 0 {
		return nil
	}
	result := make([]*Reaper, 0, len(g.reapers))
	for _, reaper := range g.reapers {
		result = append(result, reaper)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path() < result[j].Path()
	})
	return result
}

// KillAll 停止所有 Reaper 并清空注册表，用于受控关闭与测试清理。
func (g *Registry) KillAll() {
	g.mu.Lock()
	reapers := g.reapers
	g.reapers = make(map[string]*Reaper)
	g.mu.Unlock()

	for _, reaper := range reapers {
		reaper.Stop()
	}
}

func registryKey(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve reaper path: %w", err)
	}
	return abs, nil
}
