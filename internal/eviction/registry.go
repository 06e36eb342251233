package eviction

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownPolicy 表示请求的策略名称未注册。
var ErrUnknownPolicy = errors.New("unknown eviction policy")

var globalRegistry = newRegistry()

type registry struct {
	mu       sync.RWMutex
	policies map[string]Metadata
}

func newRegistry() *registry {
	return &registry{policies: make(map[string]Metadata)}
}

// Register 将策略加入全局注册表，重复名称会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合策略包的 init() 中调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定名称的策略元数据，空名称等价于 none。
func Resolve(name string) (Metadata, bool) {
	return globalRegistry.resolve(name)
}

// List 返回按名称排序的策略列表。
func List() []Metadata {
	return globalRegistry.list()
}

// Names 返回所有已注册策略的名称。
func Names() []string {
	items := List()
	result := make([]string, len(items))
	for i, meta := range items {
		result[i] = meta.Name
	}
	return result
}

// New 按名称构造策略实例。
func New(name string, params Params) (Policy, error) {
	meta, ok := Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	return meta.Factory(params), nil
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return NoneName
	}
	return normalized
}

func (r *registry) register(meta Metadata) error {
	if strings.TrimSpace(meta.Name) == "" {
		return fmt.Errorf("policy name is required")
	}
	if meta.Factory == nil {
		return fmt.Errorf("policy %s: factory is required", meta.Name)
	}
	meta.Name = normalizeName(meta.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[meta.Name]; exists {
		return fmt.Errorf("policy %s already registered", meta.Name)
	}
	r.policies[meta.Name] = meta
	return nil
}

func (r *registry) resolve(name string) (Metadata, bool) {
	normalized := normalizeName(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.policies[normalized]
	return meta, ok
}

func (r *registry) list() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.policies) == 0 {
		return nil
	}

	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Metadata, 0, len(names))
	for _, name := range names {
		result = append(result, r.policies[name])
	}
	return result
}
