// Package lru 实现按访问时间淘汰的策略，并在 init() 中注册为 "lru"。
package lru

import (
	"sort"

	"github.com/any-hub/diskstore/internal/eviction"
)

// Name 是策略在注册表中的键。
const Name = "lru"

func init() {
	eviction.MustRegister(eviction.Metadata{
		Name:        Name,
		Description: "evicts least recently accessed files first until the cache fits its budget",
		Factory:     New,
	})
}

// Policy 从最久未访问的文件开始淘汰，直到释放的字节数覆盖超出部分。
type Policy struct {
	root   string
	budget int64
}

// New 构造绑定到 params.Root 的 LRU 策略。
func New(params eviction.Params) eviction.Policy {
	return &Policy{root: params.Root, budget: params.Budget}
}

// FilesToEvict 按访问时间升序挑选文件；最后一个文件可能让释放量超过所需，这是预期行为。
func (p *Policy) FilesToEvict() ([]eviction.Candidate, error) {
	files, err := eviction.Files(p.root)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	overage := total - p.budget
	if overage <= 0 {
		return nil, nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].LastAccess.Equal(files[j].LastAccess) {
			return files[i].Path < files[j].Path
		}
		return files[i].LastAccess.Before(files[j].LastAccess)
	})

	var (
		evicted   int64
		selection []eviction.Candidate
	)
	for _, f := range files {
		if evicted >= overage {
			break
		}
		evicted += f.Size
		selection = append(selection, f)
	}
	return selection, nil
}

// DirectoriesToEvict 返回根目录下的空目录。
func (p *Policy) DirectoriesToEvict() ([]string, error) {
	return eviction.EmptyDirectories(p.root)
}
