package eviction

import "time"

const (
	// NoneName 是默认策略的名称，不淘汰任何内容。
	NoneName = "none"
)

// Candidate 描述一个淘汰候选文件，字段均来自文件系统属性。
type Candidate struct {
	Path       string
	LastAccess time.Time
	Size       int64
}

// Policy 计算需要删除的文件与空目录，使缓存回到预算之内。
// 实现必须在每次调用时重新读取目录树。
type Policy interface {
	// FilesToEvict 返回按淘汰顺序排列的文件列表。
	FilesToEvict() ([]Candidate, error)

	// DirectoriesToEvict 返回可删除的空目录，与容量压力无关。
	DirectoriesToEvict() ([]string, error)
}

// Params 是构造策略所需的根目录与预算。
type Params struct {
	Root   string
	Budget int64
}

// Factory 根据 Params 构造策略实例。
type Factory func(Params) Policy

// Metadata 记录一个策略的静态信息，供配置校验与诊断接口使用。
type Metadata struct {
	Name        string
	Description string
	Factory     Factory
}

type nonePolicy struct{}

func (nonePolicy) FilesToEvict() ([]Candidate, error) {
	return nil, nil
}

func (nonePolicy) DirectoriesToEvict() ([]string, error) {
	return nil, nil
}

func init() {
	MustRegister(Metadata{
		Name:        NoneName,
		Description: "never evicts; the cache grows without bound",
		Factory:     func(Params) Policy { return nonePolicy{} },
	})
}
