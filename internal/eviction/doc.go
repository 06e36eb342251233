// Package eviction 定义缓存根目录的淘汰策略接口，并提供按名称查找策略的注册表。
//
// 策略作者需要：
//   1. 在 internal/eviction/<name>/ 目录下实现 Policy 接口；
//   2. 通过本包暴露的 MustRegister 在 init() 中注册策略元数据；
//   3. 每次调用都重新扫描目录树，不要跨轮次缓存候选集，文件系统是唯一事实来源。
//
// 未配置策略时使用内置的 none 策略，它永远不淘汰任何文件，允许缓存无限增长。
package eviction
