//go:build !unix

package cache

// 非 unix 平台没有 flock(2)，写入只依赖单进程内的调用方串行。
func lockExclusive(int) error { return nil }

func unlockFile(int) error { return nil }
