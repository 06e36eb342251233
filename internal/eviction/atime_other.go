//go:build !linux && !darwin

package eviction

import "os"

// 其他平台拿不到可靠的访问时间，退回到修改时间。
func statCandidate(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Path:       path,
		LastAccess: info.ModTime(),
		Size:       info.Size(),
	}, nil
}
