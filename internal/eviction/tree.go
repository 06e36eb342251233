package eviction

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Files 枚举 root 下所有普通文件及其访问时间与大小。
// 遍历过程中被并发删除的条目会被跳过。
func Files(root string) ([]Candidate, error) {
	var files []Candidate
	err := walk(root, func(path string, d fs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		candidate, err := statCandidate(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		files = append(files, candidate)
		return nil
	})
	return files, err
}

// Directories 返回 root 下的全部子目录，不包含 root 本身。
func Directories(root string) ([]string, error) {
	var dirs []string
	err := walk(root, func(path string, d fs.DirEntry) error {
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// EmptyDirectories 返回 root 下没有任何条目的子目录。
func EmptyDirectories(root string) ([]string, error) {
	dirs, err := Directories(root)
	if err != nil {
		return nil, err
	}

	var empty []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if len(entries) == 0 {
			empty = append(empty, dir)
		}
	}
	return empty, nil
}

// TotalSize 汇总 root 下所有普通文件的字节数。
func TotalSize(root string) (int64, error) {
	var total int64
	err := walk(root, func(path string, d fs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// walk 包装 filepath.WalkDir，容忍遍历期间消失的文件与目录；root 不存在视为空树。
func walk(root string, fn func(path string, d fs.DirEntry) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if path == root {
					return err
				}
				return nil
			}
			return err
		}
		return fn(path, d)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RemoveFile 删除文件；文件已不存在时返回 false 且不视为错误。
func RemoveFile(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemoveDir 删除空目录；目录已消失或又被写入内容时返回 false 且不视为错误。
func RemoveDir(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotEmpty(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}

// RemoveEmptyParents 自 dir 起自下而上删除空目录，直到 root（不含），返回删除的数量。
// 遇到非空目录即停止；已消失的目录视为已删除并继续向上。
func RemoveEmptyParents(root, dir string) (int, error) {
	prefix := filepath.Clean(root) + string(filepath.Separator)
	removed := 0
	for dir = filepath.Clean(dir); strings.HasPrefix(dir, prefix); dir = filepath.Dir(dir) {
		err := os.Remove(dir)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		case isNotEmpty(err):
			return removed, nil
		default:
			return removed, err
		}
	}
	return removed, nil
}
