package cache

import (
	"fmt"
	"hash/adler32"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	// shardModulus 控制每层分片目录的数量（0x000 - 0xFFF）。
	shardModulus = 0x1000
	// maxNameChunk 低于常见 NAME_MAX(255)，为后缀预留余量。
	maxNameChunk = 228
	// emptyKeyName 是空键的保留编码，QueryEscape 永远不会产出单独的 "="。
	emptyKeyName = "="
)

// EncodeKey 将任意字符串键映射为 root 下的确定性路径：
//
//	<root>/<adler32 % 4096>/<adler32 / 4096 % 4096>/<encoded name, 228 字节一段>
func EncodeKey(root, key string) string {
	name := encodeName(key)
	sum := adler32.Checksum([]byte(name))

	parts := make([]string, 0, 4+len(name)/maxNameChunk)
	parts = append(parts,
		root,
		fmt.Sprintf("%03X", sum%shardModulus),
		fmt.Sprintf("%03X", (sum/shardModulus)%shardModulus),
	)
	for len(name) > maxNameChunk {
		parts = append(parts, name[:maxNameChunk])
		name = name[maxNameChunk:]
	}
	parts = append(parts, name)
	return filepath.Join(parts...)
}

// DecodeKey 是 EncodeKey 的逆操作。path 必须位于 root 之下且至少包含两层分片目录。
func DecodeKey(root, path string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s is outside %s", ErrInvalidPath, path, root)
	}

	parts := strings.Split(rel, "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	name := strings.Join(parts[2:], "")
	if name == emptyKeyName {
		return "", nil
	}
	key, err := url.QueryUnescape(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return key, nil
}

// encodeName 使用表单编码，并额外转义 "."，保证不会出现 "." 或 ".." 路径段。
func encodeName(key string) string {
	if key == "" {
		return emptyKeyName
	}
	return strings.ReplaceAll(url.QueryEscape(key), ".", "%2E")
}
