package cache

import (
	"errors"
	"fmt"
	"io"
)

var errNilBody = errors.New("producer returned nil body")

// Fetch 命中时直接读取；未命中且提供 producer 时写入，并返回写入时的文件句柄。
// 同一 key 的并发未命中通过 singleflight 合并，producer 只执行一次；
// 其余调用方随后按自己的 checksum 读取。读取期间条目被删除或淘汰时重新走一遍。
func (s *DiskStore) Fetch(key, checksum string, producer Producer) (*ReadResult, error) {
	if producer == nil {
		return s.Read(key, checksum)
	}

	for range maxOpenAttempts {
		result, err := s.Read(key, checksum)
		if !errors.Is(err, ErrNotFound) {
			return result, err
		}

		var produced *ReadResult
		_, err, _ = s.fetches.Do(key, func() (any, error) {
			if s.Exists(key) {
				return nil, nil
			}
			r, err := s.produce(key, checksum, producer)
			produced = r
			return nil, err
		})
		if err != nil {
			return nil, err
		}
		if produced != nil {
			return produced, nil
		}
	}
	return nil, ErrNotFound
}

func (s *DiskStore) produce(key, checksum string, producer Producer) (*ReadResult, error) {
	body, err := producer()
	if err != nil {
		return nil, fmt.Errorf("produce %q: %w", key, err)
	}
	if body == nil {
		return nil, fmt.Errorf("produce %q: %w", key, errNilBody)
	}
	if closer, ok := body.(io.Closer); ok {
		defer closer.Close()
	}
	return s.Write(key, body, checksum)
}
