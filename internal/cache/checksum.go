package cache

import (
	"crypto/md5"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
)

// verifier 在数据流过时计算摘要。裸十六进制串按 MD5 处理，
// "algorithm:hex" 形式交给 go-digest 解析。
type verifier struct {
	expected string
	hash     hash.Hash
	render   func(sum []byte) string
}

func newVerifier(expected string) (*verifier, error) {
	if strings.Contains(expected, ":") {
		d, err := digest.Parse(expected)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidChecksum, expected, err)
		}
		alg := d.Algorithm()
		return &verifier{
			expected: d.String(),
			hash:     alg.Hash(),
			render: func(sum []byte) string {
				return digest.NewDigestFromEncoded(alg, hex.EncodeToString(sum)).String()
			},
		}, nil
	}

	if _, err := hex.DecodeString(expected); err != nil || len(expected) != md5.Size*2 {
		return nil, fmt.Errorf("%w %q: expected %d hex characters", ErrInvalidChecksum, expected, md5.Size*2)
	}
	return &verifier{
		expected: strings.ToLower(expected),
		hash:     md5.New(),
		render:   hex.EncodeToString,
	}, nil
}

func (v *verifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

func (v *verifier) Actual() string {
	return v.render(v.hash.Sum(nil))
}

func (v *verifier) Matches() bool {
	return v.Actual() == v.expected
}

// hashReader 读完 r 并返回对应的 verifier。
func hashReader(r io.Reader, expected string) (*verifier, error) {
	v, err := newVerifier(expected)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(v, r); err != nil {
		return nil, err
	}
	return v, nil
}
