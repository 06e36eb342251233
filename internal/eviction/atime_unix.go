//go:build linux || darwin

package eviction

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

func statCandidate(path string) (Candidate, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Candidate{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	sec, nsec := st.Atim.Unix()
	return Candidate{
		Path:       path,
		LastAccess: time.Unix(sec, nsec),
		Size:       st.Size,
	}, nil
}
