//go:build unix

package cache

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

const maxEINTRRetries = 10000

func lockExclusive(fd int) error {
	return flockRetryEINTR(fd, unix.LOCK_EX)
}

func unlockFile(fd int) error {
	return flockRetryEINTR(fd, unix.LOCK_UN)
}

// flockRetryEINTR 在信号打断时重试 flock(2)。
func flockRetryEINTR(fd int, how int) error {
	var err error
	for range maxEINTRRetries {
		err = unix.Flock(fd, how)
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return err
		}
	}
	return err
}
