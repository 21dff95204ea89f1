//go:build !linux
// +build !linux

package proc

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// pipeCloexec emulates pipe2(O_CLOEXEC) where it doesn't exist. Holding the
// fork lock keeps a concurrent fork from inheriting the ends before the flag
// is set.
func pipeCloexec(p []int) error {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()

	if err := unix.Pipe(p); err != nil {
		return err
	}
	unix.CloseOnExec(p[0])
	unix.CloseOnExec(p[1])
	return nil
}
