package proc

import "golang.org/x/sys/unix"

func pipeCloexec(p []int) error {
	return unix.Pipe2(p, unix.O_CLOEXEC)
}
