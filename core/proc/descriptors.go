package proc

import (
	"golang.org/x/sys/unix"
)

// DefaultDescriptorCapacity is the number of slots a DescriptorRegistry
// starts with.
const DefaultDescriptorCapacity = 32

// DescriptorRegistry maps file numbers to the OS descriptors they own.
//
// File numbers are handed out in registration order starting at zero and are
// never reused: closing a descriptor leaves its slot in place.
type DescriptorRegistry struct {
	fds *growable[int]
}

// NewDescriptorRegistry creates an empty registry with the given initial
// capacity.
func NewDescriptorRegistry(capacity int) *DescriptorRegistry {
	return &DescriptorRegistry{fds: newGrowable[int](capacity)}
}

// Register takes ownership of fd and returns its file number.
func (r *DescriptorRegistry) Register(fd int) (int, error) {
	return r.fds.Append(fd)
}

// Resolve returns the descriptor behind file number n.
//
// A closed descriptor still resolves to its old value; using it is the
// caller's mistake.
func (r *DescriptorRegistry) Resolve(n int) (int, error) {
	fd, ok := r.fds.Get(n)
	if !ok {
		return -1, &Error{Kind: InvalidFileNumber, Number: n}
	}
	return fd, nil
}

// Close closes the descriptor behind file number n.
func (r *DescriptorRegistry) Close(n int) error {
	fd, err := r.Resolve(n)
	if err != nil {
		return err
	}
	if err := unix.Close(fd); err != nil {
		return osError("close", err)
	}
	return nil
}

// Open opens path and registers the new descriptor.
func (r *DescriptorRegistry) Open(path string, flags int, mode uint32) (int, error) {
	fd, err := unix.Open(path, flags, mode)
	if err != nil {
		return -1, osError("open", err)
	}
	return r.Register(fd)
}

// Pipe creates a pipe and registers both ends, read end first. Both ends are
// close-on-exec so children only see them when a launch installs them on a
// standard stream.
func (r *DescriptorRegistry) Pipe() (read, write int, err error) {
	p := make([]int, 2)
	if err := pipeCloexec(p); err != nil {
		return -1, -1, osError("pipe", err)
	}
	if read, err = r.Register(p[0]); err != nil {
		return -1, -1, err
	}
	if write, err = r.Register(p[1]); err != nil {
		return -1, -1, err
	}
	return read, write, nil
}

// Len is the number of file numbers handed out so far.
func (r *DescriptorRegistry) Len() int {
	return r.fds.Len()
}
