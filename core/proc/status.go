package proc

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Status is how a child finished.
type Status struct {
	// Signaled is set when the child was terminated by a signal.
	Signaled bool
	// Code holds the exit code, or the signal number when Signaled is set.
	Code int

	UserTime   time.Duration
	SystemTime time.Duration
}

// Exited returns the status of a child that exited with code.
func Exited(code int) Status {
	return Status{Code: code}
}

// String formats the status the way completion reports print it.
func (s Status) String() string {
	if s.Signaled {
		return fmt.Sprintf("signal %d", s.Code)
	}
	return fmt.Sprintf("exit %d", s.Code)
}

func statusFromWait(ws unix.WaitStatus, ru *unix.Rusage) Status {
	var st Status
	switch {
	case ws.Signaled():
		st.Signaled = true
		st.Code = int(ws.Signal())
	default:
		st.Code = ws.ExitStatus()
	}
	if ru != nil {
		st.UserTime = time.Duration(ru.Utime.Nano())
		st.SystemTime = time.Duration(ru.Stime.Nano())
	}
	return st
}
