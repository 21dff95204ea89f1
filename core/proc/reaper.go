package proc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/sys/unix"
)

// Waiter blocks until any child terminates.
type Waiter interface {
	Wait() (pid int, st Status, err error)
}

// OSWaiter waits on real children with wait4(2).
type OSWaiter struct{}

var _ Waiter = OSWaiter{}

// Wait implements Waiter.
func (OSWaiter) Wait() (int, Status, error) {
	for {
		var ws unix.WaitStatus
		var ru unix.Rusage
		pid, err := unix.Wait4(-1, &ws, 0, &ru)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, Status{}, err
		case !ws.Exited() && !ws.Signaled():
			continue
		}
		return pid, statusFromWait(ws, &ru), nil
	}
}

// Reaper collects finished children and reports them.
type Reaper struct {
	Waiter Waiter
	// Profile adds the CPU time of every child to its report.
	Profile bool
	// OnReap, if set, is called for every reported command.
	OnReap func(rec *CommandRecord, st Status)

	reaped       int
	earlyScanned int
}

// NewReaper creates a Reaper for real children.
func NewReaper() *Reaper {
	return &Reaper{Waiter: OSWaiter{}}
}

// Reaped is the number of commands reported so far.
func (r *Reaper) Reaped() int {
	return r.reaped
}

// Reap waits until every command launched before the call has been reported.
// Each completion is written to out as one line holding the status and the
// command's tokens from args.
//
// Children are matched by pid, so completion order doesn't matter. Pids that
// don't belong to a record are dropped silently.
func (r *Reaper) Reap(cmds *CommandRegistry, args []string, out io.Writer) error {
	target := cmds.Len()
	if r.reaped >= target {
		return &Error{Kind: NothingToWait}
	}

	for ; r.earlyScanned < target; r.earlyScanned++ {
		rec, _ := cmds.Get(r.earlyScanned)
		if rec.Early != nil {
			r.report(rec, *rec.Early, args, out)
		}
	}

	for r.reaped < target {
		pid, st, err := r.Waiter.Wait()
		if err != nil {
			return osError("wait", err)
		}
		_, rec := cmds.LookupByPid(pid)
		if rec == nil {
			continue
		}
		r.report(rec, st, args, out)
	}
	return nil
}

func (r *Reaper) report(rec *CommandRecord, st Status, args []string, out io.Writer) {
	fmt.Fprintf(out, "%s %s\n", st, strings.Join(rec.Span(args), " "))
	if r.Profile {
		fmt.Fprintf(out, "  user %.6fs system %.6fs\n", st.UserTime.Seconds(), st.SystemTime.Seconds())
	}
	if r.OnReap != nil {
		r.OnReap(rec, st)
	}
	r.reaped++
}
