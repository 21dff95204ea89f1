package proc

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	"github.com/josephlewis42/osh/core/diag"
	"github.com/spf13/afero"
)

// Default outcomes for launches that never reach the requested program.
const (
	DefaultExecFailureStatus = 1
	DefaultSelfExecStatus    = 5
)

// defaultPath is searched when PATH is unset, like execvp does.
const defaultPath = "/bin:/usr/bin"

// shell runs files the kernel doesn't recognize as executables.
const shell = "/bin/sh"

// Spawn describes a child to start.
type Spawn struct {
	// Stdio holds the descriptors to install as the child's stdin, stdout and
	// stderr.
	Stdio [3]int
	// Argv is the program name followed by its arguments.
	Argv []string
	// Directive is the full directive that asked for the launch, used in
	// diagnostics.
	Directive []string
}

// Launcher starts children without waiting for them.
type Launcher interface {
	Launch(s Spawn) (Launched, error)
}

// OSLauncher forks and execs real processes.
//
// Go reports failures that happen in the child between fork and exec back to
// the parent. OSLauncher hands those back the way the child would have
// reported them: a diagnostic on the error stream and an early exit status
// that the next wait reports. Only a failed fork is an error for the parent.
type OSLauncher struct {
	// Fs is used to search PATH, it defaults to the OS filesystem.
	Fs afero.Fs
	// Env is the environment of every child, nil means the parent's.
	Env []string
	// Diag receives child diagnostics.
	Diag *diag.Printer

	// Self is the parent's own invocation path.
	Self string
	// SelfExecGuard makes launches of Self finish immediately with
	// SelfExecStatus instead of running anything.
	SelfExecGuard  bool
	SelfExecStatus int

	// ExecFailureStatus is the exit status of a child whose exec failed.
	ExecFailureStatus int
}

var _ Launcher = (*OSLauncher)(nil)

// NewOSLauncher creates a launcher with the default statuses.
func NewOSLauncher(d *diag.Printer, self string) *OSLauncher {
	return &OSLauncher{
		Fs:                afero.NewOsFs(),
		Diag:              d,
		Self:              self,
		SelfExecGuard:     true,
		SelfExecStatus:    DefaultSelfExecStatus,
		ExecFailureStatus: DefaultExecFailureStatus,
	}
}

// Launch implements Launcher.
func (l *OSLauncher) Launch(s Spawn) (Launched, error) {
	name := s.Argv[0]
	if l.SelfExecGuard && l.Self != "" && name == l.Self {
		return early(Exited(l.SelfExecStatus)), nil
	}

	fsys := l.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	searchPath, ok := os.LookupEnv("PATH")
	if !ok {
		searchPath = defaultPath
	}
	path, err := LookPath(fsys, searchPath, name)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			err = syscall.ENOENT
		case errors.Is(err, fs.ErrPermission):
			err = syscall.EACCES
		}
		return l.execFailed(s, err), nil
	}

	pid, err := l.forkExec(path, s.Argv, s.Stdio)
	if errors.Is(err, syscall.ENOEXEC) {
		// A file without a #! line is a shell script, as far as execvp is
		// concerned.
		argv := append([]string{shell, path}, s.Argv[1:]...)
		pid, err = l.forkExec(shell, argv, s.Stdio)
	}
	if err == nil {
		return Launched{Pid: pid}, nil
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return Launched{}, osError("fork", err)
	}
	switch errno {
	case syscall.EAGAIN, syscall.ENOMEM:
		return Launched{}, osError("fork", errno)
	case syscall.EBADF:
		l.report(&Error{Kind: OsError, Op: "dup2", Tokens: s.Directive, Err: errno})
		return early(Exited(int(errno))), nil
	default:
		return l.execFailed(s, errno), nil
	}
}

func (l *OSLauncher) forkExec(path string, argv []string, stdio [3]int) (int, error) {
	env := l.Env
	if env == nil {
		env = os.Environ()
	}
	return syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env: env,
		Files: []uintptr{
			uintptr(stdio[0]),
			uintptr(stdio[1]),
			uintptr(stdio[2]),
		},
	})
}

func (l *OSLauncher) execFailed(s Spawn, err error) Launched {
	l.report(&Error{Kind: ExecFailed, Op: "execvp", Tokens: s.Directive, Err: err})
	return early(Exited(l.ExecFailureStatus))
}

func (l *OSLauncher) report(err error) {
	if l.Diag != nil {
		l.Diag.Error(err)
	}
}

func early(st Status) Launched {
	return Launched{Early: &st}
}
