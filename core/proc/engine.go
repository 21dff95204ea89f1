package proc

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Recorder stores engine events in an external log.
type Recorder interface {
	Record(event string, fields map[string]interface{}) error
}

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	DescriptorCapacity int
	CommandCapacity    int

	Launcher Launcher
	Waiter   Waiter

	// Out receives completion reports.
	Out io.Writer
	// Recorder, if set, gets an event for every operation.
	Recorder Recorder
}

// Engine ties the registries, the launcher and the reaper together behind
// the operations the directive driver calls.
type Engine struct {
	Descriptors *DescriptorRegistry
	Commands    *CommandRegistry
	Reaper      *Reaper

	launcher Launcher
	resolver Resolver
	out      io.Writer
	recorder Recorder

	// args is the argument vector command records index into. It only ever
	// grows.
	args []string

	stdio       [3]int
	stdioTokens [3]string
}

// NewEngine creates an engine with empty registries.
func NewEngine(opts Options) *Engine {
	if opts.DescriptorCapacity <= 0 {
		opts.DescriptorCapacity = DefaultDescriptorCapacity
	}
	if opts.CommandCapacity <= 0 {
		opts.CommandCapacity = DefaultCommandCapacity
	}
	if opts.Launcher == nil {
		opts.Launcher = NewOSLauncher(nil, "")
	}
	if opts.Waiter == nil {
		opts.Waiter = OSWaiter{}
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	descriptors := NewDescriptorRegistry(opts.DescriptorCapacity)
	e := &Engine{
		Descriptors: descriptors,
		Commands:    NewCommandRegistry(opts.CommandCapacity),
		Reaper:      &Reaper{Waiter: opts.Waiter},
		launcher:    opts.Launcher,
		resolver:    Resolver{Descriptors: descriptors},
		out:         opts.Out,
		recorder:    opts.Recorder,
		stdio:       [3]int{unix.Stdin, unix.Stdout, unix.Stderr},
		stdioTokens: [3]string{"i", "o", "e"},
	}
	e.Reaper.OnReap = func(rec *CommandRecord, st Status) {
		fields := map[string]interface{}{
			"pid":      rec.Pid,
			"argv":     stringList(rec.Span(e.args)),
			"signaled": st.Signaled,
			"code":     st.Code,
		}
		if rec.Early != nil {
			fields["early"] = true
		}
		e.record("reap", fields)
	}
	return e
}

// SetProfile turns CPU time reporting of reaped children on or off.
func (e *Engine) SetProfile(profile bool) {
	e.Reaper.Profile = profile
}

// Extend appends tokens to the argument vector and returns the index of the
// first one.
func (e *Engine) Extend(tokens []string) int {
	base := len(e.args)
	e.args = append(e.args, tokens...)
	return base
}

// Args returns the argument vector. Callers must not modify it.
func (e *Engine) Args() []string {
	return e.args
}

// OpenDescriptor opens path and returns its file number.
func (e *Engine) OpenDescriptor(path string, flags int, mode uint32) (int, error) {
	n, err := e.Descriptors.Open(path, flags, mode)
	if err != nil {
		return -1, err
	}
	e.record("open", map[string]interface{}{"path": path, "flags": flags, "file_number": n})
	return n, nil
}

// CreatePipe creates a pipe and returns the file numbers of its ends.
func (e *Engine) CreatePipe() (read, write int, err error) {
	read, write, err = e.Descriptors.Pipe()
	if err != nil {
		return -1, -1, err
	}
	e.record("pipe", map[string]interface{}{"read": read, "write": write})
	return read, write, nil
}

// CloseFileNumber closes the descriptor behind n.
func (e *Engine) CloseFileNumber(n int) error {
	if err := e.Descriptors.Close(n); err != nil {
		return err
	}
	e.record("close", map[string]interface{}{"file_number": n})
	return nil
}

// Redirect resolves token as the descriptor the next launch installs on
// standard stream slot (0, 1 or 2). consumed holds the directive tokens read
// so far and ends up in the error.
func (e *Engine) Redirect(slot int, token string, consumed []string) error {
	if slot < 0 || slot > 2 {
		return fmt.Errorf("redirection slot %d out of range", slot)
	}
	fd, err := e.resolver.Resolve(token)
	if err != nil {
		return WithTokens(err, consumed)
	}
	e.stdio[slot] = fd
	e.stdioTokens[slot] = token
	return nil
}

// BeginCommand starts a command whose program name is args[start].
func (e *Engine) BeginCommand(start int) error {
	return e.Commands.Begin(start)
}

// FinishAndLaunch ends the current command at args[end] and launches it with
// the pending redirections. directive is the full directive, for diagnostics.
func (e *Engine) FinishAndLaunch(end int, directive []string) (*CommandRecord, error) {
	rec, err := e.Commands.Finish(end, func(rec *CommandRecord) (Launched, error) {
		return e.launcher.Launch(Spawn{
			Stdio:     e.stdio,
			Argv:      rec.Span(e.args),
			Directive: directive,
		})
	})
	if err != nil {
		return nil, WithTokens(err, directive)
	}

	fields := map[string]interface{}{
		"pid":   rec.Pid,
		"argv":  stringList(rec.Span(e.args)),
		"stdio": stringList(e.stdioTokens[:]),
	}
	if rec.Early != nil {
		fields["early_status"] = rec.Early.String()
	}
	e.record("launch", fields)
	return rec, nil
}

// WaitForRemaining reaps every command launched so far.
func (e *Engine) WaitForRemaining() error {
	return e.Reaper.Reap(e.Commands, e.args, e.out)
}

// ChangeDirectory changes the working directory of the parent, and so of
// every child launched afterwards.
func (e *Engine) ChangeDirectory(path string) error {
	if err := unix.Chdir(path); err != nil {
		return osError("chdir", err)
	}
	e.record("chdir", map[string]interface{}{"path": path})
	return nil
}

func (e *Engine) record(event string, fields map[string]interface{}) {
	if e.recorder == nil {
		return
	}
	// The event log is best effort; it never changes what the engine does.
	_ = e.recorder.Record(event, fields)
}

func stringList(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
