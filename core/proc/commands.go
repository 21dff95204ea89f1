package proc

import "errors"

// DefaultCommandCapacity is the number of records a CommandRegistry starts
// with.
const DefaultCommandCapacity = 16

// CommandRecord describes one launched command.
type CommandRecord struct {
	// Start is the index of the program name in the argument vector.
	Start int
	// End is the index of the command's last argument.
	End int
	// Pid is the child's process id, zero if no process was started.
	Pid int
	// Early holds the outcome of a launch that never reached the program,
	// e.g. a failed exec. Such records are reported without waiting.
	Early *Status
}

// Span returns the command's tokens within args.
func (c *CommandRecord) Span(args []string) []string {
	return args[c.Start : c.End+1]
}

// Launched is the parent's view of a started child.
type Launched struct {
	Pid   int
	Early *Status
}

var errNoPendingCommand = errors.New("no command has been begun")

// CommandRegistry records every command launched, in launch order.
type CommandRegistry struct {
	records *growable[*CommandRecord]
	pending *CommandRecord
}

// NewCommandRegistry creates an empty registry with the given initial
// capacity.
func NewCommandRegistry(capacity int) *CommandRegistry {
	return &CommandRegistry{records: newGrowable[*CommandRecord](capacity)}
}

// Begin starts a new record whose program name is the token at start.
func (r *CommandRegistry) Begin(start int) error {
	if err := r.records.reserve(); err != nil {
		return err
	}
	r.pending = &CommandRecord{Start: start, End: -1}
	return nil
}

// Finish closes the span of the most recently begun record at end and calls
// launch with it. On success the record keeps the launch outcome and counts
// as used; on failure nothing is recorded.
func (r *CommandRegistry) Finish(end int, launch func(*CommandRecord) (Launched, error)) (*CommandRecord, error) {
	rec := r.pending
	if rec == nil {
		return nil, errNoPendingCommand
	}
	r.pending = nil

	rec.End = end
	launched, err := launch(rec)
	if err != nil {
		return nil, err
	}
	rec.Pid = launched.Pid
	rec.Early = launched.Early

	if _, err := r.records.Append(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LookupByPid finds the record of the child with the given pid.
//
// The scan runs newest first: a pid can only be reused by the OS after its
// earlier owner was reaped, so the newest match is the live one.
func (r *CommandRegistry) LookupByPid(pid int) (int, *CommandRecord) {
	if pid <= 0 {
		return -1, nil
	}
	for i := r.records.Len() - 1; i >= 0; i-- {
		rec, _ := r.records.Get(i)
		if rec.Pid == pid {
			return i, rec
		}
	}
	return -1, nil
}

// Get returns the i'th launched record.
func (r *CommandRegistry) Get(i int) (*CommandRecord, bool) {
	return r.records.Get(i)
}

// Len is the number of launched commands.
func (r *CommandRegistry) Len() int {
	return r.records.Len()
}
