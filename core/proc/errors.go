package proc

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Kind classifies a failure. Kinds are errors themselves so callers can match
// them with errors.Is.
type Kind int

const (
	AllocationExhausted Kind = iota + 1
	InvalidFileNumber
	OsError
	BadRedirectionToken
	BadNumericToken
	TooFewCommandTokens
	NothingToWait
	ExecFailed
	UnknownDirective
	MissingArgument
	StrayArgument
)

var kindNames = map[Kind]string{
	AllocationExhausted: "allocation exhausted",
	InvalidFileNumber:   "invalid file number",
	OsError:             "os error",
	BadRedirectionToken: "bad redirection token",
	BadNumericToken:     "bad numeric token",
	TooFewCommandTokens: "too few command tokens",
	NothingToWait:       "nothing to wait for",
	ExecFailed:          "exec failed",
	UnknownDirective:    "unknown directive",
	MissingArgument:     "missing argument",
	StrayArgument:       "stray argument",
}

func (k Kind) Error() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DefaultFailureStatus is the exit status used when a failure has no
// underlying OS error code.
const DefaultFailureStatus = 1

// Error is the failure type returned by the engine and the directive driver.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "open" or "wait".
	Op string
	// Token is the offending textual token, if any.
	Token string
	// Number is the offending file number for InvalidFileNumber.
	Number int
	// Missing is the count of absent tokens for TooFewCommandTokens.
	Missing int
	// Tokens holds the directive tokens consumed so far, for diagnostics.
	Tokens []string
	// Err is the underlying cause, usually a unix.Errno.
	Err error
}

func (e *Error) directive() string {
	return strings.Join(e.Tokens, " ")
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidFileNumber:
		if len(e.Tokens) > 0 {
			return fmt.Sprintf("invalid file number '%d' to '%s'", e.Number, e.directive())
		}
		return fmt.Sprintf("invalid file number '%d'", e.Number)
	case BadRedirectionToken, BadNumericToken:
		return fmt.Sprintf("bad argument '%s' to '%s'", e.Token, e.directive())
	case TooFewCommandTokens:
		return fmt.Sprintf("%d too few arguments to '%s'", e.Missing, e.directive())
	case NothingToWait:
		return "'--wait' has no unreaped commands to wait for"
	case UnknownDirective:
		return fmt.Sprintf("unknown option '%s'", e.Token)
	case MissingArgument:
		return fmt.Sprintf("missing arg for '%s'", e.Token)
	case StrayArgument:
		return fmt.Sprintf("non-option arg '%s' not allowed", e.Token)
	}

	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && len(e.Tokens) > 0:
		return fmt.Sprintf("'%s' failed with message '%s' for '%s'", e.Op, msg, e.directive())
	case e.Op != "":
		return fmt.Sprintf("'%s' failed with message '%s'", e.Op, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// ExitStatus is the status the process should terminate with: the OS error
// code when one caused the failure, otherwise DefaultFailureStatus.
func (e *Error) ExitStatus() int {
	var errno unix.Errno
	if errors.As(e.Err, &errno) && errno != 0 {
		return int(errno)
	}
	return DefaultFailureStatus
}

// WithTokens returns err annotated with the directive tokens if it is an
// *Error that doesn't carry any yet.
func WithTokens(err error, tokens []string) error {
	var perr *Error
	if errors.As(err, &perr) && len(perr.Tokens) == 0 {
		perr.Tokens = append([]string(nil), tokens...)
	}
	return err
}

func osError(op string, err error) *Error {
	return &Error{Kind: OsError, Op: op, Err: err}
}
