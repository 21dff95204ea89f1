// Package proc is the descriptor and process bookkeeping engine behind osh.
//
// It owns two registries: one maps user visible file numbers to real OS
// descriptors, the other records every launched command as a span of the
// argument vector together with its process id. Launching forks a child with
// three resolved descriptors installed on its standard streams; reaping
// matches finished processes back to their records and reports them.
//
// Every method is meant to be driven from a single goroutine. Nothing here
// recovers from errors: callers are expected to report the returned *Error
// and exit with its ExitStatus.
package proc
