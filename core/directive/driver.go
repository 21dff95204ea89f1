// Package directive interprets osh directive streams.
//
// Every directive is a long option. Directives run as soon as they are parsed
// so a failure part way through leaves earlier commands running.
package directive

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/josephlewis42/osh/core/proc"
	getopt "github.com/pborman/getopt/v2"
)

// DefaultOpenMode is the permission given to files created by --creat.
const DefaultOpenMode = 0644

// commandTokens is the minimum number of tokens after --command: three
// redirections and a program name.
const commandTokens = 4

// Directive describes one supported directive.
type Directive struct {
	Name string
	// Param names the directive's argument, empty for directives without one.
	Param string
	Help  string
}

// Directives lists everything the driver understands.
var Directives = []Directive{
	{Name: "append", Help: "open the next file in append mode"},
	{Name: "cloexec", Help: "set close-on-exec on the next file"},
	{Name: "creat", Help: "create the next file if it doesn't exist"},
	{Name: "directory", Help: "fail to open the next file unless it is a directory"},
	{Name: "dsync", Help: "open the next file for synchronized data writes"},
	{Name: "excl", Help: "fail to open the next file if it exists (with --creat)"},
	{Name: "nofollow", Help: "don't follow a symbolic link when opening the next file"},
	{Name: "nonblock", Help: "open the next file in non-blocking mode"},
	{Name: "rsync", Help: "open the next file for synchronized reads"},
	{Name: "sync", Help: "open the next file for synchronized writes"},
	{Name: "trunc", Help: "truncate the next file"},
	{Name: "rdonly", Param: "FILE", Help: "open FILE for reading"},
	{Name: "wronly", Param: "FILE", Help: "open FILE for writing"},
	{Name: "rdwr", Param: "FILE", Help: "open FILE for reading and writing"},
	{Name: "pipe", Help: "create a pipe, read end first"},
	{Name: "command", Help: "I O E PROG ARGS... launch PROG with the given standard streams"},
	{Name: "wait", Help: "wait for every launched command and report how it finished"},
	{Name: "chdir", Param: "DIR", Help: "change the working directory"},
	{Name: "close", Param: "N", Help: "close file number N"},
	{Name: "verbose", Help: "print each following directive before running it"},
	{Name: "profile", Help: "report the CPU time of each finished command"},
}

func newSet() *getopt.Set {
	set := getopt.New()
	for _, d := range Directives {
		if d.Param == "" {
			set.BoolLong(d.Name, 0, d.Help)
		} else {
			set.StringLong(d.Name, 0, "", d.Help, d.Param)
		}
	}
	return set
}

// PrintDirectives writes a summary of every directive to w.
func PrintDirectives(w io.Writer) {
	newSet().PrintOptions(w)
}

// Driver feeds directives to an engine.
type Driver struct {
	Engine *proc.Engine
	// Out receives the directives echoed by --verbose.
	Out io.Writer
	// Program is the name errors are attributed to.
	Program string
	// OpenMode is the permission of files created by --creat.
	OpenMode uint32
	// Verbose echoes directives before they run, --verbose turns it on.
	Verbose bool

	set       *getopt.Set
	openFlags int
}

// New creates a driver for e.
func New(e *proc.Engine, out io.Writer) *Driver {
	return &Driver{
		Engine:   e,
		Out:      out,
		Program:  "osh",
		OpenMode: DefaultOpenMode,
		set:      newSet(),
	}
}

// Run interprets tokens. They are appended to the engine's argument vector,
// so a driver can be run several times against the same engine.
//
// Run stops at the first failing directive and returns its error.
func (d *Driver) Run(tokens []string) error {
	base := d.Engine.Extend(tokens)
	all := d.Engine.Args()

	for pos := base; pos < len(all); {
		var runErr error
		err := d.set.Getopt(append([]string{d.Program}, all[pos:]...), func(opt getopt.Option) bool {
			if opt.LongName() == "command" {
				return false
			}
			runErr = d.exec(opt)
			return runErr == nil
		})
		if err != nil {
			return optionError(err)
		}
		if runErr != nil {
			return runErr
		}

		rest := d.set.Args()
		switch d.set.State() {
		case getopt.Terminated:
			// rest starts with the --command token itself.
			next, err := d.command(all, len(all)-len(rest))
			if err != nil {
				return err
			}
			pos = next
		case getopt.EndOfArguments:
			return nil
		default:
			if len(rest) == 0 {
				return nil
			}
			return &proc.Error{Kind: proc.StrayArgument, Token: rest[0]}
		}
	}
	return nil
}

func (d *Driver) exec(opt getopt.Option) error {
	name := opt.LongName()
	tokens := []string{"--" + name}
	value := ""
	if !isFlag(name) {
		value = opt.String()
		tokens = append(tokens, value)
	}
	d.echo(tokens)

	if flag, ok := openFlags[name]; ok {
		d.openFlags |= flag
		return nil
	}
	if mode, ok := accessModes[name]; ok {
		flags := mode | d.openFlags
		d.openFlags = 0
		_, err := d.Engine.OpenDescriptor(value, flags, d.OpenMode)
		return proc.WithTokens(err, tokens)
	}

	switch name {
	case "pipe":
		_, _, err := d.Engine.CreatePipe()
		return err
	case "wait":
		return d.Engine.WaitForRemaining()
	case "chdir":
		return proc.WithTokens(d.Engine.ChangeDirectory(value), tokens)
	case "close":
		n, err := proc.ParseFileNumber(value)
		if err != nil {
			return proc.WithTokens(err, tokens)
		}
		return proc.WithTokens(d.Engine.CloseFileNumber(n), tokens)
	case "verbose":
		d.Verbose = true
	case "profile":
		d.Engine.SetProfile(true)
	default:
		return &proc.Error{Kind: proc.UnknownDirective, Token: "--" + name}
	}
	return nil
}

// command runs the --command directive at all[at] and returns the index of
// the token following it.
func (d *Driver) command(all []string, at int) (int, error) {
	end := at + 1
	for end < len(all) && !isDirectiveToken(all[end]) {
		end++
	}
	directive := all[at:end]
	d.echo(directive)

	if err := d.Engine.BeginCommand(at + commandTokens); err != nil {
		return 0, proc.WithTokens(err, directive)
	}
	for slot := 0; slot < 3 && at+1+slot < end; slot++ {
		if err := d.Engine.Redirect(slot, all[at+1+slot], all[at:at+1+slot]); err != nil {
			return 0, err
		}
	}
	if n := end - at - 1; n < commandTokens {
		return 0, &proc.Error{
			Kind:    proc.TooFewCommandTokens,
			Missing: commandTokens - n,
			Tokens:  append([]string(nil), directive...),
		}
	}

	if _, err := d.Engine.FinishAndLaunch(end-1, directive); err != nil {
		return 0, err
	}
	return end, nil
}

func (d *Driver) echo(tokens []string) {
	if d.Verbose && d.Out != nil {
		fmt.Fprintln(d.Out, strings.Join(tokens, " "))
	}
}

func isFlag(name string) bool {
	for _, d := range Directives {
		if d.Name == name {
			return d.Param == ""
		}
	}
	return true
}

// isDirectiveToken reports whether token ends the arguments of a --command.
func isDirectiveToken(token string) bool {
	return strings.HasPrefix(token, "--")
}

func optionError(err error) error {
	var gerr *getopt.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.ErrorCode {
	case getopt.MissingParameter:
		return &proc.Error{Kind: proc.MissingArgument, Token: gerr.Name, Err: err}
	default:
		return &proc.Error{Kind: proc.UnknownDirective, Token: gerr.Name, Err: err}
	}
}
