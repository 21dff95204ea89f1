package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/josephlewis42/osh/core/config"
	"github.com/josephlewis42/osh/core/diag"
	"github.com/josephlewis42/osh/core/directive"
	"github.com/josephlewis42/osh/core/eventlog"
	"github.com/josephlewis42/osh/core/proc"
)

// session is one engine and driver configured from osh.yaml.
type session struct {
	driver   *directive.Driver
	diag     *diag.Printer
	recorder *eventlog.Recorder
	closers  []io.Closer
}

type sessionOptions struct {
	// Mode names the subcommand in the event log.
	Mode string
	// Tokens are the directives known up front, for the event log digest.
	Tokens []string

	Out    io.Writer
	ErrOut io.Writer
}

func newSession(cfg *config.Configuration, opts sessionOptions) (*session, error) {
	self := os.Args[0]
	printer := diag.New(opts.ErrOut, filepath.Base(self), cfg.Color)

	childEnv, err := cfg.ChildEnv()
	if err != nil {
		return nil, fmt.Errorf("loading env_file: %w", err)
	}

	launcher := proc.NewOSLauncher(printer, self)
	launcher.SelfExecGuard = cfg.SelfExecGuard.Enabled
	launcher.SelfExecStatus = cfg.SelfExecGuard.Status
	launcher.ExecFailureStatus = cfg.ExecFailureStatus
	if childEnv != nil {
		launcher.Env = append(os.Environ(), childEnv...)
	}

	s := &session{diag: printer}
	engineOpts := proc.Options{
		DescriptorCapacity: cfg.InitialDescriptors,
		CommandCapacity:    cfg.InitialCommands,
		Launcher:           launcher,
		Out:                opts.Out,
	}

	logFd, err := cfg.OpenEventLog()
	if err != nil {
		return nil, fmt.Errorf("opening event_log: %w", err)
	}
	if logFd != nil {
		s.closers = append(s.closers, logFd)
		s.recorder = eventlog.NewJSONLinesRecorder(logFd)
		if err := s.recorder.StartSession(opts.Mode, opts.Tokens); err != nil {
			s.Close()
			return nil, err
		}
		engineOpts.Recorder = s.recorder
	}

	engine := proc.NewEngine(engineOpts)
	engine.SetProfile(cfg.Profile)

	s.driver = directive.New(engine, opts.Out)
	s.driver.Program = filepath.Base(self)
	s.driver.OpenMode = cfg.FileMode()
	s.driver.Verbose = cfg.Verbose
	return s, nil
}

// Run interprets tokens, reporting a failure on the error stream before
// returning it.
func (s *session) Run(tokens []string) error {
	err := s.driver.Run(tokens)
	if err == nil {
		return nil
	}

	s.diag.Error(err)
	if s.recorder != nil {
		fields := map[string]interface{}{"message": err.Error()}
		var perr *proc.Error
		if errors.As(err, &perr) {
			fields["kind"] = perr.Kind.Error()
			fields["exit_status"] = perr.ExitStatus()
		}
		_ = s.recorder.Record(eventlog.EventError, fields)
	}
	return err
}

func (s *session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
