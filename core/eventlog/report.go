package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is one decoded event.
type Entry struct {
	TimestampMicros int64
	SessionID       string
	Event           string
	// Fields holds the event's payload; numbers decode as float64.
	Fields map[string]interface{}
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Entry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var s structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &s); err != nil {
			return err
		}

		handler(entryFromStruct(&s))
	}
	return nil
}

func entryFromStruct(s *structpb.Struct) *Entry {
	raw := s.AsMap()
	e := &Entry{}
	if ts, ok := raw["timestamp_micros"].(float64); ok {
		e.TimestampMicros = int64(ts)
	}
	e.SessionID, _ = raw["session_id"].(string)
	e.Event, _ = raw["event"].(string)
	e.Fields, _ = raw["fields"].(map[string]interface{})
	if e.Fields == nil {
		e.Fields = map[string]interface{}{}
	}
	return e
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Completions: NewCompletionCounter(),
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int   `json:"log_entries"`
	InvalidEntries Tally `json:"unknown_log_entries,omitempty"`

	Sessions    SessionReport      `json:"session_report"`
	Descriptors DescriptorReport   `json:"descriptor_report"`
	Launches    LaunchReport       `json:"launch_report"`
	Completions *CompletionCounter `json:"completions"`
	Errors      Tally              `json:"errors"`
}

// Update adds one entry to the report.
func (r *Report) Update(e *Entry) {
	r.LogEntries++

	switch e.Event {
	case EventSession:
		r.Sessions.update(e)
	case EventOpen, EventPipe, EventClose, EventChdir:
		r.Descriptors.update(e)
	case EventLaunch:
		r.Launches.update(e)
	case EventReap:
		if r.Completions == nil {
			r.Completions = NewCompletionCounter()
		}
		r.Completions.Increment(programName(e.Fields), statusString(e.Fields))
	case EventError:
		kind, _ := e.Fields["kind"].(string)
		r.Errors.Increment(kind)
	default:
		r.InvalidEntries.Increment(e.Event)
	}
}

type SessionReport struct {
	Count   int   `json:"count"`
	Modes   Tally `json:"modes"`
	Digests Tally `json:"digests"`
}

func (r *SessionReport) update(e *Entry) {
	r.Count++
	mode, _ := e.Fields["mode"].(string)
	r.Modes.Increment(mode)
	digest, _ := e.Fields["digest"].(string)
	r.Digests.Increment(digest)
}

type DescriptorReport struct {
	Opened      int   `json:"opened"`
	Pipes       int   `json:"pipes"`
	Closed      int   `json:"closed"`
	Paths       Tally `json:"paths"`
	Directories Tally `json:"directories"`
}

func (r *DescriptorReport) update(e *Entry) {
	path, _ := e.Fields["path"].(string)
	switch e.Event {
	case EventOpen:
		r.Opened++
		r.Paths.Increment(path)
	case EventPipe:
		r.Pipes++
	case EventClose:
		r.Closed++
	case EventChdir:
		r.Directories.Increment(path)
	}
}

type LaunchReport struct {
	Count int `json:"count"`
	// Launches that never ran their program, e.g. a failed exec.
	Early        int   `json:"early"`
	CommandNames Tally `json:"command_names"`
}

func (r *LaunchReport) update(e *Entry) {
	r.Count++
	if _, ok := e.Fields["early_status"]; ok {
		r.Early++
	}
	r.CommandNames.Increment(programName(e.Fields))
}

func programName(fields map[string]interface{}) string {
	argv, _ := fields["argv"].([]interface{})
	if len(argv) == 0 {
		return ""
	}
	name, _ := argv[0].(string)
	return name
}

func statusString(fields map[string]interface{}) string {
	code, _ := fields["code"].(float64)
	if signaled, _ := fields["signaled"].(bool); signaled {
		return fmt.Sprintf("signal %d", int(code))
	}
	return fmt.Sprintf("exit %d", int(code))
}

// Tally counts how often each string was seen.
type Tally map[string]int

// Increment adds one to key.
func (t *Tally) Increment(key string) {
	if *t == nil {
		*t = make(Tally)
	}
	(*t)[key]++
}

// Get returns the count for key.
func (t Tally) Get(key string) int {
	return t[key]
}

// Completion identifies a reported outcome of a program.
type Completion struct {
	Program string `json:"program"`
	Status  string `json:"status"`
}

// CompletionCounter counts how often each program finished with each status.
type CompletionCounter struct {
	counts map[Completion]int
}

// NewCompletionCounter creates an empty counter.
func NewCompletionCounter() *CompletionCounter {
	return &CompletionCounter{counts: make(map[Completion]int)}
}

// Increment adds one to the count of program finishing with status.
func (c *CompletionCounter) Increment(program, status string) {
	c.counts[Completion{Program: program, Status: status}]++
}

// Get returns how often program finished with status.
func (c *CompletionCounter) Get(program, status string) int {
	return c.counts[Completion{Program: program, Status: status}]
}

// MarshalJSON lists the completions, most frequent first.
func (c *CompletionCounter) MarshalJSON() ([]byte, error) {
	type row struct {
		Count int        `json:"count"`
		Event Completion `json:"event"`
	}

	out := make([]row, 0, len(c.counts))
	for k, v := range c.counts {
		out = append(out, row{Count: v, Event: k})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Count != b.Count:
			return a.Count > b.Count
		case a.Event.Program != b.Event.Program:
			return a.Event.Program < b.Event.Program
		default:
			return a.Event.Status < b.Event.Status
		}
	})
	return json.Marshal(out)
}
