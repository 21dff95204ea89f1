package eventlog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	rec := NewJSONLinesRecorder(&buf)
	events := []struct {
		name   string
		fields map[string]interface{}
	}{
		{EventOpen, map[string]interface{}{"path": "a.txt", "flags": 577, "file_number": 0}},
		{EventPipe, map[string]interface{}{"read": 1, "write": 2}},
		{EventLaunch, map[string]interface{}{"pid": 10, "argv": []interface{}{"sort"}}},
		{EventLaunch, map[string]interface{}{"pid": 0, "argv": []interface{}{"nope"}, "early_status": "exit 1"}},
		{EventClose, map[string]interface{}{"file_number": 2}},
		{EventChdir, map[string]interface{}{"path": "/tmp"}},
		{EventReap, map[string]interface{}{"pid": 0, "argv": []interface{}{"nope"}, "signaled": false, "code": 1, "early": true}},
		{EventReap, map[string]interface{}{"pid": 10, "argv": []interface{}{"sort"}, "signaled": true, "code": 9}},
		{EventError, map[string]interface{}{"kind": "nothing to wait for"}},
		{"mystery", nil},
	}
	require.NoError(t, rec.StartSession("script", []string{"--pipe"}))
	for _, e := range events {
		require.NoError(t, rec.Record(e.name, e.fields))
	}

	report := NewReport()
	require.NoError(t, ReadJSONLinesLog(&buf, report.Update))

	assert.Equal(t, 11, report.LogEntries)
	assert.Equal(t, 1, report.Sessions.Count)
	assert.Equal(t, 1, report.Sessions.Modes.Get("script"))
	assert.Equal(t, 1, report.Descriptors.Opened)
	assert.Equal(t, 1, report.Descriptors.Pipes)
	assert.Equal(t, 1, report.Descriptors.Closed)
	assert.Equal(t, 1, report.Descriptors.Paths.Get("a.txt"))
	assert.Equal(t, 1, report.Descriptors.Directories.Get("/tmp"))
	assert.Equal(t, 2, report.Launches.Count)
	assert.Equal(t, 1, report.Launches.Early)
	assert.Equal(t, 1, report.Completions.Get("nope", "exit 1"))
	assert.Equal(t, 1, report.Completions.Get("sort", "signal 9"))
	assert.Equal(t, 1, report.Errors.Get("nothing to wait for"))
	assert.Equal(t, 1, report.InvalidEntries.Get("mystery"))

	out, err := yaml.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "log_entries: 11")
}

func TestCompletionCounter_MarshalJSON(t *testing.T) {
	ctr := NewCompletionCounter()
	ctr.Increment("true", "exit 0")
	ctr.Increment("false", "exit 1")
	ctr.Increment("true", "exit 0")

	out, err := ctr.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"program": "true", "status": "exit 0"}},
		{"count": 1, "event": {"program": "false", "status": "exit 1"}}
	]`, string(out))
}

func TestCompletionCounter_empty(t *testing.T) {
	out, err := NewCompletionCounter().MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
}

func TestTally(t *testing.T) {
	var tally Tally
	assert.Zero(t, tally.Get("missing"))

	tally.Increment("a")
	tally.Increment("a")
	tally.Increment("b")

	assert.Equal(t, 2, tally.Get("a"))
	out, err := yaml.Marshal(tally)
	require.NoError(t, err)
	assert.Equal(t, "a: 2\nb: 1\n", string(out))
}
