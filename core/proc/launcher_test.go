package proc

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/osh/core/diag"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func requireProgram(t *testing.T, name string) {
	t.Helper()
	path := os.Getenv("PATH")
	if path == "" {
		path = defaultPath
	}
	if _, err := LookPath(afero.NewOsFs(), path, name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func newTestEngine(t *testing.T, errOut *bytes.Buffer, out *bytes.Buffer) *Engine {
	t.Helper()
	launcher := NewOSLauncher(diag.New(errOut, "osh", diag.ColorNever), "/opt/osh/bin/osh")
	return NewEngine(Options{Launcher: launcher, Out: out})
}

func launch(t *testing.T, e *Engine, directive ...string) error {
	t.Helper()
	base := e.Extend(directive)
	if err := e.BeginCommand(base + 4); err != nil {
		return err
	}
	for slot := 0; slot < 3; slot++ {
		if err := e.Redirect(slot, directive[slot+1], directive[:slot+1]); err != nil {
			return err
		}
	}
	_, err := e.FinishAndLaunch(base+len(directive)-1, directive)
	return err
}

func TestOSLauncher_catIntoFile(t *testing.T) {
	requireProgram(t, "cat")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.txt"), []byte("some text\n"), 0644))

	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	n, err := e.OpenDescriptor(filepath.Join(dir, "a.txt"), unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, 0644)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	in, err := e.OpenDescriptor(filepath.Join(dir, "in.txt"), unix.O_RDONLY, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, in)

	require.NoError(t, launch(t, e, "--command", "1", "0", "e", "cat"))
	require.NoError(t, e.WaitForRemaining())
	require.NoError(t, e.CloseFileNumber(0))
	require.NoError(t, e.CloseFileNumber(1))

	assert.Equal(t, "exit 0 cat\n", out.String())
	assert.Empty(t, errOut.String())
	content, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "some text\n", string(content))
}

func TestOSLauncher_pipeline(t *testing.T) {
	requireProgram(t, "echo")
	requireProgram(t, "wc")
	dir := t.TempDir()

	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	result, err := e.OpenDescriptor(filepath.Join(dir, "count"), unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, 0644)
	require.NoError(t, err)
	r, w, err := e.CreatePipe()
	require.NoError(t, err)

	require.NoError(t, launch(t, e, "--command", "i", "2", "e", "echo", "one", "two"))
	require.NoError(t, launch(t, e, "--command", "1", "0", "e", "wc", "-w"))
	require.NoError(t, e.CloseFileNumber(w))
	require.NoError(t, e.CloseFileNumber(r))
	require.NoError(t, e.WaitForRemaining())
	require.NoError(t, e.CloseFileNumber(result))

	assert.Contains(t, out.String(), "exit 0 echo one two\n")
	assert.Contains(t, out.String(), "exit 0 wc -w\n")
	content, err := os.ReadFile(filepath.Join(dir, "count"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(bytes.TrimSpace(content)))
}

func TestOSLauncher_execFailure(t *testing.T) {
	requireProgram(t, "true")
	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	require.NoError(t, launch(t, e, "--command", "i", "o", "e", "osh-no-such-program", "arg"))
	require.NoError(t, launch(t, e, "--command", "i", "o", "e", "true"))
	require.NoError(t, e.WaitForRemaining())

	assert.Equal(t,
		"osh: 'execvp' failed with message 'no such file or directory' for '--command i o e osh-no-such-program arg'\n",
		errOut.String())
	assert.Equal(t, "exit 1 osh-no-such-program arg\nexit 0 true\n", out.String())
}

func TestOSLauncher_scriptWithoutInterpreter(t *testing.T) {
	if _, err := os.Stat(shell); err != nil {
		t.Skipf("%s not available: %v", shell, err)
	}
	requireProgram(t, "echo")
	dir := t.TempDir()
	script := filepath.Join(dir, "noshebang")
	require.NoError(t, os.WriteFile(script, []byte("echo from-script \"$1\"\n"), 0755))

	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)
	n, err := e.OpenDescriptor(filepath.Join(dir, "out"), unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, 0644)
	require.NoError(t, err)

	require.NoError(t, launch(t, e, "--command", "i", "0", "e", script, "arg"))
	require.NoError(t, e.WaitForRemaining())
	require.NoError(t, e.CloseFileNumber(n))

	assert.Equal(t, "exit 0 "+script+" arg\n", out.String())
	assert.Empty(t, errOut.String())
	content, err := os.ReadFile(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, "from-script arg\n", string(content))
}

func TestOSLauncher_notExecutable(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(notes, []byte("echo hi\n"), 0644))

	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	require.NoError(t, launch(t, e, "--command", "i", "o", "e", notes))
	require.NoError(t, e.WaitForRemaining())

	assert.Equal(t,
		"osh: 'execvp' failed with message 'permission denied' for '--command i o e "+notes+"'\n",
		errOut.String())
	assert.Equal(t, "exit 1 "+notes+"\n", out.String())
}

func TestOSLauncher_notExecutableOnPath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/opt/tools/notes", nil, 0644))
	t.Setenv("PATH", "/opt/tools")

	var out, errOut bytes.Buffer
	launcher := NewOSLauncher(diag.New(&errOut, "osh", diag.ColorNever), "")
	launcher.Fs = fsys
	e := NewEngine(Options{Launcher: launcher, Out: &out})

	require.NoError(t, launch(t, e, "--command", "i", "o", "e", "notes"))
	require.NoError(t, e.WaitForRemaining())

	assert.Equal(t,
		"osh: 'execvp' failed with message 'permission denied' for '--command i o e notes'\n",
		errOut.String())
	assert.Equal(t, "exit 1 notes\n", out.String())
}

func TestOSLauncher_closedFileNumber(t *testing.T) {
	requireProgram(t, "true")
	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	r, _, err := e.CreatePipe()
	require.NoError(t, err)
	require.NoError(t, e.CloseFileNumber(r))

	// The stale descriptor may be reused by the time the child starts, so
	// only the parent's behavior is fixed: no error, and one report.
	require.NoError(t, launch(t, e, "--command", "0", "o", "e", "true"))
	require.NoError(t, e.WaitForRemaining())
	assert.Regexp(t, `^exit (0|9) true\n$`, out.String())
}

func TestOSLauncher_selfExecGuard(t *testing.T) {
	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	require.NoError(t, launch(t, e, "--command", "i", "o", "e", "/opt/osh/bin/osh", "run", "--wait"))
	rec, ok := e.Commands.Get(0)
	require.True(t, ok)
	assert.Zero(t, rec.Pid)

	require.NoError(t, e.WaitForRemaining())
	assert.Equal(t, "exit 5 /opt/osh/bin/osh run --wait\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestOSLauncher_signal(t *testing.T) {
	requireProgram(t, "sh")
	var out, errOut bytes.Buffer
	e := newTestEngine(t, &errOut, &out)

	require.NoError(t, launch(t, e, "--command", "i", "o", "e", "sh", "-c", "kill -9 $$"))
	require.NoError(t, e.WaitForRemaining())
	assert.Equal(t, "signal 9 sh -c kill -9 $$\n", out.String())
}

func TestLookPath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/cat", nil, 0755))
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/notes", nil, 0644))
	require.NoError(t, afero.WriteFile(fsys, "/bin/tool", nil, 0644))
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/tool", nil, 0755))
	require.NoError(t, fsys.MkdirAll("/bin/dir", 0755))

	cases := map[string]struct {
		file    string
		want    string
		wantErr error
	}{
		"found on path":      {file: "cat", want: "/usr/bin/cat"},
		"skips unexecutable": {file: "tool", want: "/usr/bin/tool"},
		"not executable":     {file: "notes", wantErr: fs.ErrPermission},
		"directory":          {file: "dir", wantErr: fs.ErrPermission},
		"missing":            {file: "ls", wantErr: ErrNotFound},
		"explicit path":      {file: "/usr/bin/cat", want: "/usr/bin/cat"},
		"explicit absent":    {file: "/bin/cat", wantErr: ErrNotFound},
		"explicit denied":    {file: "/usr/bin/notes", wantErr: fs.ErrPermission},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := LookPath(fsys, "/bin:/usr/bin", tc.file)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
