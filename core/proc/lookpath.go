package proc

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories listed in
// path, a PATH style list. If file contains a slash, it is tried directly
// and path is not consulted. The result may be an absolute path or a path
// relative to the current directory.
//
// Like execvp, a match that can't be executed doesn't stop the search, but if
// nothing better turns up the search fails with fs.ErrPermission instead of
// ErrNotFound.
func LookPath(fsys afero.Fs, path, file string) (string, error) {
	if strings.Contains(file, "/") {
		err := findExecutable(fsys, file)
		if err == nil {
			return file, nil
		}
		return "", err
	}
	lastErr := ErrNotFound
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		err := findExecutable(fsys, path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			lastErr = err
		}
	}
	return "", lastErr
}
