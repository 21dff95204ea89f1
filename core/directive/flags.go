package directive

import "golang.org/x/sys/unix"

// openFlags maps the flag directives to the open(2) flag they add.
var openFlags = map[string]int{
	"append":    unix.O_APPEND,
	"cloexec":   unix.O_CLOEXEC,
	"creat":     unix.O_CREAT,
	"directory": unix.O_DIRECTORY,
	"dsync":     unix.O_DSYNC,
	"excl":      unix.O_EXCL,
	"nofollow":  unix.O_NOFOLLOW,
	"nonblock":  unix.O_NONBLOCK,
	"rsync":     oRsync,
	"sync":      unix.O_SYNC,
	"trunc":     unix.O_TRUNC,
}

// accessModes maps the open directives to their access mode.
var accessModes = map[string]int{
	"rdonly": unix.O_RDONLY,
	"wronly": unix.O_WRONLY,
	"rdwr":   unix.O_RDWR,
}
