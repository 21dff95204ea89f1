package directive

import "golang.org/x/sys/unix"

const oRsync = unix.O_RSYNC
