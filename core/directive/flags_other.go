//go:build !linux
// +build !linux

package directive

// The BSDs have no O_RSYNC, --rsync is accepted and does nothing there.
const oRsync = 0
