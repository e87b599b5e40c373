//go:build windows

package core

import "syscall"

// Windows has no POSIX process groups; the job handler is bypassed there
// anyway because the coordinator reports unsupported.
func procAttr(foreground bool, ttyFd int) *syscall.SysProcAttr {
	return nil
}
