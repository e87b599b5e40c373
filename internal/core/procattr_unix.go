//go:build !windows

package core

import "syscall"

// procAttr places each spawned command in its own process group so the
// coordinator can hand it the terminal and signal it as a unit. A
// foreground spawn additionally takes terminal ownership in the kernel,
// before exec: between Start and any tcsetpgrp from the shell the child
// could otherwise touch the tty without owning it and be stopped by
// SIGTTIN/SIGTTOU.
func procAttr(foreground bool, ttyFd int) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if foreground && ttyFd >= 0 {
		attr.Foreground = true
		attr.Ctty = ttyFd
	}
	return attr
}
