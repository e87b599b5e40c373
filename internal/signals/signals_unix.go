//go:build !windows

package signals

import (
	"os"
	"syscall"
)

func platformSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTSTP,
		syscall.SIGCONT,
		syscall.SIGWINCH,
		syscall.SIGCHLD,
	}
}

func translate(sig os.Signal) (Kind, bool) {
	switch sig {
	case syscall.SIGINT:
		return Interrupt, true
	case syscall.SIGTSTP:
		return Suspend, true
	case syscall.SIGCONT:
		return Resume, true
	case syscall.SIGWINCH:
		return WindowChanged, true
	case syscall.SIGCHLD:
		return ChildStatusChanged, true
	default:
		return 0, false
	}
}

func jobControlSupported() bool { return true }

// SIGWINCH covers resize on unix; no polling needed.
func startResizePolling(*Bridge) {}
