//go:build windows

package signals

import (
	"os"
	"time"

	"golang.org/x/term"
)

func platformSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

func translate(sig os.Signal) (Kind, bool) {
	if sig == os.Interrupt {
		return Interrupt, true
	}
	return 0, false
}

func jobControlSupported() bool { return false }

// Windows has no SIGWINCH; fall back to polling the console size.
func startResizePolling(b *Bridge) {
	go func() {
		fd := int(os.Stdout.Fd())
		lastW, lastH, err := term.GetSize(fd)
		if err != nil {
			return
		}
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w, h, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				if w != lastW || h != lastH {
					lastW, lastH = w, h
					b.deliver(Event{Kind: WindowChanged, At: time.Now()})
				}
			case <-b.stop:
				return
			}
		}
	}()
}
