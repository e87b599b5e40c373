//go:build windows

package jobs

// OpenTty always fails on Windows; the session degrades to
// job-control-unsupported rather than attempting process groups.
func OpenTty() (Tty, error) {
	return nil, ErrUnsupported
}
