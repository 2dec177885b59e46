//go:build linux

package worker

import "golang.org/x/sys/unix"

// setParentDeathSignal asks the kernel to kill this process when the thread
// that launched it exits.
func setParentDeathSignal() error {
	return unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGKILL), 0, 0, 0)
}
