//go:build !windows

package servlin

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isEMFILE reports whether err is the "too many open files" condition
// (POSIX errno EMFILE), the same check the original's AcceptResult::new
// makes against raw_os_error() == Some(24).
func isEMFILE(err error) bool {
	var perr *os.SyscallError
	if errors.As(err, &perr) {
		return errors.Is(perr.Err, unix.EMFILE)
	}
	var errno unix.Errno
	return errors.As(err, &errno) && errno == unix.EMFILE
}
