//go:build windows

package servlin

import "strings"

// isEMFILE falls back to matching the error text on platforms where
// golang.org/x/sys/unix's errno constants don't apply.
func isEMFILE(err error) bool {
	return err != nil && strings.Contains(err.Error(), "too many open files")
}
