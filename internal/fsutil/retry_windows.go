//go:build windows

package fsutil

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

// isRetryable classifies a copy failure as transient. On Windows this
// covers the two errno values a locked save file or an antivirus scan in
// progress typically surfaces: ERROR_SHARING_VIOLATION and
// ERROR_LOCK_VIOLATION.
func isRetryable(err error) bool {
	if os.IsPermission(err) {
		return true
	}
	var errno windows.Errno
	if errors.As(err, &errno) {
		switch errno {
		case windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION:
			return true
		}
	}
	return false
}
