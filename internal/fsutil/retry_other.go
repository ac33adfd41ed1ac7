//go:build !windows

package fsutil

import "os"

// isRetryable classifies a copy failure as transient. Non-Windows hosts
// have no sharing-violation errno; only a plain permission error (e.g. a
// file briefly locked by another process holding an advisory lock) is
// treated as retryable.
func isRetryable(err error) bool {
	return os.IsPermission(err)
}
