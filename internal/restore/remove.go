package restore

import "os"

// removeDirChecked recursively removes path, returning any error
// encountered (unlike fsutil.RemoveAllSafe, which is used where callers
// don't need to distinguish failure from a no-op). A missing path is not
// an error.
func removeDirChecked(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(path)
}
