// Package fsutil provides the content-hashing, safe path-join, directory
// traversal, and retrying-copy primitives shared by every component that
// touches the filesystem (C1 in the design).
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// HashFile returns the lowercase hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to open file for hashing")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "unable to read file for hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashString returns the lowercase hex SHA-256 digest of s's UTF-8 bytes.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
