//go:build unix

package fileutil

import "golang.org/x/sys/unix"

// IsReadable reports whether the calling process may read path.
func IsReadable(path string) bool { return unix.Access(path, unix.R_OK) == nil }

// IsWritable reports whether the calling process may write path.
func IsWritable(path string) bool { return unix.Access(path, unix.W_OK) == nil }
