// Package fileutil wraps common file system queries and operations.
// Unlike the path/filepath helpers, the name helpers treat both '/' and '\'
// as separators so paths from either platform can be inspected anywhere.
package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const separators = `/\`

// Exists reports whether path names an existing file system entry.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsFile reports whether path is a regular file, following symlinks.
func IsFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// IsDir reports whether path is a directory, following symlinks.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// CreateDir creates a single directory with mode 0755. The parent must exist.
func CreateDir(path string) error { return os.Mkdir(path, 0o755) }

// CreateDirs creates path and any missing parents. It succeeds if path
// already exists as a directory.
func CreateDirs(path string) error { return os.MkdirAll(path, 0o755) }

// RemoveFile removes a file or an empty directory.
func RemoveFile(path string) error { return os.Remove(path) }

// RemoveDir removes an empty directory. Regular files are refused.
func RemoveDir(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "rmdir", Path: path, Err: errors.New("not a directory")}
	}
	return os.Remove(path)
}

// Filename returns the last element of path.
func Filename(path string) string {
	if i := strings.LastIndexAny(path, separators); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Dir returns everything before the last separator, or "." when there is none.
func Dir(path string) string {
	if i := strings.LastIndexAny(path, separators); i >= 0 {
		return path[:i]
	}
	return "."
}

// Ext returns the extension of the file name without its dot. A name
// without a dot or ending in a dot has no extension.
func Ext(path string) string {
	name := Filename(path)
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// Basename returns the file name without its last extension.
func Basename(path string) string {
	name := Filename(path)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// JoinPath joins two elements with a single '/', keeping an existing
// trailing separator on a. Empty elements are dropped.
func JoinPath(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case strings.ContainsRune(separators, rune(a[len(a)-1])):
		return a + b
	default:
		return a + "/" + b
	}
}

// WorkingDir returns the current working directory.
func WorkingDir() (string, error) { return os.Getwd() }

// ExecutableDir returns the directory of the running binary, symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// ListFiles returns the names of the regular files directly inside dir, sorted.
func ListFiles(dir string) ([]string, error) {
	return list(dir, func(d fs.DirEntry) bool { return d.Type().IsRegular() })
}

// ListDirs returns the names of the directories directly inside dir, sorted.
func ListDirs(dir string) ([]string, error) {
	return list(dir, fs.DirEntry.IsDir)
}

func list(dir string, keep func(fs.DirEntry) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ReadFile returns the contents of name as a string.
func ReadFile(name string) (string, error) {
	b, err := os.ReadFile(name)
	return string(b), err
}

// WriteFile replaces the contents of name, creating it with mode 0644.
func WriteFile(name, content string) error {
	return os.WriteFile(name, []byte(content), 0o644)
}

// AppendFile appends content to name, creating it with mode 0644.
func AppendFile(name, content string) (err error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	_, err = f.WriteString(content)
	return err
}

// FileSize returns the size of name in bytes.
func FileSize(name string) (int64, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// TempDir returns the directory for temporary files.
func TempDir() string { return os.TempDir() }

// CreateTempFile creates an empty file in TempDir whose name starts with
// prefix, and returns its path. The caller removes it.
func CreateTempFile(prefix string) (string, error) {
	f, err := os.CreateTemp("", prefix+"*")
	if err != nil {
		return "", err
	}
	return f.Name(), f.Close()
}
