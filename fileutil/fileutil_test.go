package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameHelpers(t *testing.T) {
	tests := []struct {
		path                     string
		filename, dir, ext, base string
	}{
		{path: "/var/log/app.log", filename: "app.log", dir: "/var/log", ext: "log", base: "app"},
		{path: "archive.tar.gz", filename: "archive.tar.gz", dir: ".", ext: "gz", base: "archive.tar"},
		{path: `C:\temp\report.txt`, filename: "report.txt", dir: `C:\temp`, ext: "txt", base: "report"},
		{path: "dir.d/README", filename: "README", dir: "dir.d", ext: "", base: "README"},
		{path: "name.", filename: "name.", dir: ".", ext: "", base: "name"},
		{path: "/etc/", filename: "", dir: "/etc", ext: "", base: ""},
		{path: ".bashrc", filename: ".bashrc", dir: ".", ext: "bashrc", base: ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.filename, Filename(tt.path), "Filename")
			assert.Equal(t, tt.dir, Dir(tt.path), "Dir")
			assert.Equal(t, tt.ext, Ext(tt.path), "Ext")
			assert.Equal(t, tt.base, Basename(tt.path), "Basename")
		})
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a/b", JoinPath("a", "b"))
	assert.Equal(t, "a/b", JoinPath("a/", "b"))
	assert.Equal(t, `a\b`, JoinPath(`a\`, "b"))
	assert.Equal(t, "b", JoinPath("", "b"))
	assert.Equal(t, "a", JoinPath("a", ""))
}

func TestFileLifecycle(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "data.txt")

	assert.False(t, Exists(name))
	_, err := ReadFile(name)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = FileSize(name)
	require.Error(t, err)

	require.NoError(t, WriteFile(name, "hello"))
	require.NoError(t, AppendFile(name, ", world"))

	content, err := ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", content)

	size, err := FileSize(name)
	require.NoError(t, err)
	assert.Equal(t, int64(12), size)

	assert.True(t, Exists(name))
	assert.True(t, IsFile(name))
	assert.False(t, IsDir(name))
	assert.True(t, IsReadable(name))
	assert.True(t, IsWritable(name))

	require.NoError(t, WriteFile(name, "new"))
	content, err = ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "new", content, "WriteFile truncates")

	require.Error(t, RemoveDir(name), "RemoveDir refuses files")
	require.NoError(t, RemoveFile(name))
	assert.False(t, Exists(name))
	assert.False(t, IsReadable(name))
	assert.False(t, IsWritable(name))
}

func TestAppendFileCreates(t *testing.T) {
	name := filepath.Join(t.TempDir(), "new.log")
	require.NoError(t, AppendFile(name, "a"))
	require.NoError(t, AppendFile(name, "b"))
	content, err := ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "ab", content)
}

func TestDirectories(t *testing.T) {
	root := t.TempDir()

	nested := filepath.Join(root, "a", "b", "c")
	require.Error(t, CreateDir(nested), "CreateDir does not create parents")
	require.NoError(t, CreateDirs(nested))
	require.NoError(t, CreateDirs(nested), "existing directory is not an error")
	assert.True(t, IsDir(nested))
	assert.False(t, IsFile(nested))

	require.NoError(t, CreateDir(filepath.Join(root, "z")))
	require.NoError(t, WriteFile(filepath.Join(root, "f2.txt"), ""))
	require.NoError(t, WriteFile(filepath.Join(root, "f1.txt"), ""))

	files, err := ListFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1.txt", "f2.txt"}, files)

	dirs, err := ListDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, dirs)

	_, err = ListFiles(filepath.Join(root, "missing"))
	require.Error(t, err)

	require.Error(t, RemoveDir(filepath.Join(root, "a")), "non-empty directory")
	require.NoError(t, RemoveDir(nested))
	assert.False(t, Exists(nested))
}

func TestProcessDirs(t *testing.T) {
	wd, err := WorkingDir()
	require.NoError(t, err)
	assert.True(t, IsDir(wd))

	exeDir, err := ExecutableDir()
	require.NoError(t, err)
	assert.True(t, IsDir(exeDir))
}

func TestCreateTempFile(t *testing.T) {
	name, err := CreateTempFile("utoolkit-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(name) })

	assert.True(t, strings.HasPrefix(Filename(name), "utoolkit-"))
	assert.True(t, strings.HasPrefix(name, TempDir()))
	size, err := FileSize(name)
	require.NoError(t, err)
	assert.Zero(t, size)
}
