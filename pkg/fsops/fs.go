// Package fsops is storelink's filesystem primitive layer: the
// small set of read/write operations the installer and resolver need,
// plus (in synthbatch.go) a batched-mutation path built on
// go-synthfs for tree materialisation, mirroring the split the teacher
// keeps between pkg/filesystem (direct reads/writes) and pkg/synthfs
// (batched pipeline execution).
package fsops

import (
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// FS is the filesystem surface storelink needs: directory creation,
// symlink creation/inspection, and removal. Listing and stat calls are
// read-only and safe to run concurrently; mutations are not required to
// be goroutine-safe against each other for the same path.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)

	MkdirAll(path string, perm fs.FileMode) error
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	Remove(name string) error
	RemoveAll(path string) error
	// Rmdir removes an empty directory. It errors when the directory is
	// missing (ENOENT) or non-empty (ENOTEMPTY); tolerating either is
	// left to callers, which treat them as "leave it alone."
	Rmdir(path string) error
}

// osFS implements FS directly against the host filesystem. This is the
// implementation the installer uses in production and in tests that
// need real symlink semantics.
type osFS struct{}

// NewOS returns the real-filesystem FS implementation.
func NewOS() FS { return osFS{} }

func (osFS) Stat(name string) (fs.FileInfo, error)  { return os.Stat(name) }
func (osFS) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }
func (osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}
func (osFS) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }
func (osFS) Symlink(oldname, newname string) error        { return os.Symlink(oldname, newname) }
func (osFS) Readlink(name string) (string, error)         { return os.Readlink(name) }
func (osFS) Remove(name string) error                      { return os.Remove(name) }
func (osFS) RemoveAll(path string) error                   { return os.RemoveAll(path) }
func (osFS) Rmdir(path string) error                       { return os.Remove(path) }

// aferoFS adapts an afero.Fs to FS. afero.Fs has no native notion of
// symlinks, so - exactly as the teacher's pkg/filesystem.aferoFS does -
// Symlink/Readlink are simulated by writing a regular file whose content
// is the link target and whose mode carries os.ModeSymlink. This is
// lossy (Lstat on afero falls back to Stat) but is sufficient for
// dry-run previews and manifest reads over a fetch result, which never
// need to resolve a real symlink.
type aferoFS struct {
	fs afero.Fs
}

// NewAfero adapts an afero.Fs for read-mostly, non-production use (dry
// runs, fetch-result previews).
func NewAfero(a afero.Fs) FS { return aferoFS{fs: a} }

func (a aferoFS) Stat(name string) (fs.FileInfo, error)  { return a.fs.Stat(name) }
func (a aferoFS) Lstat(name string) (fs.FileInfo, error) { return a.fs.Stat(name) }
func (a aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = fs.FileInfoToDirEntry(e)
	}
	return out, nil
}
func (a aferoFS) MkdirAll(path string, perm fs.FileMode) error { return a.fs.MkdirAll(path, perm) }
func (a aferoFS) Symlink(oldname, newname string) error {
	return afero.WriteFile(a.fs, newname, []byte(oldname), 0777|os.ModeSymlink)
}
func (a aferoFS) Readlink(name string) (string, error) {
	content, err := afero.ReadFile(a.fs, name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
func (a aferoFS) Remove(name string) error    { return a.fs.Remove(name) }
func (a aferoFS) RemoveAll(path string) error { return a.fs.RemoveAll(path) }
func (a aferoFS) Rmdir(path string) error     { return a.fs.Remove(path) }

// IsSymlink reports whether info describes a symlink, tolerating the
// aferoFS simulation above (a regular file whose mode carries
// os.ModeSymlink).
func IsSymlink(info fs.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}
