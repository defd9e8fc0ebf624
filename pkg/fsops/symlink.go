package fsops

import (
	"os"
	"path/filepath"

	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
)

// Link creates the on-disk edge fsys uses for a symlink-farm entry:
// newname pointing at target, given as an absolute path. It removes a
// stale entry at newname first (files, directories, and symlinks
// alike) so re-linking after a dependency swap never fails with
// EEXIST, and creates newname's parent directory if missing.
//
// target is always absolute so the Windows junction branch
// (platformLink) can resolve it without reference to newname's
// location; the non-Windows branch relativizes it internally so the
// on-disk symlink stays portable within the store.
func Link(fsys FS, target, newname string) error {
	if err := fsys.MkdirAll(filepath.Dir(newname), 0o755); err != nil {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "creating parent of %s", newname)
	}
	if _, err := fsys.Lstat(newname); err == nil {
		if err := fsys.RemoveAll(newname); err != nil {
			return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "replacing stale entry at %s", newname)
		}
	}
	if err := platformLink(fsys, target, newname); err != nil {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "linking %s -> %s", newname, target)
	}
	return nil
}

// Unlink removes a symlink-farm entry at path. A missing path is not an
// error (spec.md §7's ENOENT tolerance).
func Unlink(fsys FS, path string) error {
	if err := fsys.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "removing %s", path)
	}
	return nil
}
