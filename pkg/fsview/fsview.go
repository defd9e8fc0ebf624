// Package fsview enumerates the real contents of a package's
// node_modules directory for diffing against the desired dependency set
// (spec.md §4.2, installer.AttachDependencies). It flattens the two
// levels a scoped package occupies (node_modules/@scope/name) into a
// single "@scope/name" key, matching locator.Ident, and tolerates the
// directory itself - or any scope subdirectory - being absent.
package fsview

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/storelinkhq/storelink/pkg/fsops"
	"github.com/storelinkhq/storelink/pkg/storepath"
)

// Entry describes one real entry found directly under a node_modules
// directory (after scope-flattening).
type Entry struct {
	// Ident is the flattened key: "name" or "@scope/name".
	Ident string
	// Path is the entry's absolute path.
	Path string
	// IsSymlink reports whether the entry is itself a symlink (a
	// dependency edge of the link farm) rather than a real directory
	// (such as a HARD package's own extracted root under its
	// self-reference vendor path).
	IsSymlink bool
}

// Listing returns the flattened real contents of nmPath, keyed by
// ident. A missing nmPath yields an empty, non-error listing: a package
// with no dependencies has no node_modules directory at all, and that
// is not a diff-worthy condition.
func Listing(fsys fsops.FS, nmPath string) (map[string]Entry, error) {
	out := make(map[string]Entry)

	topEntries, err := fsys.ReadDir(nmPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}

	for _, e := range topEntries {
		name := e.Name()
		if name == storepath.StoreDirName {
			// The store itself is never a dependency entry; callers that
			// list node_modules directly (rather than a store entry's own
			// node_modules) must filter it before it reaches a diff. It is
			// kept out of Listing's output unconditionally since no
			// dependency ident is ever literally ".store".
			continue
		}

		if name[0] == '@' {
			scopePath := filepath.Join(nmPath, name)
			info, err := fsys.Lstat(scopePath)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, err
			}
			if fsops.IsSymlink(info) {
				// A scope directory is never itself meant to be a symlink in
				// a well-formed farm; treat it as an opaque entry under its
				// own literal name rather than descending into it.
				out[name] = Entry{Ident: name, Path: scopePath, IsSymlink: true}
				continue
			}

			scopeEntries, err := fsys.ReadDir(scopePath)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, err
			}
			if len(scopeEntries) == 0 {
				// An empty scope directory is still a real entry on disk -
				// expose it under its own name so a caller that no longer
				// wants any package under this scope can still find and
				// remove it (spec.md §4.2).
				out[name] = Entry{Ident: name, Path: scopePath, IsSymlink: false}
				continue
			}
			for _, se := range scopeEntries {
				ident := name + "/" + se.Name()
				entryPath := filepath.Join(scopePath, se.Name())
				out[ident] = Entry{
					Ident:     ident,
					Path:      entryPath,
					IsSymlink: entryIsSymlink(fsys, se, entryPath),
				}
			}
			continue
		}

		entryPath := filepath.Join(nmPath, name)
		out[name] = Entry{
			Ident:     name,
			Path:      entryPath,
			IsSymlink: entryIsSymlink(fsys, e, entryPath),
		}
	}

	return out, nil
}

// entryIsSymlink prefers the DirEntry's own type bit (cheap, already
// fetched by ReadDir) and falls back to an explicit Lstat for
// filesystem views that don't report it accurately (afero's simulated
// symlinks report as regular files from ReadDir).
func entryIsSymlink(fsys fsops.FS, e fs.DirEntry, path string) bool {
	if e.Type()&fs.ModeSymlink != 0 {
		return true
	}
	info, err := fsys.Lstat(path)
	if err != nil {
		return false
	}
	return fsops.IsSymlink(info)
}
