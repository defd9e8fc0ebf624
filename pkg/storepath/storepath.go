// Package storepath implements the pure path algebra of the
// content-addressed store: where node_modules and .store live for a
// project, and where a given locator's entry sits inside the store.
package storepath

import (
	"path/filepath"

	"github.com/storelinkhq/storelink/pkg/locator"
	"github.com/storelinkhq/storelink/pkg/project"
)

// StoreDirName is the store's directory name inside node_modules. It is
// not user-configurable; see the equivalent constant block in the
// teacher's pkg/paths for the convention this follows.
const StoreDirName = ".store"

// NodeModulesRoot returns the project's node_modules directory.
func NodeModulesRoot(p *project.Project) string {
	return filepath.Join(p.Cwd, "node_modules")
}

// StoreRoot returns the project's content-addressed store root.
func StoreRoot(p *project.Project) string {
	return filepath.Join(NodeModulesRoot(p), StoreDirName)
}

// VendorPath returns "node_modules/<ident>" for l, the subpath a
// self-referencing package occupies inside its own store entry so that
// require(ownIdent) resolves exactly as it would for a dependent.
func VendorPath(l locator.Locator) string {
	return filepath.Join("node_modules", l.Ident())
}

// PackageLocation computes the on-disk path at which l's hard-linked
// content is extracted: <store>/<slug>/<prefix>, where prefix is either
// l's vendor path (when createSelfReference is set) or "." otherwise.
func PackageLocation(l locator.Locator, p *project.Project, createSelfReference bool) string {
	prefix := "."
	if createSelfReference {
		prefix = VendorPath(l)
	}
	return filepath.Join(StoreRoot(p), l.Slug(), prefix)
}
