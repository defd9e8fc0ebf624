// Package project defines the host-facing data model: the project
// context, resolved packages, fetch results, and the small interfaces
// the installer consults on its host (configuration, workspaces,
// dependency metadata, warning reports). See pkg/config and pkg/report
// for the concrete implementations the install driver wires in.
package project

import (
	"io/fs"

	"github.com/storelinkhq/storelink/pkg/customdata"
	"github.com/storelinkhq/storelink/pkg/locator"
)

// LinkType selects how a Package is materialised onto disk.
type LinkType string

const (
	// SOFT packages live at their fetch result's real path (workspaces).
	SOFT LinkType = "SOFT"
	// HARD packages are extracted into the content-addressed store.
	HARD LinkType = "HARD"
)

// Package is a resolved package: its identity, how it should be linked,
// and its dependency edges. Dependencies is keyed by descriptor ident,
// which may differ from the dependency's own ident when it is aliased.
type Package struct {
	Locator      locator.Locator
	LinkType     LinkType
	Dependencies map[string]locator.Locator
}

// DependsOnOwnIdent reports whether the package declares a dependency
// whose descriptor resolves to its own ident - the self-reference gate
// of the store layout (storepath.PackageLocation).
func (p Package) DependsOnOwnIdent() bool {
	ownHash := p.Locator.IdentHash()
	for _, dep := range p.Dependencies {
		if dep.IdentHash() == ownHash {
			return true
		}
	}
	return false
}

// FetchResult is a readable filesystem view of a package's content, as
// delivered by a fetcher (out of scope; see spec.md §6).
type FetchResult struct {
	// FS is the readable tree the package content lives in.
	FS fs.FS
	// PrefixPath is the path into FS where the package root sits.
	PrefixPath string
	// RealPath resolves the on-disk location of FS for soft links. Nil
	// for fetch results that have no meaningful real path.
	RealPath func() (string, error)
}

// DependencyMeta carries per-locator host configuration that affects
// materialisation, e.g. whether build scripts are permitted to run.
type DependencyMeta struct {
	BuildScriptsBlocked bool
}

// Workspace is a project-local package the installer may soft-link.
type Workspace struct {
	Locator locator.Locator
	Cwd     string
}

// Configuration is the host configuration surface the installer reads.
// project.Configuration.Get("nodeLinker") must equal the active
// installer's identifier for that installer to act at all (spec.md §6).
type Configuration interface {
	Get(key string) (string, bool)
}

// Report is the host's warning sink (spec.md §6, §7).
type Report interface {
	ReportWarning(code, msg string)
}

// Project is the root context the installer operates within.
type Project struct {
	// Cwd is the project's working directory; node_modules and the
	// store both live under it (pkg/storepath).
	Cwd string

	Configuration Configuration

	// DependencyMeta looks up per-locator build configuration.
	DependencyMeta func(l locator.Locator) DependencyMeta

	// WorkspaceByLocator returns the workspace a locator instantiates,
	// if any - used to decide soft-link compatibility (spec.md §9).
	WorkspaceByLocator func(l locator.Locator) (Workspace, bool)

	// CustomData is the state bag an install records package locations
	// into and Finalise returns for the host to persist. installer.New
	// replaces whatever it holds with a fresh Bag (spec.md §9), so a bag
	// persisted by a prior install is never carried into a new one.
	CustomData *customdata.Bag
}
