// Package customdata defines the versioned persistence bag the installer
// produces on every install and the host is expected to persist and hand
// back on the next one. Per spec.md §9, a fresh install never rehydrates
// a prior Bag into its own state - see installer.New.
package customdata

import "encoding/json"

// Version is bumped whenever the Bag's shape changes incompatibly; the
// host must discard any persisted bag whose version differs.
const Version = 2

// Name identifies which installer produced a persisted bag.
const Name = "StorelinkInstaller"

// Key is the versioned lookup key the host stores Bag under, e.g. in a
// map[string]json.RawMessage keyed by component. Because it encodes the
// version, an incompatible prior bag is naturally ignored rather than
// misread.
func Key() string {
	b, _ := json.Marshal(struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
	}{Name, Version})
	return string(b)
}

// Bag is the persisted state an install produces.
type Bag struct {
	// PackageLocations maps a locatorHash to the absolute path at which
	// that package was materialised.
	PackageLocations map[string]string `json:"packageLocations"`

	// LocatorByPath maps the absolute store path of each hard-linked
	// package to the stringified locator that owns it. Soft-linked
	// packages are deliberately absent here
	// (spec.md §9) - only findPackageLocator's upward walk can resolve
	// a path inside a soft-linked workspace, and only if some ancestor
	// happens to be registered.
	LocatorByPath map[string]string `json:"locatorByPath"`
}

// New returns an empty Bag ready to be populated by an install.
func New() *Bag {
	return &Bag{
		PackageLocations: make(map[string]string),
		LocatorByPath:    make(map[string]string),
	}
}
