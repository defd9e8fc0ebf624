// Package resolver implements the installer's read side: mapping a
// locator to its on-disk package location, and a filesystem path back
// to the locator that owns it, both against a previously persisted
// customdata.Bag (spec.md §4.7).
package resolver

import (
	"path/filepath"
	"regexp"

	"github.com/storelinkhq/storelink/pkg/customdata"
	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
	"github.com/storelinkhq/storelink/pkg/locator"
)

// nodeModulesEntry matches "…/node_modules/(@scope/)?name" as a prefix
// of an arbitrary deeper path, capturing that prefix.
var nodeModulesEntry = regexp.MustCompile(`^(.*/node_modules/(?:@[^/]+/)?[^/]+)(?:/.*)?$`)

// FindPackageLocation resolves l to the absolute path it was
// materialised at on the last install recorded in bag. A nil bag is a
// user-visible configuration error instructing the user to install
// first; a missing entry is a lookup error naming the locator.
func FindPackageLocation(bag *customdata.Bag, l locator.Locator) (string, error) {
	if bag == nil {
		return "", storelinkerrors.New(storelinkerrors.ErrConfiguration,
			"no install state found; run install first")
	}
	path, ok := bag.PackageLocations[l.LocatorHash()]
	if !ok {
		return "", storelinkerrors.Newf(storelinkerrors.ErrLookup,
			"package %s was not found in the last install", l.String())
	}
	return path, nil
}

// FindPackageLocator resolves path to the locator that owns it: an
// exact node_modules-entry match first, then an upward directory walk
// consulting locatorByPath at each level, stopping at the filesystem
// root. Returns ok=false if nothing matches.
func FindPackageLocator(bag *customdata.Bag, path string) (string, bool, error) {
	if bag == nil {
		return "", false, storelinkerrors.New(storelinkerrors.ErrConfiguration,
			"no install state found; run install first")
	}

	if m := nodeModulesEntry.FindStringSubmatch(path); m != nil {
		if l, ok := bag.LocatorByPath[m[1]]; ok {
			return l, true, nil
		}
	}

	current := filepath.Clean(path)
	for {
		if l, ok := bag.LocatorByPath[current]; ok {
			return l, true, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false, nil
		}
		current = parent
	}
}
