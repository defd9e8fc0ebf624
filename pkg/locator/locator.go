// Package locator implements the opaque package identity
// that the rest of storelink keys its state by: a content hash, an ident
// (scope + name), a version, and an optional virtual (peer-resolution)
// variant tag.
package locator

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Locator is a resolved package identity. The zero value is not valid;
// construct with New or NewVirtual.
type Locator struct {
	scope      string // without leading "@"
	name       string
	version    string
	virtualRef string // empty unless this is a virtual instance
}

// New constructs a non-virtual Locator. scope may be empty for unscoped
// packages.
func New(scope, name, version string) Locator {
	return Locator{scope: scope, name: name, version: version}
}

// NewVirtual constructs a virtual instance of a Locator, tagged with the
// peer-dependency resolution variant virtualRef. virtualRef must be
// non-empty.
func NewVirtual(scope, name, version, virtualRef string) Locator {
	return Locator{scope: scope, name: name, version: version, virtualRef: virtualRef}
}

// Scope returns the package's npm scope, without the leading "@", or ""
// for unscoped packages.
func (l Locator) Scope() string { return l.scope }

// Name returns the unscoped package name.
func (l Locator) Name() string { return l.name }

// Version returns the resolved version string.
func (l Locator) Version() string { return l.version }

// IsVirtual reports whether this Locator is a peer-dependency-resolution
// variant of some underlying workspace locator.
func (l Locator) IsVirtual() bool { return l.virtualRef != "" }

// Ident returns the package's ident: "@scope/name" or "name".
func (l Locator) Ident() string {
	if l.scope == "" {
		return l.name
	}
	return "@" + l.scope + "/" + l.name
}

// IdentHash returns a stable hash of the ident alone, independent of
// version - used to test "does this package depend on its own ident"
// for the self-reference rule.
func (l Locator) IdentHash() string {
	return hashString(l.Ident())
}

// LocatorHash returns a stable content hash covering ident, version, and
// (for virtual locators) the virtual ref. Two Locators with the same
// LocatorHash are the same resolved package.
func (l Locator) LocatorHash() string {
	key := l.Ident() + "@" + l.version
	if l.IsVirtual() {
		key += "#" + l.virtualRef
	}
	return hashString(key)
}

// Devirtualize returns the non-virtual counterpart of a virtual Locator.
// Calling it on a non-virtual Locator returns the receiver unchanged.
func (l Locator) Devirtualize() Locator {
	if !l.IsVirtual() {
		return l
	}
	return Locator{scope: l.scope, name: l.name, version: l.version}
}

// Slug returns a deterministic, filesystem-safe string unique per
// Locator, used to name its entry in the store.
func (l Locator) Slug() string {
	slug := strings.ReplaceAll(l.Ident(), "/", "+")
	slug = strings.TrimPrefix(slug, "@")
	slug += "@" + sanitizeVersion(l.version)
	if l.IsVirtual() {
		slug += "-virtual-" + hashString(l.virtualRef)[:8]
	}
	return slug
}

// String renders the Locator the way reports and error messages should
// display it: "ident@version", with a virtual marker when applicable.
func (l Locator) String() string {
	if l.IsVirtual() {
		return fmt.Sprintf("%s@%s (virtual:%s)", l.Ident(), l.version, l.virtualRef[:min(8, len(l.virtualRef))])
	}
	return fmt.Sprintf("%s@%s", l.Ident(), l.version)
}

func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sanitizeVersion(v string) string {
	return strings.ReplaceAll(v, "/", "_")
}
