package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/storelinkhq/storelink/pkg/asyncwork"
	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
	"github.com/storelinkhq/storelink/pkg/fsops"
	"github.com/storelinkhq/storelink/pkg/fsview"
	"github.com/storelinkhq/storelink/pkg/locator"
	"github.com/storelinkhq/storelink/pkg/project"
	"github.com/storelinkhq/storelink/pkg/storepath"
)

// AttachDependencies builds pkg's symlink farm: one entry per
// dependency edge, reconciled against whatever is already on disk, and
// schedules it to run after pkg's own materialisation via the action
// table's reduce (spec.md §4.5). The returned handle resolves once the
// farm has been reconciled.
func (i *Installer) AttachDependencies(ctx context.Context, pkg project.Package) *asyncwork.Handle {
	if !i.isActiveLinker() {
		return i.table.Set(pkg.Locator.LocatorHash()+":inactive-linker-noop",
			func(ctx context.Context) (interface{}, error) { return nil, nil })
	}
	return i.table.Reduce(pkg.Locator.LocatorHash(), func(ctx context.Context, prev interface{}) (interface{}, error) {
		return nil, i.attachDependencies(ctx, pkg)
	})
}

func (i *Installer) attachDependencies(ctx context.Context, pkg project.Package) error {
	pkgPath, ok := i.project.CustomData.PackageLocations[pkg.Locator.LocatorHash()]
	if !ok {
		return storelinkerrors.Newf(storelinkerrors.ErrAssertion,
			"materialise must run before attach for %s", pkg.Locator.String())
	}

	nmPath, storeEntryToClean := i.linkFarmDir(pkgPath, pkg.Locator)

	if storeEntryToClean != "" {
		if err := i.cleanStoreEntryRegime(storeEntryToClean); err != nil {
			return err
		}
	}

	extraneous, err := fsview.Listing(i.fsys, nmPath)
	if err != nil {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "listing link farm at %s", nmPath)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for descriptor, dep := range pkg.Dependencies {
		descriptor, dep := descriptor, dep
		g.Go(func() error {
			return i.attachOne(gctx, nmPath, descriptor, dep, extraneous, &mu)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	mu.Lock()
	delete(extraneous, pkg.Locator.Ident())
	remaining := make(map[string]fsview.Entry, len(extraneous))
	for k, v := range extraneous {
		remaining[k] = v
	}
	mu.Unlock()

	return i.pruneExtraneous(nmPath, remaining)
}

// attachOne links one dependency edge, reusing an already-correct
// symlink instead of recreating it.
func (i *Installer) attachOne(ctx context.Context, nmPath, descriptor string, dep locator.Locator, extraneous map[string]fsview.Entry, mu *sync.Mutex) error {
	depLocator := dep
	if !i.isCompatible(depLocator) {
		i.report.ReportWarning("PEER_DEPENDENCY_VARIANTS_UNSUPPORTED",
			"peer dependency variants unsupported on workspaces: "+depLocator.String())
		depLocator = depLocator.Devirtualize()
	}

	depSrcPath, ok := i.project.CustomData.PackageLocations[depLocator.LocatorHash()]
	if !ok {
		return storelinkerrors.Newf(storelinkerrors.ErrAssertion,
			"dependency %s has no recorded package location", depLocator.String())
	}

	depDstPath := filepath.Join(nmPath, descriptor)
	depLinkPath, err := filepath.Rel(filepath.Dir(depDstPath), depSrcPath)
	if err != nil {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO,
			"computing relative link from %s to %s", depDstPath, depSrcPath)
	}

	mu.Lock()
	existing, found := extraneous[descriptor]
	if found {
		delete(extraneous, descriptor)
	}
	mu.Unlock()

	if found && existing.IsSymlink {
		if target, err := i.fsys.Readlink(existing.Path); err == nil && target == depLinkPath {
			return nil
		}
	}
	if found {
		if err := i.fsys.RemoveAll(existing.Path); err != nil {
			return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "removing stale link farm entry %s", existing.Path)
		}
	}

	if i.dryRun {
		i.recordDryRun("link " + depDstPath + " -> " + depLinkPath)
		return nil
	}

	if err := fsops.Link(i.fsys, depSrcPath, depDstPath); err != nil {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "linking %s", depDstPath)
	}
	return nil
}

// linkFarmDir computes the dependent's link-farm directory and,
// when pkgPath sits inside the store under a self-reference vendor
// path, the store entry root that needs cleaning of any leftover
// self-reference regime.
func (i *Installer) linkFarmDir(pkgPath string, l locator.Locator) (nmPath, storeEntryToClean string) {
	storeRoot := storepath.StoreRoot(i.project)
	if strings.HasPrefix(pkgPath, storeRoot+string(filepath.Separator)) {
		suffix := string(filepath.Separator) + storepath.VendorPath(l)
		if strings.HasSuffix(pkgPath, suffix) {
			storeEntryRoot := strings.TrimSuffix(pkgPath, suffix)
			return filepath.Join(storeEntryRoot, "node_modules"), storeEntryRoot
		}
	}
	return filepath.Join(pkgPath, "node_modules"), ""
}

// cleanStoreEntryRegime removes every entry directly under
// storeEntryRoot except node_modules - leftovers from an earlier
// install of the same locator under a different self-reference regime
// (spec.md §4.5 step 3).
func (i *Installer) cleanStoreEntryRegime(storeEntryRoot string) error {
	entries, err := i.fsys.ReadDir(storeEntryRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "reading store entry %s", storeEntryRoot)
	}
	for _, e := range entries {
		if e.Name() == "node_modules" {
			continue
		}
		if err := i.fsys.RemoveAll(filepath.Join(storeEntryRoot, e.Name())); err != nil {
			return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO,
				"removing stale self-reference regime entry %s", e.Name())
		}
	}
	return nil
}

// pruneExtraneous deletes whatever is left in extraneous (entries no
// longer desired) and opportunistically removes any scope directory
// that becomes empty as a result.
func (i *Installer) pruneExtraneous(nmPath string, extraneous map[string]fsview.Entry) error {
	scopesTouched := make(map[string]bool)

	for ident, entry := range extraneous {
		if err := i.fsys.RemoveAll(entry.Path); err != nil {
			return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "removing extraneous entry %s", entry.Path)
		}
		if strings.HasPrefix(ident, "@") {
			scope := strings.SplitN(ident, "/", 2)[0]
			scopesTouched[scope] = true
		}
	}

	for scope := range scopesTouched {
		_ = i.fsys.Rmdir(filepath.Join(nmPath, scope))
	}
	return nil
}

// isCompatible reports whether a dependency locator is usable as-is: a
// virtual instance of a workspace is not, since workspaces support only
// a single peer-dependency instantiation (spec.md §9).
func (i *Installer) isCompatible(l locator.Locator) bool {
	if !l.IsVirtual() || i.project.WorkspaceByLocator == nil {
		return true
	}
	_, isWorkspace := i.project.WorkspaceByLocator(l.Devirtualize())
	return !isWorkspace
}
