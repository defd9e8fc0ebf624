package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/storelinkhq/storelink/pkg/customdata"
	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
	"github.com/storelinkhq/storelink/pkg/storepath"
)

// Finalise garbage collects the store, then awaits every outstanding
// materialise/attach action, and returns the custom-data bag for the
// host to persist (spec.md §4.6). Store entries still being extracted
// are kept by the GC, since the slugs it keeps are derived from the
// packageLocations recorded when Materialise was called.
func (i *Installer) Finalise(ctx context.Context) (*customdata.Bag, GCReport, error) {
	storeLocation := storepath.StoreRoot(i.project)

	report, err := i.gcStore(storeLocation)
	if err != nil {
		return nil, GCReport{}, err
	}

	if err := i.table.Wait(); err != nil {
		return nil, GCReport{}, err
	}

	_ = i.fsys.Rmdir(storepath.NodeModulesRoot(i.project))

	return i.project.CustomData, report, nil
}

// gcStore removes whatever the store no longer needs to keep, or the
// entire store when this installer is not the project's active linker.
func (i *Installer) gcStore(storeLocation string) (GCReport, error) {
	if !i.isActiveLinker() {
		kept, err := i.storeChildren(storeLocation)
		if err != nil {
			return GCReport{}, err
		}
		if err := i.fsys.RemoveAll(storeLocation); err != nil {
			return GCReport{}, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO,
				"removing inactive store %s", storeLocation)
		}
		return GCReport{RemovedSlugs: kept}, nil
	}

	expected := i.expectedSlugs(storeLocation)

	children, err := i.storeChildren(storeLocation)
	if err != nil {
		return GCReport{}, err
	}

	var report GCReport
	for _, slug := range children {
		if expected[slug] {
			report.KeptSlugs = append(report.KeptSlugs, slug)
			continue
		}
		if err := i.fsys.RemoveAll(filepath.Join(storeLocation, slug)); err != nil {
			return GCReport{}, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO,
				"removing stale store entry %s", slug)
		}
		report.RemovedSlugs = append(report.RemovedSlugs, slug)
	}

	_ = i.fsys.Rmdir(storeLocation)

	return report, nil
}

// expectedSlugs is the set of storeLocation's immediate children that
// are a prefix of some recorded packageLocations entry.
func (i *Installer) expectedSlugs(storeLocation string) map[string]bool {
	expected := make(map[string]bool)
	prefix := storeLocation + string(filepath.Separator)
	for _, path := range i.project.CustomData.PackageLocations {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		slug := strings.SplitN(rest, string(filepath.Separator), 2)[0]
		expected[slug] = true
	}
	return expected
}

func (i *Installer) storeChildren(storeLocation string) ([]string, error) {
	entries, err := i.fsys.ReadDir(storeLocation)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "reading store %s", storeLocation)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
