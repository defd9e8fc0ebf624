package installer

import (
	"context"
	"fmt"

	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
	"github.com/storelinkhq/storelink/pkg/fsops"
	"github.com/storelinkhq/storelink/pkg/project"
	"github.com/storelinkhq/storelink/pkg/storepath"
)

// Materialise dispatches by pkg.LinkType: SOFT packages are recorded at
// their fetch result's real path; HARD packages are scheduled for
// extraction into the content-addressed store, keyed in the action
// table by the package's locator hash so AttachDependencies can chain
// onto completion (spec.md §4.4).
func (i *Installer) Materialise(ctx context.Context, pkg project.Package, fr project.FetchResult) (MaterialiseResult, error) {
	switch pkg.LinkType {
	case project.SOFT:
		return i.materialiseSoft(pkg, fr)
	case project.HARD:
		return i.materialiseHard(ctx, pkg, fr)
	default:
		return MaterialiseResult{}, storelinkerrors.Newf(storelinkerrors.ErrUnsupportedLinkType,
			"unsupported link type %q for %s", pkg.LinkType, pkg.Locator.String())
	}
}

func (i *Installer) materialiseSoft(pkg project.Package, fr project.FetchResult) (MaterialiseResult, error) {
	if fr.RealPath == nil {
		return MaterialiseResult{}, storelinkerrors.Newf(storelinkerrors.ErrAssertion,
			"soft-linked package %s has no resolvable real path", pkg.Locator.String())
	}
	realPath, err := fr.RealPath()
	if err != nil {
		return MaterialiseResult{}, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO,
			"resolving real path for %s", pkg.Locator.String())
	}

	i.project.CustomData.PackageLocations[pkg.Locator.LocatorHash()] = realPath
	i.log.Debug().Str("locator", pkg.Locator.String()).Str("path", realPath).Msg("materialised soft link")

	return MaterialiseResult{PackageLocation: realPath}, nil
}

func (i *Installer) materialiseHard(ctx context.Context, pkg project.Package, fr project.FetchResult) (MaterialiseResult, error) {
	createSelfReference := !pkg.DependsOnOwnIdent()
	pkgPath := storepath.PackageLocation(pkg.Locator, i.project, createSelfReference)

	i.project.CustomData.LocatorByPath[pkgPath] = pkg.Locator.String()
	i.project.CustomData.PackageLocations[pkg.Locator.LocatorHash()] = pkgPath

	i.table.Set(pkg.Locator.LocatorHash(), func(ctx context.Context) (interface{}, error) {
		return nil, i.extractHard(ctx, pkgPath, fr)
	})

	depLocator := pkg.Locator
	if depLocator.IsVirtual() {
		depLocator = depLocator.Devirtualize()
	}

	var depMeta project.DependencyMeta
	if i.project.DependencyMeta != nil {
		depMeta = i.project.DependencyMeta(depLocator)
	}

	directive, err := project.ExtractBuildScripts(fr.FS, fr.PrefixPath, depMeta)
	if err != nil {
		return MaterialiseResult{}, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO,
			"extracting build directives for %s", pkg.Locator.String())
	}

	i.log.Debug().Str("locator", pkg.Locator.String()).Str("path", pkgPath).
		Bool("selfReference", createSelfReference).Msg("scheduled hard link extraction")

	return MaterialiseResult{PackageLocation: pkgPath, BuildDirective: &directive}, nil
}

// extractHard performs the actual store-entry creation, skipped
// entirely (but still recorded) in dry-run mode.
func (i *Installer) extractHard(ctx context.Context, pkgPath string, fr project.FetchResult) error {
	if i.dryRun {
		i.recordDryRun(fmt.Sprintf("extract %s -> %s", fr.PrefixPath, pkgPath))
		return nil
	}

	if err := i.fsys.MkdirAll(pkgPath, 0o755); err != nil {
		return storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "creating store entry %s", pkgPath)
	}
	if err := fsops.MaterialiseHard(ctx, fr.FS, fr.PrefixPath, pkgPath); err != nil {
		return err
	}
	return nil
}
