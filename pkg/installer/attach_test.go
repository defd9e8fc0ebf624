package installer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelinkhq/storelink/pkg/installer"
	"github.com/storelinkhq/storelink/pkg/locator"
	"github.com/storelinkhq/storelink/pkg/project"
)

func materialiseHardFixture(t *testing.T, ctx context.Context, inst *installer.Installer, name, version string, deps map[string]locator.Locator) (project.Package, string) {
	t.Helper()
	sourceDir := t.TempDir()
	fr := writeFixturePackage(t, sourceDir, nil)

	l := pkgLocator(name, version)
	pkg := project.Package{Locator: l, LinkType: project.HARD, Dependencies: deps}

	res, err := inst.Materialise(ctx, pkg, fr)
	require.NoError(t, err)
	return pkg, res.PackageLocation
}

// linkFarmOf returns the directory a self-referencing package's
// (createSelfReference is the default absent a self-dependency)
// dependents are linked into: its store entry's node_modules, one level
// up from its own vendored content at node_modules/<ident>.
func linkFarmOf(pkgPath string) string {
	return filepath.Dir(pkgPath)
}

func TestAttachDependenciesCreatesSymlinkFarm(t *testing.T) {
	p := newTestProject(t, installer.Name)
	ctx := context.Background()
	inst := installer.New(ctx, p, newReport(), 10)

	depPkg, depPath := materialiseHardFixture(t, ctx, inst, "dep", "1.0.0", nil)
	rootPkg, rootPath := materialiseHardFixture(t, ctx, inst, "root", "1.0.0", map[string]locator.Locator{
		"dep": depPkg.Locator,
	})

	handle := inst.AttachDependencies(ctx, rootPkg)
	_, err := handle.Wait(ctx)
	require.NoError(t, err)

	link := filepath.Join(linkFarmOf(rootPath), "dep")
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)

	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(depPath)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, resolved)
}

func TestAttachDependenciesIsIdempotent(t *testing.T) {
	p := newTestProject(t, installer.Name)
	ctx := context.Background()
	inst := installer.New(ctx, p, newReport(), 10)

	depPkg, _ := materialiseHardFixture(t, ctx, inst, "dep", "1.0.0", nil)
	rootPkg, rootPath := materialiseHardFixture(t, ctx, inst, "root", "1.0.0", map[string]locator.Locator{
		"dep": depPkg.Locator,
	})

	_, err := inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	link := filepath.Join(linkFarmOf(rootPath), "dep")
	before, err := os.Lstat(link)
	require.NoError(t, err)

	_, err = inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	after, err := os.Lstat(link)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestAttachDependenciesPrunesExtraneousEntries(t *testing.T) {
	p := newTestProject(t, installer.Name)
	ctx := context.Background()
	inst := installer.New(ctx, p, newReport(), 10)

	oldDep, _ := materialiseHardFixture(t, ctx, inst, "old-dep", "1.0.0", nil)
	rootPkg, rootPath := materialiseHardFixture(t, ctx, inst, "root", "1.0.0", map[string]locator.Locator{
		"old-dep": oldDep.Locator,
	})

	_, err := inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	staleLink := filepath.Join(linkFarmOf(rootPath), "old-dep")
	_, err = os.Lstat(staleLink)
	require.NoError(t, err)

	newDep, _ := materialiseHardFixture(t, ctx, inst, "new-dep", "1.0.0", nil)
	rootPkg.Dependencies = map[string]locator.Locator{"new-dep": newDep.Locator}

	_, err = inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	_, err = os.Lstat(staleLink)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Lstat(filepath.Join(linkFarmOf(rootPath), "new-dep"))
	assert.NoError(t, err)
}

// TestAttachDependenciesCreatesScopedSymlink covers spec.md §8's S6
// scenario: a scoped dependency lands at <dependent-nm>/@org/pkg.
func TestAttachDependenciesCreatesScopedSymlink(t *testing.T) {
	p := newTestProject(t, installer.Name)
	ctx := context.Background()
	inst := installer.New(ctx, p, newReport(), 10)

	depSource := t.TempDir()
	fr := writeFixturePackage(t, depSource, nil)
	depLocator := locator.New("org", "pkg", "1.0.0")
	depRes, err := inst.Materialise(ctx, project.Package{Locator: depLocator, LinkType: project.HARD}, fr)
	require.NoError(t, err)

	rootPkg, rootPath := materialiseHardFixture(t, ctx, inst, "root", "1.0.0", map[string]locator.Locator{
		"@org/pkg": depLocator,
	})

	_, err = inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	link := filepath.Join(linkFarmOf(rootPath), "@org", "pkg")
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)

	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(depRes.PackageLocation)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, resolved)
}

// TestAttachDependenciesRemovesEmptyScopeDirectoryLeftBehind covers the
// second half of S6: an empty @scope directory left on disk (e.g. from
// an interrupted prior run) is itself eligible for cleanup, not just the
// package entries within it.
func TestAttachDependenciesRemovesEmptyScopeDirectoryLeftBehind(t *testing.T) {
	p := newTestProject(t, installer.Name)
	ctx := context.Background()
	inst := installer.New(ctx, p, newReport(), 10)

	rootPkg, rootPath := materialiseHardFixture(t, ctx, inst, "root", "1.0.0", nil)
	nmPath := linkFarmOf(rootPath)
	require.NoError(t, os.MkdirAll(filepath.Join(nmPath, "@org"), 0o755))

	_, err := inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	_, err = os.Lstat(filepath.Join(nmPath, "@org"))
	assert.True(t, os.IsNotExist(err))
}

func TestAttachDependenciesNoopWhenNotActiveLinker(t *testing.T) {
	p := newTestProject(t, "some-other-linker")
	ctx := context.Background()
	inst := installer.New(ctx, p, newReport(), 10)

	depPkg, _ := materialiseHardFixture(t, ctx, inst, "dep", "1.0.0", nil)
	rootPkg, rootPath := materialiseHardFixture(t, ctx, inst, "root", "1.0.0", map[string]locator.Locator{
		"dep": depPkg.Locator,
	})

	_, err := inst.AttachDependencies(ctx, rootPkg).Wait(ctx)
	require.NoError(t, err)

	_, err = os.Lstat(filepath.Join(linkFarmOf(rootPath), "dep"))
	assert.True(t, os.IsNotExist(err))
}
