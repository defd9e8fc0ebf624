package fsview_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/storelinkhq/storelink/pkg/fsops"
	"github.com/storelinkhq/storelink/pkg/fsview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingMissingDirectoryIsEmptyNotError(t *testing.T) {
	fsys := fsops.NewAfero(afero.NewMemMapFs())

	got, err := fsview.Listing(fsys, "/repo/node_modules")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListingFlattensScopedEntries(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := fsops.NewAfero(mem)
	nm := "/repo/node_modules"

	require.NoError(t, mem.MkdirAll(filepath.Join(nm, "left-pad"), 0o755))
	require.NoError(t, mem.MkdirAll(filepath.Join(nm, "@org", "widgets"), 0o755))
	require.NoError(t, fsys.Symlink("/store/a/node_modules/widgets", filepath.Join(nm, "@org", "widgets")))

	got, err := fsview.Listing(fsys, nm)
	require.NoError(t, err)

	require.Contains(t, got, "left-pad")
	assert.Equal(t, filepath.Join(nm, "left-pad"), got["left-pad"].Path)
	assert.False(t, got["left-pad"].IsSymlink)

	require.Contains(t, got, "@org/widgets")
	assert.Equal(t, filepath.Join(nm, "@org", "widgets"), got["@org/widgets"].Path)
}

func TestListingEmptyNodeModulesIsEmpty(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := fsops.NewAfero(mem)
	nm := "/repo/node_modules"
	require.NoError(t, mem.MkdirAll(nm, 0o755))

	got, err := fsview.Listing(fsys, nm)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListingExposesEmptyScopeDirectoryAsOpaqueEntry(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := fsops.NewAfero(mem)
	nm := "/repo/node_modules"
	require.NoError(t, mem.MkdirAll(filepath.Join(nm, "@org"), 0o755))

	got, err := fsview.Listing(fsys, nm)
	require.NoError(t, err)

	require.Contains(t, got, "@org")
	assert.Equal(t, filepath.Join(nm, "@org"), got["@org"].Path)
	assert.False(t, got["@org"].IsSymlink)
}

func TestListingExcludesStoreDirectory(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := fsops.NewAfero(mem)
	nm := "/repo/node_modules"
	require.NoError(t, mem.MkdirAll(filepath.Join(nm, ".store", "somepkg"), 0o755))

	got, err := fsview.Listing(fsys, nm)
	require.NoError(t, err)
	assert.Empty(t, got)
}
