package hostfixture_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelinkhq/storelink/pkg/hostfixture"
	"github.com/storelinkhq/storelink/pkg/project"
)

func writeFixture(t *testing.T, dir string, graph map[string]interface{}) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "root"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root", "package.json"), []byte(`{"name":"root"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dep", "package.json"), []byte(`{"name":"dep"}`), 0o644))

	data, err := json.Marshal(graph)
	require.NoError(t, err)
	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestResolveOrdersDependenciesBeforeDependents(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, map[string]interface{}{
		"root": "root",
		"packages": map[string]interface{}{
			"root": map[string]interface{}{
				"name": "root", "version": "1.0.0", "linkType": "HARD",
				"sourceDir": "root", "dependencies": map[string]string{"dep": "dep"},
			},
			"dep": map[string]interface{}{
				"name": "dep", "version": "1.0.0", "linkType": "HARD", "sourceDir": "dep",
			},
		},
	})

	g, err := hostfixture.Load(path)
	require.NoError(t, err)

	resolved, err := g.Resolve()
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "dep", resolved[0].Key)
	assert.Equal(t, "root", resolved[1].Key)
	assert.Equal(t, project.HARD, resolved[0].Package.LinkType)
	assert.Len(t, resolved[1].Package.Dependencies, 1)
}

func TestResolveUnknownRootErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, map[string]interface{}{
		"root":     "missing",
		"packages": map[string]interface{}{},
	})

	_, err := hostfixture.Load(path)
	require.Error(t, err)
}

func TestResolveSoftLinkGetsRealPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, map[string]interface{}{
		"root": "root",
		"packages": map[string]interface{}{
			"root": map[string]interface{}{
				"name": "root", "version": "1.0.0", "linkType": "SOFT", "sourceDir": "root",
			},
		},
	})

	g, err := hostfixture.Load(path)
	require.NoError(t, err)

	resolved, err := g.Resolve()
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].Fetch.RealPath)

	realPath, err := resolved[0].Fetch.RealPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "root"), realPath)
}
