package installer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/storelinkhq/storelink/pkg/customdata"
	"github.com/storelinkhq/storelink/pkg/locator"
	"github.com/storelinkhq/storelink/pkg/project"
	"github.com/storelinkhq/storelink/pkg/report"
)

// stubConfig implements project.Configuration with a single fixed
// nodeLinker value, standing in for pkg/config in tests that don't care
// about layered loading.
type stubConfig struct {
	nodeLinker string
}

func (c stubConfig) Get(key string) (string, bool) {
	if key == "nodeLinker" {
		return c.nodeLinker, true
	}
	return "", false
}

func newTestProject(t *testing.T, nodeLinker string) *project.Project {
	t.Helper()
	return &project.Project{
		Cwd:           t.TempDir(),
		Configuration: stubConfig{nodeLinker: nodeLinker},
		CustomData:    customdata.New(),
	}
}

func newReport() *report.Sink {
	return report.New(os.Stdout)
}

// writeFixturePackage creates a minimal package tree (a package.json
// plus an index.js) under dir and returns a fetch result reading it
// through the real filesystem, the way a fetcher's readable tree would
// look in production.
func writeFixturePackage(t *testing.T, dir string, scripts map[string]string) project.FetchResult {
	t.Helper()
	require := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}

	require(os.MkdirAll(dir, 0o755))

	manifest := `{"name":"fixture"}`
	if len(scripts) > 0 {
		manifest = `{"name":"fixture","scripts":{`
		first := true
		for k, v := range scripts {
			if !first {
				manifest += ","
			}
			first = false
			manifest += `"` + k + `":"` + v + `"`
		}
		manifest += `}}`
	}
	require(os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644))
	require(os.WriteFile(filepath.Join(dir, "index.js"), []byte("module.exports = {};\n"), 0o644))

	return project.FetchResult{
		FS:         os.DirFS(dir),
		PrefixPath: "",
	}
}

func soft(realPath string) project.FetchResult {
	return project.FetchResult{
		FS:         os.DirFS(realPath),
		PrefixPath: "",
		RealPath:   func() (string, error) { return realPath, nil },
	}
}

func pkgLocator(name, version string) locator.Locator {
	return locator.New("", name, version)
}
