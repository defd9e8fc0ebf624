// Package hostfixture stands in for the resolver and fetcher storelink
// treats as external collaborators (spec.md §6): it loads a small JSON
// dependency graph describing a fixture project and turns it into the
// project.Package values the installer pipeline consumes, so cmd/storelink
// has something concrete to drive without a real registry.
package hostfixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
	"github.com/storelinkhq/storelink/pkg/locator"
	"github.com/storelinkhq/storelink/pkg/project"
)

// PackageSpec is one fixture package's declaration.
type PackageSpec struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	LinkType     string            `json:"linkType"`
	SourceDir    string            `json:"sourceDir"`
	Dependencies map[string]string `json:"dependencies"`
}

// Graph is a fixture dependency graph: a root package key plus every
// package reachable from it, keyed by an arbitrary fixture-local id
// (not the package's own ident, so two specs may share a name@version).
type Graph struct {
	Root     string                 `json:"root"`
	Packages map[string]PackageSpec `json:"packages"`
	dir      string
}

// Load reads a fixture graph from path, resolving each package's
// sourceDir relative to the fixture file's directory.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "reading fixture %s", path)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, storelinkerrors.Wrapf(err, storelinkerrors.ErrIO, "parsing fixture %s", path)
	}
	if _, ok := g.Packages[g.Root]; !ok {
		return nil, storelinkerrors.Newf(storelinkerrors.ErrAssertion, "fixture %s: root %q not found", path, g.Root)
	}
	g.dir = filepath.Dir(path)
	return &g, nil
}

// ResolvedPackage pairs a fixture key's project.Package with the
// project.FetchResult its content should be materialised from.
type ResolvedPackage struct {
	Key     string
	Package project.Package
	Fetch   project.FetchResult
}

// Resolve walks the graph from its root and returns every reachable
// package in dependency order (a package always precedes its
// dependents), so a caller can materialise and attach in that order and
// satisfy the installer's ordering requirement (spec.md §5).
func (g *Graph) Resolve() ([]ResolvedPackage, error) {
	locators := make(map[string]locator.Locator, len(g.Packages))
	for key, spec := range g.Packages {
		locators[key] = locator.New("", spec.Name, spec.Version)
	}

	var order []string
	visited := make(map[string]bool)
	var visit func(key string) error
	visit = func(key string) error {
		if visited[key] {
			return nil
		}
		spec, ok := g.Packages[key]
		if !ok {
			return storelinkerrors.Newf(storelinkerrors.ErrAssertion, "fixture references unknown package %q", key)
		}
		visited[key] = true
		deps := make([]string, 0, len(spec.Dependencies))
		for _, depKey := range spec.Dependencies {
			deps = append(deps, depKey)
		}
		sort.Strings(deps)
		for _, depKey := range deps {
			if err := visit(depKey); err != nil {
				return err
			}
		}
		order = append(order, key)
		return nil
	}
	if err := visit(g.Root); err != nil {
		return nil, err
	}

	resolved := make([]ResolvedPackage, 0, len(order))
	for _, key := range order {
		spec := g.Packages[key]

		var linkType project.LinkType
		switch spec.LinkType {
		case "SOFT":
			linkType = project.SOFT
		case "HARD", "":
			linkType = project.HARD
		default:
			return nil, storelinkerrors.Newf(storelinkerrors.ErrUnsupportedLinkType,
				"fixture package %q has unsupported linkType %q", key, spec.LinkType)
		}

		deps := make(map[string]locator.Locator, len(spec.Dependencies))
		for descriptor, depKey := range spec.Dependencies {
			depLocator, ok := locators[depKey]
			if !ok {
				return nil, storelinkerrors.Newf(storelinkerrors.ErrAssertion,
					"fixture package %q depends on unknown package %q", key, depKey)
			}
			deps[descriptor] = depLocator
		}

		sourceDir := spec.SourceDir
		if !filepath.IsAbs(sourceDir) {
			sourceDir = filepath.Join(g.dir, sourceDir)
		}

		fr := project.FetchResult{FS: os.DirFS(sourceDir), PrefixPath: ""}
		if linkType == project.SOFT {
			fr.RealPath = func() (string, error) { return sourceDir, nil }
		}

		resolved = append(resolved, ResolvedPackage{
			Key: key,
			Package: project.Package{
				Locator:      locators[key],
				LinkType:     linkType,
				Dependencies: deps,
			},
			Fetch: fr,
		})
	}
	return resolved, nil
}

// String renders the resolved install order for CLI logging.
func (r ResolvedPackage) String() string {
	return fmt.Sprintf("%s (%s)", r.Package.Locator.String(), r.Package.LinkType)
}
