package project

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path"
)

// BuildDirective describes what a package's install step is permitted
// and expected to run, derived from its manifest.
type BuildDirective struct {
	// Scripts is the subset of package.json's "scripts" relevant to
	// installation: preinstall, install, postinstall. Nil if none are
	// declared or the host has blocked them for this locator.
	Scripts map[string]string
	// HasNativeBuild reports whether the package tree carries a
	// binding.gyp, signalling a native addon that needs compiling.
	HasNativeBuild bool
}

var installLifecycleScripts = []string{"preinstall", "install", "postinstall"}

// ExtractBuildScripts reads package.json (if present) under prefixPath
// in fsys and reports its install-relevant scripts plus whether a
// native build descriptor is present. A missing manifest is not an
// error - it simply yields an empty directive. meta.BuildScriptsBlocked
// suppresses Scripts unconditionally, since the host may forbid
// arbitrary code execution for a given locator regardless of what its
// manifest requests.
func ExtractBuildScripts(fsys fs.FS, prefixPath string, meta DependencyMeta) (BuildDirective, error) {
	var directive BuildDirective

	if !meta.BuildScriptsBlocked {
		data, err := fs.ReadFile(fsys, path.Join(prefixPath, "package.json"))
		switch {
		case err == nil:
			var manifest struct {
				Scripts map[string]string `json:"scripts"`
			}
			if err := json.Unmarshal(data, &manifest); err != nil {
				return BuildDirective{}, err
			}
			directive.Scripts = selectLifecycleScripts(manifest.Scripts)
		case errors.Is(err, fs.ErrNotExist):
			// no manifest, no scripts.
		default:
			return BuildDirective{}, err
		}
	}

	if _, err := fs.Stat(fsys, path.Join(prefixPath, "binding.gyp")); err == nil {
		directive.HasNativeBuild = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return BuildDirective{}, err
	}

	return directive, nil
}

func selectLifecycleScripts(all map[string]string) map[string]string {
	if len(all) == 0 {
		return nil
	}
	kept := make(map[string]string)
	for _, name := range installLifecycleScripts {
		if script, ok := all[name]; ok {
			kept[name] = script
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
