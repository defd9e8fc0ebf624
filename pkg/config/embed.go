// Package config provides the koanf-backed implementation of
// project.Configuration: a layered load of compiled-in defaults, a
// project-level storelink.toml (if present), and process environment
// overrides, exposed as the single Get(key) lookup the installer needs
// to check it is the active nodeLinker (spec.md §6).
package config

import _ "embed"

//go:embed defaults.toml
var defaultConfig []byte

// rawBytesProvider adapts an in-memory byte slice to koanf's Parser
// provider interface, used to seed the layered config with the
// compiled-in defaults before any file on disk is consulted.
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, nil
}
