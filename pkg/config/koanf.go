package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	storelinkerrors "github.com/storelinkhq/storelink/pkg/errors"
)

// Config wraps a loaded koanf instance as a project.Configuration.
type Config struct {
	k *koanf.Koanf
}

// Load builds a Config for projectRoot: compiled-in defaults, then
// projectRoot/storelink.toml or projectRoot/.storelinkrc.toml if
// present, then STORELINK_-prefixed environment variables, each layer
// overriding the last.
func Load(projectRoot string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, storelinkerrors.Wrap(err, storelinkerrors.ErrConfiguration, "loading default configuration")
	}

	for _, name := range []string{"storelink.toml", ".storelinkrc.toml"} {
		path := filepath.Join(projectRoot, name)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, storelinkerrors.Wrapf(err, storelinkerrors.ErrConfiguration,
					"loading project configuration from %s", path)
			}
			break
		}
	}

	env := envOverrides()
	if len(env) > 0 {
		if err := k.Load(confmap.Provider(env, "."), nil); err != nil {
			return nil, storelinkerrors.Wrap(err, storelinkerrors.ErrConfiguration, "loading environment overrides")
		}
	}

	return &Config{k: k}, nil
}

// envKeys maps the environment variable suffix (after STORELINK_) to
// the dotted config key it overrides. Listed explicitly rather than
// derived from casing, since config keys are camelCase and env names
// conventionally are not.
var envKeys = map[string]string{
	"NODE_LINKER": "nodeLinker",
}

// envOverrides reads STORELINK_<NAME> environment variables into the
// config keys envKeys lists.
func envOverrides() map[string]interface{} {
	const prefix = "STORELINK_"
	out := make(map[string]interface{})
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		parts := strings.SplitN(kv[len(prefix):], "=", 2)
		if len(parts) != 2 {
			continue
		}
		if key, ok := envKeys[parts[0]]; ok {
			out[key] = parts[1]
		}
	}
	return out
}

// Get implements project.Configuration.
func (c *Config) Get(key string) (string, bool) {
	if !c.k.Exists(key) {
		return "", false
	}
	return c.k.String(key), true
}
