// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SelectorsFile is an optional side file holding only selector overrides,
// so markup fixes can ship without touching the main config.
type SelectorsFile struct {
	Sources map[string]SourceConfig `yaml:"sources"`
}

func OverlaySelectors(cfg *Config, selectorsPath string) error {
	b, err := os.ReadFile(selectorsPath)
	if err != nil {
		// Missing selectors file should not kill startup
		return nil
	}

	var sf SelectorsFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return err
	}

	if cfg.Sources == nil {
		cfg.Sources = map[string]SourceConfig{}
	}
	for name, over := range sf.Sources {
		cur := cfg.Sources[name]
		cur.Selectors = cur.Selectors.Override(over.Selectors)
		if over.Enabled != nil {
			cur.Enabled = over.Enabled
		}
		cfg.Sources[name] = cur
	}
	return nil
}
