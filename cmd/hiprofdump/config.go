package main

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the optional YAML config file hiprofdump accepts, mirroring the
// flat one-struct-one-Unmarshal shape of the addon manifest format used
// elsewhere in this ecosystem.
type Config struct {
	// PoolSizeHint documents the capacity the recording process ran with;
	// purely informational here, printed in the report header.
	PoolSizeHint int `yaml:"pool_size_hint"`
	// DrainWaitRaw documents the recording process's drain period as a
	// Go duration string (e.g. "100ms"); kept as a string rather than a
	// time.Duration field because yaml.v2 has no built-in text-duration
	// decoder, then parsed explicitly in loadConfig.
	DrainWaitRaw string `yaml:"drain_wait"`
	// DrainWait is DrainWaitRaw parsed, zero if absent or unparsable.
	DrainWait time.Duration `yaml:"-"`
	// Output, if set, overrides where the report is written; "-" or empty
	// means stdout.
	Output string `yaml:"output"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("hiprofdump: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("hiprofdump: parsing config %s: %w", path, err)
	}
	if cfg.DrainWaitRaw != "" {
		d, err := time.ParseDuration(cfg.DrainWaitRaw)
		if err != nil {
			return cfg, fmt.Errorf("hiprofdump: parsing config %s: drain_wait: %w", path, err)
		}
		cfg.DrainWait = d
	}
	return cfg, nil
}
