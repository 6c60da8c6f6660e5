package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Target is one named server entry in a client targets file.
type Target struct {
	ServerURL  string `toml:"server_url"`
	APIKey     string `toml:"api_key"`
	CampaignID int64  `toml:"campaign_id"`
	WorldID    int64  `toml:"world_id"`
}

// Targets is the on-disk shape of a client targets file:
//
//	default = "local"
//
//	[targets.local]
//	server_url = "http://127.0.0.1:5000"
//	api_key = "..."
//	campaign_id = 1
//	world_id = 1
type Targets struct {
	Default string            `toml:"default"`
	Targets map[string]Target `toml:"targets"`
}

// LoadTargets parses a TOML targets file.
func LoadTargets(path string) (Targets, error) {
	var out Targets
	if _, err := toml.DecodeFile(path, &out); err != nil {
		return Targets{}, fmt.Errorf("decode targets file %s: %w", path, err)
	}
	return out, nil
}

// Resolve returns the named target, falling back to the file's default when
// name is empty.
func (t Targets) Resolve(name string) (Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(t.Default)
	}
	if name == "" {
		return Target{}, fmt.Errorf("targets file has no default target")
	}
	target, ok := t.Targets[name]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q", name)
	}
	return target, nil
}
