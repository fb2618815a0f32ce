// Package config holds the mapper's persistent and command-line settings:
// the connection parameters, interface/output modes, auto-mapping toggles,
// and the find-format template, loaded from and saved to a YAML file in the
// data directory.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/seekerror/logw"
	"gopkg.in/yaml.v3"
)

// Interface selects how room descriptions and exits are rendered to the
// player, per spec section 6's "--interface" flag.
type Interface string

const (
	InterfaceText    Interface = "text"
	InterfaceHC      Interface = "hc"
	InterfaceSighted Interface = "sighted"
)

// OutputFormat selects how the display stream is transformed before it
// reaches the player, per spec section 6's "--format" flag.
type OutputFormat string

const (
	FormatNormal OutputFormat = "normal"
	FormatRaw    OutputFormat = "raw"
	FormatTintin OutputFormat = "tintin"
)

// DefaultFindFormat is the find-format template used when none is
// configured, listing vnum and name with the direction and distance a
// player would need to travel.
const DefaultFindFormat = "{name} ({vnum}), direction {direction}, {distance} rooms"

// Config is the full set of settings a mapper instance runs with. Fields
// mirror spec section 6's CLI flags plus the auto-mapping toggles spec
// section 4 describes as independently switchable.
type Config struct {
	Emulation bool `yaml:"emulation"`

	Interface    Interface    `yaml:"interface"`
	OutputFormat OutputFormat `yaml:"format"`

	LocalHost  string `yaml:"localHost"`
	LocalPort  int    `yaml:"localPort"`
	RemoteHost string `yaml:"remoteHost"`
	RemotePort int    `yaml:"remotePort"`
	NoSSL      bool   `yaml:"noSSL"`

	PromptTerminatorLF bool `yaml:"promptTerminatorLF"`
	GagPrompts         bool `yaml:"gagPrompts"`

	FindFormat string `yaml:"findFormat"`

	AutoMapping     bool `yaml:"autoMapping"`
	AutoUpdateRooms bool `yaml:"autoUpdateRooms"`
	AutoMerging     bool `yaml:"autoMerging"`
	AutoLinking     bool `yaml:"autoLinking"`

	// LeadBeforeEntering names vnums where a mount must be led rather than
	// ridden through — pathfind.Config.LeadBeforeEntering is built from
	// this set, since no vnum numbering is universal across games.
	LeadBeforeEntering []string `yaml:"leadBeforeEntering,omitempty"`

	// AvoidTerrains names the terrain types a route should steer around
	// when a cheaper alternative exists (spec section 4.7's cost formula).
	AvoidTerrains []string `yaml:"avoidTerrains,omitempty"`
}

// Default returns the configuration a fresh install starts with: the
// values spec section 6 names as defaults, auto-mapping fully enabled,
// and the text interface with normal-format output.
func Default() Config {
	return Config{
		Interface:    InterfaceText,
		OutputFormat: FormatNormal,
		LocalHost:    "",
		LocalPort:    4000,
		RemoteHost:   "mume.org",
		RemotePort:   4242,
		FindFormat:   DefaultFindFormat,

		AutoMapping:     true,
		AutoUpdateRooms: true,
		AutoMerging:     true,
		AutoLinking:     true,
	}
}

// Load reads path and unmarshals it into a Config seeded with Default
// values, so a partial file only overrides the fields it sets. A missing
// file is not an error: it returns Default with no error, the same
// zero-file-is-fine convention the mapper's legacy field migration relies
// on for map.json.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg as YAML and writes it to path, creating the parent
// directory if necessary.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %q: %w", path, err)
	}
	return nil
}

// LeadBeforeEnteringSet converts the configured slice into the map form
// pathfind.Config and the door logic consume.
func (c Config) LeadBeforeEnteringSet() map[string]bool {
	if len(c.LeadBeforeEntering) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.LeadBeforeEntering))
	for _, vnum := range c.LeadBeforeEntering {
		set[vnum] = true
	}
	return set
}

// AvoidTerrainSet converts the configured slice into the map form
// pathfind's DefaultExitCost consumes.
func (c Config) AvoidTerrainSet() map[string]bool {
	if len(c.AvoidTerrains) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.AvoidTerrains))
	for _, terrain := range c.AvoidTerrains {
		set[terrain] = true
	}
	return set
}

// WatchReload watches path for writes and calls onReload with the freshly
// parsed Config each time it changes, until ctx is cancelled. A parse
// failure on reload is logged and the previous Config keeps running — a
// config file mid-save by an external editor shouldn't take the mapper
// down. The watcher goroutine exits when ctx is done or the watcher itself
// errors unrecoverably.
func WatchReload(ctx context.Context, path string, onReload func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: starting watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watching %q: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logw.Errorf(ctx, "config: reload %q: %v", path, err)
					continue
				}
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logw.Errorf(ctx, "config: watcher error: %v", err)
			}
		}
	}()

	return nil
}
