package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	cfg := Default()
	cfg.RemoteHost = "game.example.org"
	cfg.RemotePort = 5000
	cfg.AutoMapping = false
	cfg.LeadBeforeEntering = []string{"196", "3473"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadPartialFileOverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, writeFile(path, "remoteHost: other.example.org\n"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "other.example.org", cfg.RemoteHost)
	require.Equal(t, Default().LocalPort, cfg.LocalPort)
	require.Equal(t, Default().AutoMapping, cfg.AutoMapping)
}

func TestLeadBeforeEnteringSetEmptyIsNil(t *testing.T) {
	cfg := Default()
	require.Nil(t, cfg.LeadBeforeEnteringSet())
}

func TestLeadBeforeEnteringSetBuildsLookup(t *testing.T) {
	cfg := Default()
	cfg.LeadBeforeEntering = []string{"1", "2"}
	set := cfg.LeadBeforeEnteringSet()
	require.True(t, set["1"])
	require.True(t, set["2"])
	require.False(t, set["3"])
}

func TestAvoidTerrainSetBuildsLookup(t *testing.T) {
	cfg := Default()
	cfg.AvoidTerrains = []string{"underwater"}
	set := cfg.AvoidTerrainSet()
	require.True(t, set["underwater"])
	require.False(t, set["road"])
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestWatchReloadFiresOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	require.NoError(t, Save(path, Default()))

	reloaded := make(chan Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, WatchReload(ctx, path, func(cfg Config) { reloaded <- cfg }))

	cfg := Default()
	cfg.RemoteHost = "watched.example.org"
	require.NoError(t, Save(path, cfg))

	select {
	case got := <-reloaded:
		require.Equal(t, "watched.example.org", got.RemoteHost)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchReload did not fire on config write")
	}
}
