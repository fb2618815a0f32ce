package mapsvg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mapperproxy/internal/mapdb"
)

func tworoomStore() []*mapdb.Room {
	a := mapdb.NewRoom("1")
	a.Name = "Town Square"
	a.X, a.Y, a.Z = 0, 0, 0
	b := mapdb.NewRoom("2")
	b.Name = "Market Street"
	b.X, b.Y, b.Z = 1, 0, 0
	ex := mapdb.NewExit("2")
	ex.ExitFlags.Add("door")
	a.Exits[mapdb.East] = ex
	b.Exits[mapdb.West] = mapdb.NewExit("1")
	return []*mapdb.Room{a, b}
}

func TestExportProducesWellFormedSVG(t *testing.T) {
	out := Export(tworoomStore(), DefaultOptions())
	s := string(out)
	require.True(t, strings.HasPrefix(s, "<?xml"))
	require.Contains(t, s, "<svg")
	require.Contains(t, s, "</svg>")
}

func TestExportLabelsRoomNames(t *testing.T) {
	s := string(Export(tworoomStore(), DefaultOptions()))
	require.Contains(t, s, "Town Square")
	require.Contains(t, s, "Market Street")
}

func TestExportOmitsLabelsWhenDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowLabels = false
	s := string(Export(tworoomStore(), opts))
	require.NotContains(t, s, "Town Square")
}

func TestExportFiltersToSingleFloor(t *testing.T) {
	rooms := tworoomStore()
	rooms[1].Z = 1

	opts := DefaultOptions()
	opts.OnlyCurrentZ = true
	opts.Z = 0

	s := string(Export(rooms, opts))
	require.Contains(t, s, "Town Square")
	require.NotContains(t, s, "Market Street")
}

func TestExportHandlesEmptyRoomSet(t *testing.T) {
	out := Export(nil, DefaultOptions())
	require.Contains(t, string(out), "<svg")
}

func TestExportDrawsTitleWhenSet(t *testing.T) {
	opts := DefaultOptions()
	opts.Title = "World Map"
	s := string(Export(tworoomStore(), opts))
	require.Contains(t, s, "World Map")
}
