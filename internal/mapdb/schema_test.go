package mapdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "map.json")
	labelsPath := filepath.Join(dir, "room_labels.json")

	s := New()
	r1 := NewRoom("1")
	r1.Name = "The Square"
	r1.Desc = "A wide plaza."
	r1.Terrain = "city"
	r1.MobFlags.Add("shop")
	r1.Exits[North] = NewExit("2")
	r1.Exits[North].ExitFlags.Add("door")
	r1.Exits[North].Door = "gate"
	r2 := NewRoom("2")
	r2.Name = "Tavern"
	r2.Desc = "A smoky room."
	r2.Exits[South] = NewExit("1")
	s.AddRoom(r1)
	s.AddRoom(r2)
	require.NoError(t, s.SetLabel("tavern", "2"))

	require.NoError(t, Save(s, mapPath, labelsPath))

	loaded, err := Load(mapPath, labelsPath)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	got, ok := loaded.GetRoom("1")
	require.True(t, ok)
	if diff := deep.Equal(roomToRecord(got), roomToRecord(r1)); diff != nil {
		t.Fatalf("round trip mismatch: %v", diff)
	}

	vnum, ok := loaded.Label("tavern")
	require.True(t, ok)
	require.Equal(t, "2", vnum)
}

func TestLoadDropsOrphanLabels(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "map.json")
	labelsPath := filepath.Join(dir, "room_labels.json")

	require.NoError(t, os.WriteFile(mapPath, []byte(`{"schema_version":2,"1":{"name":"","description":"","contents":"","note":"","area":"","server_id":"0","terrain":"undefined","light":"undefined","alignment":"undefined","portable":"undefined","ridable":"undefined","sundeath":"undefined","avoid":false,"mob_flags":[],"load_flags":[],"coordinates":[0,0,0],"exits":{}}}`), 0o644))
	require.NoError(t, os.WriteFile(labelsPath, []byte(`{"schema_version":2,"home":"1","ghost":"404"}`), 0o644))

	loaded, err := Load(mapPath, labelsPath)
	require.NoError(t, err)
	_, ok := loaded.Label("home")
	require.True(t, ok)
	_, ok = loaded.Label("ghost")
	require.False(t, ok, "orphan label pointing at a missing vnum must be swept")
}

func TestLoadFallsBackToSample(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "map.json")
	labelsPath := filepath.Join(dir, "room_labels.json")
	sample := `{"schema_version":2,"1":{"name":"Seed","description":"d","contents":"","note":"","area":"","server_id":"0","terrain":"undefined","light":"undefined","alignment":"undefined","portable":"undefined","ridable":"undefined","sundeath":"undefined","avoid":false,"mob_flags":[],"load_flags":[],"coordinates":[0,0,0],"exits":{}}}`
	require.NoError(t, os.WriteFile(mapPath+".sample", []byte(sample), 0o644))

	loaded, err := Load(mapPath, labelsPath)
	require.NoError(t, err)
	r, ok := loaded.GetRoom("1")
	require.True(t, ok)
	require.Equal(t, "Seed", r.Name)
}

func TestMigrateV0DropsDeathRooms(t *testing.T) {
	blob := json.RawMessage(`{"name":"Void","desc":"","dynamicDesc":"","note":"","area":"","server_id":"0","terrain":"deathtrap","light":"undefined","align":"undefined","portable":"undefined","ridable":"undefined","sundeath":"undefined","avoid":false,"mobFlags":[],"loadFlags":[],"coordinates":[0,0,0],"exits":{}}`)
	_, dropped, err := migrateV0Room(blob)
	require.NoError(t, err)
	require.True(t, dropped)
}

func TestMigrateV0RenamesFieldsAndFlags(t *testing.T) {
	blob := json.RawMessage(`{"name":"Stable","desc":"d","dynamicDesc":"","note":"","area":"","server_id":"0","terrain":"indoors","light":"undefined","align":"undefined","portable":"undefined","ridable":"notridable","sundeath":"undefined","avoid":false,"mobFlags":[],"loadFlags":["packhorse"],"coordinates":[0,0,0],"exits":{"north":{"to":"2","door":"","exitFlags":["exit"],"doorFlags":[]}}}`)
	rec, dropped, err := migrateV0Room(blob)
	require.NoError(t, err)
	require.False(t, dropped)
	require.Equal(t, "building", rec.Terrain)
	require.Equal(t, []string{"pack_horse"}, rec.LoadFlags)
}

// Property: saving then loading a randomly generated store always yields
// the same room set, per spec.md section 8's "save(load(file)) == file"
// round-trip law (modulo key ordering, which JSON maps don't preserve
// anyway).
func TestSaveLoadRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dir := t.TempDir()
		mapPath := filepath.Join(dir, "map.json")
		labelsPath := filepath.Join(dir, "room_labels.json")

		s := New()
		n := rapid.IntRange(0, 5).Draw(rt, "n")
		for i := 0; i < n; i++ {
			vnum := rapid.StringMatching(`[1-9][0-9]{0,3}`).Draw(rt, "vnum")
			if _, exists := s.rooms[vnum]; exists {
				continue
			}
			r := NewRoom(vnum)
			r.Name = rapid.StringN(0, 20, 20).Draw(rt, "name")
			r.Terrain = rapid.SampledFrom([]string{"forest", "city", "water", "undefined"}).Draw(rt, "terrain")
			r.RecomputeCost()
			s.AddRoom(r)
		}

		require.NoError(rt, Save(s, mapPath, labelsPath))
		loaded, err := Load(mapPath, labelsPath)
		require.NoError(rt, err)
		require.Equal(rt, s.Len(), loaded.Len())
		for vnum, r := range s.rooms {
			lr, ok := loaded.GetRoom(vnum)
			require.True(rt, ok)
			require.Equal(rt, r.Name, lr.Name)
			require.Equal(rt, r.Terrain, lr.Terrain)
		}
	})
}
