package mapdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentSchemaVersion is the schema_version written by Save.
const CurrentSchemaVersion = 2

// roomRecord is the on-disk shape of a single room, per spec.md section 6.
type roomRecord struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Contents    string             `json:"contents"`
	Note        string             `json:"note"`
	Area        string             `json:"area"`
	ServerID    string             `json:"server_id"`
	Terrain     string             `json:"terrain"`
	Light       string             `json:"light"`
	Alignment   string             `json:"alignment"`
	Portable    string             `json:"portable"`
	Ridable     string             `json:"ridable"`
	Sundeath    string             `json:"sundeath"`
	Avoid       bool               `json:"avoid"`
	MobFlags    []string           `json:"mob_flags"`
	LoadFlags   []string           `json:"load_flags"`
	Coordinates [3]int             `json:"coordinates"`
	Exits       map[string]exitRec `json:"exits"`
}

type exitRec struct {
	To        string   `json:"to"`
	Door      string   `json:"door"`
	ExitFlags []string `json:"exit_flags"`
	DoorFlags []string `json:"door_flags"`
}

func roomToRecord(r *Room) roomRecord {
	return roomRecord{
		Name:        r.Name,
		Description: r.Desc,
		Contents:    r.DynamicDesc,
		Note:        r.Note,
		Area:        r.Area,
		ServerID:    r.ServerID,
		Terrain:     r.Terrain,
		Light:       string(r.Light),
		Alignment:   r.Align,
		Portable:    r.Portable,
		Ridable:     string(r.Ridable),
		Sundeath:    r.Sundeath,
		Avoid:       r.Avoid,
		MobFlags:    r.MobFlags.Sorted(),
		LoadFlags:   r.LoadFlags.Sorted(),
		Coordinates: [3]int{r.X, r.Y, r.Z},
		Exits:       exitsToRecord(r.Exits),
	}
}

func exitsToRecord(exits map[Direction]*Exit) map[string]exitRec {
	out := make(map[string]exitRec, len(exits))
	for dir, e := range exits {
		out[string(dir)] = exitRec{
			To:        e.To,
			Door:      e.Door,
			ExitFlags: e.ExitFlags.Sorted(),
			DoorFlags: e.DoorFlags.Sorted(),
		}
	}
	return out
}

func recordToRoom(vnum string, rec roomRecord) *Room {
	r := NewRoom(vnum)
	r.Name = rec.Name
	r.Desc = rec.Description
	r.DynamicDesc = rec.Contents
	r.Note = rec.Note
	r.Area = rec.Area
	r.ServerID = rec.ServerID
	if rec.ServerID == "" {
		r.ServerID = "0"
	}
	r.Terrain = orDefault(rec.Terrain, "undefined")
	r.Light = Light(orDefault(rec.Light, string(UndefinedLevel)))
	r.Align = orDefault(rec.Alignment, "undefined")
	r.Portable = orDefault(rec.Portable, "undefined")
	r.Ridable = Ridable(orDefault(rec.Ridable, string(RoomRidableUnd)))
	r.Sundeath = orDefault(rec.Sundeath, "undefined")
	r.Avoid = rec.Avoid
	r.MobFlags = NewStringSet(rec.MobFlags...)
	r.LoadFlags = NewStringSet(rec.LoadFlags...)
	r.X, r.Y, r.Z = rec.Coordinates[0], rec.Coordinates[1], rec.Coordinates[2]
	r.Exits = make(map[Direction]*Exit, len(rec.Exits))
	for dir, er := range rec.Exits {
		e := &Exit{
			To:        orDefault(er.To, Undefined),
			Door:      er.Door,
			ExitFlags: NewStringSet(er.ExitFlags...),
			DoorFlags: NewStringSet(er.DoorFlags...),
		}
		e.ExitFlags.Add("exit")
		r.Exits[Direction(dir)] = e
	}
	r.RecomputeCost()
	return r
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Save writes the store's rooms to mapPath and labels to labelsPath as
// schema-versioned JSON, LF-terminated per spec.md section 6. It uses the
// write-to-temp-then-rename pattern (grounded on
// Distortions81-LumenClay/internal/game/world.go's AccountManager.saveLocked)
// so a crash mid-write never corrupts the previous file.
func Save(s *Store, mapPath, labelsPath string) error {
	s.mu.RLock()
	rooms := make(map[string]roomRecord, len(s.rooms))
	for vnum, r := range s.rooms {
		rooms[vnum] = roomToRecord(r)
	}
	labels := make(map[string]string, len(s.labels))
	for l, v := range s.labels {
		labels[l] = v
	}
	s.mu.RUnlock()

	if err := writeJSONAtomic(mapPath, mergeSchemaVersion(rooms, CurrentSchemaVersion)); err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	labelsOut := make(map[string]any, len(labels)+1)
	for l, v := range labels {
		labelsOut[l] = v
	}
	labelsOut["schema_version"] = CurrentSchemaVersion
	if err := writeJSONAtomic(labelsPath, labelsOut); err != nil {
		return fmt.Errorf("save labels: %w", err)
	}
	return nil
}

func mergeSchemaVersion(rooms map[string]roomRecord, version int) map[string]any {
	out := make(map[string]any, len(rooms)+1)
	for vnum, rec := range rooms {
		out[vnum] = rec
	}
	out["schema_version"] = version
	return out
}

func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads mapPath and labelsPath into a fresh Store, migrating v0
// records and sweeping orphan labels (labels whose target vnum is absent)
// per spec.md section 3. If mapPath does not exist, it falls back to
// mapPath+".sample" per spec.md section 6.
func Load(mapPath, labelsPath string) (*Store, error) {
	data, err := os.ReadFile(mapPath)
	if os.IsNotExist(err) {
		data, err = os.ReadFile(mapPath + ".sample")
	}
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}

	version := 0
	if v, ok := raw["schema_version"]; ok {
		_ = json.Unmarshal(v, &version)
		delete(raw, "schema_version")
	}

	s := New()
	for vnum, blob := range raw {
		var rec roomRecord
		if version == 0 {
			migrated, dropped, err := migrateV0Room(blob)
			if err != nil {
				return nil, fmt.Errorf("decode room %s: %w", vnum, err)
			}
			if dropped {
				continue
			}
			rec = migrated
		} else if err := json.Unmarshal(blob, &rec); err != nil {
			return nil, fmt.Errorf("decode room %s: %w", vnum, err)
		}
		s.AddRoom(recordToRoom(vnum, rec))
	}

	labels, err := loadLabels(labelsPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	for label, vnum := range labels {
		if _, ok := s.rooms[vnum]; ok {
			s.labels[label] = vnum
		}
		// else: orphan sweep — silently drop labels whose target is absent.
	}

	return s, nil
}

func loadLabels(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	delete(raw, "schema_version")
	out := make(map[string]string, len(raw))
	for label, blob := range raw {
		var vnum string
		if err := json.Unmarshal(blob, &vnum); err != nil {
			return nil, fmt.Errorf("decode label %s: %w", label, err)
		}
		out[label] = vnum
	}
	return out, nil
}
