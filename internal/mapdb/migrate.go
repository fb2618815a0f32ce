package mapdb

import "encoding/json"

// v0 field and flag renames, per spec.md section 6's "v0 migration" table.
var v0TerrainAliases = map[string]string{
	"indoors": "building",
	"random":  "undefined",
	"shallow": "shallows",
}

var v0FlagAliases = map[string]string{
	"packhorse":     "pack_horse",
	"notridable":    "not_ridable",
	"weaponshop":    "weapon_shop",
	"armourshop":    "armour_shop",
	"foodshop":      "food_shop",
	"petshop":       "pet_shop",
	"scoutguild":    "scout_guild",
	"mageguild":     "mage_guild",
	"clericguild":   "cleric_guild",
	"warriorguild":  "warrior_guild",
	"rangerguild":   "ranger_guild",
	"aggressivemob": "aggressive_mob",
	"questmob":      "quest_mob",
	"passivemob":    "passive_mob",
	"elitemob":      "elite_mob",
	"supermob":      "super_mob",
	"trainedhorse":  "trained_horse",
	"packhorseflag": "pack_horse",
	"whiteword":     "white_word",
	"darkword":      "dark_word",
	"needkey":       "need_key",
	"noblock":       "no_block",
	"nobreak":       "no_break",
	"nopick":        "no_pick",
	"nomatch":       "no_match",
	"noflee":        "no_flee",
	"nobash":        "no_bash",
}

func normalizeV0Flag(f string) string {
	if renamed, ok := v0FlagAliases[f]; ok {
		return renamed
	}
	return f
}

// v0Room is the legacy on-disk room shape, field names unrenamed.
type v0Room struct {
	Name        string            `json:"name"`
	Desc        string            `json:"desc"`
	DynamicDesc string            `json:"dynamicDesc"`
	Note        string            `json:"note"`
	Area        string            `json:"area"`
	ServerID    string            `json:"server_id"`
	Terrain     string            `json:"terrain"`
	Light       string            `json:"light"`
	Align       string            `json:"align"`
	Portable    string            `json:"portable"`
	Ridable     string            `json:"ridable"`
	Sundeath    string            `json:"sundeath"`
	Avoid       bool              `json:"avoid"`
	MobFlags    []string          `json:"mobFlags"`
	LoadFlags   []string          `json:"loadFlags"`
	Coordinates [3]int            `json:"coordinates"`
	Exits       map[string]v0Exit `json:"exits"`
}

type v0Exit struct {
	To        string   `json:"to"`
	Door      string   `json:"door"`
	ExitFlags []string `json:"exitFlags"`
	DoorFlags []string `json:"doorFlags"`
}

// migrateV0Room decodes a legacy room record and rewrites it into the
// current schema. It reports dropped=true for rooms whose terrain begins
// with "death" in v0, which spec.md section 6 says must be silently
// dropped during migration.
func migrateV0Room(blob json.RawMessage) (rec roomRecord, dropped bool, err error) {
	var v v0Room
	if err := json.Unmarshal(blob, &v); err != nil {
		return roomRecord{}, false, err
	}
	terrain := normalizeV0Terrain(v.Terrain)
	if len(terrain) >= 5 && terrain[:5] == "death" {
		return roomRecord{}, true, nil
	}
	rec = roomRecord{
		Name:        v.Name,
		Description: v.Desc,
		Contents:    v.DynamicDesc,
		Note:        v.Note,
		Area:        v.Area,
		ServerID:    v.ServerID,
		Terrain:     terrain,
		Light:       v.Light,
		Alignment:   v.Align,
		Portable:    v.Portable,
		Ridable:     normalizeV0Flag(v.Ridable),
		Sundeath:    v.Sundeath,
		Avoid:       v.Avoid,
		MobFlags:    normalizeFlags(v.MobFlags),
		LoadFlags:   normalizeFlags(v.LoadFlags),
		Coordinates: v.Coordinates,
		Exits:       make(map[string]exitRec, len(v.Exits)),
	}
	for dir, e := range v.Exits {
		rec.Exits[dir] = exitRec{
			To:        e.To,
			Door:      e.Door,
			ExitFlags: normalizeFlags(e.ExitFlags),
			DoorFlags: normalizeFlags(e.DoorFlags),
		}
	}
	return rec, false, nil
}

func normalizeV0Terrain(t string) string {
	if renamed, ok := v0TerrainAliases[t]; ok {
		return renamed
	}
	return t
}

func normalizeFlags(flags []string) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = normalizeV0Flag(f)
	}
	return out
}
