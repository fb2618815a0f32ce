package mapper

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mapperproxy/internal/mapdb"
)

const maxFindResults = 20

// findMatcher extracts the per-room "{attribute}" substitution and reports
// whether text matches room r, mirroring one of the original
// implementation's World.f* search helpers.
type findMatcher func(r *mapdb.Room, text string) (attribute string, matched bool)

func findName(r *mapdb.Room, text string) (string, bool) {
	return r.Name, strings.Contains(strings.ToLower(r.Name), text)
}

func findNote(r *mapdb.Room, text string) (string, bool) {
	return r.Note, strings.Contains(strings.ToLower(r.Note), text)
}

func findDynamic(r *mapdb.Room, text string) (string, bool) {
	return r.DynamicDesc, strings.Contains(strings.ToLower(r.DynamicDesc), text)
}

func findDoor(r *mapdb.Room, text string) (string, bool) {
	var matches []string
	for dir, ex := range r.Exits {
		if strings.Contains(strings.ToLower(ex.Door), text) {
			matches = append(matches, fmt.Sprintf("%s: %s", dir, ex.Door))
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return strings.Join(matches, ", "), true
}

func findArea(r *mapdb.Room, text string) (string, bool) {
	return r.Area, strings.Contains(strings.ToLower(r.Area), text)
}

func findServerID(r *mapdb.Room, text string) (string, bool) {
	return r.ServerID, strings.Contains(strings.ToLower(r.ServerID), text)
}

// cmdFind implements the f<field> [text] commands: filter every room in the
// store by match, sort by distance from the current room, and render each
// hit through the configured find-format template.
func (m *Mapper) cmdFind(arg, name string, match findMatcher) {
	text := strings.ToLower(strings.TrimSpace(arg))
	if text == "" {
		m.Output(fmt.Sprintf("Usage: '%s [text]'.", name))
		return
	}
	current, ok := m.currentRoom()
	if !ok {
		return
	}

	type hit struct {
		room      *mapdb.Room
		attribute string
	}
	var hits []hit
	for _, r := range m.Store.Snapshot() {
		if attribute, matched := match(r, text); matched {
			hits = append(hits, hit{room: r, attribute: attribute})
		}
	}
	if len(hits) == 0 {
		m.Output("Nothing found.")
		return
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].room.ManhattanDistance(current) < hits[j].room.ManhattanDistance(current)
	})
	if len(hits) > maxFindResults {
		hits = hits[:maxFindResults]
	}

	var lines []string
	for i := len(hits) - 1; i >= 0; i-- {
		lines = append(lines, expandFindFormat(m.Config.FindFormat, current, hits[i].room, hits[i].attribute))
	}
	m.Output(strings.Join(lines, "\n"))
}

func (m *Mapper) cmdFindLabel(arg string) {
	text := strings.ToLower(strings.TrimSpace(arg))
	labels := m.Store.Labels()
	if len(labels) == 0 {
		m.Output("No labels defined.")
		return
	}
	current, ok := m.currentRoom()
	if !ok {
		return
	}

	seen := map[string]bool{}
	type hit struct {
		room      *mapdb.Room
		attribute string
	}
	var hits []hit
	for _, label := range labels {
		if text != "" && !strings.Contains(strings.ToLower(label), text) {
			continue
		}
		vnum, _ := m.Store.Label(label)
		r, ok := m.Store.GetRoom(vnum)
		if !ok || seen[r.Vnum] {
			continue
		}
		seen[r.Vnum] = true
		var matching []string
		for _, l := range labels {
			if v, ok := m.Store.Label(l); ok && v == vnum {
				matching = append(matching, l)
			}
		}
		hits = append(hits, hit{room: r, attribute: "Room labels: " + strings.Join(matching, ", ")})
	}
	if len(hits) == 0 {
		m.Output("Nothing found.")
		return
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].room.ManhattanDistance(current) < hits[j].room.ManhattanDistance(current)
	})
	if len(hits) > maxFindResults {
		hits = hits[:maxFindResults]
	}
	var lines []string
	for i := len(hits) - 1; i >= 0; i-- {
		lines = append(lines, expandFindFormat(m.Config.FindFormat, current, hits[i].room, hits[i].attribute))
	}
	m.Output(strings.Join(lines, "\n"))
}

// expandFindFormat substitutes the placeholders a find-format template may
// reference. Unlike Python's str.format(**vars(room)), Go has no reflective
// field lookup, so only the fields the original implementation's templates
// actually use are wired in.
func expandFindFormat(format string, current, r *mapdb.Room, attribute string) string {
	replacer := strings.NewReplacer(
		"{vnum}", r.Vnum,
		"{name}", r.Name,
		"{desc}", r.Desc,
		"{dynamicDesc}", r.DynamicDesc,
		"{note}", r.Note,
		"{area}", r.Area,
		"{terrain}", r.Terrain,
		"{serverId}", r.ServerID,
		"{attribute}", attribute,
		"{direction}", current.CompassDirectionTo(r),
		"{clockPosition}", current.ClockPosition(r),
		"{distance}", strconv.Itoa(current.ManhattanDistance(r)),
	)
	return replacer.Replace(format)
}
