package mapper

import (
	"fmt"
	"strings"

	"mapperproxy/internal/mapdb"
)

func (m *Mapper) cmdRdelete(arg string) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	var vnum string
	if isDigits(arg) {
		vnum = arg
		if _, ok := m.Store.GetRoom(vnum); !ok {
			m.Output(fmt.Sprintf("Error: the vnum '%s' does not exist.", vnum))
			return
		}
	} else if r, ok := m.currentRoom(); ok {
		vnum = r.Vnum
	} else {
		return
	}
	r, _ := m.Store.GetRoom(vnum)
	name := r.Name
	if err := m.Store.DeleteRoom(vnum); err != nil {
		m.Output(fmt.Sprintf("Error: %v.", err))
		return
	}
	m.Output(fmt.Sprintf("Deleting room '%s' with name '%s'.", vnum, name))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m *Mapper) cmdRnote(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	text := strings.TrimSpace(arg)
	switch {
	case text == "":
		m.Output(fmt.Sprintf(
			"Room note set to '%s'. Use 'rnote [text]' to change it, "+
				"'rnote -a [text]' to append to it, or 'rnote -r' to remove it.", r.Note))
	case strings.HasPrefix(strings.ToLower(text), "-r"):
		if len(text) > 2 {
			m.Output("Error: '-r' requires no extra arguments. Change aborted.")
			return
		}
		r.Note = ""
		m.Output("Note removed.")
	case strings.HasPrefix(strings.ToLower(text), "-a"):
		if len(text) == 2 {
			m.Output("Error: '-a' requires text to be appended. Change aborted.")
			return
		}
		r.Note = strings.TrimSpace(r.Note + " " + strings.TrimSpace(text[2:]))
		m.Output(fmt.Sprintf("Room note now set to '%s'.", r.Note))
	default:
		r.Note = text
		m.Output(fmt.Sprintf("Room note now set to '%s'.", r.Note))
	}
}

func (m *Mapper) cmdRalign(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	valid := []string{"good", "neutral", "evil", "undefined"}
	text := strings.ToLower(strings.TrimSpace(arg))
	if !contains(valid, text) {
		m.Output(fmt.Sprintf("Room alignment set to '%s'. Use 'ralign [%s]' to change it.", r.Align, strings.Join(valid, " | ")))
		return
	}
	r.Align = text
	m.Output(fmt.Sprintf("Setting room align to '%s'.", r.Align))
}

// lightSymbols mirrors the prompt light-level symbols a player may type
// directly into rlight, in addition to the level names themselves.
var lightSymbols = map[string]mapdb.Light{
	"@": mapdb.Lit,
	"*": mapdb.Lit,
	")": mapdb.Lit,
	"!": mapdb.UndefinedLevel,
	"o": mapdb.Dark,
}

func (m *Mapper) cmdRlight(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	text := strings.TrimSpace(arg)
	if l, ok := lightSymbols[text]; ok {
		r.Light = l
		m.Output(fmt.Sprintf("Setting room light to '%s'.", r.Light))
		return
	}
	lower := mapdb.Light(strings.ToLower(text))
	for _, l := range []mapdb.Light{mapdb.Lit, mapdb.Dark, mapdb.UndefinedLevel} {
		if lower == l {
			r.Light = l
			m.Output(fmt.Sprintf("Setting room light to '%s'.", r.Light))
			return
		}
	}
	m.Output(fmt.Sprintf("Room light set to '%s'. Use 'rlight [lit | dark | undefined]' to change it.", r.Light))
}

func (m *Mapper) cmdRportable(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	valid := []string{"portable", "notportable", "undefined"}
	text := strings.ToLower(strings.TrimSpace(arg))
	if !contains(valid, text) {
		m.Output(fmt.Sprintf("Room portable set to '%s'. Use 'rportable [%s]' to change it.", r.Portable, strings.Join(valid, " | ")))
		return
	}
	r.Portable = text
	m.Output(fmt.Sprintf("Setting room portable to '%s'.", r.Portable))
}

func (m *Mapper) cmdRridable(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	text := strings.ToLower(strings.TrimSpace(arg))
	switch text {
	case "ridable":
		r.Ridable = mapdb.RoomRidable
	case "notridable":
		r.Ridable = mapdb.RoomNotRidable
	case "undefined":
		r.Ridable = mapdb.RoomRidableUnd
	default:
		m.Output(fmt.Sprintf("Room ridable set to '%s'. Use 'rridable [ridable | notridable | undefined]' to change it.", r.Ridable))
		return
	}
	r.RecomputeCost()
	m.Output(fmt.Sprintf("Setting room ridable to '%s'.", r.Ridable))
}

func (m *Mapper) cmdRavoid(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	text := strings.TrimSpace(arg)
	switch text {
	case "+":
		r.Avoid = true
	case "-":
		r.Avoid = false
	default:
		state := "disabled"
		if r.Avoid {
			state = "enabled"
		}
		m.Output(fmt.Sprintf("Room avoid %s. Use 'ravoid [+ | -]' to change it.", state))
		return
	}
	r.RecomputeCost()
	verb := "Disabling"
	if r.Avoid {
		verb = "Enabling"
	}
	m.Output(fmt.Sprintf("%s room avoid.", verb))
}

func (m *Mapper) cmdRterrain(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	text := strings.ToLower(strings.TrimSpace(arg))
	if text == "" {
		m.Output(fmt.Sprintf("Room terrain set to '%s'. Use 'rterrain [terrain]' to change it.", r.Terrain))
		return
	}
	if _, ok := mapdb.TerrainCosts[text]; !ok {
		m.Output(fmt.Sprintf("Room terrain set to '%s'. Use 'rterrain [terrain]' to change it.", r.Terrain))
		return
	}
	r.Terrain = text
	r.RecomputeCost()
	m.Output(fmt.Sprintf("Setting room terrain to '%s'.", r.Terrain))
}

func (m *Mapper) cmdRcoord(arg, axis string, field func(*mapdb.Room) *int) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	text := strings.TrimSpace(arg)
	p := field(r)
	if text == "" {
		m.Output(fmt.Sprintf("Room coordinate %s set to '%d'. Use 'r%s [digit]' to change it.", axis, *p, strings.ToLower(axis)))
		return
	}
	n, ok := parseInt(text)
	if !ok {
		m.Output("Error: room coordinates must be comprised of digits only.")
		return
	}
	*p = n
	m.Output(fmt.Sprintf("Setting room %s coordinate to '%d'.", axis, n))
}

func (m *Mapper) cmdRFlags(arg, label string, valid map[string]bool, flagsOf func(*mapdb.Room) mapdb.StringSet) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	flags := flagsOf(r)
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(arg)))
	if len(fields) == 2 && isAddRemove(fields[0]) && valid[fields[1]] {
		m.applyFlagMode(fields[0], fields[1], label, flags)
		return
	}
	sorted := flags.Sorted()
	m.Output(fmt.Sprintf("%s flags set to '%s'. Use '%sflags [add | remove] [flag]' to change them.",
		label, strings.Join(sorted, ", "), strings.ToLower(label)))
}

func isAddRemove(mode string) bool {
	return strings.HasPrefix("add", mode) || strings.HasPrefix("remove", mode)
}

func (m *Mapper) applyFlagMode(mode, flag, label string, flags mapdb.StringSet) {
	if strings.HasPrefix("remove", mode) {
		if flags.Has(flag) {
			flags.Remove(flag)
			m.Output(fmt.Sprintf("%s flag '%s' removed.", label, flag))
		} else {
			m.Output(fmt.Sprintf("%s flag '%s' not set.", label, flag))
		}
		return
	}
	if flags.Has(flag) {
		m.Output(fmt.Sprintf("%s flag '%s' already set.", label, flag))
		return
	}
	flags.Add(flag)
	m.Output(fmt.Sprintf("%s flag '%s' added.", label, flag))
}

func (m *Mapper) cmdExitOrDoorFlags(arg, label string, valid map[string]bool, flagsOf func(*mapdb.Exit) mapdb.StringSet) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(arg)))
	if len(fields) == 0 {
		m.Output(fmt.Sprintf("Syntax: '%sflags [add | remove] [flag] [direction]'.", strings.ToLower(label)))
		return
	}

	var mode, flag, dirToken string
	switch {
	case len(fields) >= 3 && isAddRemove(fields[0]) && valid[fields[1]]:
		mode, flag, dirToken = fields[0], fields[1], fields[2]
	case len(fields) == 2 && isAddRemove(fields[0]):
		mode, dirToken = fields[0], fields[1]
	case len(fields) == 2 && valid[fields[0]]:
		flag, dirToken = fields[0], fields[1]
	default:
		dirToken = fields[len(fields)-1]
	}

	dir, ok := matchDirection(dirToken)
	if !ok {
		m.Output(fmt.Sprintf("Syntax: '%sflags [add | remove] [flag] [direction]'.", strings.ToLower(label)))
		return
	}
	ex, ok := r.Exits[dir]
	if !ok {
		m.Output(fmt.Sprintf("Exit %s does not exist.", dir))
		return
	}
	flags := flagsOf(ex)
	switch {
	case mode == "":
		m.Output(fmt.Sprintf("%s flags '%s' set to '%s'.", label, dir, strings.Join(flags.Sorted(), ", ")))
	case strings.HasPrefix("remove", mode):
		if flags.Has(flag) {
			flags.Remove(flag)
			m.Output(fmt.Sprintf("%s flag '%s' in direction '%s' removed.", label, flag, dir))
		} else {
			m.Output(fmt.Sprintf("%s flag '%s' in direction '%s' not set.", label, flag, dir))
		}
	case strings.HasPrefix("add", mode):
		if flags.Has(flag) {
			m.Output(fmt.Sprintf("%s flag '%s' in direction '%s' already set.", label, flag, dir))
		} else {
			flags.Add(flag)
			m.Output(fmt.Sprintf("%s flag '%s' in direction '%s' added.", label, flag, dir))
		}
	}
}

func (m *Mapper) cmdSecret(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(arg)))
	if len(fields) == 0 {
		m.Output(fmt.Sprintf("Syntax: 'secret [add | remove] [name] [%s]'.", strings.Join(directionNames(), " | ")))
		return
	}

	mode, name, dirToken := "", "", fields[len(fields)-1]
	switch {
	case len(fields) >= 3 && isAddRemove(fields[0]):
		mode, name = fields[0], fields[1]
	case len(fields) == 2 && isAddRemove(fields[0]):
		mode = fields[0]
	}

	dir, ok := matchDirection(dirToken)
	if !ok {
		m.Output(fmt.Sprintf("Syntax: 'secret [add | remove] [name] [%s]'.", strings.Join(directionNames(), " | ")))
		return
	}

	if mode != "" && strings.HasPrefix("add", mode) {
		if name == "" {
			m.Output("Error: 'add' expects a name for the secret.")
			return
		}
		ex, ok := r.Exits[dir]
		if !ok {
			ex = mapdb.NewExit(mapdb.Undefined)
			r.Exits[dir] = ex
		}
		ex.ExitFlags.Add("door")
		ex.DoorFlags.Add("hidden")
		ex.Door = name
		m.Output(fmt.Sprintf("Adding secret '%s' to direction '%s'.", name, dir))
		return
	}

	ex, ok := r.Exits[dir]
	if !ok {
		m.Output(fmt.Sprintf("Exit %s does not exist.", dir))
		return
	}
	if ex.Door == "" {
		m.Output(fmt.Sprintf("No secret %s of here.", dir))
		return
	}
	switch {
	case mode == "":
		m.Output(fmt.Sprintf("Exit '%s' has secret '%s'.", dir, ex.Door))
	case strings.HasPrefix("remove", mode):
		ex.DoorFlags.Remove("hidden")
		ex.Door = ""
		m.Output(fmt.Sprintf("Secret %s removed.", dir))
	}
}

func (m *Mapper) cmdRlink(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(arg)))
	if len(fields) == 0 {
		m.Output(fmt.Sprintf("Syntax: 'rlink [add | remove] [oneway] [vnum] [%s]'.", strings.Join(directionNames(), " | ")))
		return
	}
	dirToken := fields[len(fields)-1]
	dir, ok := matchDirection(dirToken)
	if !ok {
		m.Output(fmt.Sprintf("Syntax: 'rlink [add | remove] [oneway] [vnum] [%s]'.", strings.Join(directionNames(), " | ")))
		return
	}
	rest := fields[:len(fields)-1]

	mode, oneway, vnum := "", false, ""
	i := 0
	if i < len(rest) && isAddRemove(rest[i]) {
		mode = rest[i]
		i++
	}
	if i < len(rest) && strings.HasPrefix("oneway", rest[i]) {
		oneway = true
		i++
	}
	if i < len(rest) {
		vnum = rest[i]
	}

	switch {
	case mode != "" && strings.HasPrefix("add", mode):
		if vnum == "" {
			m.Output("Error: 'add' expects a vnum or 'undefined'.")
			return
		}
		dest, exists := m.Store.GetRoom(vnum)
		if vnum != mapdb.Undefined && !exists {
			m.Output(fmt.Sprintf("Error: vnum %s not in database.", vnum))
			return
		}
		ex, ok := r.Exits[dir]
		if !ok {
			ex = mapdb.NewExit(vnum)
			r.Exits[dir] = ex
		} else {
			ex.To = vnum
		}
		if vnum == mapdb.Undefined {
			m.Output(fmt.Sprintf("Direction %s now undefined.", dir))
			return
		}
		if oneway {
			m.Output(fmt.Sprintf("Linking direction %s one way to %s with name '%s'.", dir, vnum, dest.Name))
			return
		}
		rev := mapdb.ReverseDirection[dir]
		revExit, ok := dest.Exits[rev]
		if !ok || revExit.To == mapdb.Undefined {
			dest.Exits[rev] = mapdb.NewExit(r.Vnum)
			m.Output(fmt.Sprintf("Linking direction %s to %s with name '%s'.\nLinked exit %s in second room with this room.", dir, vnum, dest.Name, rev))
			return
		}
		m.Output(fmt.Sprintf("Linking direction %s to %s with name '%s'.\nUnable to link exit %s in second room with this room: exit already defined.", dir, vnum, dest.Name, rev))
	case r.Exits[dir] == nil:
		m.Output(fmt.Sprintf("Exit %s does not exist.", dir))
	case mode == "":
		ex := r.Exits[dir]
		toName := ""
		if dest, ok := m.Store.GetRoom(ex.To); ok {
			toName = dest.Name
		}
		m.Output(fmt.Sprintf("Exit '%s' links to '%s' with name '%s'.", dir, ex.To, toName))
	case strings.HasPrefix("remove", mode):
		delete(r.Exits, dir)
		m.Output(fmt.Sprintf("Exit %s removed.", dir))
	}
}

func (m *Mapper) cmdGetLabel(arg string) {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	vnum := r.Vnum
	text := strings.ToLower(strings.TrimSpace(arg))
	if isDigits(text) {
		vnum = text
	}
	var matches []string
	for _, label := range m.Store.Labels() {
		if v, ok := m.Store.Label(label); ok && v == vnum {
			matches = append(matches, label)
		}
	}
	if len(matches) == 0 {
		m.Output("Room not labeled.")
		return
	}
	m.Output("Room labels: " + strings.Join(matches, ", "))
}

func (m *Mapper) cmdRlabel(arg string) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(arg)))
	if len(fields) == 0 {
		m.Output("Syntax: 'rlabel [add|info|delete|search] [label] [vnum]'. Vnum is only used when adding a room. " +
			"Leave it blank to use the current room's vnum. Use 'rlabel info all' to get a list of all labels.")
		return
	}
	action := fields[0]
	if len(fields) < 2 {
		m.Output("Error: you need to supply a label.")
		return
	}
	label := fields[1]
	if isDigits(label) {
		m.Output("labels cannot be decimal values.")
		return
	}

	switch {
	case strings.HasPrefix("add", action):
		vnum := ""
		if len(fields) >= 3 {
			vnum = fields[2]
		} else if r, ok := m.currentRoom(); ok {
			vnum = r.Vnum
		} else {
			return
		}
		if err := m.Store.SetLabel(label, vnum); err != nil {
			m.Output(fmt.Sprintf("Error: %v.", err))
			return
		}
		m.Output(fmt.Sprintf("Adding the label '%s' with VNum '%s'.", label, vnum))
	case strings.HasPrefix("delete", action):
		if !m.Store.DeleteLabel(label) {
			m.Output(fmt.Sprintf("There aren't any labels matching '%s' in the database.", label))
			return
		}
		m.Output(fmt.Sprintf("Deleting label '%s'.", label))
	case strings.HasPrefix("info", action):
		m.rlabelInfo(label)
	case strings.HasPrefix("search", action):
		m.rlabelSearch(label)
	}
}

func (m *Mapper) rlabelInfo(label string) {
	labels := m.Store.Labels()
	if len(labels) == 0 {
		m.Output("There aren't any labels in the database yet.")
		return
	}
	if strings.HasPrefix("all", label) {
		var lines []string
		for _, l := range labels {
			v, _ := m.Store.Label(l)
			lines = append(lines, fmt.Sprintf("%s - %s", l, v))
		}
		m.Output(strings.Join(lines, "\n"))
		return
	}
	v, ok := m.Store.Label(label)
	if !ok {
		m.Output(fmt.Sprintf("There aren't any labels matching '%s' in the database.", label))
		return
	}
	m.Output(fmt.Sprintf("Label '%s' points to room '%s'.", label, v))
}

func (m *Mapper) rlabelSearch(text string) {
	var results []string
	for _, l := range m.Store.Labels() {
		if !strings.Contains(l, text) {
			continue
		}
		vnum, _ := m.Store.Label(l)
		name := "VNum not in map"
		if r, ok := m.Store.GetRoom(vnum); ok {
			name = r.Name
		}
		results = append(results, fmt.Sprintf("%s - %s - %s", l, name, vnum))
	}
	if len(results) == 0 {
		m.Output("Nothing found.")
		return
	}
	m.Output(strings.Join(results, "\n"))
}

func (m *Mapper) cmdRinfo(arg string) {
	text := strings.ToLower(strings.TrimSpace(arg))
	vnum := text
	if vnum == "" {
		r, ok := m.currentRoom()
		if !ok {
			return
		}
		vnum = r.Vnum
	} else if v, ok := m.Store.Label(vnum); ok {
		vnum = v
	}
	r, ok := m.Store.GetRoom(vnum)
	if !ok {
		m.Output(fmt.Sprintf("Error: No such vnum or label, '%s'", vnum))
		return
	}
	m.Output(roomInfo(r))
}

func roomInfo(r *mapdb.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vnum: %s\n", r.Vnum)
	fmt.Fprintf(&b, "Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Description: %s\n", r.Desc)
	fmt.Fprintf(&b, "Dynamic: %s\n", r.DynamicDesc)
	fmt.Fprintf(&b, "Note: %s\n", r.Note)
	fmt.Fprintf(&b, "Terrain: %s, Light: %s, Align: %s\n", r.Terrain, r.Light, r.Align)
	fmt.Fprintf(&b, "Portable: %s, Ridable: %s, Avoid: %v\n", r.Portable, r.Ridable, r.Avoid)
	fmt.Fprintf(&b, "Coordinates: (%d, %d, %d), Cost: %.2f\n", r.X, r.Y, r.Z, r.Cost)
	fmt.Fprintf(&b, "Mob flags: %s\n", strings.Join(r.MobFlags.Sorted(), ", "))
	fmt.Fprintf(&b, "Load flags: %s\n", strings.Join(r.LoadFlags.Sorted(), ", "))
	var exits []string
	for _, d := range mapdb.Directions {
		if ex, ok := r.Exits[d]; ok {
			exits = append(exits, fmt.Sprintf("%s->%s", d, ex.To))
		}
	}
	fmt.Fprintf(&b, "Exits: %s", strings.Join(exits, ", "))
	return b.String()
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
