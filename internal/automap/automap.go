// Package automap implements the sync and auto-mapping engine: it
// accumulates per-turn state from XML tokenizer events, matches the
// current room against the stored world map, validates reported movement
// against the map graph, and — when auto-mapping is enabled — extends the
// graph with new rooms, merges, and links as the player explores.
package automap

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"mapperproxy/internal/events"
	"mapperproxy/internal/mapdb"
	"mapperproxy/internal/xmlstream"
)

// Config toggles the auto-mapping behaviors spec.md section 4.6 describes
// as independent, user-switchable flags.
type Config struct {
	AutoMapping     bool // create/merge rooms on unrecognized movement
	AutoUpdateRooms bool // overwrite name/desc/dynamic on arrival when they differ
	AutoMerging     bool // prefer merging into a name+desc duplicate over creating a new room
	AutoLinking     bool // back-link reverse exits when geometry makes the match unambiguous
}

// Engine holds the current turn's accumulated facts plus sync state. It is
// meant to run exclusively on the event queue's single consumer goroutine,
// so it carries no internal locking of its own.
type Engine struct {
	store *mapdb.Store
	cfg   Config

	// Output delivers a line of text meant for the player, mirroring the
	// original implementation's sendPlayer.
	Output func(string)
	// OnMovementCancelled fires when a line matches the forced-movement or
	// movement-prevented catalog, so the walker (section 4.8) can cancel
	// any in-flight autowalk.
	OnMovementCancelled func()
	// OnPromptProcessed fires at the end of every prompt, reporting whether
	// the player actually moved this turn, so the walker can pop its next
	// queued command on a real prompt-with-movement boundary.
	OnPromptProcessed func(moved bool)

	currentRoom *mapdb.Room
	isSynced    bool
	warnedSync  bool

	movement    mapdb.Direction
	movementRaw string
	moved       mapdb.Direction
	roomName    string
	description string
	dynamic     string
	dynamicSet  bool
	exitsText   string
	xmlAttrs    map[string]string
	scouting    bool

	addedNewRoomFrom string
}

// New returns an Engine bound to store, with output going to output.
func New(store *mapdb.Store, cfg Config, output func(string)) *Engine {
	return &Engine{store: store, cfg: cfg, Output: output}
}

// SetCurrentRoom forces the engine's notion of where the player is,
// bypassing the sync protocol — used by the "sync <vnum>" and "sync
// <label>" commands.
func (e *Engine) SetCurrentRoom(r *mapdb.Room) {
	e.currentRoom = r
	e.isSynced = r != nil
	e.warnedSync = false
}

// CurrentRoom returns the room the engine currently believes the player
// occupies, if synced.
func (e *Engine) CurrentRoom() *mapdb.Room { return e.currentRoom }

// IsSynced reports whether the engine currently trusts its notion of the
// player's location.
func (e *Engine) IsSynced() bool { return e.isSynced }

// AutoMapping reports whether unrecognized movement creates or merges rooms.
func (e *Engine) AutoMapping() bool { return e.cfg.AutoMapping }

// SetAutoMapping toggles AutoMapping.
func (e *Engine) SetAutoMapping(on bool) { e.cfg.AutoMapping = on }

// AutoUpdateRooms reports whether arriving at a known room overwrites its
// name/description/dynamic-description when they differ.
func (e *Engine) AutoUpdateRooms() bool { return e.cfg.AutoUpdateRooms }

// SetAutoUpdateRooms toggles AutoUpdateRooms.
func (e *Engine) SetAutoUpdateRooms(on bool) { e.cfg.AutoUpdateRooms = on }

// AutoMerging reports whether auto-mapping prefers merging into a
// name+desc duplicate over creating a new room.
func (e *Engine) AutoMerging() bool { return e.cfg.AutoMerging }

// SetAutoMerging toggles AutoMerging.
func (e *Engine) SetAutoMerging(on bool) { e.cfg.AutoMerging = on }

// AutoLinking reports whether exit-flag updates link an undefined exit to
// the room at the neighbouring coordinate, and whether merging into an
// existing room also links the reverse exit back. The back-link made for a
// newly created room does not depend on it.
func (e *Engine) AutoLinking() bool { return e.cfg.AutoLinking }

// SetAutoLinking toggles AutoLinking.
func (e *Engine) SetAutoLinking(on bool) { e.cfg.AutoLinking = on }

// Attach registers the engine's handlers on q for every event name the sync
// and auto-mapping protocol consumes.
func (e *Engine) Attach(q *events.Queue) {
	q.On(xmlstream.EventRoomAttrs, func(ev events.Event) { e.onRoomAttrs(ev.Attrs) })
	q.On(xmlstream.EventName, func(ev events.Event) { e.onName(string(ev.Data)) })
	q.On(xmlstream.EventDescription, func(ev events.Event) { e.description = string(ev.Data) })
	q.On(xmlstream.EventMovement, func(ev events.Event) { e.onMovement(string(ev.Data)) })
	q.On(xmlstream.EventDynamic, func(ev events.Event) { e.onDynamic(string(ev.Data)) })
	q.On(xmlstream.EventExits, func(ev events.Event) { e.onExits(string(ev.Data)) })
	q.On(xmlstream.EventPrompt, func(ev events.Event) { e.onPrompt(string(ev.Data)) })
	q.On(xmlstream.EventLine, func(ev events.Event) { e.onLine(string(ev.Data)) })
}

var blankRoomNames = map[string]bool{
	"You just see a dense fog around you...": true,
	"It is pitch black...":                   true,
}

func (e *Engine) onRoomAttrs(attrs map[string]string) {
	e.xmlAttrs = attrs
}

func (e *Engine) onName(data string) {
	if blankRoomNames[data] {
		e.roomName = ""
		return
	}
	e.roomName = data
}

func (e *Engine) onMovement(data string) {
	e.movementRaw = data
	e.movement = mapdb.Direction(strings.ToLower(strings.TrimSpace(data)))
	e.scouting = false
}

const scoutPrefix = "You quietly scout "

func (e *Engine) onLine(line string) {
	if strings.HasPrefix(line, scoutPrefix) {
		e.scouting = true
		return
	}
	if movementForcedRegex.MatchString(line) || movementPreventedRegex.MatchString(line) {
		if e.OnMovementCancelled != nil {
			e.OnMovementCancelled()
		}
	}
	if !e.isSynced || !e.cfg.AutoMapping || e.currentRoom == nil {
		return
	}
	switch line {
	case "It's too difficult to ride here.":
		e.setRidable(mapdb.RoomNotRidable)
	case "You are already riding.":
		e.setRidable(mapdb.RoomRidable)
	}
}

func (e *Engine) setRidable(r mapdb.Ridable) {
	if e.currentRoom.Ridable == r {
		return
	}
	e.currentRoom.Ridable = r
	e.currentRoom.RecomputeCost()
	e.Output(fmt.Sprintf("Updating room ridable flag to %q.", string(r)))
}

// onDynamic implements spec.md section 4.6's movement validation and
// auto-mapping, triggered once per turn on the dynamic-description event.
func (e *Engine) onDynamic(data string) {
	e.dynamic = data
	e.dynamicSet = true
	e.moved = ""
	e.addedNewRoomFrom = ""
	e.exitsText = ""

	if !e.isSynced || e.movement == "" || e.currentRoom == nil {
		return
	}
	movement := e.movement

	if !mapdb.IsDirection(string(movement)) {
		e.isSynced = false
		e.Output(fmt.Sprintf("Error: invalid direction '%s'. Map no longer synced!", movement))
		e.movement = ""
		return
	}

	exit, hasExit := e.currentRoom.Exits[movement]
	var toKnown bool
	if hasExit {
		_, toKnown = e.store.GetRoom(exit.To)
	}

	if !e.cfg.AutoMapping {
		if !hasExit {
			e.isSynced = false
			e.Output(fmt.Sprintf("Error: direction '%s' not in database. Map no longer synced!", movement))
			e.movement = ""
			return
		}
		if !toKnown {
			e.isSynced = false
			e.Output(fmt.Sprintf("Error: vnum (%s) in direction (%s) is not in the database. Map no longer synced!", exit.To, movement))
			e.movement = ""
			return
		}
	} else if !hasExit || !toKnown {
		if !e.autoMap(movement) {
			e.movement = ""
			return
		}
	}

	exit = e.currentRoom.Exits[movement]
	dest, ok := e.store.GetRoom(exit.To)
	if !ok {
		e.isSynced = false
		e.movement = ""
		return
	}
	e.currentRoom = dest
	e.moved = movement
	e.movement = ""

	if e.cfg.AutoMapping && e.cfg.AutoUpdateRooms {
		e.autoUpdateCurrentRoom()
	}
}

// autoMap handles the "not-in-exits"/"to-unknown" auto-mapping branch:
// merge into an exact name+desc duplicate, or create a new room. Returns
// false if the turn state doesn't have enough information to do either, in
// which case the caller desyncs.
func (e *Engine) autoMap(movement mapdb.Direction) bool {
	if e.cfg.AutoMerging && e.roomName != "" && e.description != "" {
		if rooms := e.store.RoomsWithExactNameAndDesc(e.roomName, e.description); len(rooms) == 1 {
			e.mergeRoom(movement, rooms[0])
			return true
		}
	}
	if e.roomName == "" {
		e.Output("Unable to add new room: empty room name.")
		e.isSynced = false
		return false
	}
	if e.description == "" {
		e.Output("Unable to add new room: empty room description.")
		e.isSynced = false
		return false
	}
	e.addedNewRoomFrom = e.currentRoom.Vnum
	e.createRoom(movement)
	return true
}

func (e *Engine) mergeRoom(movement mapdb.Direction, room *mapdb.Room) {
	rev := mapdb.ReverseDirection[movement]
	bidirectional := e.cfg.AutoLinking
	if revExit, ok := room.Exits[rev]; !(ok && revExit.To == mapdb.Undefined) {
		bidirectional = false
	}
	_ = e.store.Link(e.currentRoom.Vnum, movement, room.Vnum, bidirectional)
	e.Output(fmt.Sprintf("Auto merging %q with name %q.", room.Vnum, room.Name))
}

func (e *Engine) createRoom(movement mapdb.Direction) {
	vnum := e.store.NextVnum()
	room := mapdb.NewRoom(vnum)
	room.Name = e.roomName
	room.Desc = e.description
	room.DynamicDesc = e.dynamic
	off := mapdb.DirectionOffset[movement]
	room.X, room.Y, room.Z = e.currentRoom.X+off[0], e.currentRoom.Y+off[1], e.currentRoom.Z+off[2]
	room.RecomputeCost()
	e.store.AddRoom(room)

	if _, ok := e.currentRoom.Exits[movement]; !ok {
		e.currentRoom.Exits[movement] = mapdb.NewExit(mapdb.Undefined)
	}
	e.currentRoom.Exits[movement].To = vnum
	e.Output(fmt.Sprintf("Adding room %q with vnum '%s'.", room.Name, vnum))
}

func (e *Engine) autoUpdateCurrentRoom() {
	if e.roomName != "" && e.currentRoom.Name != e.roomName {
		e.currentRoom.Name = e.roomName
		e.Output("Updating room name.")
	}
	if e.description != "" && e.currentRoom.Desc != e.description {
		e.currentRoom.Desc = e.description
		e.Output("Updating room description.")
	}
	if e.dynamic != "" && e.currentRoom.DynamicDesc != e.dynamic {
		e.currentRoom.DynamicDesc = e.dynamic
		e.Output("Updating room dynamic description.")
	}
}

// exitTagsRegex recognizes one decorated direction token from an <exits>
// block: an optional door/road/climb/portal decoration followed by one of
// the six canonical direction names.
var exitTagsRegex = regexp.MustCompile(`([(\[#]?)([=-]?)([/\\]?)(\{?)(north|south|east|west|up|down)`)

// onExits implements auto-linking of a freshly created room's back-link and
// exit-flag synchronization, per spec.md section 4.6, plus the independent
// hidden-exit cleanup that watches every <exits> block regardless of
// auto-mapping state.
func (e *Engine) onExits(data string) {
	e.exitsText = data
	if e.currentRoom == nil {
		return
	}

	if e.cfg.AutoMapping && e.isSynced && e.moved != "" {
		if e.addedNewRoomFrom != "" {
			rev := mapdb.ReverseDirection[e.moved]
			if strings.Contains(data, string(rev)) {
				e.currentRoom.Exits[rev] = mapdb.NewExit(e.addedNewRoomFrom)
			}
		}
		e.updateExitFlags(data)
	}
	e.addedNewRoomFrom = ""

	if e.isSynced {
		e.cleanHiddenExits(data)
	}
}

func (e *Engine) updateExitFlags(data string) {
	var lines []string
	for _, m := range exitTagsRegex.FindAllStringSubmatch(data, -1) {
		door, road, climb, portal, dirStr := m[1], m[2], m[3], m[4], m[5]
		if portal != "" {
			continue
		}
		dir := mapdb.Direction(dirStr)
		ex, ok := e.currentRoom.Exits[dir]
		if !ok {
			lines = append(lines, fmt.Sprintf("Adding exit '%s' to current room.", dir))
			ex = mapdb.NewExit(mapdb.Undefined)
			e.currentRoom.Exits[dir] = ex
			if e.cfg.AutoLinking {
				e.tryAutoLink(dir, &lines)
			}
		}
		if door != "" && !ex.ExitFlags.Has("door") {
			ex.ExitFlags.Add("door")
			lines = append(lines, fmt.Sprintf("Exit %s: adding door flag.", dir))
		}
		if road != "" && !ex.ExitFlags.Has("road") {
			ex.ExitFlags.Add("road")
			lines = append(lines, fmt.Sprintf("Exit %s: adding road flag.", dir))
		}
		if climb != "" && !ex.ExitFlags.Has("climb") {
			ex.ExitFlags.Add("climb")
			lines = append(lines, fmt.Sprintf("Exit %s: adding climb flag.", dir))
		}
	}
	if len(lines) > 0 {
		e.Output(strings.Join(lines, "\n"))
	}
}

// tryAutoLink links a newly observed exit back to an existing room when
// exactly one room sits at the coordinate the exit's direction implies, and
// that room's reverse exit is still undefined.
func (e *Engine) tryAutoLink(dir mapdb.Direction, lines *[]string) {
	off := mapdb.DirectionOffset[dir]
	x, y, z := e.currentRoom.X+off[0], e.currentRoom.Y+off[1], e.currentRoom.Z+off[2]
	room, ok := e.store.RoomAtCoordinate(x, y, z)
	if !ok {
		return
	}
	rev := mapdb.ReverseDirection[dir]
	revExit, hasRev := room.Exits[rev]
	if !hasRev || revExit.To != mapdb.Undefined {
		return
	}
	_ = e.store.Link(e.currentRoom.Vnum, dir, room.Vnum, true)
	*lines = append(*lines, fmt.Sprintf("Linking exit %s to room %s.", dir, room.Vnum))
}

// exitLineRegex recognizes a free-form "Direction - ..." exits listing
// line, the format the cleaning pass watches for hidden-flag removal.
var exitLineRegex = regexp.MustCompile(`(?i)\b(north|south|east|west|up|down)\b.* - `)

func (e *Engine) cleanHiddenExits(data string) {
	for _, line := range strings.Split(data, "\n") {
		if strings.HasPrefix(line, "Exits:") {
			continue
		}
		m := exitLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dir := mapdb.Direction(strings.ToLower(m[1]))
		ex, ok := e.currentRoom.Exits[dir]
		if !ok || !ex.DoorFlags.Has("hidden") {
			continue
		}
		ex.DoorFlags.Remove("hidden")
		e.Output(fmt.Sprintf("Secret %s removed.", dir))
	}
}

// promptRegex pulls the light symbol, terrain symbol, and movement-flags
// block out of a game prompt's leading glyphs.
var promptRegex = regexp.MustCompile(`^([@*!)o]?)([#(\[+.%fO~UW:=<]?)([*'"~=-]{0,2})\s*([RrSsCcW]{0,4})[^>]*>$`)

var lightSymbols = map[string]mapdb.Light{
	"@": mapdb.Lit, "*": mapdb.Lit, "!": mapdb.UndefinedLevel, ")": mapdb.Lit, "o": mapdb.Dark,
}

var terrainSymbols = map[string]string{
	":": "brush", "O": "cavern", "#": "city", "!": "deathtrap", ".": "field",
	"f": "forest", "(": "hills", "[": "building", "<": "mountains", "W": "rapids",
	"+": "road", "%": "shallows", "=": "tunnel", "?": "undefined", "U": "underwater", "~": "water",
}

func (e *Engine) updateRoomFlags(prompt string) {
	m := promptRegex.FindStringSubmatch(prompt)
	if m == nil || e.currentRoom == nil {
		return
	}
	light, terrain, _, moveFlags := m[1], m[2], m[3], m[4]

	var lines []string
	if sym, ok := lightSymbols[light]; ok && sym == mapdb.Lit && e.currentRoom.Light != mapdb.Lit {
		e.currentRoom.Light = mapdb.Lit
		lines = append(lines, "Updating room light to 'lit'.")
	}
	if sym, ok := terrainSymbols[terrain]; ok && e.currentRoom.Terrain != sym && e.currentRoom.Terrain != "deathtrap" {
		e.currentRoom.Terrain = sym
		e.currentRoom.RecomputeCost()
		lines = append(lines, fmt.Sprintf("Updating room terrain to '%s'.", sym))
	}
	if strings.ContainsAny(moveFlags, "Rr") && e.currentRoom.Ridable != mapdb.RoomRidable {
		e.currentRoom.Ridable = mapdb.RoomRidable
		e.currentRoom.RecomputeCost()
		lines = append(lines, "Updating room ridable flag to 'ridable'.")
	}
	if len(lines) > 0 {
		e.Output(strings.Join(lines, "\n"))
	}
}

func (e *Engine) roomDetails() {
	var doors, deathTraps, oneWays, undefineds []string
	for dir, ex := range e.currentRoom.Exits {
		if ex.Door != "" && ex.Door != "exit" {
			doors = append(doors, fmt.Sprintf("%s: %s", dir, ex.Door))
		}
		switch ex.To {
		case "", mapdb.Undefined:
			undefineds = append(undefineds, string(dir))
		case mapdb.Death:
			deathTraps = append(deathTraps, string(dir))
		default:
			dest, ok := e.store.GetRoom(ex.To)
			if !ok {
				oneWays = append(oneWays, string(dir))
				continue
			}
			rev := mapdb.ReverseDirection[dir]
			if revExit, hasRev := dest.Exits[rev]; !hasRev || revExit.To != e.currentRoom.Vnum {
				oneWays = append(oneWays, string(dir))
			}
		}
	}
	sort.Strings(doors)
	sort.Strings(deathTraps)
	sort.Strings(oneWays)
	sort.Strings(undefineds)

	if len(doors) > 0 {
		e.Output("Doors: " + strings.Join(doors, ", "))
	}
	if len(deathTraps) > 0 {
		e.Output("Death Traps: " + strings.Join(deathTraps, ", "))
	}
	if len(oneWays) > 0 {
		e.Output("One ways: " + strings.Join(oneWays, ", "))
	}
	if len(undefineds) > 0 {
		e.Output("Undefineds: " + strings.Join(undefineds, ", "))
	}
	if e.currentRoom.Note != "" {
		e.Output("Note: " + e.currentRoom.Note)
	}
}

// Desync forces isSynced back to false, the effect of the "sync" command
// with no argument: the next prompt re-runs the sync protocol from scratch.
func (e *Engine) Desync() {
	e.isSynced = false
	e.warnedSync = false
}

// Sync implements spec.md section 4.6's sync protocol, called on every
// prompt while not yet synced.
func (e *Engine) Sync() {
	if id, ok := e.xmlAttrs["id"]; ok && id != "" {
		if r, ok := e.store.RoomWithServerID(id); ok {
			e.syncTo(r, fmt.Sprintf("Synced to room %s with vnum %s via server ID.", r.Name, r.Vnum))
			return
		}
	}
	if e.roomName == "" {
		e.reportSyncFailure()
		return
	}

	nameSet := e.store.RoomsWithExactName(e.roomName)
	descSet := e.store.RoomsWithExactDesc(e.description)
	intersection := intersectByVnum(nameSet, descSet)

	switch {
	case len(intersection) == 1:
		e.syncTo(intersection[0], fmt.Sprintf("Synced to room %s with vnum %s.", intersection[0].Name, intersection[0].Vnum))
	case len(descSet) == 1:
		e.syncTo(descSet[0], fmt.Sprintf("Synced to room %s with vnum %s.", descSet[0].Name, descSet[0].Vnum))
	case len(nameSet) == 1:
		e.syncTo(nameSet[0], fmt.Sprintf("Name-only synced to room %s with vnum %s.", nameSet[0].Name, nameSet[0].Vnum))
	default:
		e.reportSyncFailure()
	}
}

func (e *Engine) syncTo(r *mapdb.Room, message string) {
	e.currentRoom = r
	e.isSynced = true
	e.warnedSync = false
	e.Output(message)
}

func (e *Engine) reportSyncFailure() {
	if !e.warnedSync {
		e.Output("Unable to sync.")
		e.warnedSync = true
	}
}

func intersectByVnum(a, b []*mapdb.Room) []*mapdb.Room {
	inB := make(map[string]bool, len(b))
	for _, r := range b {
		inB[r.Vnum] = true
	}
	var out []*mapdb.Room
	for _, r := range a {
		if inB[r.Vnum] {
			out = append(out, r)
		}
	}
	return out
}

// onPrompt implements the turn boundary: spec.md section 4.6's sync call,
// the auto-mapping prompt-flag update, room-arrival details, and the
// end-of-turn reset of every per-turn field.
func (e *Engine) onPrompt(prompt string) {
	if e.isSynced {
		if e.cfg.AutoMapping && e.moved != "" {
			e.updateRoomFlags(prompt)
		}
	} else {
		e.Sync()
	}
	if e.isSynced && e.dynamicSet {
		e.roomDetails()
	}

	if e.OnPromptProcessed != nil {
		e.OnPromptProcessed(e.moved != "")
	}

	e.addedNewRoomFrom = ""
	e.scouting = false
	e.movement = ""
	e.moved = ""
	e.roomName = ""
	e.description = ""
	e.dynamic = ""
	e.dynamicSet = false
	e.exitsText = ""
	e.xmlAttrs = nil
}

var movementForcedRegex = regexp.MustCompile(strings.Join([]string{
	`You feel confused and move along randomly\.\.\.`,
	`Suddenly an explosion of ancient rhymes makes the space collapse around you\!`,
	`The pain stops\, your vision clears\, and you realize that you are elsewhere\.`,
	`A guard leads you out of the house\.`,
	`You leave the ferry\.`,
	`You reached the riverbank\.`,
	`You stop moving towards the (?:left|right) bank and drift downstream\.`,
	`You are borne along by a strong current\.`,
	`You are swept away by the current\.`,
	`You are swept away by the powerful current of water\.`,
	`You board the ferry\.`,
	`You are dead\! Sorry\.\.\.`,
	`With a jerk\, the basket starts gliding down the rope towards the platform\.`,
	`The current pulls you faster\. Suddenly\, you are sucked downwards into darkness\!`,
	`You are washed blindly over the rocks\, and plummet sickeningly downwards\.\.\.`,
	`Oops\! You walk off the bridge and fall into the rushing water below\!`,
	`Holding your breath and with closed eyes\, you are squeezed below the surface of the water\.`,
	`You tighten your grip as (?:a Great Eagle|Gwaihir the Windlord) starts to descend fast\.`,
	`The trees confuse you\, making you wander around in circles\.`,
	`Sarion helps you outside\.`,
	`You cannot control your mount on the slanted and unstable surface\!(?: You begin to slide to the north\, and plunge toward the water below\!)?`,
	`Stepping on the lizard corpses\, you use some depressions in the wall for support\, push the muddy ceiling apart and climb out of the cave\.`,
}, "|"))

var movementPreventedRegex = regexp.MustCompile("^(?:" + strings.Join([]string{
	`The \w+ seem[s]? to be closed\.`,
	`It seems to be locked\.`,
	`You cannot ride there\.`,
	`Your boat cannot enter this place\.`,
	`A guard steps in front of you\.`,
	`The clerk bars your way\.`,
	`You cannot go that way\.\.\.`,
	`Alas\, you cannot go that way\.\.\.`,
	`You need to swim to go there\.`,
	`You failed swimming there\.`,
	`You failed to climb there and fall down\, hurting yourself\.`,
	`Your mount cannot climb the tree\!`,
	`No way\! You are fighting for your life\!`,
	`In your dreams\, or what\?`,
	`You are too exhausted\.`,
	`You unsuccessfully try to break through the ice\.`,
	`Your mount refuses to follow your orders\!`,
	`You are too exhausted to ride\.`,
	`You can\'t go into deep water\!`,
	`You don\'t control your mount\!`,
	`Your mount is too sensible to attempt such a feat\.`,
	`Oops\! You cannot go there riding\!`,
	`You\'d better be swimming if you want to dive underwater\.`,
	`You need to climb to go there\.`,
	`You cannot climb there\.`,
	`If you still want to try\, you must \'climb\' there\.`,
	`Nah\.\.\. You feel too relaxed to do that\.`,
	`Maybe you should get on your feet first\?`,
	`Not from your present position\!`,
	`.+ (?:prevents|keeps) you from going (?:north|south|east|west|up|down|upstairs|downstairs|past (?:him|her|it))\.`,
	`A (?:pony|dales-pony|horse|warhorse|pack horse|trained horse|horse of the Rohirrim|brown donkey|mountain mule|hungry warg|brown wolf)(?: \(\w+\))? (?:is too exhausted|doesn't want you riding (?:him|her|it) anymore)\.`,
}, "|") + ")$")
