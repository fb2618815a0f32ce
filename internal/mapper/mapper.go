// Package mapper implements the mapper command surface: it owns the sync
// and auto-mapping engine, the world map store, and the walker together,
// and dispatches every "userInput" event whose first word names a mapper
// command to the matching handler, in the teacher's switch-based command
// dispatch style.
package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"mapperproxy/internal/automap"
	"mapperproxy/internal/config"
	"mapperproxy/internal/events"
	"mapperproxy/internal/mapdb"
	"mapperproxy/internal/mapsvg"
	"mapperproxy/internal/walker"
)

// Mapper binds the map store, the sync/auto-mapping engine, the walker, and
// the running configuration together and serves as the single dispatch
// point for every player line the proxy classifies as a mapper command.
type Mapper struct {
	Store  *mapdb.Store
	Engine *automap.Engine
	Walker *walker.Walker
	Config *config.Config

	// Output sends a line of text to the player, mirroring the original
	// implementation's sendPlayer.
	Output func(string)
	// Send delivers a line of input to the game, as if the player had
	// typed it, mirroring the original implementation's sendGame.
	Send func(string)

	// MapPath and LabelsPath name the files savemap persists to.
	MapPath    string
	LabelsPath string

	lastPathQuery string
	emu           emulationState
}

// New returns a Mapper with its engine and walker wired together: movement
// cancellation (forced movement, movement-prevented lines) stops the
// walker, and every processed prompt advances it.
func New(store *mapdb.Store, cfg *config.Config, send, output func(string)) *Mapper {
	engine := automap.New(store, automap.Config{
		AutoMapping:     cfg.AutoMapping,
		AutoUpdateRooms: cfg.AutoUpdateRooms,
		AutoMerging:     cfg.AutoMerging,
		AutoLinking:     cfg.AutoLinking,
	}, output)

	w := walker.New(send)
	engine.OnMovementCancelled = w.OnMovementCancelled
	engine.OnPromptProcessed = w.OnPrompt

	return &Mapper{
		Store:  store,
		Engine: engine,
		Walker: w,
		Config: cfg,
		Output: output,
		Send:   send,
	}
}

// Attach subscribes the engine to the protocol event stream and the
// dispatcher to "userInput" events.
func (m *Mapper) Attach(q *events.Queue) {
	m.Engine.Attach(q)
	q.On("userInput", func(ev events.Event) { m.Dispatch(string(ev.Data)) })
}

// Dispatch routes one player-typed line to its command handler. Unknown
// first words get an error reply; they arrive here when the proxy session
// is emulating offline, since outside that mode it only raises a
// "userInput" event for lines matching its command prefix table.
func (m *Mapper) Dispatch(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "automap":
		m.toggle("Auto Mapping", arg, m.Engine.AutoMapping, m.Engine.SetAutoMapping)
	case "autoupdate":
		m.toggle("Auto update rooms", arg, m.Engine.AutoUpdateRooms, m.Engine.SetAutoUpdateRooms)
	case "automerge":
		m.toggle("Auto Merging", arg, m.Engine.AutoMerging, m.Engine.SetAutoMerging)
	case "autolink":
		m.toggle("Auto Linking", arg, m.Engine.AutoLinking, m.Engine.SetAutoLinking)

	case "sync":
		m.cmdSync(arg)
	case "vnum":
		m.cmdVnum()
	case "tvnum":
		m.cmdTvnum(arg)
	case "getlabel":
		m.cmdGetLabel(arg)
	case "rlabel":
		m.cmdRlabel(arg)
	case "rinfo":
		m.cmdRinfo(arg)
	case "rdelete":
		m.cmdRdelete(arg)
	case "rnote":
		m.cmdRnote(arg)
	case "ralign":
		m.cmdRalign(arg)
	case "rlight":
		m.cmdRlight(arg)
	case "rportable":
		m.cmdRportable(arg)
	case "rridable":
		m.cmdRridable(arg)
	case "ravoid":
		m.cmdRavoid(arg)
	case "rterrain":
		m.cmdRterrain(arg)
	case "rx":
		m.cmdRcoord(arg, "X", func(r *mapdb.Room) *int { return &r.X })
	case "ry":
		m.cmdRcoord(arg, "Y", func(r *mapdb.Room) *int { return &r.Y })
	case "rz":
		m.cmdRcoord(arg, "Z", func(r *mapdb.Room) *int { return &r.Z })
	case "rmobflags":
		m.cmdRFlags(arg, "Mob", mapdb.ValidMobFlags, func(r *mapdb.Room) mapdb.StringSet { return r.MobFlags })
	case "rloadflags":
		m.cmdRFlags(arg, "Load", mapdb.ValidLoadFlags, func(r *mapdb.Room) mapdb.StringSet { return r.LoadFlags })
	case "exitflags":
		m.cmdExitOrDoorFlags(arg, "Exit", mapdb.ValidExitFlags, func(e *mapdb.Exit) mapdb.StringSet { return e.ExitFlags })
	case "doorflags":
		m.cmdExitOrDoorFlags(arg, "Door", mapdb.ValidDoorFlags, func(e *mapdb.Exit) mapdb.StringSet { return e.DoorFlags })
	case "secret":
		m.cmdSecret(arg)
	case "rlink":
		m.cmdRlink(arg)
	case "secretaction":
		m.cmdSecretAction(arg)

	case "fname":
		m.cmdFind(arg, "fname", findName)
	case "fnote":
		m.cmdFind(arg, "fnote", findNote)
	case "fdynamic":
		m.cmdFind(arg, "fdynamic", findDynamic)
	case "fdoor":
		m.cmdFind(arg, "fdoor", findDoor)
	case "flabel":
		m.cmdFindLabel(arg)
	case "farea":
		m.cmdFind(arg, "farea", findArea)
	case "fsid":
		m.cmdFind(arg, "fsid", findServerID)

	case "run":
		m.cmdRun(arg)
	case "step":
		m.cmdStep(arg)
	case "stop":
		m.cmdStop()
	case "path":
		m.cmdPath(arg)

	case "savemap":
		m.cmdSavemap()
	case "clock":
		m.cmdClock(arg)
	case "emu":
		m.cmdEmu(arg)
	case "maphelp":
		m.cmdMapHelp()

	default:
		m.Output(fmt.Sprintf("Unknown mapper command '%s'.", cmd))
	}
}

func (m *Mapper) toggle(label, arg string, get func() bool, set func(bool)) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "":
		set(!get())
	default:
		set(strings.ToLower(strings.TrimSpace(arg)) == "on")
	}
	state := "off"
	if get() {
		state = "on"
	}
	m.Output(fmt.Sprintf("%s %s.", label, state))
}

func (m *Mapper) currentRoom() (*mapdb.Room, bool) {
	r := m.Engine.CurrentRoom()
	if r == nil {
		m.Output("Error! The mapper has no location. Please use the sync command then try again.")
		return nil, false
	}
	return r, true
}

func (m *Mapper) cmdSync(arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		m.Engine.Desync()
		m.Output("Map no longer synced. Auto sync on.")
		m.Send("look")
		return
	}
	r, _, err := m.Store.ResolveLabel(arg)
	if err != nil {
		m.Output(fmt.Sprintf("Error: %v.", err))
		return
	}
	m.Engine.SetCurrentRoom(r)
	m.Output(fmt.Sprintf("Synced to room '%s' (%s).", r.Name, r.Vnum))
}

func (m *Mapper) cmdVnum() {
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	m.Output(fmt.Sprintf("Vnum: %s.", r.Vnum))
}

func (m *Mapper) cmdTvnum(arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		m.Output("Tell VNum to who?")
		return
	}
	r, ok := m.currentRoom()
	if !ok {
		return
	}
	m.Send(fmt.Sprintf("tell %s %s", arg, r.Vnum))
}

func (m *Mapper) cmdSavemap() {
	if m.MapPath == "" {
		m.Output("No map path configured; savemap skipped.")
		return
	}
	if err := mapdb.Save(m.Store, m.MapPath, m.LabelsPath); err != nil {
		m.Output(fmt.Sprintf("Error saving map: %v.", err))
		return
	}
	m.Output("Map saved.")
}

// ExportSVG renders the current map to an SVG file, exercising
// internal/mapsvg from the live command surface rather than only offline
// tooling.
func (m *Mapper) ExportSVG(path string, opts mapsvg.Options) error {
	return mapsvg.Save(path, m.Store.Snapshot(), opts)
}

func (m *Mapper) cmdClock(arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		m.Output("The clock is not tracked by this mapper.")
		return
	}
	m.Send(arg)
}

func (m *Mapper) cmdSecretAction(arg string) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(arg)))
	if len(fields) == 0 {
		m.Output("Syntax: 'secretaction [action] [" + strings.Join(directionNames(), " | ") + "]'.")
		return
	}
	action := fields[0]
	var dir mapdb.Direction
	if len(fields) > 1 {
		if d, ok := matchDirection(fields[1]); ok {
			dir = d
		}
	}
	door := "exit"
	if r := m.Engine.CurrentRoom(); r != nil && dir != "" {
		if ex, ok := r.Exits[dir]; ok && ex.Door != "" {
			door = ex.Door
		}
	}
	parts := []string{action, door}
	if dir != "" {
		parts = append(parts, string(dir)[:1])
	}
	m.Send(strings.Join(parts, " "))
}

func directionNames() []string {
	out := make([]string, len(mapdb.Directions))
	for i, d := range mapdb.Directions {
		out[i] = string(d)
	}
	return out
}

// matchDirection resolves a (possibly abbreviated) direction prefix the way
// the original implementation's regexFuzzy direction matching does.
func matchDirection(prefix string) (mapdb.Direction, bool) {
	prefix = strings.ToLower(prefix)
	for _, d := range mapdb.Directions {
		if strings.HasPrefix(string(d), prefix) {
			return d, true
		}
	}
	return "", false
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

const mapHelpText = `Mapper commands:
  Map edit:  rdelete rnote ralign rlight rportable rridable rterrain ravoid
             rx ry rz rmobflags rloadflags exitflags doorflags secret
             rlink rlabel
  Map query: rinfo vnum getlabel fdoor fdynamic flabel fname fnote farea fsid
  Navigate:  run step stop path sync
  Toggles:   automap autoupdate automerge autolink
  Misc:      savemap tvnum clock secretaction maphelp emu`

func (m *Mapper) cmdMapHelp() {
	m.Output(mapHelpText)
}
