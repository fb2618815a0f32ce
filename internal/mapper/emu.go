package mapper

import (
	"fmt"
	"strings"

	"mapperproxy/internal/mapdb"
)

// emulationState tracks the room the "emu" dialect is currently exploring,
// separately from the engine's live-session CurrentRoom, so a player can
// browse the map without moving in game.
type emulationState struct {
	room      *mapdb.Room
	lastJump  *mapdb.Room
	briefMode bool
}

var emulationVerbs = []string{"look", "exits", "examine", "go", "return", "sync", "brief", "help", "quit"}

func (m *Mapper) emulationRoom() *mapdb.Room {
	if m.emu.room == nil {
		m.emu.room = m.Engine.CurrentRoom()
	}
	return m.emu.room
}

// cmdEmu implements the "emu" dialect: abbreviated direction names plus a
// small verb set that lets a player browse the stored map without
// generating any game traffic.
func (m *Mapper) cmdEmu(arg string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		m.Output("What command do you want to emulate?")
		return
	}
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(arg, fields[0]))

	if dir, ok := matchDirection(verb); ok {
		m.emulateLeave(dir)
		return
	}
	for _, v := range emulationVerbs {
		if strings.HasPrefix(v, verb) {
			m.emulationCommand(v, rest)
			return
		}
	}
	if verb == "at" {
		m.emulateAt(rest)
		return
	}
	m.Output("Invalid command. Type 'emu help' for more help.")
}

func (m *Mapper) emulationCommand(verb, args string) {
	switch verb {
	case "quit":
		m.Send("quit")
	case "brief":
		m.emu.briefMode = !m.emu.briefMode
		state := "off"
		if m.emu.briefMode {
			state = "on"
		}
		m.Output(fmt.Sprintf("Brief mode %s", state))
	case "examine":
		r := m.emulationRoom()
		if r != nil {
			m.Output(r.Desc)
		}
	case "exits":
		m.emulateExits()
	case "go":
		m.emulateGo(strings.TrimSpace(args), true)
	case "return":
		if m.emu.lastJump != nil {
			m.emulateGo(m.emu.lastJump.Vnum, true)
		} else {
			m.Output("No previous jump to return to.")
		}
	case "sync":
		if m.emu.lastJump != nil {
			m.emulationCommand("return", "")
			return
		}
		if r, ok := m.currentRoom(); ok {
			m.emulateGo(r.Vnum, true)
		}
	case "look":
		m.emulateLook()
	case "help":
		m.Output("emu commands: " + strings.Join(append(append([]string{}, directionNames()...), emulationVerbs...), ", "))
	}
}

func (m *Mapper) emulateLook() {
	r := m.emulationRoom()
	if r == nil {
		m.Output("Nowhere to look.")
		return
	}
	m.Output(r.Name)
	if !m.emu.briefMode {
		m.Output(r.Desc)
	}
	if r.DynamicDesc != "" {
		m.Output(r.DynamicDesc)
	}
	if r.Note != "" {
		m.Output(fmt.Sprintf("Note: %s", r.Note))
	}
}

func (m *Mapper) emulateExits() {
	r := m.emulationRoom()
	if r == nil {
		return
	}
	var exits []string
	for _, d := range mapdb.Directions {
		if _, ok := r.Exits[d]; ok {
			exits = append(exits, string(d))
		}
	}
	m.Output(fmt.Sprintf("Exits: %s.", strings.Join(exits, ", ")))
}

func (m *Mapper) emulateGo(label string, isJump bool) {
	r, _, err := m.Store.ResolveLabel(label)
	if err != nil {
		m.Output(fmt.Sprintf("Error: %v.", err))
		return
	}
	m.emu.room = r
	m.emulateLook()
	m.emulateExits()
	if isJump {
		m.emu.lastJump = r
	}
}

func (m *Mapper) emulateLeave(dir mapdb.Direction) {
	r := m.emulationRoom()
	if r == nil {
		return
	}
	ex, ok := r.Exits[dir]
	if !ok {
		m.Output("Alas, you cannot go that way.")
		return
	}
	switch ex.To {
	case mapdb.Death:
		m.Output("deathtrap!")
	case mapdb.Undefined:
		m.Output("undefined")
	default:
		m.emulateGo(ex.To, false)
	}
}

// emulateAt runs another mapper command with the room named by <where>
// temporarily substituted for the live current room, mirroring the original
// implementation's "at <where> <cmd>" syntax.
func (m *Mapper) emulateAt(args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		m.Output("Syntax: 'emu at [label|vnum] [command]'.")
		return
	}
	r, _, err := m.Store.ResolveLabel(fields[0])
	if err != nil {
		m.Output(fmt.Sprintf("Error: %v.", err))
		return
	}
	saved := m.Engine.CurrentRoom()
	m.Engine.SetCurrentRoom(r)
	m.Dispatch(strings.Join(fields[1:], " "))
	m.Engine.SetCurrentRoom(saved)
}
