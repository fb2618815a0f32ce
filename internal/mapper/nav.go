package mapper

import (
	"fmt"
	"strings"

	"mapperproxy/internal/mapdb"
	"mapperproxy/internal/pathfind"
)

// splitRunDestination separates a run/step/path argument into its
// destination (label or vnum) and optional pipe-delimited flags, mirroring
// the original implementation's RUN_DESTINATION_REGEX: the last
// whitespace-separated token is flags only when more than one token is
// present.
func splitRunDestination(text string) (destination, flags string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

func avoidTerrainsFromFlags(flags string) map[string]bool {
	if flags == "" {
		return nil
	}
	out := map[string]bool{}
	for _, flag := range strings.Split(flags, "|") {
		terrain := strings.TrimPrefix(flag, "no")
		if _, ok := mapdb.TerrainCosts[terrain]; ok {
			out[terrain] = true
		}
	}
	return out
}

// findPath resolves destination to a room and runs pathfind.Route from the
// current room, applying the configured lead-before-entering set and any
// per-query avoid-terrain flags.
func (m *Mapper) findPath(destination, flags string) ([]string, bool) {
	origin, ok := m.currentRoom()
	if !ok {
		return nil, false
	}
	dest, suggestions, err := m.Store.ResolveLabel(destination)
	if err != nil {
		msg := fmt.Sprintf("Error: %v.", err)
		if len(suggestions) > 0 {
			msg += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
		}
		m.Output(msg)
		return nil, false
	}
	if dest == origin {
		m.Output("You are already there!")
		return nil, false
	}
	avoid := avoidTerrainsFromFlags(flags)
	if avoid == nil {
		avoid = m.Config.AvoidTerrainSet()
	}
	cfg := pathfind.Config{LeadBeforeEntering: m.Config.LeadBeforeEnteringSet()}
	actions, ok := pathfind.Route(m.Store, origin, dest, pathfind.DefaultExitIgnore, pathfind.DefaultExitCost(avoid), cfg)
	if !ok {
		m.Output("No path found.")
		return nil, false
	}
	return actions, true
}

func (m *Mapper) cmdRun(arg string) {
	text := strings.TrimSpace(arg)
	if text == "" {
		m.Output("Usage: run [label|vnum]")
		return
	}
	lower := strings.ToLower(text)
	switch {
	case lower == "c":
		if m.lastPathQuery == "" {
			m.Output("Error: no previous path to continue.")
			return
		}
		text = m.lastPathQuery
	case lower == "t" || strings.HasPrefix(lower, "t "):
		target := strings.TrimSpace(text[1:])
		if target == "" {
			if m.lastPathQuery != "" {
				m.Output(fmt.Sprintf("Run target set to '%s'. Use 'run t [rlabel|vnum]' to change it.", m.lastPathQuery))
				return
			}
			m.Output("Please specify a VNum or room label to target.")
			return
		}
		m.lastPathQuery = target
		m.Output(fmt.Sprintf("Setting run target to '%s'", m.lastPathQuery))
		return
	}

	destination, flags := splitRunDestination(text)
	actions, ok := m.findPath(destination, flags)
	if !ok {
		return
	}
	if lower != "c" {
		m.lastPathQuery = text
	}
	m.Walker.Enqueue(actions)
}

func (m *Mapper) cmdStep(arg string) {
	text := strings.TrimSpace(arg)
	if text == "" {
		m.Output("Usage: step [label|vnum]")
		return
	}
	destination, flags := splitRunDestination(text)
	actions, ok := m.findPath(destination, flags)
	if !ok {
		m.Output("Specify a path to follow.")
		return
	}
	m.Walker.Step(actions)
}

func (m *Mapper) cmdStop() {
	if !m.Walker.IsWalking() {
		m.Output("No walk in progress.")
		return
	}
	m.Walker.Cancel()
	m.Output("Walk stopped.")
}

func (m *Mapper) cmdPath(arg string) {
	text := strings.TrimSpace(arg)
	if text == "" {
		m.Output("Usage: path [label|vnum]")
		return
	}
	destination, flags := splitRunDestination(text)
	actions, ok := m.findPath(destination, flags)
	if !ok {
		return
	}
	m.Output(pathfind.SpeedWalk(actions))
}
