// Package pathfind implements weighted shortest-path routing over the world
// map: a binary-heap best-first search with pluggable exit-ignore and
// exit-cost predicates, post-processed into a walkable action sequence
// (direction tokens plus door/lead/ride auxiliary commands), and a speedwalk
// string compressor for display.
package pathfind

import (
	"container/heap"
	"fmt"
	"strings"

	"mapperproxy/internal/mapdb"
)

// ExitIgnoreFunc reports whether ex should be excluded from the search
// entirely. The default ignores exits leading to "undefined" or "death".
type ExitIgnoreFunc func(ex *mapdb.Exit) bool

// ExitCostFunc returns the domain-specific bonus added to an edge's cost,
// on top of the destination room's precomputed Cost.
type ExitCostFunc func(ex *mapdb.Exit, dest *mapdb.Room) float64

// DefaultExitIgnore excludes exits whose destination isn't a concrete room.
func DefaultExitIgnore(ex *mapdb.Exit) bool {
	return ex.To == mapdb.Undefined || ex.To == mapdb.Death
}

// DefaultExitCost returns the domain-bonus formula from spec section 4.7:
// +5 for a door or climb exit, +1000 for an avoid-flagged exit, +10 if the
// destination's terrain is in avoidTerrains.
func DefaultExitCost(avoidTerrains map[string]bool) ExitCostFunc {
	return func(ex *mapdb.Exit, dest *mapdb.Room) float64 {
		var cost float64
		if ex.ExitFlags.Has("door") || ex.ExitFlags.Has("climb") {
			cost += 5
		}
		if ex.ExitFlags.Has("avoid") {
			cost += 1000
		}
		if avoidTerrains[dest.Terrain] {
			cost += 10
		}
		return cost
	}
}

// Config carries the knobs the search and post-processor need beyond the
// graph itself.
type Config struct {
	// LeadBeforeEntering is the set of vnums at which a mount must be led
	// rather than ridden — e.g. stable doors, boat decks. Empty by default;
	// populated from the mapper's configuration for the game in use, since
	// no vnum numbering is universal across games.
	LeadBeforeEntering map[string]bool
}

type heapItem struct {
	cost float64
	room *mapdb.Room
}

type roomHeap []heapItem

func (h roomHeap) Len() int            { return len(h) }
func (h roomHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h roomHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *roomHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *roomHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// ParentHop records, for one room reached during a search, which room it
// was reached from and in which direction.
type ParentHop struct {
	room      *mapdb.Room
	direction mapdb.Direction
}

// Find runs a binary-heap best-first search from origin until isDestination
// reports true for the popped room, or the heap empties. It returns the
// destination room and the parent-chain needed for reconstruction, or
// ok=false if no route exists.
func Find(origin *mapdb.Room, isDestination func(*mapdb.Room) bool, ignore ExitIgnoreFunc, cost ExitCostFunc, store *mapdb.Store) (dest *mapdb.Room, parents map[string]ParentHop, ok bool) {
	if ignore == nil {
		ignore = DefaultExitIgnore
	}

	parents = map[string]ParentHop{origin.Vnum: {room: origin}}
	closed := map[string]float64{origin.Vnum: origin.Cost}

	open := &roomHeap{{cost: origin.Cost, room: origin}}
	heap.Init(open)

	for open.Len() > 0 {
		current := heap.Pop(open).(heapItem)
		if isDestination(current.room) {
			return current.room, parents, true
		}
		for dir, ex := range current.room.Exits {
			if ignore(ex) {
				continue
			}
			neighbor, found := store.GetRoom(ex.To)
			if !found {
				continue
			}
			bonus := 0.0
			if cost != nil {
				bonus = cost(ex, neighbor)
			}
			neighborCost := current.cost + neighbor.Cost + bonus
			if best, seen := closed[neighbor.Vnum]; !seen || best > neighborCost {
				closed[neighbor.Vnum] = neighborCost
				heap.Push(open, heapItem{cost: neighborCost, room: neighbor})
				parents[neighbor.Vnum] = ParentHop{room: current.room, direction: dir}
			}
		}
	}
	return nil, nil, false
}

// Reconstruct walks the parent chain from dest back to origin and returns
// the forward-order action sequence: direction tokens interleaved with
// "open <door> <direction>", "lead", and "ride" auxiliary commands, per
// spec section 4.7's post-processing rules.
func Reconstruct(origin, dest *mapdb.Room, parents map[string]ParentHop, cfg Config) []string {
	leadSet := cfg.LeadBeforeEntering
	if leadSet == nil {
		leadSet = map[string]bool{}
	}

	var actions []string
	room := dest
	for room.Vnum != origin.Vnum {
		hop := parents[room.Vnum]
		parent := hop.room
		dir := hop.direction
		ex := parent.Exits[dir]

		if leadSet[parent.Vnum] && !leadSet[ex.To] && parent.Vnum != origin.Vnum {
			actions = append(actions, "ride")
		}
		actions = append(actions, string(dir))
		if leadSet[ex.To] && (!leadSet[parent.Vnum] || parent.Vnum == origin.Vnum) {
			actions = append(actions, "lead")
		}
		if ex.ExitFlags.Has("door") {
			name := ex.Door
			if name == "" {
				name = "exit"
			}
			actions = append(actions, fmt.Sprintf("open %s %s", name, dir))
		}
		room = parent
	}
	reverse(actions)
	return actions
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Route runs Find then Reconstruct, returning the empty slice (and false)
// when no path exists.
func Route(store *mapdb.Store, origin, destination *mapdb.Room, ignore ExitIgnoreFunc, cost ExitCostFunc, cfg Config) ([]string, bool) {
	if destination == origin {
		return nil, false
	}
	isDest := func(r *mapdb.Room) bool { return r == destination }
	dest, parents, ok := Find(origin, isDest, ignore, cost, store)
	if !ok {
		return nil, false
	}
	return Reconstruct(origin, dest, parents, cfg), true
}

func isDirectionToken(s string) bool {
	return mapdb.IsDirection(s)
}

// SpeedWalk compresses a forward-order action sequence into the standard
// speedwalk string: consecutive identical directions collapse into
// "<count><first-letter>" groups, interleaved with any non-direction
// commands, prefixed by a room count.
func SpeedWalk(actions []string) string {
	numRooms := 0
	for _, a := range actions {
		if isDirectionToken(a) {
			numRooms++
		}
	}

	var result []string
	var buf []string
	flush := func() {
		result = append(result, compressDirections(buf)...)
		buf = buf[:0]
	}
	for _, a := range actions {
		if isDirectionToken(a) {
			buf = append(buf, a)
			continue
		}
		flush()
		result = append(result, a)
	}
	flush()

	return fmt.Sprintf("%d rooms. %s", numRooms, strings.Join(result, ", "))
}

func compressDirections(dirs []string) []string {
	var out []string
	i := 0
	for i < len(dirs) {
		j := i
		for j < len(dirs) && dirs[j] == dirs[i] {
			j++
		}
		count := j - i
		letter := string(dirs[i][0])
		if count == 1 {
			out = append(out, letter)
		} else {
			out = append(out, fmt.Sprintf("%d%s", count, letter))
		}
		i = j
	}
	return out
}
