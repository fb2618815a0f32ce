// Package mapsvg renders a non-interactive SVG snapshot of the world map:
// rooms placed at their stored X/Y coordinates, exits drawn as lines between
// them, doors and hidden exits given distinct line styles, and death
// traps, avoided rooms, and undefined terrain distinct fill colors.
package mapsvg

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	svg "github.com/ajstarks/svgo"

	"mapperproxy/internal/mapdb"
)

// Options configures one export. A Z value of 0 with OnlyCurrentZ set
// restricts the drawing to a single floor, since the coordinate grid is
// three-dimensional but an SVG canvas is not.
type Options struct {
	CellSize     int
	Margin       int
	ShowLabels   bool
	OnlyCurrentZ bool
	Z            int
	Title        string
}

// DefaultOptions returns the export settings used when the caller hasn't
// customized anything: a readable grid with room names labeled.
func DefaultOptions() Options {
	return Options{
		CellSize:   60,
		Margin:     40,
		ShowLabels: true,
	}
}

// Export renders every room in rooms (as returned by mapdb.Store.Snapshot)
// to an SVG document and returns its bytes.
func Export(rooms []*mapdb.Room, opts Options) []byte {
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultOptions().CellSize
	}
	if opts.Margin <= 0 {
		opts.Margin = DefaultOptions().Margin
	}

	visible := make([]*mapdb.Room, 0, len(rooms))
	for _, r := range rooms {
		if opts.OnlyCurrentZ && r.Z != opts.Z {
			continue
		}
		visible = append(visible, r)
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Vnum < visible[j].Vnum })

	minX, maxX, minY, maxY := bounds(visible)
	width := (maxX-minX+2)*opts.CellSize + 2*opts.Margin
	height := (maxY-minY+2)*opts.CellSize + 2*opts.Margin
	if opts.Title != "" {
		height += 30
	}

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#101018")

	headerOffset := 0
	if opts.Title != "" {
		canvas.Text(width/2, 20, opts.Title, "text-anchor:middle;font-size:16px;font-weight:bold;fill:#eee;font-family:sans-serif")
		headerOffset = 30
	}

	byVnum := make(map[string]*mapdb.Room, len(visible))
	for _, r := range visible {
		byVnum[r.Vnum] = r
	}

	toPoint := func(r *mapdb.Room) (int, int) {
		x := opts.Margin + (r.X-minX)*opts.CellSize
		y := headerOffset + opts.Margin + (maxY-r.Y)*opts.CellSize
		return x, y
	}

	drawExits(canvas, visible, byVnum, toPoint, opts)
	drawRooms(canvas, visible, toPoint, opts)

	canvas.End()
	return buf.Bytes()
}

// Save writes the SVG rendering of rooms to path.
func Save(path string, rooms []*mapdb.Room, opts Options) error {
	return os.WriteFile(path, Export(rooms, opts), 0o644)
}

func bounds(rooms []*mapdb.Room) (minX, maxX, minY, maxY int) {
	if len(rooms) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = rooms[0].X, rooms[0].X
	minY, maxY = rooms[0].Y, rooms[0].Y
	for _, r := range rooms[1:] {
		if r.X < minX {
			minX = r.X
		}
		if r.X > maxX {
			maxX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.Y > maxY {
			maxY = r.Y
		}
	}
	return minX, maxX, minY, maxY
}

func drawExits(canvas *svg.SVG, rooms []*mapdb.Room, byVnum map[string]*mapdb.Room, toPoint func(*mapdb.Room) (int, int), opts Options) {
	for _, r := range rooms {
		dirs := make([]mapdb.Direction, 0, len(r.Exits))
		for dir := range r.Exits {
			dirs = append(dirs, dir)
		}
		sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

		for _, dir := range dirs {
			ex := r.Exits[dir]
			if ex.To == mapdb.Undefined || ex.To == mapdb.Death {
				continue
			}
			dest, ok := byVnum[ex.To]
			if !ok {
				continue
			}
			// Draw each two-way pair once, from the lexically smaller vnum;
			// a one-way exit is drawn from its own room.
			if dest.Vnum < r.Vnum {
				if back, ok := dest.Exits[mapdb.ReverseDirection[dir]]; ok && back.To == r.Vnum {
					continue
				}
			}
			x1, y1 := toPoint(r)
			x2, y2 := toPoint(dest)
			style := edgeStyle(ex)
			canvas.Line(x1, y1, x2, y2, style)
		}
	}
}

func edgeStyle(ex *mapdb.Exit) string {
	color := "#4a5568"
	dash := ""
	if ex.ExitFlags.Has("door") {
		color = "#48bb78"
	}
	if ex.DoorFlags.Has("hidden") {
		dash = ";stroke-dasharray:4,3"
	}
	return fmt.Sprintf("stroke:%s;stroke-width:2%s", color, dash)
}

func drawRooms(canvas *svg.SVG, rooms []*mapdb.Room, toPoint func(*mapdb.Room) (int, int), opts Options) {
	radius := opts.CellSize / 4
	for _, r := range rooms {
		x, y := toPoint(r)
		canvas.Circle(x, y, radius, fmt.Sprintf("fill:%s;stroke:#fff;stroke-width:1", roomColor(r)))
		if opts.ShowLabels {
			label := r.Name
			if label == "" {
				label = r.Vnum
			}
			canvas.Text(x, y+radius+12, label, "text-anchor:middle;font-size:10px;fill:#ddd;font-family:monospace")
		}
	}
}

func roomColor(r *mapdb.Room) string {
	switch {
	case r.Terrain == "deathtrap":
		return "#f56565"
	case r.Avoid:
		return "#ed8936"
	case r.Terrain == mapdb.Undefined:
		return "#718096"
	default:
		return "#4299e1"
	}
}
