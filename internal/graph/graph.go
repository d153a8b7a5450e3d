package graph

import (
	"fmt"
	"strings"

	"rivendb/internal/faults"
)

// Direction names one of the six navigation edges of a viewpoint.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	Forward
	Backward
)

// Directions lists every direction in storage order.
var Directions = [...]Direction{Left, Right, Up, Down, Forward, Backward}

var directionNames = [...]string{"left", "right", "up", "down", "forward", "backward"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection maps a lower-case direction name to its Direction.
func ParseDirection(name string) (Direction, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range directionNames {
		if n == name {
			return Direction(i), true
		}
	}
	return 0, false
}

// Group is a spatial group ("island") in the graph.
type Group struct {
	ID int64
	Island
}

// Position clusters viewpoints that share a composite thumbnail.
type Position struct {
	ID      int64
	GroupID int64
	Symbol  string
	// Name is optional.
	Name string
	// Viewpoints holds member IDs in declaration order.
	Viewpoints []int64
	Thumbnail  string
}

// Viewpoint is a graph node.
type Viewpoint struct {
	ID      int64
	GroupID int64
	Symbol  string
	Name    string
	// PositionID is 0 when the viewpoint belongs to no position.
	PositionID int64
	// Neighbors holds target viewpoint IDs indexed by Direction; 0 means none.
	Neighbors   [6]int64
	Thumbnail   string
	Thumbnail2x string
}

// Key returns "<symbol>/<name>".
func (v *Viewpoint) Key() string {
	return v.Symbol + "/" + v.Name
}

// Graph is the arena of groups, positions, viewpoints and their assets for
// one build.
type Graph struct {
	ids *IDs

	groups        []*Group
	groupBySymbol map[string]*Group

	positions []*Position

	viewpoints    []*Viewpoint
	viewpointByID map[int64]*Viewpoint
	viewpointKey  map[string]*Viewpoint

	images            []*Image
	imagesByViewpoint map[int64][]*Image
	movies            []*Movie
	moviesByViewpoint map[int64][]*Movie
}

// New returns an empty graph drawing identifiers from ids.
func New(ids *IDs) *Graph {
	if ids == nil {
		ids = NewIDs()
	}
	return &Graph{
		ids:           ids,
		groupBySymbol: make(map[string]*Group),
		viewpointByID: make(map[int64]*Viewpoint),
		viewpointKey:  make(map[string]*Viewpoint),

		imagesByViewpoint: make(map[int64][]*Image),
		moviesByViewpoint: make(map[int64][]*Movie),
	}
}

// EnsureGroup returns the group for symbol, creating it from the reference
// table on first use.
func (g *Graph) EnsureGroup(symbol string) *Group {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if group, ok := g.groupBySymbol[symbol]; ok {
		return group
	}
	island, _ := LookupIsland(symbol)
	group := &Group{ID: g.ids.Groups.Next(), Island: island}
	g.groups = append(g.groups, group)
	g.groupBySymbol[symbol] = group
	return group
}

// Group looks up an existing group.
func (g *Graph) Group(symbol string) (*Group, bool) {
	group, ok := g.groupBySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return group, ok
}

// EnsureViewpoint returns the viewpoint (symbol, name), creating it and its
// group if needed.
func (g *Graph) EnsureViewpoint(symbol, name string) *Viewpoint {
	group := g.EnsureGroup(symbol)
	key := group.Symbol + "/" + name
	if vp, ok := g.viewpointKey[key]; ok {
		return vp
	}
	vp := &Viewpoint{
		ID:      g.ids.Viewpoints.Next(),
		GroupID: group.ID,
		Symbol:  group.Symbol,
		Name:    name,
	}
	g.viewpoints = append(g.viewpoints, vp)
	g.viewpointByID[vp.ID] = vp
	g.viewpointKey[key] = vp
	return vp
}

// Viewpoint looks up an existing viewpoint.
func (g *Graph) Viewpoint(symbol, name string) (*Viewpoint, bool) {
	vp, ok := g.viewpointKey[strings.ToUpper(strings.TrimSpace(symbol))+"/"+name]
	return vp, ok
}

// ViewpointByID looks up a viewpoint by identifier.
func (g *Graph) ViewpointByID(id int64) (*Viewpoint, bool) {
	vp, ok := g.viewpointByID[id]
	return vp, ok
}

// AddPosition creates a new position in the group for symbol.
func (g *Graph) AddPosition(symbol, name string) *Position {
	group := g.EnsureGroup(symbol)
	pos := &Position{
		ID:      g.ids.Positions.Next(),
		GroupID: group.ID,
		Symbol:  group.Symbol,
		Name:    strings.TrimSpace(name),
	}
	g.positions = append(g.positions, pos)
	return pos
}

// Assign makes vp a member of pos. A viewpoint keeps its first position;
// assigning it elsewhere later reports false.
func (g *Graph) Assign(pos *Position, vp *Viewpoint) bool {
	if vp.PositionID != 0 {
		return vp.PositionID == pos.ID
	}
	vp.PositionID = pos.ID
	pos.Viewpoints = append(pos.Viewpoints, vp.ID)
	return true
}

// Link sets the directed edge from -> to in direction dir. Re-linking the
// same target is a no-op; a different target is a duplicate definition.
func (g *Graph) Link(from *Viewpoint, dir Direction, to *Viewpoint) error {
	if int(dir) < 0 || int(dir) >= len(from.Neighbors) {
		return faults.Wrap(faults.ErrReference, "graph", "link", fmt.Sprintf("invalid direction %d", int(dir)), nil)
	}
	current := from.Neighbors[dir]
	if current != 0 && current != to.ID {
		existing, _ := g.ViewpointByID(current)
		existingKey := fmt.Sprint(current)
		if existing != nil {
			existingKey = existing.Key()
		}
		return faults.Wrap(faults.ErrDuplicate, "graph", "link",
			fmt.Sprintf("%s %s already points to %s, not %s", from.Key(), dir, existingKey, to.Key()), nil)
	}
	from.Neighbors[dir] = to.ID
	return nil
}

// Neighbor returns the viewpoint reached from vp in direction dir.
func (g *Graph) Neighbor(vp *Viewpoint, dir Direction) (*Viewpoint, bool) {
	if int(dir) < 0 || int(dir) >= len(vp.Neighbors) || vp.Neighbors[dir] == 0 {
		return nil, false
	}
	return g.ViewpointByID(vp.Neighbors[dir])
}

// Groups returns groups in creation order.
func (g *Graph) Groups() []*Group { return g.groups }

// Positions returns positions in creation order.
func (g *Graph) Positions() []*Position { return g.positions }

// Viewpoints returns viewpoints in creation order.
func (g *Graph) Viewpoints() []*Viewpoint { return g.viewpoints }

// IDs returns the sequences the graph draws from.
func (g *Graph) IDs() *IDs { return g.ids }
