// Package mapdoc loads the declarative map document and materializes it into
// a graph.Graph.
//
// The document lists spatial groups, their positions, and each position's
// viewpoints with up to six directional neighbor references. References are
// either a bare viewpoint name (same group) or "<group>/<viewpoint>". They are
// resolved in a second pass, so forward references within the document work.
package mapdoc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rivendb/internal/faults"
	"rivendb/internal/graph"
	"rivendb/internal/logging"
)

// Document is the decoded map description.
type Document struct {
	Groups []GroupSpec `yaml:"groups"`
}

// GroupSpec declares one spatial group.
type GroupSpec struct {
	Symbol    string         `yaml:"symbol"`
	Positions []PositionSpec `yaml:"positions"`
	// Viewpoints are declared without a position.
	Viewpoints []ViewpointSpec `yaml:"viewpoints"`
}

// PositionSpec declares a position and its member viewpoints in order.
type PositionSpec struct {
	Name       string          `yaml:"name"`
	Viewpoints []ViewpointSpec `yaml:"viewpoints"`
}

// ViewpointSpec declares a viewpoint and its outgoing edges.
type ViewpointSpec struct {
	Name     string `yaml:"name"`
	Left     string `yaml:"left"`
	Right    string `yaml:"right"`
	Up       string `yaml:"up"`
	Down     string `yaml:"down"`
	Forward  string `yaml:"forward"`
	Backward string `yaml:"backward"`
}

func (v ViewpointSpec) targets() [6]string {
	return [6]string{
		graph.Left:     v.Left,
		graph.Right:    v.Right,
		graph.Up:       v.Up,
		graph.Down:     v.Down,
		graph.Forward:  v.Forward,
		graph.Backward: v.Backward,
	}
}

// ParseFile decodes the map document at path.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a map document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "map", "decode document", "", err)
	}
	return &doc, nil
}

// Summary counts what Apply declared and linked.
type Summary struct {
	Groups     int
	Positions  int
	Viewpoints int
	Edges      int
}

type pendingEdge struct {
	from   *graph.Viewpoint
	dir    graph.Direction
	target string
}

// Apply declares every group, position and viewpoint of doc in g, then
// resolves neighbor references. An unresolvable reference fails the whole
// document.
func Apply(g *graph.Graph, doc *Document, logger *slog.Logger) (Summary, error) {
	logger = logging.NewComponentLogger(logger, "mapdoc")
	var summary Summary
	if doc == nil {
		return summary, nil
	}

	var pending []pendingEdge
	declare := func(symbol string, pos *graph.Position, spec ViewpointSpec) error {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return faults.Wrap(faults.ErrConfiguration, "map", "declare viewpoint", "viewpoint without name in group "+symbol, nil)
		}
		vp := g.EnsureViewpoint(symbol, name)
		summary.Viewpoints++
		if pos != nil && !g.Assign(pos, vp) {
			logging.WarnWithContext(logger, "viewpoint declared in more than one position", "map_position_conflict",
				logging.String("viewpoint", vp.Key()),
				logging.String(logging.FieldImpact, "first position kept"),
			)
		}
		for dir, target := range spec.targets() {
			if target = strings.TrimSpace(target); target != "" {
				pending = append(pending, pendingEdge{from: vp, dir: graph.Direction(dir), target: target})
			}
		}
		return nil
	}

	for _, group := range doc.Groups {
		symbol := strings.ToUpper(strings.TrimSpace(group.Symbol))
		if symbol == "" {
			return summary, faults.Wrap(faults.ErrConfiguration, "map", "declare group", "group without symbol", nil)
		}
		g.EnsureGroup(symbol)
		summary.Groups++
		for _, position := range group.Positions {
			pos := g.AddPosition(symbol, position.Name)
			summary.Positions++
			for _, spec := range position.Viewpoints {
				if err := declare(symbol, pos, spec); err != nil {
					return summary, err
				}
			}
		}
		for _, spec := range group.Viewpoints {
			if err := declare(symbol, nil, spec); err != nil {
				return summary, err
			}
		}
	}

	for _, edge := range pending {
		to, err := resolve(g, edge.from.Symbol, edge.target, edge, logger)
		if err != nil {
			return summary, err
		}
		if err := g.Link(edge.from, edge.dir, to); err != nil {
			return summary, err
		}
		summary.Edges++
	}

	logger.Debug("map document applied",
		logging.Int("groups", summary.Groups),
		logging.Int("positions", summary.Positions),
		logging.Int("viewpoints", summary.Viewpoints),
		logging.Int("edges", summary.Edges),
	)
	return summary, nil
}

func resolve(g *graph.Graph, symbol, ref string, edge pendingEdge, logger *slog.Logger) (*graph.Viewpoint, error) {
	if first, rest, multi := strings.Cut(ref, ","); multi {
		logging.WarnWithContext(logger, "multiple targets for one direction are not supported", "map_multi_target",
			logging.String("viewpoint", edge.from.Key()),
			logging.String("direction", edge.dir.String()),
			logging.String("dropped", strings.TrimSpace(rest)),
			logging.String(logging.FieldImpact, "first target used"),
		)
		ref = strings.TrimSpace(first)
	}
	name := ref
	if groupPart, namePart, cross := strings.Cut(ref, "/"); cross {
		symbol = strings.ToUpper(strings.TrimSpace(groupPart))
		name = strings.TrimSpace(namePart)
	}
	where := fmt.Sprintf("%s %s -> %s", edge.from.Key(), edge.dir, ref)
	if _, ok := g.Group(symbol); !ok {
		return nil, faults.Wrap(faults.ErrReference, "map", "resolve neighbor", "unknown group in "+where, nil)
	}
	vp, ok := g.Viewpoint(symbol, name)
	if !ok {
		return nil, faults.Wrap(faults.ErrReference, "map", "resolve neighbor", "unknown viewpoint in "+where, nil)
	}
	return vp, nil
}
