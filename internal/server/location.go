package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/EliCDavis/vector/vector3"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// Location is a resolved viewer focus target.
type Location struct {
	// Kind is "face", "vertex" or "point".
	Kind     string
	Index    int
	Position vector3.Float64
}

// ResolveLocation parses a viewer query string and resolves it against
// a mesh. Accepted forms: "face 12", "f12", "vertex 7", "v7", and
// "x,y,z" coordinates (resolved to the nearest surface point).
func ResolveLocation(m *geom.Mesh, query string) (Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Location{}, fmt.Errorf("query is required")
	}

	if kind, index, ok := parseElementQuery(query); ok {
		switch kind {
		case "face":
			if index < 0 || index >= m.FaceCount() {
				return Location{}, fmt.Errorf("face %d out of range (mesh has %d faces)", index, m.FaceCount())
			}
			return Location{Kind: "face", Index: index, Position: m.FaceCentroid(index)}, nil
		case "vertex":
			if index < 0 || index >= m.VertexCount() {
				return Location{}, fmt.Errorf("vertex %d out of range (mesh has %d vertices)", index, m.VertexCount())
			}
			return Location{Kind: "vertex", Index: index, Position: m.Vertices[index]}, nil
		}
	}

	if point, ok := parseCoordinateQuery(query); ok {
		if m.FaceCount() == 0 {
			// No surface to snap to; focus the raw point.
			return Location{Kind: "point", Position: point}, nil
		}
		nearest, _ := m.NearestOnSurface([]vector3.Float64{point})
		return Location{Kind: "point", Position: nearest[0]}, nil
	}

	return Location{}, fmt.Errorf("cannot parse location query %q (want \"face <i>\", \"f<i>\", \"vertex <i>\", \"v<i>\" or \"x,y,z\")", query)
}

// parseElementQuery recognizes "face 12", "f12", "f 12", "vertex 7",
// "v7" and "v 7", case-insensitive.
func parseElementQuery(query string) (kind string, index int, ok bool) {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return "", 0, false
	}

	word := fields[0]
	rest := ""
	if len(fields) == 2 {
		rest = fields[1]
	} else if len(fields) > 2 {
		return "", 0, false
	}

	switch {
	case word == "face" || word == "f":
		kind = "face"
	case word == "vertex" || word == "v":
		kind = "vertex"
	case strings.HasPrefix(word, "f") && rest == "":
		kind, rest = "face", word[1:]
	case strings.HasPrefix(word, "v") && rest == "":
		kind, rest = "vertex", word[1:]
	default:
		return "", 0, false
	}

	if rest == "" {
		return "", 0, false
	}

	index, err := strconv.Atoi(rest)
	if err != nil {
		return "", 0, false
	}
	return kind, index, true
}

// parseCoordinateQuery recognizes "x,y,z" with optional spaces.
func parseCoordinateQuery(query string) (vector3.Float64, bool) {
	parts := strings.Split(query, ",")
	if len(parts) != 3 {
		return vector3.Zero[float64](), false
	}

	var coords [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return vector3.Zero[float64](), false
		}
		coords[i] = v
	}
	return vector3.New(coords[0], coords[1], coords[2]), true
}
