// Package geometry normalizes the raw zone geometry strings served by the
// fleet API into renderable shapes. Zones arrive in one of three formats: a
// CIRCLE well-known-text variant, a POLYGON well-known-text variant, or a
// GeoJSON Polygon. All three store coordinates in (lon, lat) order, which is
// swapped to (lat, lon) on output.
package geometry

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

type Kind int

const (
	Circle Kind = iota
	Polygon
)

func (k Kind) String() string {
	switch k {
	case Circle:
		return "circle"
	case Polygon:
		return "polygon"
	}
	return "(invalid)"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Point is a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Shape is a normalized zone geometry: a circle with a center and radius, or
// a closed polygon ring.
type Shape struct {
	Kind         Kind    `json:"kind"`
	Center       Point   `json:"center,omitempty"`
	RadiusMeters float64 `json:"radiusMeters,omitempty"`
	Vertices     []Point `json:"vertices,omitempty"`
}

var circleRE = regexp.MustCompile(`^CIRCLE\s*\(\s*(-?[\d.]+)\s+(-?[\d.]+)\s*,\s*([\d.]+)\s*\)$`)

// ParseShape normalizes a raw geometry string. It returns nil on any parse
// failure: an unparseable zone is not an error, it is simply not rendered.
func ParseShape(raw string) *Shape {
	raw = strings.TrimSpace(raw)
	if shape := parseCircle(raw); shape != nil {
		return shape
	}
	if shape := parsePolygon(raw); shape != nil {
		return shape
	}
	return parseGeoJSON(raw)
}

func parseCircle(raw string) *Shape {
	match := circleRE.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	lon, err1 := strconv.ParseFloat(match[1], 64)
	lat, err2 := strconv.ParseFloat(match[2], 64)
	radius, err3 := strconv.ParseFloat(match[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	return &Shape{Kind: Circle, Center: Point{Lat: lat, Lon: lon}, RadiusMeters: radius}
}

func parsePolygon(raw string) *Shape {
	if !strings.HasPrefix(raw, "POLYGON") {
		return nil
	}
	body := strings.TrimSpace(strings.TrimPrefix(raw, "POLYGON"))
	if !strings.HasPrefix(body, "((") || !strings.HasSuffix(body, "))") {
		return nil
	}
	body = strings.TrimSuffix(strings.TrimPrefix(body, "(("), "))")

	pairs := strings.Split(body, ",")
	vertices := make([]Point, 0, len(pairs))
	for _, pair := range pairs {
		fields := strings.Fields(pair)
		if len(fields) != 2 {
			return nil
		}
		lon, err1 := strconv.ParseFloat(fields[0], 64)
		lat, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil
		}
		vertices = append(vertices, Point{Lat: lat, Lon: lon})
	}
	if len(vertices) < 3 {
		return nil
	}
	return &Shape{Kind: Polygon, Vertices: vertices}
}

func parseGeoJSON(raw string) *Shape {
	var geo struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(raw), &geo); err != nil {
		return nil
	}
	if !strings.EqualFold(geo.Type, "Polygon") || len(geo.Coordinates) == 0 {
		return nil
	}

	// only the first (outer) linear ring is rendered
	ring := geo.Coordinates[0]
	vertices := make([]Point, 0, len(ring))
	for _, pair := range ring {
		if len(pair) < 2 {
			return nil
		}
		vertices = append(vertices, Point{Lat: pair[1], Lon: pair[0]})
	}
	if len(vertices) < 3 {
		return nil
	}
	return &Shape{Kind: Polygon, Vertices: vertices}
}
