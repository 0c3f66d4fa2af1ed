package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShape_Circle(t *testing.T) {
	shape := ParseShape("CIRCLE(-58.38 -34.60, 500)")
	require.NotNil(t, shape)
	assert.Equal(t, Circle, shape.Kind)
	assert.Equal(t, Point{Lat: -34.60, Lon: -58.38}, shape.Center)
	assert.Equal(t, 500.0, shape.RadiusMeters)

	shape = ParseShape("CIRCLE( 2.17 41.38 , 1200.5 )")
	require.NotNil(t, shape)
	assert.Equal(t, Point{Lat: 41.38, Lon: 2.17}, shape.Center)
	assert.Equal(t, 1200.5, shape.RadiusMeters)
}

func TestParseShape_Polygon(t *testing.T) {
	shape := ParseShape("POLYGON((-58.38 -34.60, -58.37 -34.60, -58.37 -34.61, -58.38 -34.60))")
	require.NotNil(t, shape)
	assert.Equal(t, Polygon, shape.Kind)
	require.Len(t, shape.Vertices, 4)
	assert.Equal(t, Point{Lat: -34.60, Lon: -58.38}, shape.Vertices[0])
	assert.Equal(t, Point{Lat: -34.61, Lon: -58.37}, shape.Vertices[2])
}

func TestParseShape_GeoJSON(t *testing.T) {
	raw := `{"type":"Polygon","coordinates":[[[-58.38,-34.60],[-58.37,-34.60],[-58.37,-34.61],[-58.38,-34.60]]]}`
	shape := ParseShape(raw)
	require.NotNil(t, shape)
	assert.Equal(t, Polygon, shape.Kind)
	require.Len(t, shape.Vertices, 4)
	assert.Equal(t, Point{Lat: -34.60, Lon: -58.38}, shape.Vertices[0])

	// only the outer ring is used
	raw = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]],[[0.2,0.2],[0.8,0.2],[0.8,0.8],[0.2,0.2]]]}`
	shape = ParseShape(raw)
	require.NotNil(t, shape)
	assert.Len(t, shape.Vertices, 4)
}

func TestParseShape_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-shape"},
		{name: "circle with bad radius", raw: "CIRCLE(-58.38 -34.60, five hundred)"},
		{name: "polygon with odd coordinates", raw: "POLYGON((-58.38, -58.37 -34.60, -58.37 -34.61))"},
		{name: "polygon with too few vertices", raw: "POLYGON((-58.38 -34.60, -58.37 -34.60))"},
		{name: "geojson wrong type", raw: `{"type":"Point","coordinates":[1,2]}`},
		{name: "geojson empty rings", raw: `{"type":"Polygon","coordinates":[]}`},
		{name: "truncated json", raw: `{"type":"Polygon","coordinates":[[[1,2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseShape(tt.raw))
		})
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	shape := c.Get("z1", "CIRCLE(-58.38 -34.60, 500)")
	require.NotNil(t, shape)
	assert.Equal(t, 1, c.Len())

	// cache hit returns the same parse
	assert.Same(t, shape, c.Get("z1", "CIRCLE(-58.38 -34.60, 500)"))

	// changed geometry is re-parsed
	updated := c.Get("z1", "CIRCLE(-58.38 -34.60, 750)")
	require.NotNil(t, updated)
	assert.Equal(t, 750.0, updated.RadiusMeters)
	assert.Equal(t, 1, c.Len())

	// failures are cached too
	assert.Nil(t, c.Get("z2", "not-a-shape"))
	assert.Nil(t, c.Get("z2", "not-a-shape"))
	assert.Equal(t, 2, c.Len())
}
