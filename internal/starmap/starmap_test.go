package starmap

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papaburgs/spacegui/internal/types"
)

const eps = 1e-9

func TestWorldScreenRoundTrip(t *testing.T) {
	v := Viewport{CenterX: 10, CenterY: -20, Zoom: 2.5, Width: 800, Height: 600}

	sx, sy := v.WorldToScreen(10, -20)
	assert.InDelta(t, 400, sx, eps)
	assert.InDelta(t, 300, sy, eps)

	for _, p := range []Point{{0, 0}, {-133, 47}, {512.5, -9}} {
		sx, sy := v.WorldToScreen(p.X, p.Y)
		x, y := v.ScreenToWorld(sx, sy)
		assert.InDelta(t, p.X, x, eps)
		assert.InDelta(t, p.Y, y, eps)
	}

	// world y up is screen y down
	_, upper := v.WorldToScreen(10, 0)
	assert.Less(t, upper, 300.0)
}

func TestPan(t *testing.T) {
	v := Viewport{Zoom: 2, Width: 100, Height: 100}
	before, _ := v.WorldToScreen(5, 5)
	p := v.Pan(20, 0)
	after, _ := p.WorldToScreen(5, 5)
	assert.InDelta(t, before+20, after, eps, "dragging right moves content right")
	assert.InDelta(t, -10, p.CenterX, eps)
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	v := Viewport{CenterX: 3, CenterY: 4, Zoom: 1, Width: 640, Height: 480}
	wx, wy := v.ScreenToWorld(100, 50)

	z := v.ZoomAt(3, 100, 50)
	assert.InDelta(t, 3, z.Zoom, eps)
	ax, ay := z.ScreenToWorld(100, 50)
	assert.InDelta(t, wx, ax, 1e-6)
	assert.InDelta(t, wy, ay, 1e-6)
}

func TestZoomClamped(t *testing.T) {
	v := NewViewport(100, 100)
	assert.Equal(t, MaxZoom, v.ZoomAt(1000, 50, 50).Zoom)
	assert.Equal(t, MinZoom, v.ZoomAt(0.00001, 50, 50).Zoom)
}

func TestFit(t *testing.T) {
	v := NewViewport(200, 100).Fit([]Point{{-50, -10}, {50, 10}}, 0)
	assert.InDelta(t, 0, v.CenterX, eps)
	assert.InDelta(t, 0, v.CenterY, eps)
	// x span 100 over 200px, y span 20 over 100px: x is the tighter fit
	assert.InDelta(t, 2, v.Zoom, eps)

	for _, p := range []Point{{-50, -10}, {50, 10}} {
		sx, sy := v.WorldToScreen(p.X, p.Y)
		assert.True(t, v.Visible(sx, sy, 0.001))
	}

	single := NewViewport(200, 100).Fit([]Point{{7, 7}}, 10)
	assert.Equal(t, 1.0, single.Zoom)
	assert.Equal(t, 7.0, single.CenterX)

	empty := NewViewport(200, 100).Fit(nil, 10)
	assert.Equal(t, 1.0, empty.Zoom)
}

func TestQueryRoundTrip(t *testing.T) {
	v := Viewport{CenterX: 12.5, CenterY: -3.25, Zoom: 1.5, Width: 10, Height: 10}
	got, ok := FromQuery(NewViewport(10, 10), v.Query())
	require.True(t, ok)
	assert.InDelta(t, v.CenterX, got.CenterX, 0.01)
	assert.InDelta(t, v.CenterY, got.CenterY, 0.01)
	assert.InDelta(t, v.Zoom, got.Zoom, 0.0001)

	_, ok = FromQuery(NewViewport(10, 10), nil)
	assert.False(t, ok)
}

func TestFromQueryIgnoresNonFinite(t *testing.T) {
	base := Viewport{CenterX: 4, CenterY: -2, Zoom: 2, Width: 10, Height: 10}
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "1e400"} {
		t.Run(raw, func(t *testing.T) {
			got, ok := FromQuery(base, url.Values{"cx": {raw}, "cy": {raw}, "z": {raw}})
			assert.False(t, ok)
			assert.Equal(t, base, got)
		})
	}

	got, ok := FromQuery(base, url.Values{"cx": {"NaN"}, "cy": {"7"}, "z": {"-Inf"}})
	require.True(t, ok)
	assert.Equal(t, 4.0, got.CenterX)
	assert.Equal(t, 7.0, got.CenterY)
	assert.Equal(t, 2.0, got.Zoom)
}

func TestLayoutAndNearest(t *testing.T) {
	wps := []types.Waypoint{
		{Symbol: "X1-A1", Type: "PLANET", X: 0, Y: 0},
		{Symbol: "X1-A2", Type: "MOON", X: 0, Y: 0},
		{Symbol: "X1-B1", Type: "JUMP_GATE", X: 40, Y: 0},
		{Symbol: "X1-FAR", Type: "ASTEROID", X: 5000, Y: 5000},
	}
	v := Viewport{Zoom: 1, Width: 200, Height: 200}

	ms := Layout(v, wps, "X1-B1")
	require.Len(t, ms, 3, "far asteroid is culled")
	assert.Equal(t, "X1-A1", ms[0].Waypoint.Symbol, "largest drawn first")
	for _, m := range ms {
		assert.Equal(t, m.Waypoint.Symbol == "X1-B1", m.Here)
	}

	w, ok := Nearest(v, wps, 138, 101, 6)
	require.True(t, ok)
	assert.Equal(t, "X1-B1", w.Symbol)

	_, ok = Nearest(v, wps, 170, 170, 6)
	assert.False(t, ok)
}
