// Package starmap lays out a system's waypoints on a pannable, zoomable canvas.
package starmap

import (
	"math"
	"net/url"
	"strconv"
)

const (
	MinZoom = 0.05
	MaxZoom = 40.0
)

// Viewport maps world coordinates onto a Width x Height canvas. The world
// point (CenterX, CenterY) sits in the middle of the canvas and one world
// unit is Zoom pixels. Screen y grows downwards, world y grows upwards.
type Viewport struct {
	CenterX float64
	CenterY float64
	Zoom    float64
	Width   float64
	Height  float64
}

func NewViewport(width, height float64) Viewport {
	return Viewport{Zoom: 1, Width: width, Height: height}
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return 1
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

func (v Viewport) WorldToScreen(x, y float64) (float64, float64) {
	sx := (x-v.CenterX)*v.Zoom + v.Width/2
	sy := v.Height/2 - (y-v.CenterY)*v.Zoom
	return sx, sy
}

func (v Viewport) ScreenToWorld(sx, sy float64) (float64, float64) {
	x := (sx-v.Width/2)/v.Zoom + v.CenterX
	y := (v.Height/2-sy)/v.Zoom + v.CenterY
	return x, y
}

// Pan moves the view by a screen-pixel drag. Dragging right moves the
// content right, so the centre moves left in world terms.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.CenterX -= dx / v.Zoom
	v.CenterY += dy / v.Zoom
	return v
}

// ZoomAt scales by factor while keeping the world point under (sx, sy) fixed.
func (v Viewport) ZoomAt(factor, sx, sy float64) Viewport {
	wx, wy := v.ScreenToWorld(sx, sy)
	v.Zoom = clampZoom(v.Zoom * factor)
	// solve for the centre that puts (wx, wy) back under the cursor
	v.CenterX = wx - (sx-v.Width/2)/v.Zoom
	v.CenterY = wy - (v.Height/2-sy)/v.Zoom
	return v
}

type Point struct {
	X, Y float64
}

// Fit centres on the points and picks the largest zoom that shows them all
// with padding pixels to spare on each side.
func (v Viewport) Fit(points []Point, padding float64) Viewport {
	if len(points) == 0 {
		v.CenterX, v.CenterY, v.Zoom = 0, 0, 1
		return v
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	v.CenterX = (minX + maxX) / 2
	v.CenterY = (minY + maxY) / 2

	usableW := math.Max(v.Width-2*padding, 1)
	usableH := math.Max(v.Height-2*padding, 1)
	spanX, spanY := maxX-minX, maxY-minY
	switch {
	case spanX == 0 && spanY == 0:
		v.Zoom = 1
	case spanX == 0:
		v.Zoom = usableH / spanY
	case spanY == 0:
		v.Zoom = usableW / spanX
	default:
		v.Zoom = math.Min(usableW/spanX, usableH/spanY)
	}
	v.Zoom = clampZoom(v.Zoom)
	return v
}

// Visible reports whether the screen point lies on the canvas, with margin
// pixels of slack.
func (v Viewport) Visible(sx, sy, margin float64) bool {
	return sx >= -margin && sx <= v.Width+margin && sy >= -margin && sy <= v.Height+margin
}

// Query encodes the viewport for pan and zoom links.
func (v Viewport) Query() url.Values {
	q := url.Values{}
	q.Set("cx", strconv.FormatFloat(v.CenterX, 'f', 2, 64))
	q.Set("cy", strconv.FormatFloat(v.CenterY, 'f', 2, 64))
	q.Set("z", strconv.FormatFloat(v.Zoom, 'f', 4, 64))
	return q
}

// FromQuery reads cx, cy and z over v. ok is false when none were present.
// Values that are not finite are ignored.
func FromQuery(v Viewport, q url.Values) (Viewport, bool) {
	found := false
	if f, ok := parseFinite(q.Get("cx")); ok {
		v.CenterX, found = f, true
	}
	if f, ok := parseFinite(q.Get("cy")); ok {
		v.CenterY, found = f, true
	}
	if f, ok := parseFinite(q.Get("z")); ok {
		v.Zoom, found = clampZoom(f), true
	}
	return v, found
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
