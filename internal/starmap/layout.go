package starmap

import (
	"math"
	"sort"

	"github.com/papaburgs/spacegui/internal/types"
)

// Marker is a waypoint placed on the canvas.
type Marker struct {
	Waypoint types.Waypoint
	X, Y     float64
	Radius   float64
	// Here marks the waypoint the selected ship is at.
	Here bool
}

var radiusByType = map[string]float64{
	"PLANET":                  9,
	"GAS_GIANT":               11,
	"MOON":                    5,
	"ORBITAL_STATION":         5,
	"JUMP_GATE":               7,
	"ASTEROID_FIELD":          6,
	"ASTEROID":                3,
	"ENGINEERED_ASTEROID":     4,
	"ASTEROID_BASE":           4,
	"NEBULA":                  8,
	"DEBRIS_FIELD":            5,
	"GRAVITY_WELL":            8,
	"ARTIFICIAL_GRAVITY_WELL": 8,
	"FUEL_STATION":            4,
}

func markerRadius(kind string) float64 {
	if r, ok := radiusByType[kind]; ok {
		return r
	}
	return 4
}

// Points are the world positions of the waypoints, for Fit.
func Points(wps []types.Waypoint) []Point {
	pts := make([]Point, len(wps))
	for i, w := range wps {
		pts[i] = Point{X: float64(w.X), Y: float64(w.Y)}
	}
	return pts
}

// Layout places the waypoints visible in v. Orbitals share their parent's
// coordinates, so markers are ordered largest first to keep small ones on top.
func Layout(v Viewport, wps []types.Waypoint, here string) []Marker {
	markers := make([]Marker, 0, len(wps))
	for _, w := range wps {
		sx, sy := v.WorldToScreen(float64(w.X), float64(w.Y))
		r := markerRadius(w.Type)
		if !v.Visible(sx, sy, r) {
			continue
		}
		markers = append(markers, Marker{Waypoint: w, X: sx, Y: sy, Radius: r, Here: w.Symbol == here})
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Radius > markers[j].Radius
	})
	return markers
}

// Nearest finds the waypoint closest to a click at (sx, sy), within radius
// pixels. ok is false when nothing is close enough.
func Nearest(v Viewport, wps []types.Waypoint, sx, sy, radius float64) (types.Waypoint, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, w := range wps {
		wx, wy := v.WorldToScreen(float64(w.X), float64(w.Y))
		d := math.Hypot(wx-sx, wy-sy)
		if d <= radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return types.Waypoint{}, false
	}
	return wps[best], true
}
