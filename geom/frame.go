// Package geom places track-relative positions in a flat 2-D world.
//
// Coordinates are in metres, angles in radians (counter-clockwise positive).
package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Frame is a point plus the direction its x axis faces.
type Frame struct {
	Origin  orb.Point
	Heading float64
}

// AtPoint returns a frame at (x, y) facing the positive x axis.
func AtPoint(x, y float64) Frame {
	return Frame{Origin: orb.Point{x, y}}
}

func (f Frame) String() string {
	return fmt.Sprintf("(%.3f,%.3f)∠%.2f°", f.Origin.X(), f.Origin.Y(), f.Heading*180/math.Pi)
}

// local converts a point given in this frame's coordinates into world coordinates.
func (f Frame) local(x, y float64) orb.Point {
	sin, cos := math.Sincos(f.Heading)
	return orb.Point{
		f.Origin.X() + x*cos - y*sin,
		f.Origin.Y() + x*sin + y*cos,
	}
}

// Translate moves the frame d metres along its heading.
func (f Frame) Translate(d float64) Frame {
	return Frame{Origin: f.local(d, 0), Heading: f.Heading}
}

// Rotate turns the frame in place.
func (f Frame) Rotate(angle float64) Frame {
	return Frame{Origin: f.Origin, Heading: normalizeAngle(f.Heading + angle)}
}

// Arc moves the frame along a circular arc of the given radius that starts tangent to the
// heading and turns by sweep (positive = left). The resulting frame is tangent to the arc.
func (f Frame) Arc(radius, sweep float64) Frame {
	r := math.Abs(radius)
	x := r * math.Sin(math.Abs(sweep))
	y := r * (1 - math.Cos(sweep))
	if sweep < 0 {
		y = -y
	}
	return Frame{Origin: f.local(x, y), Heading: normalizeAngle(f.Heading + sweep)}
}

// Distance is the Euclidean distance between two frames' origins.
func Distance(a, b Frame) float64 {
	return planar.Distance(a.Origin, b.Origin)
}

// HeadingDiff is the absolute difference between two headings, in [0, π].
func HeadingDiff(a, b Frame) float64 {
	return math.Abs(normalizeAngle(a.Heading - b.Heading))
}

// normalizeAngle wraps a into (-π, π].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Bound returns the smallest axis-aligned box holding every frame's origin.
// The box always contains the world origin, matching how layouts are drawn.
func Bound(frames []Frame) orb.Bound {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}
	for _, f := range frames {
		b = b.Extend(f.Origin)
	}
	return b
}
