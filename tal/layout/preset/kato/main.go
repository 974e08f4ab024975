// Package kato contains preset pieces of the KATO Unitrack series of model railroad tracks,
// scaled up to the prototype.
package kato

import (
	"nyiyui.ca/hato/railroad/tal/layout"
)

// Scale is N scale as sold in Japan.
const Scale = 150

// Model lengths in millimetres.
const (
	R481 = 481.0
	R718 = 718.0
	// EP481_15S is the straight side of a EP481-15L/R switch track.
	EP481_15S = 126.0
	// S60 is commonly found in EP481 sets.
	S60 = 60.0
	// S62 is commonly found in EP481 sets.
	S62 = 62.0
	// S62F is the common feeeder track (product #20-041)
	S62F = S62
	S64  = 64.0
	S124 = 124.0
	S248 = 248.0
)

// Straight is a straight piece of the given model length.
func Straight(mm float64) layout.Track {
	return layout.Straight{Length: mm * Scale / 1000}
}

// Curve is a curved piece of the given model radius; positive degrees turn left.
func Curve(radiusMM, degrees float64) layout.Track {
	return layout.Curved{Radius: radiusMM * Scale / 1000, Sweep: layout.Degrees(degrees)}
}
