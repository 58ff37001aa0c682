// Package units provides shared conversions between the simulation's speed,
// distance, and angle units. Speeds are carried as km/h everywhere in the core;
// positions are metres, headings degrees.
package units

import "math"

// MetersPerSecond converts a speed in km/h to m/s.
func MetersPerSecond(kmh float64) float64 {
	return kmh / 3.6
}

// KilometersPerHour converts a speed in m/s to km/h.
func KilometersPerHour(mps float64) float64 {
	return mps * 3.6
}

// NormalizeHeading wraps a heading angle in degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// HeadingVector returns the unit direction vector for a heading in degrees,
// with 0° pointing along +X and angles increasing counter-clockwise.
func HeadingVector(deg float64) (dx, dy float64) {
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}
