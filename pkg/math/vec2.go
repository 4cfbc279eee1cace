// Package math provides the vector, quaternion and matrix types used when
// converting scene transforms into XML3D attribute data.
package math

import "math"

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Length returns the magnitude.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Round rounds every component to the given number of decimal places.
func (v Vec2) Round(places int) Vec2 {
	return Vec2{Round(v.X, places), Round(v.Y, places)}
}

// Slice returns the components in order.
func (v Vec2) Slice() []float64 {
	return []float64{v.X, v.Y}
}
