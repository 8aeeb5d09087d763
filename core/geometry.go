package core

import (
	"math"

	"github.com/signalsfoundry/beamscene/model"
)

// losToleranceKm keeps endpoints lying exactly on the occluding sphere
// from blocking their own line of sight.
const losToleranceKm = 1e-6

// Vec3 is an Earth-fixed vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// VecKm converts a normalised scene position back to kilometres.
func VecKm(p model.Position) Vec3 {
	return Vec3{
		X: p.X * model.EarthRadiusKm,
		Y: p.Y * model.EarthRadiusKm,
		Z: p.Z * model.EarthRadiusKm,
	}
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// HasLineOfSight reports whether the segment p1-p2 clears the Earth.
// The occluding sphere shrinks to the lower endpoint's radius so that a
// user sitting slightly below the nominal surface is not blocked by it.
func HasLineOfSight(p1, p2 Vec3) bool {
	r := math.Min(model.EarthRadiusKm, math.Min(p1.Norm(), p2.Norm())) - losToleranceKm
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		return p1.Dot(p1) > r*r
	}

	// Closest point on the segment to the Earth's centre.
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Vec3{
		X: p1.X + v.X*t,
		Y: p1.Y + v.Y*t,
		Z: p1.Z + v.Z*t,
	}
	return closest.Dot(closest) > r*r
}

// Unit returns v scaled to length one, or the zero vector for a zero v.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// ElevationDegrees returns the beam's elevation above the user's local
// horizon, in degrees: 0 at the geometric horizon, 90 straight overhead,
// negative below the horizon. Both arguments are kilometre vectors from
// VecKm; the user's zenith is its radial direction. A coincident pair or
// a user at the Earth's centre has no defined horizon and reports 90.
func ElevationDegrees(user, sat Vec3) float64 {
	beam := sat.Sub(user)
	zenith := user.Unit()
	if beam.Norm() == 0 || zenith == (Vec3{}) {
		return 90
	}
	// Clamp rounding drift before Asin.
	sin := math.Max(-1, math.Min(1, beam.Unit().Dot(zenith)))
	return math.Asin(sin) * 180 / math.Pi
}
