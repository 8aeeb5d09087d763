package camera

import (
	"time"

	"github.com/chewxy/math32"
)

// Orbit is a camera that tilts the scene so the z axis points up, spins
// it about z at a constant rate and looks at it from a fixed offset.
type Orbit struct {
	FovY         float32 // radians
	Near, Far    float32
	Tilt         float32 // rotation about x, radians
	AngularSpeed float32 // rotation about z, radians per second
	Offset       Vec3    // applied after the rotations
}

// DefaultOrbit is the browser viewer's camera: 90° field of view, depth
// range 0.1 to 1000, a quarter-turn tilt, half a radian per second and
// an offset of (-2, -2, 0) Earth radii.
func DefaultOrbit() Orbit {
	return Orbit{
		FovY:         math32.Pi / 2,
		Near:         0.1,
		Far:          1000,
		Tilt:         math32.Pi / 2,
		AngularSpeed: 0.5,
		Offset:       Vec3{X: -2, Y: -2, Z: 0},
	}
}

// Angle returns the spin about z after elapsed animation time.
func (o Orbit) Angle(elapsed time.Duration) float32 {
	return float32(elapsed.Seconds()) * o.AngularSpeed
}

// View returns rotX(tilt) * rotZ(angle) * translate(offset).
func (o Orbit) View(elapsed time.Duration) Mat4 {
	return Identity().
		Rotate(o.Tilt, Vec3{X: 1}).
		Rotate(o.Angle(elapsed), Vec3{Z: 1}).
		Translate(o.Offset)
}

// Projection returns the perspective matrix for a canvas of the given
// aspect ratio. The absolute value is used; zero or non-finite aspect
// falls back to 1.
func (o Orbit) Projection(aspect float32) Mat4 {
	aspect = math32.Abs(aspect)
	if aspect == 0 || math32.IsInf(aspect, 0) || math32.IsNaN(aspect) {
		aspect = 1
	}
	return Perspective(o.FovY, aspect, o.Near, o.Far)
}

// ViewProjection is the per-frame uniform: Projection * View.
func (o Orbit) ViewProjection(elapsed time.Duration, aspect float32) Mat4 {
	return o.Projection(aspect).Mul(o.View(elapsed))
}

// AspectRatio returns width/height for a canvas, 1 when height is zero.
func AspectRatio(width, height int) float32 {
	if height == 0 {
		return 1
	}
	return math32.Abs(float32(width) / float32(height))
}
