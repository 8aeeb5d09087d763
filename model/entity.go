package model

// Color is a linear RGB triple as uploaded to the GPU.
type Color [3]float32

// Display palette.
var (
	ColorUserDefault = Color{1, 0, 0}
	ColorUserServed  = Color{0, 1, 0} // user referenced by at least one beam
	ColorSatellite   = Color{0, 1, 1}
	ColorInterferer  = Color{1, 0.5, 0}
	ColorBeam        = Color{1, 1, 1}
)

// DefaultColor returns the colour an entity of kind k is created with.
func DefaultColor(k Kind) Color {
	switch k {
	case KindSatellite:
		return ColorSatellite
	case KindInterferer:
		return ColorInterferer
	default:
		return ColorUserDefault
	}
}

// Position is a point in Earth radii (raw kilometres / EarthRadiusKm).
type Position struct {
	X float64
	Y float64
	Z float64
}

// PositionFromKm normalises a kilometre triple.
func PositionFromKm(x, y, z int64) Position {
	return Position{
		X: float64(x) / EarthRadiusKm,
		Y: float64(y) / EarthRadiusKm,
		Z: float64(z) / EarthRadiusKm,
	}
}

// Point is one user, satellite or interferer.
type Point struct {
	Kind     Kind
	ID       string // free-form identifier from the record, diagnostics only
	Position Position
	Color    Color
}

// Line is a beam drawn from a user to the satellite serving it. User and
// Satellite are the 0-based indices the beam record resolved to.
type Line struct {
	Start Position
	End   Position
	Color Color

	User      int
	Satellite int
}
