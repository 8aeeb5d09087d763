package model

// EarthRadiusKm scales raw kilometre coordinates to Earth radii.
const EarthRadiusKm = 6378.0

// Kind identifies which entity a position record describes.
type Kind int

const (
	KindUser Kind = iota
	KindSatellite
	KindInterferer
)

// Kinds lists every entity kind in draw order.
var Kinds = []Kind{KindUser, KindSatellite, KindInterferer}

// Tag returns the line prefix that introduces records of this kind.
func (k Kind) Tag() string {
	switch k {
	case KindUser:
		return "user"
	case KindSatellite:
		return "sat"
	case KindInterferer:
		return "interferer"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "USER"
	case KindSatellite:
		return "SATELLITE"
	case KindInterferer:
		return "INTERFERER"
	default:
		return "UNKNOWN"
	}
}
