package core

import (
	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/beamscene/model"
)

// Geodetic returns latitude and longitude in degrees and altitude in km
// above the WGS84 ellipsoid. Positions are Earth-fixed, so GMST is zero.
func Geodetic(p model.Position) (latDeg, lonDeg, altKm float64) {
	v := VecKm(p)
	if v.Norm() == 0 {
		return 0, 0, 0
	}
	alt, _, ll := satellite.ECIToLLA(satellite.Vector3{X: v.X, Y: v.Y, Z: v.Z}, 0)
	deg := satellite.LatLongDeg(ll)
	return deg.Latitude, deg.Longitude, alt
}

// BeamReport describes the geometry of one beam. Indices are 0-based into
// Scene.Satellites and Scene.Users.
type BeamReport struct {
	Index          int     `json:"index"`
	SatelliteIndex int     `json:"satellite_index"`
	UserIndex      int     `json:"user_index"`
	SlantRangeKm   float64 `json:"slant_range_km"`
	ElevationDeg   float64 `json:"elevation_deg"`
	LineOfSight    bool    `json:"line_of_sight"`
}

// EntityReport gives the geodetic location of one point.
type EntityReport struct {
	Kind   string  `json:"kind"`
	ID     string  `json:"id"`
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	AltKm  float64 `json:"alt_km"`
}

// RangeStats aggregates beam slant ranges.
type RangeStats struct {
	MinKm  float64 `json:"min_km"`
	MaxKm  float64 `json:"max_km"`
	MeanKm float64 `json:"mean_km"`
}

// Summary is a diagnostic view of a loaded scene.
type Summary struct {
	Users       int            `json:"users"`
	ServedUsers int            `json:"served_users"`
	Satellites  int            `json:"satellites"`
	Interferers int            `json:"interferers"`
	Beams       []BeamReport   `json:"beams"`
	Ranges      RangeStats     `json:"ranges"`
	Entities    []EntityReport `json:"entities,omitempty"`
}

// Obstructed returns the beams whose satellite is below the user's horizon
// or hidden behind the Earth.
func (s Summary) Obstructed() []BeamReport {
	var out []BeamReport
	for _, b := range s.Beams {
		if !b.LineOfSight || b.ElevationDeg < 0 {
			out = append(out, b)
		}
	}
	return out
}

// Summarize computes per-beam geometry and range statistics. When
// withEntities is set every point also gets a geodetic report.
func Summarize(scene *Scene, withEntities bool) Summary {
	if scene == nil {
		return Summary{}
	}
	stats := scene.Stats()
	sum := Summary{
		Users:       stats.Users,
		ServedUsers: stats.ServedUsers,
		Satellites:  stats.Satellites,
		Interferers: stats.Interferers,
		Beams:       make([]BeamReport, 0, len(scene.Lines)),
	}

	ranges := make([]float64, 0, len(scene.Lines))
	for i, l := range scene.Lines {
		user, sat := VecKm(l.Start), VecKm(l.End)
		rng := user.DistanceTo(sat)
		ranges = append(ranges, rng)
		sum.Beams = append(sum.Beams, BeamReport{
			Index:          i,
			SatelliteIndex: l.Satellite,
			UserIndex:      l.User,
			SlantRangeKm:   rng,
			ElevationDeg:   ElevationDegrees(user, sat),
			LineOfSight:    HasLineOfSight(user, sat),
		})
	}
	if len(ranges) > 0 {
		sum.Ranges = RangeStats{
			MinKm:  floats.Min(ranges),
			MaxKm:  floats.Max(ranges),
			MeanKm: stat.Mean(ranges, nil),
		}
	}

	if withEntities {
		for _, block := range [][]model.Point{scene.Users, scene.Satellites, scene.Interferers} {
			for _, p := range block {
				lat, lon, alt := Geodetic(p.Position)
				sum.Entities = append(sum.Entities, EntityReport{
					Kind:   p.Kind.String(),
					ID:     p.ID,
					LatDeg: lat,
					LonDeg: lon,
					AltKm:  alt,
				})
			}
		}
	}
	return sum
}
