package core

import "github.com/signalsfoundry/beamscene/model"

// Vertex layout shared by the point and line buffers:
// position float32x3 at offset 0, colour float32x3 at offset 12.
const (
	FloatsPerVertex = 6
	VertexStride    = FloatsPerVertex * 4 // bytes
	PositionOffset  = 0
	ColorOffset     = 3 * 4 // bytes

	FloatsPerLine = 2 * FloatsPerVertex
)

// PackPoints flattens users, then satellites, then interferers into
// interleaved [x y z r g b] vertices.
func PackPoints(users, satellites, interferers []model.Point) []float32 {
	n := len(users) + len(satellites) + len(interferers)
	out := make([]float32, 0, n*FloatsPerVertex)
	for _, block := range [][]model.Point{users, satellites, interferers} {
		for _, p := range block {
			out = appendVertex(out, p.Position, p.Color)
		}
	}
	return out
}

// PackLines emits two vertices per line, start then end, both carrying
// the line colour.
func PackLines(lines []model.Line) []float32 {
	out := make([]float32, 0, len(lines)*FloatsPerLine)
	for _, l := range lines {
		out = appendVertex(out, l.Start, l.Color)
		out = appendVertex(out, l.End, l.Color)
	}
	return out
}

func appendVertex(dst []float32, pos model.Position, c model.Color) []float32 {
	return append(dst,
		float32(pos.X), float32(pos.Y), float32(pos.Z),
		c[0], c[1], c[2],
	)
}
