package render

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/signalsfoundry/beamscene/camera"
)

// Float32Bytes returns the little-endian byte image of v, the layout GPU
// buffers expect.
func Float32Bytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

// BytesToFloat32 decodes a little-endian float32 buffer.
func BytesToFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}

// WriteVertices writes v to w as little-endian float32.
func WriteVertices(w io.Writer, v []float32) error {
	if _, err := w.Write(Float32Bytes(v)); err != nil {
		return fmt.Errorf("write vertices: %w", err)
	}
	return nil
}

// UniformBytes is the upload image of the camera matrix.
func UniformBytes(m camera.Mat4) []byte {
	return Float32Bytes(m[:])
}
