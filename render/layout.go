// Package render describes how a WebGPU renderer consumes a scene: the
// vertex layout shared by both buffers, the two fixed pipelines and the
// uniform that carries the camera matrix. Device and surface setup live
// with the renderer.
package render

import (
	_ "embed"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/signalsfoundry/beamscene/core"
)

// UniformSize is the byte size of the view-projection uniform (mat4x4<f32>).
const UniformSize = 16 * 4

// Shader holds the WGSL source for both pipelines: vs_main reads
// location 0 (position) and 1 (colour), fs_main outputs the colour.
//
//go:embed scene.wgsl
var Shader string

// Entry points of Shader, shared by the point and the line pipeline.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// VertexLayout is the layout of both the point and the line buffer.
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: core.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{
				ShaderLocation: 0,
				Offset:         core.PositionOffset,
				Format:         wgpu.VertexFormatFloat32x3,
			},
			{
				ShaderLocation: 1,
				Offset:         core.ColorOffset,
				Format:         wgpu.VertexFormatFloat32x3,
			},
		},
	}
}

// VertexBufferUsage is the usage for both vertex buffers; they are
// written once after the scene loads.
const VertexBufferUsage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst

// UniformBufferUsage is the usage for the per-frame camera uniform.
const UniformBufferUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst

// Pipeline is one of the two fixed draws.
type Pipeline struct {
	Name         string
	Topology     wgpu.PrimitiveTopology
	TopologyName string // WebGPU JS spelling, for browser renderers
	Vertices     []float32
	VertexCount  uint32
}

// Pipelines returns the point draw then the line draw for scene. Empty
// buffers yield a zero vertex count; a renderer should skip those draws.
func Pipelines(scene *core.Scene) []Pipeline {
	if scene == nil {
		scene = &core.Scene{}
	}
	return []Pipeline{
		{
			Name:         "points",
			Topology:     wgpu.PrimitiveTopologyPointList,
			TopologyName: "point-list",
			Vertices:     scene.PointVertices,
			VertexCount:  uint32(scene.PointCount()),
		},
		{
			Name:         "lines",
			Topology:     wgpu.PrimitiveTopologyLineList,
			TopologyName: "line-list",
			Vertices:     scene.LineVertices,
			VertexCount:  uint32(scene.LineVertexCount()),
		},
	}
}
