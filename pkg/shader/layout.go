package shader

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/chazu/shadegraph/pkg/shader/ast"
)

// Layout describes the GPU resources a program expects: one bind group at
// group 0 and one interleaved vertex buffer.
type Layout struct {
	BindGroup    []gputypes.BindGroupLayoutEntry
	VertexBuffer gputypes.VertexBufferLayout
}

// Layout returns the bind group and vertex buffer layout matching the
// program's bindings. Attributes are packed in location order.
func (p *Program) Layout() (Layout, error) {
	var l Layout
	for _, b := range p.Bindings {
		switch b.Kind {
		case BindUniform:
			e := entry(b.Slot, b.Stages)
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
			l.BindGroup = append(l.BindGroup, e)
		case BindTexture:
			tex := entry(b.Slot, b.Stages)
			tex.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
			smp := entry(b.Slot+1, b.Stages)
			smp.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
			l.BindGroup = append(l.BindGroup, tex, smp)
		}
	}

	l.VertexBuffer.StepMode = gputypes.VertexStepModeVertex
	offset := 0
	for _, b := range ofKind(p.Bindings, BindAttribute) {
		format, err := vertexFormat(b.Type)
		if err != nil {
			return Layout{}, fmt.Errorf("attribute %s: %w", b.Name, err)
		}
		a := gputypes.VertexAttribute{Format: format}
		setUint(&a.Offset, offset)
		setUint(&a.ShaderLocation, b.Location)
		l.VertexBuffer.Attributes = append(l.VertexBuffer.Attributes, a)
		offset += 4 * b.Type.Components()
	}
	setUint(&l.VertexBuffer.ArrayStride, offset)
	return l, nil
}

func entry(slot int, stages Stage) gputypes.BindGroupLayoutEntry {
	var e gputypes.BindGroupLayoutEntry
	setUint(&e.Binding, slot)
	if stages&StageVertex != 0 {
		e.Visibility |= gputypes.ShaderStageVertex
	}
	if stages&StageFragment != 0 {
		e.Visibility |= gputypes.ShaderStageFragment
	}
	return e
}

func vertexFormat(t ast.VarType) (gputypes.VertexFormat, error) {
	switch t {
	case ast.Float:
		return gputypes.VertexFormatFloat32, nil
	case ast.Vec2:
		return gputypes.VertexFormatFloat32x2, nil
	case ast.Vec3:
		return gputypes.VertexFormatFloat32x3, nil
	case ast.Vec4:
		return gputypes.VertexFormatFloat32x4, nil
	}
	var none gputypes.VertexFormat
	return none, fmt.Errorf("%s has no vertex format", t)
}

// setUint stores a non-negative int into the GPU struct field dst.
func setUint[T ~uint32 | ~uint64](dst *T, v int) { *dst = T(v) }
