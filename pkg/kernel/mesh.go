package kernel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/shadegraph/pkg/shader"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: positions and normals have 3 floats per vertex,
// uvs 2 floats per vertex, indices 3 uint32s per triangle.
type Mesh struct {
	Positions []float32 `json:"positions"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32 `json:"normals"`   // [nx0,ny0,nz0, ...]
	UVs       []float32 `json:"uvs"`       // [u0,v0, u1,v1, ...]
	Indices   []uint32  `json:"indices"`   // [i0,i1,i2, ...] triangles
	Name      string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Bounds returns the axis-aligned bounds of the positions.
func (m *Mesh) Bounds() (min, max [3]float32) {
	if m.IsEmpty() {
		return min, max
	}
	for i := range 3 {
		min[i], max[i] = m.Positions[i], m.Positions[i]
	}
	for v := 1; v < m.VertexCount(); v++ {
		for i := range 3 {
			p := m.Positions[v*3+i]
			min[i] = float32(math.Min(float64(min[i]), float64(p)))
			max[i] = float32(math.Max(float64(max[i]), float64(p)))
		}
	}
	return min, max
}

// ProjectUVs assigns spherical texture coordinates around the centre of the
// mesh bounds, replacing any existing uvs.
func (m *Mesh) ProjectUVs() {
	lo, hi := m.Bounds()
	var c [3]float64
	for i := range 3 {
		c[i] = float64(lo[i]+hi[i]) / 2
	}
	m.UVs = make([]float32, 0, m.VertexCount()*2)
	for v := range m.VertexCount() {
		x := float64(m.Positions[v*3]) - c[0]
		y := float64(m.Positions[v*3+1]) - c[1]
		z := float64(m.Positions[v*3+2]) - c[2]
		r := math.Sqrt(x*x + y*y + z*z)
		u, w := 0.5, 0.5
		if r > 0 {
			u = 0.5 + math.Atan2(z, x)/(2*math.Pi)
			w = 0.5 - math.Asin(y/r)/math.Pi
		}
		m.UVs = append(m.UVs, float32(u), float32(w))
	}
}

// attribute returns the per-vertex data feeding the named attribute and its
// component count.
func (m *Mesh) attribute(name string) ([]float32, int, error) {
	switch name {
	case shader.AttrPosition:
		return m.Positions, 3, nil
	case shader.AttrNormal:
		return m.Normals, 3, nil
	case shader.AttrUV:
		if len(m.UVs) == 0 {
			return nil, 0, fmt.Errorf("mesh %s has no uvs", m.Name)
		}
		return m.UVs, 2, nil
	}
	return nil, 0, fmt.Errorf("mesh has no data for attribute %s", name)
}

// Interleave packs the vertex attributes p reads into one little-endian
// vertex buffer matching p.Layout().
func (m *Mesh) Interleave(p *shader.Program) ([]byte, error) {
	type source struct {
		data []float32
		n    int
	}
	var sources []source
	stride := 0
	for _, b := range p.Bindings {
		if b.Kind != shader.BindAttribute {
			continue
		}
		data, n, err := m.attribute(b.Name)
		if err != nil {
			return nil, err
		}
		if want := b.Type.Components(); want != n {
			return nil, fmt.Errorf("attribute %s has %d components, mesh supplies %d", b.Name, want, n)
		}
		if len(data) != m.VertexCount()*n {
			return nil, fmt.Errorf("attribute %s: %d values for %d vertices", b.Name, len(data), m.VertexCount())
		}
		sources = append(sources, source{data, n})
		stride += 4 * n
	}

	out := make([]byte, 0, stride*m.VertexCount())
	for v := range m.VertexCount() {
		for _, s := range sources {
			for _, f := range s.data[v*s.n : (v+1)*s.n] {
				out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
			}
		}
	}
	return out, nil
}
