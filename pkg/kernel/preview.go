package kernel

import (
	"fmt"
	"slices"
)

// Shapes lists the preview solids Preview can build.
var Shapes = []string{"box", "sphere", "cylinder", "rounded-box", "holed-box", "capsule"}

// PreviewSolid describes a preview solid.
type PreviewSolid struct {
	Shape string
	// Size is the edge length of the solid's bounding cube.
	Size float64
	// Rotate holds Euler angles in degrees around X, Y and Z.
	Rotate [3]float64
}

// Preview tessellates a preview solid centred on the origin and projects uvs
// onto it.
func Preview(k Kernel, p PreviewSolid) (*Mesh, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("preview %s: size must be positive, got %g", p.Shape, p.Size)
	}

	s := p.Size
	var solid Solid
	switch p.Shape {
	case "box":
		solid = k.Box(s, s, s)
	case "sphere":
		solid = k.Sphere(s / 2)
	case "cylinder":
		solid = k.Cylinder(s, s/2)
	case "rounded-box":
		solid = k.Intersection(k.Box(s, s, s), k.Sphere(s*0.65))
	case "holed-box":
		solid = k.Difference(k.Box(s, s, s), k.Cylinder(s*1.5, s/4))
	case "capsule":
		r := s / 4
		solid = k.Union(k.Cylinder(s-2*r, r), k.Union(
			k.Translate(k.Sphere(r), 0, 0, s/2-r),
			k.Translate(k.Sphere(r), 0, 0, r-s/2),
		))
	default:
		return nil, fmt.Errorf("unknown preview shape %q, want one of %v", p.Shape, Shapes)
	}
	if p.Rotate != [3]float64{} {
		solid = k.Rotate(solid, p.Rotate[0], p.Rotate[1], p.Rotate[2])
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", p.Shape, err)
	}
	if mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("preview %s: tessellation produced no triangles", p.Shape)
	}
	mesh.ProjectUVs()
	mesh.Name = p.Shape
	return mesh, nil
}

// IsShape reports whether Preview knows shape.
func IsShape(shape string) bool { return slices.Contains(Shapes, shape) }
