package numeric

import (
	"fmt"
	"math"

	"github.com/chazu/shadegraph/pkg/field"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// components flattens a float, vector or colour value.
func components(v any) ([]float64, error) {
	switch v := v.(type) {
	case float64:
		return []float64{v}, nil
	case v2.Vec:
		return []float64{v.X, v.Y}, nil
	case v3.Vec:
		return []float64{v.X, v.Y, v.Z}, nil
	case field.Vec4:
		return []float64{v.X, v.Y, v.Z, v.W}, nil
	}
	return nil, fmt.Errorf("%T is not numeric", v)
}

// fromComponents rebuilds a value of type t.
func fromComponents(t field.FieldType, c []float64) (any, error) {
	if field.Size(t) != len(c) {
		return nil, fmt.Errorf("%d components do not make a %s", len(c), t.Name())
	}
	switch len(c) {
	case 1:
		return c[0], nil
	case 2:
		return v2.Vec{X: c[0], Y: c[1]}, nil
	case 3:
		return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
	case 4:
		return field.Vec4{X: c[0], Y: c[1], Z: c[2], W: c[3]}, nil
	}
	return nil, fmt.Errorf("unsupported size %d", len(c))
}

// componentWise applies op to matching components of a and b. A float is
// broadcast against a vector.
func componentWise(t field.FieldType, a, b any, op func(x, y float64) float64) (any, error) {
	ca, err := components(a)
	if err != nil {
		return nil, err
	}
	cb, err := components(b)
	if err != nil {
		return nil, err
	}
	n := max(len(ca), len(cb))
	ca, cb = broadcast(ca, n), broadcast(cb, n)
	if len(ca) != len(cb) {
		return nil, fmt.Errorf("cannot combine %T with %T", a, b)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = op(ca[i], cb[i])
	}
	return fromComponents(t, out)
}

func broadcast(c []float64, n int) []float64 {
	if len(c) != 1 || n == 1 {
		return c
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = c[0]
	}
	return out
}

// mapComponents applies op to every component of a.
func mapComponents(t field.FieldType, a any, op func(float64) float64) (any, error) {
	c, err := components(a)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c))
	for i, x := range c {
		out[i] = op(x)
	}
	return fromComponents(t, out)
}

func length(a any) (float64, error) {
	switch v := a.(type) {
	case float64:
		return math.Abs(v), nil
	case v2.Vec:
		return v.Length(), nil
	case v3.Vec:
		return v.Length(), nil
	case field.Vec4:
		return math.Sqrt(v.Dot(v)), nil
	}
	return 0, fmt.Errorf("%T has no length", a)
}

func dot(a, b any) (float64, error) {
	switch a := a.(type) {
	case float64:
		if b, ok := b.(float64); ok {
			return a * b, nil
		}
	case v2.Vec:
		if b, ok := b.(v2.Vec); ok {
			return a.Dot(b), nil
		}
	case v3.Vec:
		if b, ok := b.(v3.Vec); ok {
			return a.Dot(b), nil
		}
	case field.Vec4:
		if b, ok := b.(field.Vec4); ok {
			return a.Dot(b), nil
		}
	}
	return 0, fmt.Errorf("cannot dot %T with %T", a, b)
}

func normalize(a any) (any, error) {
	switch v := a.(type) {
	case float64:
		if v == 0 {
			return 0.0, nil
		}
		return math.Copysign(1, v), nil
	case v2.Vec:
		return v.Normalize(), nil
	case v3.Vec:
		return v.Normalize(), nil
	case field.Vec4:
		l := math.Sqrt(v.Dot(v))
		if l == 0 {
			return v, nil
		}
		return v.MulScalar(1 / l), nil
	}
	return nil, fmt.Errorf("cannot normalize %T", a)
}
