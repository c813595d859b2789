package graph

// NodeData is the interface for type-specific node configuration. The set of
// payloads is closed; producers switch on the concrete type.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// ---------------------------------------------------------------------------
// Literal values
// ---------------------------------------------------------------------------

// FloatData is a scalar constant.
type FloatData struct {
	Value float64 `json:"value"`
}

func (FloatData) nodeData() {}

// VectorData is a vector constant with Size components (2, 3 or 4).
type VectorData struct {
	Size       int        `json:"size"`
	Components [4]float64 `json:"components"`
}

func (VectorData) nodeData() {}

// Vector builds VectorData from its components.
func Vector(components ...float64) VectorData {
	var v VectorData
	v.Size = min(len(components), 4)
	copy(v.Components[:], components)
	return v
}

// ColorData is an RGBA colour constant with components in [0, 1].
type ColorData struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

func (ColorData) nodeData() {}

// BoolData is a boolean constant.
type BoolData struct {
	Value bool `json:"value"`
}

func (BoolData) nodeData() {}

// ---------------------------------------------------------------------------
// Named and structural configuration
// ---------------------------------------------------------------------------

// NameData carries a single identifier, e.g. a texture uniform name.
type NameData struct {
	Name string `json:"name"`
}

func (NameData) nodeData() {}

// PropertyData declares an externally bound value of a named field type.
type PropertyData struct {
	Name string `json:"name"`
	Type string `json:"type"` // field type name
}

func (PropertyData) nodeData() {}

// SwizzleData selects vector components, e.g. "xy" or "bgr".
type SwizzleData struct {
	Components string `json:"components"`
}

func (SwizzleData) nodeData() {}

// ExpressionData is a small expression evaluated over the node inputs.
type ExpressionData struct {
	Expr string `json:"expr"`
}

func (ExpressionData) nodeData() {}

// CompareOp enumerates comparison operators.
type CompareOp string

const (
	CompareLess         CompareOp = "<"
	CompareLessEqual    CompareOp = "<="
	CompareGreater      CompareOp = ">"
	CompareGreaterEqual CompareOp = ">="
	CompareEqual        CompareOp = "=="
	CompareNotEqual     CompareOp = "!="
)

// CompareData selects the operator of a comparison node.
type CompareData struct {
	Op CompareOp `json:"op"`
}

func (CompareData) nodeData() {}
