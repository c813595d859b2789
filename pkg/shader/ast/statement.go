package ast

// Statement is one line of a stage body.
type Statement interface {
	statement()
}

// Declare introduces a variable initialized with a value.
type Declare struct {
	Var   Variable
	Value Operand
}

func (Declare) statement() {}

// NewDeclare declares v = value; the types must match.
func NewDeclare(v Variable, value Operand) (Declare, error) {
	if v.Type() != value.Type() {
		return Declare{}, constructionErr("declaration of "+v.Name, "variable is %s, value is %s", v.Type(), value.Type())
	}
	return Declare{Var: v, Value: value}, nil
}

// Assign stores a value into a variable, member or swizzle.
type Assign struct {
	Target Operand
	Value  Operand
}

func (Assign) statement() {}

// NewAssign assigns value to target; the types must match and target must be
// addressable.
func NewAssign(target, value Operand) (Assign, error) {
	switch target.(type) {
	case Variable, Property, Swizzle:
	default:
		return Assign{}, constructionErr("assignment", "target %T is not addressable", target)
	}
	if target.Type() != value.Type() {
		return Assign{}, constructionErr("assignment", "target is %s, value is %s", target.Type(), value.Type())
	}
	return Assign{Target: target, Value: value}, nil
}
