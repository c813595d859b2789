package ast

import (
	"fmt"
	"slices"
	"sort"
)

// signature derives the result type of a built-in function from its
// argument types, or explains why the arguments are invalid.
type signature func(args []VarType) (VarType, error)

func genType(t VarType) bool { return t.IsFloating() }

func arity(n int, next signature) signature {
	return func(args []VarType) (VarType, error) {
		if len(args) != n {
			return VarType{}, fmt.Errorf("takes %d arguments, got %d", n, len(args))
		}
		for _, a := range args {
			if !genType(a) {
				return VarType{}, fmt.Errorf("argument of type %s", a)
			}
		}
		return next(args)
	}
}

// sameAsFirst accepts arguments that equal the first one, except that the
// positions listed in scalarOK may also be float.
func sameAsFirst(scalarOK ...int) signature {
	return func(args []VarType) (VarType, error) {
		for i, a := range args[1:] {
			if a == args[0] || (a == Float && slices.Contains(scalarOK, i+1)) {
				continue
			}
			return VarType{}, fmt.Errorf("argument %d is %s, want %s", i+1, a, args[0])
		}
		return args[0], nil
	}
}

// sameAsLast is sameAsFirst keyed on the last argument, for step and
// smoothstep whose edges come first.
func sameAsLast(args []VarType) (VarType, error) {
	last := args[len(args)-1]
	for i, a := range args[:len(args)-1] {
		if a != last && a != Float {
			return VarType{}, fmt.Errorf("argument %d is %s, want %s or float", i, a, last)
		}
	}
	return last, nil
}

func reduceToFloat(args []VarType) (VarType, error) {
	for _, a := range args[1:] {
		if a != args[0] {
			return VarType{}, fmt.Errorf("arguments %s and %s differ", args[0], a)
		}
	}
	return Float, nil
}

func exact(result VarType, params ...VarType) signature {
	return func(args []VarType) (VarType, error) {
		if !slices.Equal(args, params) {
			return VarType{}, fmt.Errorf("arguments %v, want %v", args, params)
		}
		return result, nil
	}
}

var builtins = map[string]signature{}

func init() {
	for _, fn := range []string{
		"sin", "cos", "tan", "asin", "acos", "atan", "exp", "log", "exp2", "log2",
		"abs", "sign", "floor", "ceil", "fract", "sqrt", "inversesqrt", "normalize",
		"radians", "degrees",
	} {
		builtins[fn] = arity(1, sameAsFirst())
	}
	builtins["length"] = arity(1, reduceToFloat)
	builtins["distance"] = arity(2, reduceToFloat)
	builtins["dot"] = arity(2, reduceToFloat)
	builtins["pow"] = arity(2, sameAsFirst())
	builtins["min"] = arity(2, sameAsFirst(1))
	builtins["max"] = arity(2, sameAsFirst(1))
	builtins["clamp"] = arity(3, sameAsFirst(1, 2))
	builtins["mix"] = arity(3, sameAsFirst(2))
	builtins["step"] = arity(2, sameAsLast)
	builtins["smoothstep"] = arity(3, sameAsLast)
	builtins["cross"] = exact(Vec3, Vec3, Vec3)
	builtins["texture"] = exact(Vec4, Sampler2D, Vec2)
	builtins["textureLod"] = exact(Vec4, Sampler2D, Vec2, Float)
}

// NewCall calls a built-in function, deriving the result type from the
// arguments.
func NewCall(fn string, args ...Operand) (Call, error) {
	sig, ok := builtins[fn]
	if !ok {
		return Call{}, constructionErr("call "+fn, "unknown function")
	}
	types := make([]VarType, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	rt, err := sig(types)
	if err != nil {
		return Call{}, constructionErr("call "+fn, "%v", err)
	}
	return Call{Func: fn, Args: args, typ: rt}, nil
}

// Builtins returns the names of the built-in functions, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
