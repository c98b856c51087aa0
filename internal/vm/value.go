package vm

import (
	"math"
	"strconv"
)

// ValueType identifies the type of value stored in the Value struct
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is a stack-allocated tagged union.
// It avoids heap allocation for the small primitives (Number, Bool, Nil).
type Value struct {
	Type ValueType
	Data uint64 // float64 bits, or bool (0/1)
	Obj  Obj    // heap objects (strings, functions, closures, ...)
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func NumberVal(v float64) Value {
	return Value{Type: ValNumber, Data: math.Float64bits(v)}
}

func ObjVal(o Obj) Value {
	return Value{Type: ValObj, Obj: o}
}

// Accessors

func (v Value) AsBool() bool {
	return v.Data == 1
}

func (v Value) AsNumber() float64 {
	return math.Float64frombits(v.Data)
}

// Type checking helpers

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) IsString() bool {
	_, ok := v.Obj.(*ObjString)
	return v.Type == ValObj && ok
}

// AsString returns the underlying ObjString, or nil if the value is not one.
func (v Value) AsString() *ObjString {
	if v.Type != ValObj {
		return nil
	}
	s, _ := v.Obj.(*ObjString)
	return s
}

// IsFalsey reports Lox truthiness: only nil and false are falsey.
func (v Value) IsFalsey() bool {
	return v.Type == ValNil || (v.Type == ValBool && v.Data == 0)
}

// Equals compares two values. Numbers compare by IEEE equality, nil and
// bools structurally, objects by identity. Interning makes identity
// comparison correct for strings.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return v.Data == other.Data
	case ValNumber:
		return v.AsNumber() == other.AsNumber()
	case ValObj:
		return v.Obj == other.Obj
	default:
		return false
	}
}

// Inspect returns the human-readable form used by print.
func (v Value) Inspect() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Data == 1 {
			return "true"
		}
		return "false"
	case ValNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case ValObj:
		if v.Obj != nil {
			return v.Obj.Inspect()
		}
		return "<nil obj>"
	default:
		return "<?>"
	}
}
