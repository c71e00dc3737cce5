// Package value implements the compiler's view of the dynamically-typed
// runtime Value (spec §3): a tagged union of nil, boolean, number, and heap
// object handle. Heap objects are owned by the collaborator GC (package
// runtime). The compiler allocates function objects through that
// collaborator's NewFunction; string constants are built with String
// below, so a constant pool holds its own *ObjString rather than the
// collaborator's interned object.
package value

import "strconv"

// Kind is the tag of a Value's union.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// ObjKind distinguishes the heap object types a Value can carry.
type ObjKind uint8

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
)

// Obj is satisfied by every heap object handle a Value may carry.
type Obj interface {
	ObjKind() ObjKind
}

// Value is a small tagged union, passed by value throughout the compiler.
type Value struct {
	kind Kind
	num  float64
	b    bool
	obj  Obj
}

func Nil() Value              { return Value{kind: KindNil} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Number(n float64) Value  { return Value{kind: KindNumber, num: n} }

// String wraps s in a fresh *ObjString. Interning (so equal strings share
// one heap object) is the collaborator's job, not this constructor's.
func String(s string) Value { return Value{kind: KindObj, obj: &ObjString{Str: s}} }

func Function(fn *ObjFunction) Value { return Value{kind: KindObj, obj: fn} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Obj        { return v.obj }

func (v Value) IsObjKind(k ObjKind) bool {
	return v.kind == KindObj && v.obj.ObjKind() == k
}

func (v Value) AsString() *ObjString {
	return v.obj.(*ObjString)
}

func (v Value) AsFunction() *ObjFunction {
	return v.obj.(*ObjFunction)
}

// IsTruthy implements wisp's truthiness rule: nil and false are falsy,
// every other value (including 0 and "") is truthy. The compiler's `!`
// fold does not call it; it flips OP_TRUE/OP_FALSE directly.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equal implements wisp's `==`: values of different kinds are never equal,
// and strings compare by contents. The peephole folder does not fold
// comparisons, and the compiler does not call Equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindObj:
		if as, ok := a.obj.(*ObjString); ok {
			if bs, ok := b.obj.(*ObjString); ok {
				return as.Str == bs.Str
			}
		}
		return a.obj == b.obj
	}
	return false
}

// String renders a Value for debug/disassembly output.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindObj:
		switch o := v.obj.(type) {
		case *ObjString:
			return o.Str
		case *ObjFunction:
			if o.Name == "" {
				return "<script>"
			}
			return "<fn " + o.Name + ">"
		}
	}
	return "<undefined>"
}

// ObjString is an interned string heap object.
type ObjString struct {
	Str string
}

func (*ObjString) ObjKind() ObjKind { return ObjStringKind }

// FuncKind distinguishes the different shapes a compiled function body can
// take (spec §4.E Function compile, Classes supplement in SPEC_FULL §4.E).
type FuncKind uint8

const (
	FuncScript FuncKind = iota
	FuncFunction
	FuncMethod
	FuncInitializer
	FuncStatic
)

// AccessLevel is the visibility modifier on a class method (SPEC_FULL §4.E).
type AccessLevel uint8

const (
	AccessPublic AccessLevel = iota
	AccessPrivate
)

// ObjFunction is the compiled representation of one function, method, or
// top-level script body (spec §3 Function Object, Component C).
type ObjFunction struct {
	Name          string
	Arity         int
	ArityOptional int
	IsVariadic    bool
	UpvalueCount  int
	Kind          FuncKind
	Access        AccessLevel
	Module        string

	// PropertyParams holds the name-constant index (into Chunk's constant
	// pool) of every `init` parameter declared with the `var` prefix. The
	// execution engine assigns `this.<name> = <arg>` for each of these when
	// invoking the initializer — the compiler never emits SET_PROPERTY for
	// them (spec §8 scenario 5's "propertyCount"/"property name-constant").
	PropertyParams []byte

	// Chunk is *chunk.Chunk in practice; kept as `any` here so this
	// package never imports chunk. The compiler casts it back
	// immediately after allocation, exactly as the teacher's driver casts
	// `function.Chunk.(*chunk.Chunk)`.
	Chunk any
}

func (*ObjFunction) ObjKind() ObjKind { return ObjFunctionKind }
