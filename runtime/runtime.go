// Package runtime implements the narrow collaborator surface spec §6
// describes: string interning, function allocation, GC root push/pop, and
// the globals/constants tables the compiler consults to choose opcodes. It
// deliberately does not implement an opcode-dispatch execution loop — that
// loop is the out-of-scope "execution engine" spec §1 hands off to an
// external component.
package runtime

import "wisp/value"

// Host is the compiler's single point of contact with the heap/GC and the
// VM-wide tables. A real interpreter would embed something shaped like
// this inside its VM struct, mirroring the teacher's `vm.VM` holding
// `globals map[string]value.Value` directly (vm/vm.go).
type Host struct {
	strings map[string]*value.ObjString

	// roots holds every in-flight heap value the driver has pushed so it
	// survives a collection that might run before the value is anchored
	// into a chunk (spec §5).
	roots []value.Value

	// builtins are VM-provided globals, addressed with the read-only
	// OP_GET_GLOBAL rather than OP_GET_MODULE/OP_SET_MODULE (spec §6).
	builtins map[string]bool

	// consts records module-global names declared `const`, so the
	// compiler can reject `x = ...` against one at compile time (spec
	// §4.D "Constness check on assignment").
	consts map[string]bool
}

// NewHost returns a Host whose built-in globals are exactly builtinNames.
func NewHost(builtinNames ...string) *Host {
	h := &Host{
		strings:  make(map[string]*value.ObjString),
		builtins: make(map[string]bool, len(builtinNames)),
		consts:   make(map[string]bool),
	}
	for _, name := range builtinNames {
		h.builtins[name] = true
	}
	return h
}

// InternString idempotently interns s, returning the same *ObjString for
// every call with an equal s (spec §6 internString).
func (h *Host) InternString(s string) *value.ObjString {
	if obj, ok := h.strings[s]; ok {
		return obj
	}
	obj := &value.ObjString{Str: s}
	h.strings[s] = obj
	return obj
}

// NewFunction allocates a fresh function object for the compiler to fill
// in during a frame's compile (spec §6 newFunction, §4.C).
func (h *Host) NewFunction(module string, kind value.FuncKind, access value.AccessLevel) *value.ObjFunction {
	return &value.ObjFunction{Module: module, Kind: kind, Access: access}
}

// PushValue anchors v as a GC root for the duration of an allocation
// sequence (spec §5).
func (h *Host) PushValue(v value.Value) {
	h.roots = append(h.roots, v)
}

// PopValue releases the most recently pushed root.
func (h *Host) PopValue() value.Value {
	n := len(h.roots)
	v := h.roots[n-1]
	h.roots = h.roots[:n-1]
	return v
}

// IsBuiltinGlobal reports whether name is a VM-provided global rather than
// a binding in the compiling module's own table (spec §6 globals lookup).
func (h *Host) IsBuiltinGlobal(name string) bool {
	return h.builtins[name]
}

// MarkConst records that the module global name was declared `const`.
func (h *Host) MarkConst(name string) {
	h.consts[name] = true
}

// IsConst reports whether name was previously declared `const` at module
// scope (spec §6 constants table).
func (h *Host) IsConst(name string) bool {
	return h.consts[name]
}
