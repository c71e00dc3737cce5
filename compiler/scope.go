package compiler

import (
	"wisp/chunk"
	"wisp/token"
	"wisp/value"
)

// local is one entry in a frame's local-variable stack. depth is -1 while
// the variable's initializer is still being compiled, so a reference to it
// inside its own initializer can be rejected (spec §4.D resolveLocal).
type local struct {
	name       token.Token
	depth      int
	isConst    bool
	isCaptured bool
}

// upvalue is one entry in a frame's upvalue descriptor list, later emitted
// as operand bytes after OP_CLOSURE (spec §4.D, §6).
type upvalue struct {
	index   uint8
	isLocal bool
	isConst bool
}

// loopRecord tracks the bytecode offset a `continue` jumps back to and the
// scope depth a `break`/`continue` must unwind locals down to, plus the
// list of not-yet-patched break-jump offsets (spec §4.E break/continue
// supplement; SPEC_FULL §4.E).
type loopRecord struct {
	start      int
	scopeDepth int
	breaks     []int
}

// classRecord threads class-compile context down into method bodies so
// uses of `this` and `super` can be validated (spec §4.E Classes
// supplement).
type classRecord struct {
	enclosing     *classRecord
	name          token.Token
	hasSuperclass bool
}

// frame is one activation of the compiler: one per function, method, or the
// top-level script body, chained through enclosing exactly like the
// teacher's Compiler/Compiler.enclosing (compiler.go Compiler struct).
type frame struct {
	enclosing *frame

	function *value.ObjFunction
	chunk    *chunk.Chunk
	kind     value.FuncKind

	locals     []local
	upvalues   []upvalue
	scopeDepth int

	loops []*loopRecord
}

func newFrame(enclosing *frame, fn *value.ObjFunction, ch *chunk.Chunk, kind value.FuncKind) *frame {
	f := &frame{enclosing: enclosing, function: fn, chunk: ch, kind: kind}
	// Slot 0 is reserved for the receiver in methods/initializers and for
	// the callee itself elsewhere, exactly as clox reserves local 0.
	recv := ""
	if kind == value.FuncMethod || kind == value.FuncInitializer {
		recv = "this"
	}
	f.locals = append(f.locals, local{name: token.Token{Lexeme: recv}, depth: 0})
	return f
}

const maxLocals = 256
const maxUpvalues = 256

// addLocal declares a new local slot with its initializer not yet compiled
// (spec §4.D).
func (f *frame) addLocal(name token.Token, isConst bool) bool {
	if len(f.locals) >= maxLocals {
		return false
	}
	f.locals = append(f.locals, local{name: name, depth: -1, isConst: isConst})
	return true
}

// markInitialized marks the most recently declared local as usable, i.e.
// finishes its declaration (spec §4.D).
func (f *frame) markInitialized() {
	if len(f.locals) == 0 {
		return
	}
	f.locals[len(f.locals)-1].depth = f.scopeDepth
}

// resolveLocal walks f's locals innermost-first looking for name, returning
// its slot index, whether it is declared const, its declaration depth (-1
// while its initializer is still being compiled), and whether it was found.
func (f *frame) resolveLocal(name string) (slot int, isConst bool, depth int, found bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name.Lexeme == name {
			return i, f.locals[i].isConst, f.locals[i].depth, true
		}
	}
	return -1, false, 0, false
}

// addUpvalue records that f captures index from its immediately enclosing
// frame (isLocal) or from that frame's own upvalue list, deduplicating
// against any upvalue already captured for the same source (spec §4.D
// addUpvalue).
func (f *frame) addUpvalue(index uint8, isLocal, isConst bool) (int, bool) {
	for i, uv := range f.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i, true
		}
	}
	if len(f.upvalues) >= maxUpvalues {
		return 0, false
	}
	f.upvalues = append(f.upvalues, upvalue{index: index, isLocal: isLocal, isConst: isConst})
	f.function.UpvalueCount = len(f.upvalues)
	return len(f.upvalues) - 1, true
}

// resolveUpvalue recursively resolves name against f's enclosing frame,
// flattening the capture chain one hop at a time exactly as spec §4.D
// describes: a local found in the immediately enclosing frame is captured
// directly; a name found further out is captured as an upvalue-of-an-
// upvalue at every intervening frame.
func (f *frame) resolveUpvalue(name string) (slot int, isConst bool, found bool, overflow bool) {
	if f.enclosing == nil {
		return -1, false, false, false
	}
	if idx, isConst, _, ok := f.enclosing.resolveLocal(name); ok {
		f.enclosing.locals[idx].isCaptured = true
		slot, ok := f.addUpvalue(uint8(idx), true, isConst)
		if !ok {
			return 0, false, false, true
		}
		return slot, isConst, true, false
	}
	if idx, isConst, ok, overflow := f.enclosing.resolveUpvalue(name); ok || overflow {
		if overflow {
			return 0, false, false, true
		}
		slot, ok := f.addUpvalue(uint8(idx), false, isConst)
		if !ok {
			return 0, false, false, true
		}
		return slot, isConst, true, false
	}
	return -1, false, false, false
}

// beginLoop pushes a new loop record at the current bytecode offset and
// scope depth (SPEC_FULL §4.E break/continue).
func (f *frame) beginLoop(start int) *loopRecord {
	lr := &loopRecord{start: start, scopeDepth: f.scopeDepth}
	f.loops = append(f.loops, lr)
	return lr
}

func (f *frame) currentLoop() *loopRecord {
	if len(f.loops) == 0 {
		return nil
	}
	return f.loops[len(f.loops)-1]
}

func (f *frame) endLoop() {
	f.loops = f.loops[:len(f.loops)-1]
}
