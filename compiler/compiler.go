// Package compiler implements the single-pass bytecode compiler: a Pratt
// expression parser fused with a recursive-descent statement parser that
// emits directly into a wisp/chunk.Chunk, with no intermediate AST.
package compiler

import (
	"encoding/binary"
	"math"

	"golang.org/x/text/unicode/norm"

	"wisp/chunk"
	"wisp/diag"
	"wisp/scanner"
	"wisp/token"
	"wisp/value"
)

// Collaborator is the narrow surface the compiler needs from the
// heap/GC and VM-wide tables it does not own. A real interpreter wires a
// *runtime.Host here; tests can supply a fake.
type Collaborator interface {
	InternString(s string) *value.ObjString
	NewFunction(module string, kind value.FuncKind, access value.AccessLevel) *value.ObjFunction
	PushValue(v value.Value)
	PopValue() value.Value
	IsBuiltinGlobal(name string) bool
	MarkConst(name string)
	IsConst(name string) bool
}

// Parser holds all state shared across one compile: the token cursor, the
// active frame chain, and error-recovery flags. It mirrors the teacher's
// Parser (compiler/compiler.go), generalized with a module name and a class
// context for the wisp grammar's classes/modules supplement.
type Parser struct {
	scanner *scanner.Scanner

	previous token.Token
	current  token.Token

	panicMode bool
	hadError  bool

	frame        *frame
	currentClass *classRecord

	module string
	host   Collaborator

	diags []diag.Diagnostic
}

// Compile compiles source as module, returning the top-level script
// function on success. On failure it returns nil and the accumulated
// diagnostics; the caller must not use a partially-built function (spec §7
// "compile is atomic at the module grain").
func Compile(module, source string, host Collaborator) (*value.ObjFunction, []diag.Diagnostic) {
	p := &Parser{
		scanner: scanner.New(source),
		module:  module,
		host:    host,
	}
	p.beginFrame(value.FuncScript, "")

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	p.consumeNoAdvance(token.EOF, "Expect end of expression.")

	fn := p.endFrame()
	if p.hadError {
		return nil, p.diags
	}
	return fn, p.diags
}

// --- token stream -----------------------------------------------------

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.Next()
		if p.current.Type != token.Error {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(t token.Type) bool {
	return p.current.Type == t
}

func (p *Parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t token.Type, msg string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

// consumeNoAdvance is used only at the very end of the top-level compile,
// where there is no token left to advance to.
func (p *Parser) consumeNoAdvance(t token.Type, msg string) {
	if p.current.Type != t {
		p.errorAtCurrent(msg)
	}
}

// --- error reporting ---------------------------------------------------

func (p *Parser) errorAtCurrent(msg string) {
	p.errorAt(p.current, msg)
}

func (p *Parser) error(msg string) {
	p.errorAt(p.previous, msg)
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := "'" + tok.Lexeme + "'"
	if tok.Type == token.EOF {
		where = "end"
	} else if tok.Type == token.Error {
		where = ""
	}

	p.diags = append(p.diags, diag.Diagnostic{
		Module:  p.module,
		Line:    tok.Line,
		Where:   where,
		Message: msg,
	})
}

// synchronize advances past tokens until a statement boundary, clearing
// panicMode so later errors are reported again (spec §4.E Error recovery).
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Type != token.EOF {
		if p.previous.Type == token.Semicolon {
			return
		}
		if token.StartsStatement(p.current.Type) {
			return
		}
		p.advance()
	}
}

// --- emission -----------------------------------------------------------

func (p *Parser) currentChunk() *chunk.Chunk {
	return p.frame.chunk
}

func (p *Parser) emitByte(b byte) {
	p.currentChunk().WriteByte(b, p.previous.Line)
}

func (p *Parser) emitOp(op chunk.Op) {
	p.currentChunk().WriteOp(op, p.previous.Line)
}

func (p *Parser) emitOpByte(op chunk.Op, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *Parser) emitReturn() {
	if p.frame.kind == value.FuncInitializer {
		p.emitOpByte(chunk.OpGetLocal, 0)
	} else {
		p.emitOp(chunk.OpNil)
	}
	p.emitOp(chunk.OpReturn)
}

func (p *Parser) makeConstant(val value.Value) byte {
	idx, err := p.currentChunk().AddConstant(val)
	if err != nil {
		p.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (p *Parser) makeConstantString(s string) byte {
	idx, err := p.currentChunk().AddConstantString(s)
	if err != nil {
		p.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (p *Parser) emitConstant(val value.Value) {
	p.emitOpByte(chunk.OpConstant, p.makeConstant(val))
}

func (p *Parser) emitJump(op chunk.Op) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > math.MaxUint16 {
		p.error("Too much code to jump over.")
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(jump))
	p.currentChunk().Code[offset] = b[0]
	p.currentChunk().Code[offset+1] = b[1]
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(chunk.OpLoop)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > math.MaxUint16 {
		p.error("Loop body too large.")
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(offset))
	p.emitByte(b[0])
	p.emitByte(b[1])
}

// --- frame lifecycle -----------------------------------------------------

// beginFrame pushes a fresh frame for a script, function, or method body.
// Method access (public/private) is set by the caller after this returns,
// since only `classMember` knows whether `private` preceded `def`.
func (p *Parser) beginFrame(kind value.FuncKind, name string) {
	fn := p.host.NewFunction(p.module, kind, value.AccessPublic)
	ch := &chunk.Chunk{}
	fn.Chunk = ch
	fn.Name = name
	p.frame = newFrame(p.frame, fn, ch, kind)
}

// endFrame emits the implicit return, then — if this frame has an
// enclosing frame — emits OP_CLOSURE into the enclosing chunk followed by
// the upvalue descriptor pairs (spec §4.E "Function compile").
func (p *Parser) endFrame() *value.ObjFunction {
	p.emitReturn()
	fn := p.frame.function
	finished := p.frame
	p.frame = p.frame.enclosing

	if p.frame != nil {
		idx := p.makeConstant(value.Function(fn))
		p.emitOpByte(chunk.OpClosure, idx)
		for _, uv := range finished.upvalues {
			if uv.isLocal {
				p.emitByte(1)
			} else {
				p.emitByte(0)
			}
			p.emitByte(uv.index)
		}
	}
	return fn
}

func (p *Parser) beginScope() {
	p.frame.scopeDepth++
}

// endScope pops (or closes, if captured) every local declared inside the
// scope being left.
func (p *Parser) endScope() {
	p.frame.scopeDepth--
	for len(p.frame.locals) > 0 && p.frame.locals[len(p.frame.locals)-1].depth > p.frame.scopeDepth {
		last := p.frame.locals[len(p.frame.locals)-1]
		if last.isCaptured {
			p.emitOp(chunk.OpCloseUpvalue)
		} else {
			p.emitOp(chunk.OpPop)
		}
		p.frame.locals = p.frame.locals[:len(p.frame.locals)-1]
	}
}

// --- variable declaration/resolution -------------------------------------

// declareVariable inserts the previous token as a new local (or, at global
// scope, does nothing — global names live in the module table, not a local
// slot), rejecting redeclaration in the same scope (spec §4.D).
func (p *Parser) declareVariable(isConst bool) {
	if p.frame.scopeDepth == 0 {
		return
	}
	name := p.previous
	for i := len(p.frame.locals) - 1; i >= 0; i-- {
		l := p.frame.locals[i]
		if l.depth != -1 && l.depth < p.frame.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			p.error("Already a variable with this name in this scope.")
		}
	}
	if !p.frame.addLocal(name, isConst) {
		p.error("Too many local variables in function.")
	}
}

// identifierConstant interns name's lexeme as a string constant. Unicode
// identifiers are normalized to NFC here, at interning time, so two
// source spellings that differ only by combining-character order name the
// same global/property/module slot (spec §4.A Unicode identifiers).
func (p *Parser) identifierConstant(name token.Token) byte {
	return p.makeConstantString(norm.NFC.String(name.Lexeme))
}

// parseVariable consumes an identifier, declares it, and returns the
// name-constant index to use if this turns out to be a module global.
func (p *Parser) parseVariable(isConst bool, errMsg string) byte {
	p.consume(token.Identifier, errMsg)
	p.declareVariable(isConst)
	if p.frame.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous)
}

// defineVariable finishes a declaration: locally it just marks the local
// initialized; at module scope it emits OP_DEFINE_MODULE and, if isConst,
// records the name in the collaborator's constants table (spec §4.D, §6).
func (p *Parser) defineVariable(global byte, isConst bool, name string) {
	if p.frame.scopeDepth > 0 {
		p.frame.markInitialized()
		return
	}
	if isConst {
		p.host.MarkConst(name)
	}
	p.emitOpByte(chunk.OpDefineModule, global)
}

// resolveVariable decides how to read/write name: local slot, upvalue
// slot, VM built-in global, or module-global name constant.
type varKind int

const (
	varLocal varKind = iota
	varUpvalue
	varGlobal
	varModule
)

func (p *Parser) resolveVariable(name token.Token) (kind varKind, arg byte, isConst bool) {
	if slot, isConst, depth, ok := p.frame.resolveLocal(name.Lexeme); ok {
		if depth == -1 {
			p.error("Can't read local variable in its own initializer.")
		}
		return varLocal, byte(slot), isConst
	}
	if slot, isConst, ok, overflow := p.frame.resolveUpvalue(name.Lexeme); ok {
		return varUpvalue, byte(slot), isConst
	} else if overflow {
		p.error("Too many closure variables in function.")
		return varUpvalue, 0, false
	}
	nameConst := p.identifierConstant(name)
	if p.host.IsBuiltinGlobal(name.Lexeme) {
		return varGlobal, nameConst, false
	}
	return varModule, nameConst, p.host.IsConst(name.Lexeme)
}

func getSetOps(kind varKind) (get, set chunk.Op) {
	switch kind {
	case varLocal:
		return chunk.OpGetLocal, chunk.OpSetLocal
	case varUpvalue:
		return chunk.OpGetUpvalue, chunk.OpSetUpvalue
	case varGlobal:
		return chunk.OpGetGlobal, chunk.OpGetGlobal // built-ins are read-only, no setter
	default:
		return chunk.OpGetModule, chunk.OpSetModule
	}
}
