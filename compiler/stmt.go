package compiler

import (
	"path"
	"strings"

	"wisp/chunk"
	"wisp/token"
	"wisp/value"
)

// declaration is the entry point for anything that can appear at block or
// module scope, including the two binding forms statement() does not
// handle (spec §4.E "var / const").
func (p *Parser) declaration() {
	switch {
	case p.match(token.Class):
		p.classDeclaration()
	case p.match(token.Def):
		p.defStatement()
	case p.match(token.Var):
		p.varDeclaration(false)
	case p.match(token.Const):
		p.varDeclaration(true)
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.LeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	case p.match(token.If):
		p.ifStatement()
	case p.match(token.While):
		p.whileStatement()
	case p.match(token.For):
		p.forStatement()
	case p.match(token.Break):
		p.breakStatement()
	case p.match(token.Continue):
		p.continueStatement()
	case p.match(token.Return):
		p.returnStatement()
	case p.match(token.Import):
		p.importStatement()
	case p.match(token.From):
		p.fromImportStatement()
	case p.match(token.Del):
		p.delStatement()
	case p.match(token.Semicolon):
		p.emitOp(chunk.OpEmpty)
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RightBrace, "Expect '}' after block.")
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after expression.")
	p.emitOp(chunk.OpPop)
}

// varDeclaration parses one-or-more comma-separated bindings introduced by
// `var` or `const` (spec §4.E "var / const").
func (p *Parser) varDeclaration(isConst bool) {
	for {
		global := p.parseVariable(isConst, "Expect variable name.")
		name := p.previous.Lexeme
		if p.match(token.Equal) {
			p.expression()
		} else if isConst {
			p.error("Const must be initialized.")
		} else {
			p.emitOp(chunk.OpNil)
		}
		p.defineVariable(global, isConst, name)
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.Semicolon, "Expect ';' after variable declaration.")
}

func (p *Parser) defStatement() {
	global := p.parseVariable(false, "Expect function name.")
	name := p.previous.Lexeme
	p.frame.markInitialized()
	p.functionBody(value.FuncFunction, name)
	p.defineVariable(global, false, name)
}

// functionBody compiles one function/method body in a fresh frame, ending
// with the OP_CLOSURE emission endFrame performs into the enclosing chunk
// (spec §4.E "Function compile").
func (p *Parser) functionBody(kind value.FuncKind, name string) {
	p.beginFrame(kind, name)
	p.beginScope()

	p.consume(token.LeftParen, "Expect '(' after function name.")
	p.parameterList(kind == value.FuncInitializer)
	p.consume(token.RightParen, "Expect ')' after parameters.")
	p.consume(token.LeftBrace, "Expect '{' before function body.")
	p.block()

	p.endFrame()
}

// parameterList compiles a function's parameter list: each parameter is an
// identifier, optionally prefixed `var` (only meaningful in `init`, marking
// the parameter as an auto-assigned property), optionally prefixed `...`
// (variadic, must be the last parameter), optionally suffixed `= default`
// (declares an optional parameter). Once any optional parameter has been
// seen no further required parameter may follow (spec §4.E "Function
// compile", §8 boundary behaviors).
func (p *Parser) parameterList(isInit bool) {
	required, optional := 0, 0
	sawOptional, sawVariadic := false, false
	var propertyConsts []byte

	if !p.check(token.RightParen) {
		for {
			if sawVariadic {
				p.error("Spread parameter must be last.")
			}

			isProperty := isInit && p.match(token.Var)
			variadic := p.match(token.DotDotDot)

			p.consume(token.Identifier, "Expect parameter name.")
			paramName := p.previous

			if variadic {
				if isInit {
					p.error("Spread parameter not permitted in 'init'.")
				}
				sawVariadic = true
				p.frame.function.IsVariadic = true
			}

			p.declareVariable(false)
			p.frame.markInitialized()

			if isProperty {
				propertyConsts = append(propertyConsts, p.identifierConstant(paramName))
			}

			if p.match(token.Equal) {
				if variadic {
					p.error("Spread parameter cannot be optional.")
				}
				sawOptional = true
				p.expression()
				optional++
			} else if !variadic {
				if sawOptional {
					p.error("Non-optional parameter after optional parameter.")
				}
				required++
			}

			if !p.match(token.Comma) {
				break
			}
		}
	}

	p.frame.function.Arity = required
	p.frame.function.ArityOptional = optional
	p.frame.function.PropertyParams = propertyConsts

	if sawOptional {
		p.emitOp(chunk.OpDefineOptional)
		p.emitByte(byte(required))
		p.emitByte(byte(optional))
	}
}

// classDeclaration compiles a class body: an optional `< Superclass`
// inheritance clause, then a sequence of class-variable and method members
// (spec §4.E "var / const", SPEC_FULL §4.E Classes supplement).
func (p *Parser) classDeclaration() {
	p.consume(token.Identifier, "Expect class name.")
	nameTok := p.previous
	nameConst := p.identifierConstant(nameTok)
	p.declareVariable(false)

	rec := &classRecord{enclosing: p.currentClass, name: nameTok}
	p.currentClass = rec

	p.emitOpByte(chunk.OpClass, nameConst)
	p.defineVariable(nameConst, false, nameTok.Lexeme)

	if p.match(token.Less) {
		p.consume(token.Identifier, "Expect superclass name.")
		if p.previous.Lexeme == nameTok.Lexeme {
			p.error("A class can't inherit from itself.")
		}
		p.namedVariable(p.previous, false)
		p.namedVariable(nameTok, false)
		p.emitOp(chunk.OpSubclass)
		rec.hasSuperclass = true

		p.beginScope()
		p.frame.addLocal(token.Token{Lexeme: "super"}, true)
		p.frame.markInitialized()
	}

	p.namedVariable(nameTok, false)
	p.consume(token.LeftBrace, "Expect '{' before class body.")
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		p.classMember()
	}
	p.consume(token.RightBrace, "Expect '}' after class body.")
	p.emitOp(chunk.OpEndClass)

	if rec.hasSuperclass {
		p.endScope()
	}
	p.currentClass = rec.enclosing
}

func (p *Parser) classMember() {
	if p.match(token.Var) {
		p.consume(token.Identifier, "Expect class variable name.")
		nameConst := p.identifierConstant(p.previous)
		if p.match(token.Equal) {
			p.expression()
		} else {
			p.emitOp(chunk.OpNil)
		}
		p.consume(token.Semicolon, "Expect ';' after class variable.")
		p.emitOpByte(chunk.OpSetClassVar, nameConst)
		return
	}

	access := value.AccessPublic
	if p.match(token.Private) {
		access = value.AccessPrivate
	}
	isStatic := p.match(token.Static)

	p.consume(token.Def, "Expect method declaration.")
	p.consume(token.Identifier, "Expect method name.")
	nameTok := p.previous
	nameConst := p.identifierConstant(nameTok)

	kind := value.FuncMethod
	switch {
	case isStatic:
		kind = value.FuncStatic
	case nameTok.Lexeme == "init":
		kind = value.FuncInitializer
	}

	p.beginFrame(kind, nameTok.Lexeme)
	p.frame.function.Access = access
	p.beginScope()

	p.consume(token.LeftParen, "Expect '(' after method name.")
	p.parameterList(kind == value.FuncInitializer)
	p.consume(token.RightParen, "Expect ')' after parameters.")
	p.consume(token.LeftBrace, "Expect '{' before method body.")
	p.block()

	p.endFrame()
	p.emitOpByte(chunk.OpMethod, nameConst)
}

func (p *Parser) ifStatement() {
	p.consume(token.LeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitOp(chunk.OpPop)
	p.statement()

	elseJump := p.emitJump(chunk.OpJump)
	p.patchJump(thenJump)
	p.emitOp(chunk.OpPop)

	if p.match(token.Else) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	loop := p.frame.beginLoop(loopStart)

	p.consume(token.LeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitOp(chunk.OpPop)
	p.statement()
	p.emitLoop(loop.start)

	p.patchJump(exitJump)
	p.emitOp(chunk.OpPop)

	p.patchBreaks(loop)
	p.frame.endLoop()
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(token.Var):
		p.varDeclaration(false)
	case p.match(token.Const):
		p.varDeclaration(true)
	case p.match(token.Semicolon):
		// no initializer
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	loop := p.frame.beginLoop(loopStart)

	exitJump := -1
	if !p.match(token.Semicolon) {
		p.expression()
		p.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(chunk.OpJumpIfFalse)
		p.emitOp(chunk.OpPop)
	}

	if !p.check(token.RightParen) {
		bodyJump := p.emitJump(chunk.OpJump)
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(chunk.OpPop)
		p.consume(token.RightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loop.start = incrementStart
		p.patchJump(bodyJump)
	} else {
		p.consume(token.RightParen, "Expect ')' after for clauses.")
	}

	p.statement()
	p.emitLoop(loop.start)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(chunk.OpPop)
	}

	p.patchBreaks(loop)
	p.frame.endLoop()
	p.endScope()
}

// unwindLoop emits the stack cleanup (close captured upvalues, pop the
// rest) for every local declared deeper than the loop's own scope, without
// touching the frame's local bookkeeping — the locals are still live for
// whatever code the parser emits next in normal control flow (spec §4.E
// "break / continue").
func (p *Parser) unwindLoop(loop *loopRecord) {
	for i := len(p.frame.locals) - 1; i >= 0 && p.frame.locals[i].depth > loop.scopeDepth; i-- {
		if p.frame.locals[i].isCaptured {
			p.emitOp(chunk.OpCloseUpvalue)
		} else {
			p.emitOp(chunk.OpPop)
		}
	}
}

// patchBreaks rewrites every OP_BREAK placeholder recorded for loop into an
// OP_JUMP targeting the current position (spec §4.E "break / continue").
func (p *Parser) patchBreaks(loop *loopRecord) {
	for _, offset := range loop.breaks {
		p.currentChunk().Code[offset-1] = byte(chunk.OpJump)
		p.patchJump(offset)
	}
}

func (p *Parser) breakStatement() {
	loop := p.frame.currentLoop()
	if loop == nil {
		p.error("Cannot utilise 'break' outside of a loop.")
	} else {
		p.unwindLoop(loop)
		loop.breaks = append(loop.breaks, p.emitJump(chunk.OpBreak))
	}
	p.consume(token.Semicolon, "Expect ';' after 'break'.")
}

func (p *Parser) continueStatement() {
	loop := p.frame.currentLoop()
	if loop == nil {
		p.error("Cannot utilise 'continue' outside of a loop.")
	} else {
		p.unwindLoop(loop)
		p.emitLoop(loop.start)
	}
	p.consume(token.Semicolon, "Expect ';' after 'continue'.")
}

func (p *Parser) returnStatement() {
	if p.frame.kind == value.FuncScript {
		p.error("Can't return from top-level code.")
	}

	if p.match(token.Semicolon) {
		p.emitReturn()
		return
	}

	if p.frame.kind == value.FuncInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after return value.")
	p.emitOp(chunk.OpReturn)
}

// importStatement compiles `import "path" [as name];` (spec §4.E).
func (p *Parser) importStatement() {
	p.consume(token.String, "Expect module path string.")
	importPath := stringLexeme(p.previous.Lexeme)
	pathConst := p.makeConstantString(importPath)

	bindName := path.Base(importPath)
	if i := strings.LastIndexByte(bindName, '.'); i >= 0 {
		bindName = bindName[:i]
	}
	if p.match(token.As) {
		p.consume(token.Identifier, "Expect module alias after 'as'.")
		bindName = p.previous.Lexeme
	}

	p.emitOpByte(chunk.OpImport, pathConst)
	p.emitOp(chunk.OpImportVariable)

	nameConst := p.makeConstantString(bindName)
	if p.frame.scopeDepth > 0 {
		p.frame.addLocal(token.Token{Lexeme: bindName}, false)
		p.frame.markInitialized()
	} else {
		p.emitOpByte(chunk.OpDefineModule, nameConst)
	}

	p.emitOp(chunk.OpImportEnd)
	p.consume(token.Semicolon, "Expect ';' after import statement.")
}

// fromImportStatement compiles `from "path" import a, b, c;`: the opcode
// stream carries the imported-name count followed by each name constant;
// locals are declared forward, globals defined in reverse so the last
// declaration wins when the VM pops its way back through them (spec §4.E).
func (p *Parser) fromImportStatement() {
	p.consume(token.String, "Expect module path string.")
	importPath := stringLexeme(p.previous.Lexeme)
	pathConst := p.makeConstantString(importPath)
	p.consume(token.Import, "Expect 'import' after module path.")

	var names []token.Token
	for {
		p.consume(token.Identifier, "Expect imported name.")
		names = append(names, p.previous)
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.Semicolon, "Expect ';' after import statement.")

	p.emitOpByte(chunk.OpImport, pathConst)
	p.emitOp(chunk.OpImportFrom)
	p.emitByte(byte(len(names)))

	nameConsts := make([]byte, len(names))
	for i, n := range names {
		nameConsts[i] = p.identifierConstant(n)
		p.emitByte(nameConsts[i])
	}

	if p.frame.scopeDepth > 0 {
		for _, n := range names {
			p.frame.addLocal(n, false)
			p.frame.markInitialized()
		}
	} else {
		for i := len(names) - 1; i >= 0; i-- {
			p.emitOpByte(chunk.OpDefineModule, nameConsts[i])
		}
	}

	p.emitOp(chunk.OpImportEnd)
}

// delStatement compiles its target's addressing chain — the same
// variable/property-get instructions `dot` emits for a read — and pops the
// result, rather than doing nothing with it. There is no OP_DEL in the
// stable ABI §6 carries forward, so the delete itself is left to the
// execution engine to support however it chooses; what this statement
// guarantees is that the target is addressed with the usual opcodes, not
// silently discarded at parse time (SPEC_FULL §4.E).
func (p *Parser) delStatement() {
	p.consume(token.Identifier, "Expect identifier after 'del'.")
	p.namedVariable(p.previous, false)
	for p.match(token.Dot) {
		p.consume(token.Identifier, "Expect property name after '.'.")
		nameConst := p.identifierConstant(p.previous)
		p.emitOpByte(chunk.OpGetProperty, nameConst)
	}
	p.emitOp(chunk.OpPop)
	p.consume(token.Semicolon, "Expect ';' after 'del' statement.")
}

func stringLexeme(lexeme string) string {
	if len(lexeme) < 2 {
		return ""
	}
	body, raw := stringBody(lexeme)
	if raw {
		return body
	}
	return unescape(body)
}
