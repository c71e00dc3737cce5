package compiler

import (
	"strconv"
	"strings"

	"wisp/chunk"
	"wisp/token"
	"wisp/value"
)

// parsePrecedence is the Pratt loop: consume one token, dispatch its prefix
// rule, then keep consuming infix operators whose precedence is at least
// min (spec §4.E Pratt expression parser).
func (p *Parser) parsePrecedence(min precedence) {
	p.advance()
	prefix := rules[p.previous.Type].prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := min <= precAssignment
	prefix(p, canAssign)

	for min <= rules[p.current.Type].precedence {
		p.advance()
		infix := rules[p.previous.Type].infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.Equal) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) expression() {
	p.parsePrecedence(precAssignment)
}

func (p *Parser) number(_ bool) {
	lexeme := strings.ReplaceAll(p.previous.Lexeme, "_", "")
	n, _ := strconv.ParseFloat(lexeme, 64)
	p.emitConstant(value.Number(n))
}

func (p *Parser) stringLiteral(_ bool) {
	body, raw := stringBody(p.previous.Lexeme)
	s := body
	if !raw {
		s = unescape(body)
	}
	p.host.InternString(s)
	p.emitConstant(value.String(s))
}

// stringBody strips a string lexeme's delimiters, returning its contents
// and whether it was a raw string (`r"..."` / `r'...'`). A raw string's
// leading `r` is stripped along with both quotes; its contents are
// returned untouched, and callers skip escape processing for them (spec
// §4.A raw strings).
func stringBody(lexeme string) (body string, raw bool) {
	if len(lexeme) > 0 && lexeme[0] == 'r' {
		return lexeme[2 : len(lexeme)-1], true
	}
	return lexeme[1 : len(lexeme)-1], false
}

// unescape processes the small set of backslash escapes wisp string
// literals support. Raw strings never reach here — the scanner marks them
// identically to ordinary strings once scanned, so escape processing is
// purely this parse-time step (spec §4.A).
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '\'':
				b.WriteByte('\'')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (p *Parser) literal(_ bool) {
	switch p.previous.Type {
	case token.False:
		p.emitOp(chunk.OpFalse)
	case token.True:
		p.emitOp(chunk.OpTrue)
	case token.Nil:
		p.emitOp(chunk.OpNil)
	}
}

func (p *Parser) grouping(_ bool) {
	p.expression()
	p.consume(token.RightParen, "Expect ')' after expression.")
}

func (p *Parser) unary(_ bool) {
	op := p.previous.Type
	start := len(p.currentChunk().Code)
	p.parsePrecedence(precUnary)
	// Only an operand that compiled to a single literal instruction may be
	// folded; otherwise the trailing bytes may be another instruction's
	// operands.
	emitted := len(p.currentChunk().Code) - start

	switch op {
	case token.Bang:
		if emitted != 1 || !p.tryFoldNot() {
			p.emitOp(chunk.OpNot)
		}
	case token.Minus:
		if emitted != 2 || !p.tryFoldNegate() {
			p.emitOp(chunk.OpNegate)
		}
	}
}

var binaryOps = map[token.Type]chunk.Op{
	token.Plus:     chunk.OpAdd,
	token.Minus:    chunk.OpSubtract,
	token.Star:     chunk.OpMultiply,
	token.Slash:    chunk.OpDivide,
	token.Percent:  chunk.OpMod,
	token.StarStar: chunk.OpPow,
	token.Amp:      chunk.OpBitwiseAnd,
	token.Caret:    chunk.OpBitwiseXor,
	token.Pipe:     chunk.OpBitwiseOr,
}

func (p *Parser) binary(_ bool) {
	op := p.previous.Type
	rule := rules[op]
	p.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.Plus, token.Minus, token.Star, token.Slash:
		if p.tryFoldArithmetic(binaryOps[op]) {
			return
		}
		p.emitOp(binaryOps[op])
	case token.Percent, token.StarStar, token.Amp, token.Caret, token.Pipe:
		p.emitOp(binaryOps[op])
	case token.EqualEqual:
		p.emitOp(chunk.OpEqual)
	case token.BangEqual:
		p.emitOp(chunk.OpEqual)
		p.emitOp(chunk.OpNot)
	case token.Greater:
		p.emitOp(chunk.OpGreater)
	case token.GreaterEqual:
		p.emitOp(chunk.OpLess)
		p.emitOp(chunk.OpNot)
	case token.Less:
		p.emitOp(chunk.OpLess)
	case token.LessEqual:
		p.emitOp(chunk.OpGreater)
		p.emitOp(chunk.OpNot)
	}
}

func (p *Parser) and(_ bool) {
	endJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitOp(chunk.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *Parser) or(_ bool) {
	elseJump := p.emitJump(chunk.OpJumpIfFalse)
	endJump := p.emitJump(chunk.OpJump)
	p.patchJump(elseJump)
	p.emitOp(chunk.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

// compoundOps maps a compound-assignment token to the arithmetic opcode it
// expands to (spec §4.E "Assignment compounds").
var compoundOps = map[token.Type]chunk.Op{
	token.PlusEqual:    chunk.OpAdd,
	token.MinusEqual:   chunk.OpSubtract,
	token.StarEqual:    chunk.OpMultiply,
	token.SlashEqual:   chunk.OpDivide,
	token.PercentEqual: chunk.OpMod,
	token.AmpEqual:     chunk.OpBitwiseAnd,
	token.CaretEqual:   chunk.OpBitwiseXor,
	token.PipeEqual:    chunk.OpBitwiseOr,
}

func compoundToken(p *Parser) (token.Type, bool) {
	for t := range compoundOps {
		if p.check(t) {
			return t, true
		}
	}
	return 0, false
}

func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

// namedVariable resolves name to a local, upvalue, built-in global, or
// module global and emits either a read, a plain write, or a compound
// read-modify-write (spec §4.D resolution primitives, §4.E compound
// assignment).
func (p *Parser) namedVariable(name token.Token, canAssign bool) {
	kind, arg, isConst := p.resolveVariable(name)
	get, set := getSetOps(kind)

	if canAssign && p.match(token.Equal) {
		if kind == varGlobal {
			p.error("Cannot assign to a built-in global.")
		} else if isConst {
			p.error("Cannot assign to a constant.")
		}
		p.expression()
		p.emitOpByte(set, arg)
		return
	}
	if canAssign {
		if ct, ok := compoundToken(p); ok {
			if kind == varGlobal {
				p.error("Cannot assign to a built-in global.")
			} else if isConst {
				p.error("Cannot assign to a constant.")
			}
			p.advance()
			p.emitOpByte(get, arg)
			p.expression()
			p.emitOp(compoundOps[ct])
			p.emitOpByte(set, arg)
			return
		}
	}
	p.emitOpByte(get, arg)
}

func (p *Parser) this(_ bool) {
	if p.currentClass == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.namedVariable(token.Token{Lexeme: "this"}, false)
}

func (p *Parser) super(_ bool) {
	if p.currentClass == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.currentClass.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.Dot, "Expect '.' after 'super'.")
	p.consume(token.Identifier, "Expect superclass method name.")
	nameConst := p.identifierConstant(p.previous)

	p.namedVariable(token.Token{Lexeme: "this"}, false)
	if p.match(token.LeftParen) {
		argc, unpack := p.argumentList()
		p.namedVariable(token.Token{Lexeme: "super"}, false)
		p.emitOp(chunk.OpSuper)
		p.emitByte(argc)
		p.emitByte(nameConst)
		p.emitByte(unpack)
	} else {
		p.namedVariable(token.Token{Lexeme: "super"}, false)
		p.emitOpByte(chunk.OpGetSuper, nameConst)
	}
}

func (p *Parser) dot(canAssign bool) {
	p.consume(token.Identifier, "Expect property name after '.'.")
	nameConst := p.identifierConstant(p.previous)

	if p.match(token.LeftParen) {
		argc, unpack := p.argumentList()
		p.emitOp(chunk.OpInvoke)
		p.emitByte(argc)
		p.emitByte(nameConst)
		p.emitByte(unpack)
		return
	}

	if canAssign && p.match(token.Equal) {
		p.expression()
		p.emitOpByte(chunk.OpSetProperty, nameConst)
		return
	}
	if canAssign {
		if ct, ok := compoundToken(p); ok {
			p.advance()
			p.emitOpByte(chunk.OpGetPropertyNoPop, nameConst)
			p.expression()
			p.emitOp(compoundOps[ct])
			p.emitOpByte(chunk.OpSetProperty, nameConst)
			return
		}
	}
	p.emitOpByte(chunk.OpGetProperty, nameConst)
}

func (p *Parser) call(_ bool) {
	argc, unpack := p.argumentList()
	p.emitOp(chunk.OpCall)
	p.emitByte(argc)
	p.emitByte(unpack)
}

// argumentList parses a parenthesized call's arguments, returning the
// argument count and a flag set when any argument was prefixed with `...`
// to splice a sequence into the call (spec §6 CALL <argc>
// <unpackFlag>).
func (p *Parser) argumentList() (argc, unpack byte) {
	if !p.check(token.RightParen) {
		for {
			if p.match(token.DotDotDot) {
				unpack = 1
			}
			p.expression()
			if argc == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expect ')' after arguments.")
	return argc, unpack
}
