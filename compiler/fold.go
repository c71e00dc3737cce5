package compiler

import (
	"wisp/chunk"
	"wisp/value"
)

// tryFoldArithmetic implements spec §4.E's peephole constant folding:
// immediately before emitting a binary arithmetic opcode, check whether
// the chunk's last four bytes are `OP_CONSTANT a, OP_CONSTANT b` with both
// pool entries numeric. If so, rewrite pool entry a in place with the
// folded result, drop b from the pool (it was just appended, so it is
// always the pool's last entry), and trim the `OP_CONSTANT b` instruction
// from the code stream — leaving only the original `OP_CONSTANT a`, now
// holding the folded value, and skipping the opcode itself.
func (p *Parser) tryFoldArithmetic(op chunk.Op) bool {
	ch := p.currentChunk()
	n := len(ch.Code)
	if n < 4 {
		return false
	}
	if chunk.Op(ch.Code[n-4]) != chunk.OpConstant || chunk.Op(ch.Code[n-2]) != chunk.OpConstant {
		return false
	}
	aIdx, bIdx := ch.Code[n-3], ch.Code[n-1]
	a, b := ch.Constants[aIdx], ch.Constants[bIdx]
	if !a.IsNumber() || !b.IsNumber() {
		return false
	}

	var result float64
	switch op {
	case chunk.OpAdd:
		result = a.AsNumber() + b.AsNumber()
	case chunk.OpSubtract:
		result = a.AsNumber() - b.AsNumber()
	case chunk.OpMultiply:
		result = a.AsNumber() * b.AsNumber()
	case chunk.OpDivide:
		if b.AsNumber() == 0 {
			return false
		}
		result = a.AsNumber() / b.AsNumber()
	default:
		return false
	}

	ch.Constants[aIdx] = value.Number(result)
	if int(bIdx) == len(ch.Constants)-1 {
		ch.Constants = ch.Constants[:len(ch.Constants)-1]
	}
	ch.Code = ch.Code[:n-2]
	ch.Lines = ch.Lines[:n-2]
	return true
}

// tryFoldNegate implements the unary fold `- <literal>`: rewrite the just-
// emitted numeric constant in place rather than emitting OP_NEGATE.
func (p *Parser) tryFoldNegate() bool {
	ch := p.currentChunk()
	n := len(ch.Code)
	if n < 2 || chunk.Op(ch.Code[n-2]) != chunk.OpConstant {
		return false
	}
	idx := ch.Code[n-1]
	v := ch.Constants[idx]
	if !v.IsNumber() {
		return false
	}
	ch.Constants[idx] = value.Number(-v.AsNumber())
	return true
}

// tryFoldNot implements `not true -> false` / `not false -> true`: flip the
// just-emitted zero-operand opcode in place rather than emitting OP_NOT.
func (p *Parser) tryFoldNot() bool {
	ch := p.currentChunk()
	n := len(ch.Code)
	if n < 1 {
		return false
	}
	switch chunk.Op(ch.Code[n-1]) {
	case chunk.OpTrue:
		ch.Code[n-1] = byte(chunk.OpFalse)
		return true
	case chunk.OpFalse:
		ch.Code[n-1] = byte(chunk.OpTrue)
		return true
	}
	return false
}
