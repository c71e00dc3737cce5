// Package debug renders a compiled chunk back into a human-readable
// disassembly or a JSON dump, mirroring the teacher's debug.DisassembleChunk
// (debug/debug.go) generalized to wisp's full opcode set.
package debug

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"wisp/chunk"
)

// DisassembleChunk writes name's chunk to w, one instruction per line, in
// the "0004  12 OP_CONSTANT    3 '1'" shape the teacher's disassembler
// uses.
func DisassembleChunk(w io.Writer, c *chunk.Chunk, name string) {
	fmt.Fprintf(w, "== %s (%s) ==\n", name, humanize.Bytes(uint64(len(c.Code))))
	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

func simpleInstruction(w io.Writer, name string, offset int) int {
	fmt.Fprintf(w, "%s\n", name)
	return offset + 1
}

func constantInstruction(w io.Writer, name string, c *chunk.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-22s %4d '%s'\n", name, idx, describeConstant(c, idx))
	return offset + 2
}

func byteInstruction(w io.Writer, name string, c *chunk.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-22s %4d\n", name, slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, name string, sign int, c *chunk.Chunk, offset int) int {
	jump := binary.BigEndian.Uint16(c.Code[offset+1 : offset+3])
	fmt.Fprintf(w, "%-22s %4d -> %d\n", name, offset, offset+3+sign*int(jump))
	return offset + 3
}

func callInstruction(w io.Writer, name string, c *chunk.Chunk, offset int) int {
	argc, unpack := c.Code[offset+1], c.Code[offset+2]
	fmt.Fprintf(w, "%-22s argc=%d unpack=%d\n", name, argc, unpack)
	return offset + 3
}

func invokeInstruction(w io.Writer, name string, c *chunk.Chunk, offset int) int {
	argc, nameIdx, unpack := c.Code[offset+1], c.Code[offset+2], c.Code[offset+3]
	fmt.Fprintf(w, "%-22s argc=%d '%s' unpack=%d\n", name, argc, describeConstant(c, nameIdx), unpack)
	return offset + 4
}

func closureInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	constIdx := c.Code[offset+1]
	funcVal := c.Constants[constIdx]
	fmt.Fprintf(w, "%-22s %4d '%s'\n", "OP_CLOSURE", constIdx, funcVal.String())

	fn := funcVal.AsFunction()
	pos := offset + 2
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal, index := c.Code[pos], c.Code[pos+1]
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %-7s %d\n", offset, kind, index)
		pos += 2
	}
	return pos
}

func importFromInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	count := c.Code[offset+1]
	fmt.Fprintf(w, "%-22s count=%d", "OP_IMPORT_FROM", count)
	pos := offset + 2
	for i := byte(0); i < count; i++ {
		fmt.Fprintf(w, " '%s'", describeConstant(c, c.Code[pos]))
		pos++
	}
	fmt.Fprintln(w)
	return pos
}

func describeConstant(c *chunk.Chunk, idx byte) string {
	if int(idx) >= len(c.Constants) {
		return "<out of range>"
	}
	s := c.Constants[idx].String()
	return runewidth.Truncate(s, 40, "...")
}

// DisassembleInstruction writes the single instruction at offset and
// returns the offset of the next one.
func DisassembleInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := chunk.Op(c.Code[offset])
	switch op {
	case chunk.OpNil, chunk.OpTrue, chunk.OpFalse, chunk.OpPop, chunk.OpEqual,
		chunk.OpGreater, chunk.OpLess, chunk.OpAdd, chunk.OpSubtract, chunk.OpMultiply,
		chunk.OpDivide, chunk.OpMod, chunk.OpPow, chunk.OpNot, chunk.OpNegate,
		chunk.OpBitwiseAnd, chunk.OpBitwiseXor, chunk.OpBitwiseOr, chunk.OpCloseUpvalue,
		chunk.OpReturn, chunk.OpEndClass, chunk.OpImportVariable, chunk.OpImportEnd,
		chunk.OpBreak, chunk.OpPopRepl, chunk.OpEmpty:
		return simpleInstruction(w, op.String(), offset)

	case chunk.OpConstant, chunk.OpGetGlobal, chunk.OpGetModule, chunk.OpSetModule,
		chunk.OpDefineModule, chunk.OpGetProperty, chunk.OpGetPropertyNoPop,
		chunk.OpSetProperty, chunk.OpSetClassVar, chunk.OpGetSuper, chunk.OpMethod,
		chunk.OpImport, chunk.OpClass, chunk.OpSubclass:
		return constantInstruction(w, op.String(), c, offset)

	case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpGetUpvalue, chunk.OpSetUpvalue:
		return byteInstruction(w, op.String(), c, offset)

	case chunk.OpJump, chunk.OpJumpIfFalse:
		return jumpInstruction(w, op.String(), 1, c, offset)
	case chunk.OpLoop:
		return jumpInstruction(w, op.String(), -1, c, offset)

	case chunk.OpCall:
		return callInstruction(w, op.String(), c, offset)
	case chunk.OpInvoke, chunk.OpSuper:
		return invokeInstruction(w, op.String(), c, offset)
	case chunk.OpDefineOptional:
		required, optional := c.Code[offset+1], c.Code[offset+2]
		fmt.Fprintf(w, "%-22s required=%d optional=%d\n", "OP_DEFINE_OPTIONAL", required, optional)
		return offset + 3
	case chunk.OpClosure:
		return closureInstruction(w, c, offset)
	case chunk.OpImportFrom:
		return importFromInstruction(w, c, offset)
	}

	fmt.Fprintf(w, "Unknown opcode %d\n", op)
	return offset + 1
}
