package chunk

// Op is a single bytecode opcode. Operand widths are fixed per opcode and
// form a stable ABI with the execution engine (spec §6).
type Op uint8

const (
	// 0-operand opcodes.
	OpNil Op = iota
	OpTrue
	OpFalse
	OpPop
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpMod
	OpPow
	OpNot
	OpNegate
	OpBitwiseAnd
	OpBitwiseXor
	OpBitwiseOr
	OpCloseUpvalue
	OpReturn
	OpEndClass
	OpImportVariable
	OpImportEnd
	OpBreak
	OpPopRepl
	OpEmpty

	// 1-byte-operand opcodes.
	OpConstant
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpGetModule
	OpSetModule
	OpDefineModule
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpGetPropertyNoPop
	OpSetProperty
	OpSetClassVar
	OpGetSuper
	OpMethod
	OpImport
	OpClass
	OpSubclass

	// 2-byte-operand opcodes (unsigned big-endian offsets).
	OpJump
	OpJumpIfFalse
	OpLoop

	// Composite opcodes; operand shapes documented at each emission site.
	OpCall           // <argc> <unpackFlag>
	OpInvoke         // <argc> <nameIdx> <unpackFlag>
	OpSuper          // <argc> <nameIdx> <unpackFlag>
	OpDefineOptional // <required> <optional>
	OpClosure        // <fnIdx> {<isLocal> <index>} x upvalueCount
	OpImportFrom     // <count> <nameIdx> x count
)

var names = map[Op]string{
	OpNil:              "OP_NIL",
	OpTrue:              "OP_TRUE",
	OpFalse:             "OP_FALSE",
	OpPop:               "OP_POP",
	OpEqual:             "OP_EQUAL",
	OpGreater:           "OP_GREATER",
	OpLess:              "OP_LESS",
	OpAdd:               "OP_ADD",
	OpSubtract:          "OP_SUBTRACT",
	OpMultiply:          "OP_MULTIPLY",
	OpDivide:            "OP_DIVIDE",
	OpMod:               "OP_MOD",
	OpPow:               "OP_POW",
	OpNot:               "OP_NOT",
	OpNegate:            "OP_NEGATE",
	OpBitwiseAnd:        "OP_BITWISE_AND",
	OpBitwiseXor:        "OP_BITWISE_XOR",
	OpBitwiseOr:         "OP_BITWISE_OR",
	OpCloseUpvalue:      "OP_CLOSE_UPVALUE",
	OpReturn:            "OP_RETURN",
	OpEndClass:          "OP_END_CLASS",
	OpImportVariable:    "OP_IMPORT_VARIABLE",
	OpImportEnd:         "OP_IMPORT_END",
	OpBreak:             "OP_BREAK",
	OpPopRepl:           "OP_POP_REPL",
	OpEmpty:             "OP_EMPTY",
	OpConstant:          "OP_CONSTANT",
	OpGetLocal:          "OP_GET_LOCAL",
	OpSetLocal:          "OP_SET_LOCAL",
	OpGetGlobal:         "OP_GET_GLOBAL",
	OpGetModule:         "OP_GET_MODULE",
	OpSetModule:         "OP_SET_MODULE",
	OpDefineModule:      "OP_DEFINE_MODULE",
	OpGetUpvalue:        "OP_GET_UPVALUE",
	OpSetUpvalue:        "OP_SET_UPVALUE",
	OpGetProperty:       "OP_GET_PROPERTY",
	OpGetPropertyNoPop:  "OP_GET_PROPERTY_NO_POP",
	OpSetProperty:       "OP_SET_PROPERTY",
	OpSetClassVar:       "OP_SET_CLASS_VAR",
	OpGetSuper:          "OP_GET_SUPER",
	OpMethod:            "OP_METHOD",
	OpImport:            "OP_IMPORT",
	OpClass:             "OP_CLASS",
	OpSubclass:          "OP_SUBCLASS",
	OpJump:              "OP_JUMP",
	OpJumpIfFalse:       "OP_JUMP_IF_FALSE",
	OpLoop:              "OP_LOOP",
	OpCall:              "OP_CALL",
	OpInvoke:            "OP_INVOKE",
	OpSuper:             "OP_SUPER",
	OpDefineOptional:    "OP_DEFINE_OPTIONAL",
	OpClosure:           "OP_CLOSURE",
	OpImportFrom:        "OP_IMPORT_FROM",
}

func (op Op) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}
