// Package config holds the small set of compile-time feature toggles the
// driver and CLI consult, in the same spirit as the teacher's
// config.DEBUG_PRINT_CODE switch (compiler/compiler.go).
package config

// PrintCode, when true, makes the CLI disassemble the top-level script
// chunk to stdout after a successful compile. Chunks of nested functions
// are not disassembled.
var PrintCode = false

// DumpJSON, when true, makes the CLI print the compiled chunk as JSON
// instead of (or alongside) the human-readable disassembly.
var DumpJSON = false

// Color names a diagnostics colorization mode and defaults to "auto".
// Neither the CLI nor the diag renderer reads it: the renderer colorizes
// exactly when its destination is a terminal.
var Color = "auto"
