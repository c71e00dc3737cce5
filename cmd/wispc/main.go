// Command wispc compiles a single wisp source file and reports the result:
// success prints nothing (or, with -print-code/-json, the compiled chunk),
// failure prints rendered diagnostics and exits non-zero. It is a compiler
// front end only — no REPL, no execution engine (spec §1 scope).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"wisp/chunk"
	"wisp/compiler"
	"wisp/config"
	"wisp/debug"
	"wisp/diag"
	"wisp/runtime"
)

func main() {
	printCode := false
	dumpJSON := false
	var path string

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-print-code":
			printCode = true
		case "-json":
			dumpJSON = true
		default:
			path = arg
		}
	}
	config.PrintCode = printCode
	config.DumpJSON = dumpJSON

	if path == "" {
		fmt.Fprintln(os.Stderr, "Usage: wispc [-print-code] [-json] <path>")
		os.Exit(64)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wispc: %s\n", err)
		os.Exit(74)
	}

	// sessionID tags this invocation's compile-failure summary line so a
	// caller driving many compiles (an IDE, a build tool) can correlate it
	// with the request that produced it. The rendered diagnostics and the
	// -print-code/-json output do not carry it.
	sessionID := uuid.New()

	moduleName := filepath.Base(path)
	host := runtime.NewHost("clock", "print", "input", "type", "len")

	fn, diags := compiler.Compile(moduleName, string(source), host)

	if len(diags) > 0 {
		diag.NewRenderer(os.Stderr).Render(diags, string(source))
		fmt.Fprintf(os.Stderr, "wispc[%s]: compile failed: %s\n", sessionID, moduleName)
	}
	if fn == nil {
		os.Exit(65)
	}

	ch := fn.Chunk.(*chunk.Chunk)

	if config.PrintCode {
		debug.DisassembleChunk(os.Stdout, ch, moduleName)
	}
	if config.DumpJSON {
		out, err := debug.DumpJSON(ch, moduleName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wispc: %s\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		fmt.Println()
	}
}
