package compiler

import (
	"testing"

	"wisp/chunk"
	"wisp/diag"
	"wisp/value"
)

// fakeHost is a minimal Collaborator for tests: it never interns for real,
// just tracks the const/builtin tables the compiler actually queries.
type fakeHost struct {
	builtins map[string]bool
	consts   map[string]bool
}

func newFakeHost(builtins ...string) *fakeHost {
	b := make(map[string]bool)
	for _, n := range builtins {
		b[n] = true
	}
	return &fakeHost{builtins: b, consts: make(map[string]bool)}
}

func (h *fakeHost) InternString(s string) *value.ObjString { return &value.ObjString{Str: s} }

func (h *fakeHost) NewFunction(module string, kind value.FuncKind, access value.AccessLevel) *value.ObjFunction {
	return &value.ObjFunction{Module: module, Kind: kind, Access: access}
}

func (h *fakeHost) PushValue(value.Value)      {}
func (h *fakeHost) PopValue() value.Value      { return value.Nil() }
func (h *fakeHost) IsBuiltinGlobal(n string) bool { return h.builtins[n] }
func (h *fakeHost) MarkConst(n string)         { h.consts[n] = true }
func (h *fakeHost) IsConst(n string) bool      { return h.consts[n] }

func compileOK(t *testing.T, src string, builtins ...string) (*value.ObjFunction, *chunk.Chunk) {
	t.Helper()
	fn, diags := Compile("test", src, newFakeHost(builtins...))
	if fn == nil {
		t.Fatalf("compile(%q) failed: %v", src, diags)
	}
	return fn, fn.Chunk.(*chunk.Chunk)
}

func compileErr(t *testing.T, src string, builtins ...string) []diag.Diagnostic {
	t.Helper()
	fn, diags := Compile("test", src, newFakeHost(builtins...))
	if fn != nil {
		t.Fatalf("compile(%q): expected failure, got success", src)
	}
	if len(diags) == 0 {
		t.Fatalf("compile(%q): expected diagnostics, got none", src)
	}
	return diags
}

func TestEmptyScriptEmitsImplicitNilReturn(t *testing.T) {
	_, ch := compileOK(t, "")
	want := []byte{byte(chunk.OpNil), byte(chunk.OpReturn)}
	if string(ch.Code) != string(want) {
		t.Fatalf("code = %v, want %v", ch.Code, want)
	}
}

func TestExpressionStatementPopsItsValue(t *testing.T) {
	_, ch := compileOK(t, "1;")
	want := []byte{byte(chunk.OpConstant), 0, byte(chunk.OpPop), byte(chunk.OpNil), byte(chunk.OpReturn)}
	if string(ch.Code) != string(want) {
		t.Fatalf("code = %v, want %v", ch.Code, want)
	}
}

func TestAssignToConstIsCompileError(t *testing.T) {
	diags := compileErr(t, "const x = 1; x = 2;")
	if diags[0].Message != "Cannot assign to a constant." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestAssignToBuiltinGlobalIsCompileError(t *testing.T) {
	diags := compileErr(t, "clock = 1;", "clock")
	if diags[0].Message != "Cannot assign to a built-in global." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestConstWithoutInitializerIsCompileError(t *testing.T) {
	diags := compileErr(t, "const x;")
	if diags[0].Message != "Const must be initialized." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	diags := compileErr(t, "break;")
	if diags[0].Message != "Cannot utilise 'break' outside of a loop." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestContinueOutsideLoopIsCompileError(t *testing.T) {
	diags := compileErr(t, "continue;")
	if diags[0].Message != "Cannot utilise 'continue' outside of a loop." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestReturnAtTopLevelIsCompileError(t *testing.T) {
	diags := compileErr(t, "return 1;")
	if diags[0].Message != "Can't return from top-level code." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestReturnValueFromInitializerIsCompileError(t *testing.T) {
	diags := compileErr(t, "class C { def init() { return 1; } }")
	found := false
	for _, d := range diags {
		if d.Message == "Can't return a value from an initializer." {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %v, want \"Can't return a value from an initializer.\"", diags)
	}
}

func TestUseThisOutsideClassIsCompileError(t *testing.T) {
	diags := compileErr(t, "def f() { return this; }")
	if diags[0].Message != "Can't use 'this' outside of a class." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestSuperWithoutSuperclassIsCompileError(t *testing.T) {
	diags := compileErr(t, "class C { def m() { super.m(); } }")
	found := false
	for _, d := range diags {
		if d.Message == "Can't use 'super' in a class with no superclass." {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %v", diags)
	}
}

func TestClassCannotInheritFromItself(t *testing.T) {
	diags := compileErr(t, "class C < C {}")
	found := false
	for _, d := range diags {
		if d.Message == "A class can't inherit from itself." {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %v", diags)
	}
}

func TestReadLocalInOwnInitializerIsCompileError(t *testing.T) {
	diags := compileErr(t, "{ var x = x; }")
	if diags[0].Message != "Can't read local variable in its own initializer." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestRedeclareLocalInSameScopeIsCompileError(t *testing.T) {
	diags := compileErr(t, "{ var x = 1; var x = 2; }")
	if diags[0].Message != "Already a variable with this name in this scope." {
		t.Fatalf("message = %q", diags[0].Message)
	}
}

func TestVariadicParamMustBeLast(t *testing.T) {
	diags := compileErr(t, "def f(...a, b) {}")
	found := false
	for _, d := range diags {
		if d.Message == "Spread parameter must be last." {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %v", diags)
	}
}

func TestOptionalThenRequiredParamIsCompileError(t *testing.T) {
	diags := compileErr(t, "def f(a = 1, b) {}")
	found := false
	for _, d := range diags {
		if d.Message == "Non-optional parameter after optional parameter." {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %v", diags)
	}
}

func TestVariadicParamNotPermittedInInit(t *testing.T) {
	diags := compileErr(t, "class C { def init(...a) {} }")
	found := false
	for _, d := range diags {
		if d.Message == "Spread parameter not permitted in 'init'." {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %v", diags)
	}
}

func TestOptionalParametersEmitDefineOptional(t *testing.T) {
	_, ch := compileOK(t, "def f(a, b = 1) { return a; }")
	// f was compiled into its own function object and chunk, reachable via
	// the OP_CLOSURE constant in the enclosing script's pool.
	var fn *value.ObjFunction
	for _, c := range ch.Constants {
		if c.IsObjKind(value.ObjFunctionKind) && c.AsFunction().Name == "f" {
			fn = c.AsFunction()
		}
	}
	if fn == nil {
		t.Fatalf("f not found among constants")
	}
	if fn.ArityOptional != 1 {
		t.Fatalf("ArityOptional = %d, want 1", fn.ArityOptional)
	}
	// The default value `1` (OP_CONSTANT k) is compiled inside the parameter
	// list; OP_DEFINE_OPTIONAL <required=1> <optional=1> follows it, before
	// the body.
	inner := fn.Chunk.(*chunk.Chunk)
	found := len(inner.Code) >= 5 &&
		chunk.Op(inner.Code[0]) == chunk.OpConstant &&
		chunk.Op(inner.Code[2]) == chunk.OpDefineOptional &&
		inner.Code[3] == 1 && inner.Code[4] == 1
	if !found {
		t.Fatalf("expected OP_DEFINE_OPTIONAL 1 1 after the default value, code = %v", inner.Code)
	}
}

func TestInitPropertyParamRecordsPropertyConstant(t *testing.T) {
	_, ch := compileOK(t, "class C { def init(var x) {} }")
	var fn *value.ObjFunction
	for _, c := range ch.Constants {
		if c.IsObjKind(value.ObjFunctionKind) && c.AsFunction().Name == "init" {
			fn = c.AsFunction()
		}
	}
	if fn == nil {
		t.Fatalf("init method not found among constants")
	}
	if len(fn.PropertyParams) != 1 {
		t.Fatalf("PropertyParams = %v, want one entry", fn.PropertyParams)
	}
	inner := fn.Chunk.(*chunk.Chunk)
	if inner.Constants[fn.PropertyParams[0]].String() != "x" {
		t.Fatalf("PropertyParams[0] names %q, want \"x\"", inner.Constants[fn.PropertyParams[0]].String())
	}
}

func TestMethodAccessLevelReflectsPrivateKeyword(t *testing.T) {
	_, ch := compileOK(t, "class C { private def secret() {} def open() {} }")
	var secret, open *value.ObjFunction
	for _, c := range ch.Constants {
		if !c.IsObjKind(value.ObjFunctionKind) {
			continue
		}
		switch c.AsFunction().Name {
		case "secret":
			secret = c.AsFunction()
		case "open":
			open = c.AsFunction()
		}
	}
	if secret == nil || open == nil {
		t.Fatalf("expected both methods to be compiled as constants")
	}
	if secret.Access != value.AccessPrivate {
		t.Fatalf("secret.Access = %v, want AccessPrivate", secret.Access)
	}
	if open.Access != value.AccessPublic {
		t.Fatalf("open.Access = %v, want AccessPublic", open.Access)
	}
}
