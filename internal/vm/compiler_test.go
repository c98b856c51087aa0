package vm

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// compileSource compiles without running, returning the function, the
// diagnostics and the error
func compileSource(t *testing.T, input string) (*ObjFunction, string, error) {
	t.Helper()

	heap := &Heap{}
	interner := &Table{}
	t.Cleanup(func() {
		heap.Free()
		interner.Free()
	})

	var errOut bytes.Buffer
	function, err := Compile(input, heap, interner, &errOut)
	return function, errOut.String(), err
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{`var;`, "Expect variable name."},
		{`var a = 1`, "Expect ';' after variable declaration."},
		{`{ var a = 1; var a = 2; }`, "Already a variable with this name in this scope."},
		{`{ var a = a; }`, "Can't read local variable in its own initializer."},
		{`1 + 2 = 3;`, "Invalid assignment target."},
		{`var a = 1; a + b = 2;`, "Invalid assignment target."},
		{`return 1;`, "Can't return from top-level code."},
		{`class Foo {}`, "Classes are not supported."},
		{`print;`, "Expect expression."},
		{`if 1 {}`, "Expect '(' after 'if'."},
		{`fun f( { }`, "Expect parameter name."},
		{`@`, "Unexpected character."},
		{`var s = "open`, "Unterminated string."},
	}

	for _, tt := range tests {
		_, diagnostics, err := compileSource(t, tt.input)
		if !errors.Is(err, ErrCompile) {
			t.Fatalf("%q - wrong error. got=%v, want ErrCompile", tt.input, err)
		}
		if !strings.Contains(diagnostics, tt.message) {
			t.Errorf("%q - missing diagnostic. got=%q, want substring %q",
				tt.input, diagnostics, tt.message)
		}
		if !strings.Contains(diagnostics, "[line ") {
			t.Errorf("%q - diagnostic should carry a line number. got=%q", tt.input, diagnostics)
		}
	}
}

func TestCompileErrorRecovery(t *testing.T) {
	// Panic mode suppresses cascades until a statement boundary, so both
	// independent errors are reported
	_, diagnostics, err := compileSource(t, `
var = 1;
var ok = 2;
print ;`)

	if !errors.Is(err, ErrCompile) {
		t.Fatalf("wrong error. got=%v, want ErrCompile", err)
	}
	if got := strings.Count(diagnostics, "Error"); got != 2 {
		t.Errorf("wrong error count. got=%d, want=2\n%s", got, diagnostics)
	}
}

func TestCompileProducesScriptFunction(t *testing.T) {
	function, diagnostics, err := compileSource(t, `var a = 1;`)
	if err != nil {
		t.Fatalf("compile error: %v\n%s", err, diagnostics)
	}
	if function.Name != nil {
		t.Errorf("script function should be unnamed. got=%s", function.Name)
	}
	if function.Arity != 0 {
		t.Errorf("script arity should be 0. got=%d", function.Arity)
	}
	if function.Chunk.Len() == 0 {
		t.Errorf("script chunk should not be empty")
	}
}

func TestDisassembleExpression(t *testing.T) {
	function, _, err := compileSource(t, `print 1 + 2;`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	listing := Disassemble(function.Chunk, "<script>")
	for _, want := range []string{"== <script> ==", "CONSTANT", "ADD", "PRINT", "NIL", "RETURN"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestDisassembleClosure(t *testing.T) {
	function, _, err := compileSource(t, `
fun outer() {
  var x = 1;
  fun inner() { return x; }
  return inner;
}`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	listing := Disassemble(function.Chunk, "<script>")
	if !strings.Contains(listing, "CLOSURE") {
		t.Errorf("listing missing CLOSURE:\n%s", listing)
	}

	// The nested function captures x, so its CLOSURE instruction carries
	// an upvalue pair
	var outer *ObjFunction
	for _, constant := range function.Chunk.Constants {
		if fn, ok := constant.Obj.(*ObjFunction); ok {
			outer = fn
		}
	}
	if outer == nil {
		t.Fatalf("outer function not found in constant pool")
	}

	var inner *ObjFunction
	for _, constant := range outer.Chunk.Constants {
		if fn, ok := constant.Obj.(*ObjFunction); ok {
			inner = fn
		}
	}
	if inner == nil {
		t.Fatalf("inner function not found in outer's constant pool")
	}
	if inner.UpvalueCount != 1 {
		t.Errorf("inner should capture one upvalue. got=%d", inner.UpvalueCount)
	}

	outerListing := Disassemble(outer.Chunk, "outer")
	if !strings.Contains(outerListing, "local 1") {
		t.Errorf("outer's CLOSURE should list the captured local:\n%s", outerListing)
	}
}

func TestUpvalueDeduplication(t *testing.T) {
	function, _, err := compileSource(t, `
fun outer() {
  var x = 1;
  fun inner() { return x + x; }
  return inner;
}`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	var outer *ObjFunction
	for _, constant := range function.Chunk.Constants {
		if fn, ok := constant.Obj.(*ObjFunction); ok {
			outer = fn
		}
	}
	var inner *ObjFunction
	for _, constant := range outer.Chunk.Constants {
		if fn, ok := constant.Obj.(*ObjFunction); ok {
			inner = fn
		}
	}
	if inner.UpvalueCount != 1 {
		t.Errorf("double use of one variable should share one upvalue. got=%d", inner.UpvalueCount)
	}
}

func TestTooManyLocals(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("{\n")
	// Slot 0 is reserved for the callee, so MaxLocals declarations
	// overflow the local array
	for i := 0; i < MaxLocals; i++ {
		fmt.Fprintf(&sb, "var l%d = 0;\n", i)
	}
	sb.WriteString("}\n")

	_, diagnostics, err := compileSource(t, sb.String())
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("wrong error. got=%v, want ErrCompile", err)
	}
	if !strings.Contains(diagnostics, "Too many local variables in function.") {
		t.Errorf("missing diagnostic. got=%q", diagnostics)
	}
}
