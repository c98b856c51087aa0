package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/funvibe/lox/internal/config"
)

// Errors surfaced to the host. Check with errors.Is.
var (
	ErrCompile = errors.New("compile error")
	ErrRuntime = errors.New("runtime error")
)

// errValueStackOverflow signals push overflow out of the hot path; the run
// loop recovers it into a regular runtime error
var errValueStackOverflow = errors.New("value stack overflow")

// FramesMax limits call depth
const FramesMax = 64

// StackMax is the value stack capacity
const StackMax = FramesMax * 256

// CallFrame represents a single ongoing function call
type CallFrame struct {
	closure *ObjClosure // the closure being executed
	ip      int         // instruction pointer within the closure's chunk
	base    int         // where this frame's slots start; slot 0 is the callee
}

// VM is the virtual machine that executes bytecode. One VM is one
// interpreter session: it owns the heap, the string interner and the
// globals, all torn down together by Free.
type VM struct {
	stack [StackMax]Value
	sp    int // points to the next free slot

	frames     [FramesMax]CallFrame
	frameCount int

	globals Table
	strings Table // interner, shared with the compiler
	heap    Heap

	// Linked list of open upvalues, sorted by stack slot (highest first)
	openUpvalues *ObjUpvalue

	out    io.Writer
	errOut io.Writer

	options config.Options
}

// New creates a fresh interpreter session
func New() *VM {
	return &VM{
		out:     os.Stdout,
		errOut:  os.Stderr,
		options: config.DefaultOptions(),
	}
}

// SetOutput sets the writer print statements go to
func (vm *VM) SetOutput(w io.Writer) {
	vm.out = w
}

// SetErrorOutput sets the writer diagnostics go to
func (vm *VM) SetErrorOutput(w io.Writer) {
	vm.errOut = w
}

// SetOptions applies interpreter options (tracing, disassembly)
func (vm *VM) SetOptions(opts config.Options) {
	vm.options = opts
}

// Interpret compiles and runs one program in this session. It returns
// ErrCompile or ErrRuntime; diagnostics have already been written to the
// error output by the time it returns.
func (vm *VM) Interpret(source string) error {
	function, err := Compile(source, &vm.heap, &vm.strings, vm.errOut)
	if err != nil {
		return err
	}

	if vm.options.Disassemble {
		fmt.Fprint(vm.errOut, Disassemble(function.Chunk, function.Inspect()))
	}

	closure := newClosure(&vm.heap, function)
	vm.push(ObjVal(closure))
	vm.call(closure, 0)

	return vm.run()
}

// Free releases everything the session owns: every heap object once, then
// the table bucket arrays.
func (vm *VM) Free() {
	vm.heap.Free()
	vm.globals.Free()
	vm.strings.Free()
	vm.resetStack()
}

// RegisterNative installs a host function as a global prior to running
// user code
func (vm *VM) RegisterNative(name string, arity int, fn NativeFn) {
	nameStr := copyString(&vm.heap, &vm.strings, []byte(name))
	native := newNative(&vm.heap, name, arity, fn)
	vm.globals.Set(nameStr, ObjVal(native))
}

// LookupString returns the session's interned string for the given text,
// or nil if it was never interned. Host inspection surface.
func (vm *VM) LookupString(s string) *ObjString {
	chars := []byte(s)
	return vm.strings.FindString(chars, hashBytes(chars))
}

// Global reads a global by its interned name. Host inspection surface.
func (vm *VM) Global(key *ObjString) (Value, bool) {
	if key == nil {
		return NilVal(), false
	}
	return vm.globals.Get(key)
}

// InternedStrings exposes the interner (read-only use by tests)
func (vm *VM) InternedStrings() *Table {
	return &vm.strings
}

// internString interns text at runtime (used by natives that build strings)
func (vm *VM) internString(chars []byte) *ObjString {
	return copyString(&vm.heap, &vm.strings, chars)
}

// Stack operations

func (vm *VM) push(v Value) {
	if vm.sp == StackMax {
		panic(errValueStackOverflow)
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) resetStack() {
	vm.sp = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// Bytecode read helpers, all relative to the current frame

func (vm *VM) currentFrame() *CallFrame {
	return &vm.frames[vm.frameCount-1]
}

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

// readShort reads a 2-byte big-endian operand
func (vm *VM) readShort(frame *CallFrame) int {
	chunk := frame.closure.Function.Chunk
	v := int(chunk.Code[frame.ip])<<8 | int(chunk.Code[frame.ip+1])
	frame.ip += 2
	return v
}

func (vm *VM) readConstant(frame *CallFrame) Value {
	return frame.closure.Function.Chunk.Constants[vm.readShort(frame)]
}

func (vm *VM) readString(frame *CallFrame) *ObjString {
	return vm.readConstant(frame).AsString()
}

// runtimeError reports a runtime failure: the message, then a stack trace
// walking the frames innermost out. The session's stacks are reset; the
// heap and tables stay alive until Free.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	fmt.Fprintf(vm.errOut, format, args...)
	fmt.Fprintln(vm.errOut)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		function := frame.closure.Function
		line := function.Chunk.Lines[frame.ip-1]
		if function.Name == nil {
			fmt.Fprintf(vm.errOut, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(vm.errOut, "[line %d] in %s()\n", line, function.Name)
		}
	}

	vm.resetStack()
	return ErrRuntime
}

// Upvalue bookkeeping

// captureUpvalue creates or reuses an open upvalue for the given stack slot.
// The open list is kept sorted by slot, highest first, so closing a frame
// only looks at the list head.
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	upvalue := vm.openUpvalues

	for upvalue != nil && upvalue.Location > slot {
		prev = upvalue
		upvalue = upvalue.NextOpen
	}

	if upvalue != nil && upvalue.Location == slot {
		return upvalue
	}

	created := newUpvalue(&vm.heap, slot)
	created.NextOpen = upvalue

	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}

	return created
}

// closeUpvalues closes every open upvalue at or above lastSlot, moving the
// captured value off the stack into the upvalue itself
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= lastSlot {
		upvalue := vm.openUpvalues
		upvalue.Closed = vm.stack[upvalue.Location]
		upvalue.Location = -1
		vm.openUpvalues = upvalue.NextOpen
		upvalue.NextOpen = nil
	}
}
