package vm

import (
	"fmt"
	"hash/fnv"
)

// ObjType identifies the kind of a heap object
type ObjType string

const (
	OBJ_STRING   ObjType = "STRING"
	OBJ_FUNCTION ObjType = "FUNCTION"
	OBJ_NATIVE   ObjType = "NATIVE"
	OBJ_CLOSURE  ObjType = "CLOSURE"
	OBJ_UPVALUE  ObjType = "UPVALUE"
)

// Obj is a heap-allocated runtime object. Every object is linked into the
// session's heap list at creation so teardown can free everything in one walk.
type Obj interface {
	Type() ObjType
	Inspect() string

	nextObj() Obj
	setNext(Obj)
	free()
}

// objLink provides the intrusive heap-list link shared by all objects
type objLink struct {
	next Obj
}

func (l *objLink) nextObj() Obj  { return l.next }
func (l *objLink) setNext(o Obj) { l.next = o }

// Heap owns every object allocated during one interpreter session.
// Objects are only released in bulk, by Free, at session teardown.
type Heap struct {
	head Obj
}

// Add links an object at the front of the heap list.
func (h *Heap) Add(o Obj) {
	o.setNext(h.head)
	h.head = o
}

// Len returns the number of live objects (walks the list).
func (h *Heap) Len() int {
	n := 0
	for o := h.head; o != nil; o = o.nextObj() {
		n++
	}
	return n
}

// Free releases the owned storage of every object and empties the list.
func (h *Heap) Free() {
	for o := h.head; o != nil; {
		next := o.nextObj()
		o.free()
		o.setNext(nil)
		o = next
	}
	h.head = nil
}

// ObjString is an interned, immutable string with a precomputed hash
type ObjString struct {
	objLink
	Chars []byte
	Hash  uint32
}

func (s *ObjString) Type() ObjType   { return OBJ_STRING }
func (s *ObjString) Inspect() string { return string(s.Chars) }
func (s *ObjString) String() string  { return string(s.Chars) }
func (s *ObjString) free()           { s.Chars = nil }

// hashBytes computes the 32-bit FNV-1a hash of a byte sequence
func hashBytes(chars []byte) uint32 {
	h := fnv.New32a()
	h.Write(chars)
	return h.Sum32()
}

// copyString interns a byte sequence, copying it into a fresh ObjString
// only when no identical string exists yet.
func copyString(heap *Heap, strings *Table, chars []byte) *ObjString {
	hash := hashBytes(chars)
	if interned := strings.FindString(chars, hash); interned != nil {
		return interned
	}
	owned := make([]byte, len(chars))
	copy(owned, chars)
	return allocateString(heap, strings, owned, hash)
}

// takeString interns a byte sequence the caller already owns (no copy).
func takeString(heap *Heap, strings *Table, chars []byte) *ObjString {
	hash := hashBytes(chars)
	if interned := strings.FindString(chars, hash); interned != nil {
		return interned
	}
	return allocateString(heap, strings, chars, hash)
}

func allocateString(heap *Heap, strings *Table, chars []byte, hash uint32) *ObjString {
	s := &ObjString{Chars: chars, Hash: hash}
	heap.Add(s)
	strings.Set(s, NilVal())
	return s
}

// ObjFunction is a compiled function body: its bytecode plus call metadata
type ObjFunction struct {
	objLink
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString // nil for the top-level script
}

func newFunction(heap *Heap) *ObjFunction {
	f := &ObjFunction{Chunk: NewChunk()}
	heap.Add(f)
	return f
}

func (f *ObjFunction) Type() ObjType { return OBJ_FUNCTION }
func (f *ObjFunction) Inspect() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}
func (f *ObjFunction) free() { f.Chunk = nil }

// NativeFn is a host function callable from Lox code
type NativeFn func(args []Value) Value

// ObjNative wraps a Go function as a Lox-callable value
type ObjNative struct {
	objLink
	Name  string
	Arity int
	Fn    NativeFn
}

func newNative(heap *Heap, name string, arity int, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Arity: arity, Fn: fn}
	heap.Add(n)
	return n
}

func (n *ObjNative) Type() ObjType   { return OBJ_NATIVE }
func (n *ObjNative) Inspect() string { return "<native fn>" }
func (n *ObjNative) free()           { n.Fn = nil }

// ObjClosure wraps an ObjFunction with its captured upvalues
type ObjClosure struct {
	objLink
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func newClosure(heap *Heap, function *ObjFunction) *ObjClosure {
	c := &ObjClosure{
		Function: function,
		Upvalues: make([]*ObjUpvalue, function.UpvalueCount),
	}
	heap.Add(c)
	return c
}

func (c *ObjClosure) Type() ObjType   { return OBJ_CLOSURE }
func (c *ObjClosure) Inspect() string { return c.Function.Inspect() }
func (c *ObjClosure) free()           { c.Upvalues = nil }

// ObjUpvalue is a captured variable from an enclosing scope.
// While open, Location is the captured stack slot; once closed, Location is
// -1 and Closed holds the value directly.
type ObjUpvalue struct {
	objLink
	Location int
	Closed   Value

	// NextOpen links the VM's open-upvalue list (sorted by location,
	// highest first)
	NextOpen *ObjUpvalue
}

func newUpvalue(heap *Heap, location int) *ObjUpvalue {
	u := &ObjUpvalue{Location: location}
	heap.Add(u)
	return u
}

func (u *ObjUpvalue) Type() ObjType   { return OBJ_UPVALUE }
func (u *ObjUpvalue) Inspect() string { return "upvalue" }
func (u *ObjUpvalue) free()           { u.Closed = NilVal() }
