package vm

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble returns a human-readable representation of the bytecode
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = DisassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

// DisassembleInstruction writes a single instruction and returns the offset
// of the next one
func DisassembleInstruction(w io.Writer, chunk *Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)

	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Lines[offset])
	}

	op := Opcode(chunk.Code[offset])
	name, ok := OpcodeNames[op]
	if !ok {
		fmt.Fprintf(w, "Unknown opcode %d\n", op)
		return offset + 1
	}

	switch op {
	case OP_CONSTANT, OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL:
		return constantInstruction(w, name, chunk, offset)

	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE, OP_CALL:
		return byteInstruction(w, name, chunk, offset)

	case OP_JUMP, OP_JUMP_IF_FALSE:
		return jumpInstruction(w, name, 1, chunk, offset)

	case OP_LOOP:
		return jumpInstruction(w, name, -1, chunk, offset)

	case OP_CLOSURE:
		return closureInstruction(w, name, chunk, offset)

	default:
		return simpleInstruction(w, name, offset)
	}
}

func simpleInstruction(w io.Writer, name string, offset int) int {
	fmt.Fprintf(w, "%s\n", name)
	return offset + 1
}

func constantInstruction(w io.Writer, name string, chunk *Chunk, offset int) int {
	index := chunk.ReadConstantIndex(offset + 1)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", name, index, chunk.Constants[index].Inspect())
	return offset + 3
}

func byteInstruction(w io.Writer, name string, chunk *Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", name, slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, name string, sign int, chunk *Chunk, offset int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", name, offset, offset+3+sign*jump)
	return offset + 3
}

// closureInstruction prints the closure's function constant followed by one
// line per captured upvalue
func closureInstruction(w io.Writer, name string, chunk *Chunk, offset int) int {
	index := chunk.ReadConstantIndex(offset + 1)
	fmt.Fprintf(w, "%-16s %4d %s\n", name, index, chunk.Constants[index].Inspect())
	offset += 3

	function := chunk.Constants[index].Obj.(*ObjFunction)
	for i := 0; i < function.UpvalueCount; i++ {
		kind := "upvalue"
		if chunk.Code[offset] == 1 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d    |                     %s %d\n", offset, kind, chunk.Code[offset+1])
		offset += 2
	}

	return offset
}
