// Package vm implements a bytecode compiler and virtual machine for Lox
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Constants and literals
	OP_CONSTANT Opcode = iota // Push constant from pool (2-byte index)
	OP_NIL                    // Push nil
	OP_TRUE                   // Push true
	OP_FALSE                  // Push false

	// Stack manipulation
	OP_POP // Discard top of stack

	// Variables
	OP_GET_LOCAL     // Get local variable by slot
	OP_SET_LOCAL     // Set local variable by slot
	OP_GET_GLOBAL    // Get global variable by name constant
	OP_DEFINE_GLOBAL // Define global variable (pops initializer)
	OP_SET_GLOBAL    // Assign to existing global variable
	OP_GET_UPVALUE   // Get captured variable
	OP_SET_UPVALUE   // Set captured variable

	// Comparison
	OP_EQUAL   // ==
	OP_GREATER // >
	OP_LESS    // <

	// Arithmetic
	OP_ADD      // + (numbers or string concatenation)
	OP_SUBTRACT // -
	OP_MULTIPLY // *
	OP_DIVIDE   // /

	// Logic
	OP_NOT    // !
	OP_NEGATE // Unary minus

	// Output
	OP_PRINT // Print top of stack

	// Control flow
	OP_JUMP          // Unconditional forward jump
	OP_JUMP_IF_FALSE // Jump forward if top of stack is falsey (peeks)
	OP_LOOP          // Jump backward

	// Functions and closures
	OP_CALL          // Call value with N arguments
	OP_CLOSURE       // Create closure, followed by (isLocal, index) pairs
	OP_CLOSE_UPVALUE // Close topmost stack slot's upvalue and pop
	OP_RETURN        // Return from function
)

// OpcodeNames maps opcodes to their string names (for disassembly)
var OpcodeNames = map[Opcode]string{
	OP_CONSTANT: "CONSTANT",
	OP_NIL:      "NIL",
	OP_TRUE:     "TRUE",
	OP_FALSE:    "FALSE",

	OP_POP: "POP",

	OP_GET_LOCAL:     "GET_LOCAL",
	OP_SET_LOCAL:     "SET_LOCAL",
	OP_GET_GLOBAL:    "GET_GLOBAL",
	OP_DEFINE_GLOBAL: "DEFINE_GLOBAL",
	OP_SET_GLOBAL:    "SET_GLOBAL",
	OP_GET_UPVALUE:   "GET_UPVALUE",
	OP_SET_UPVALUE:   "SET_UPVALUE",

	OP_EQUAL:   "EQUAL",
	OP_GREATER: "GREATER",
	OP_LESS:    "LESS",

	OP_ADD:      "ADD",
	OP_SUBTRACT: "SUBTRACT",
	OP_MULTIPLY: "MULTIPLY",
	OP_DIVIDE:   "DIVIDE",

	OP_NOT:    "NOT",
	OP_NEGATE: "NEGATE",

	OP_PRINT: "PRINT",

	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_LOOP:          "LOOP",

	OP_CALL:          "CALL",
	OP_CLOSURE:       "CLOSURE",
	OP_CLOSE_UPVALUE: "CLOSE_UPVALUE",
	OP_RETURN:        "RETURN",
}
