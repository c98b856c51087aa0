package vm

import "github.com/funvibe/lox/internal/token"

// beginScope starts a new block scope
func (p *Parser) beginScope() {
	p.compiler.scopeDepth++
}

// endScope ends the current scope and emits cleanup code. Captured locals
// are closed into their upvalues instead of being plainly popped.
func (p *Parser) endScope() {
	c := p.compiler
	c.scopeDepth--

	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		if c.locals[c.localCount-1].isCaptured {
			p.emitOp(OP_CLOSE_UPVALUE)
		} else {
			p.emitOp(OP_POP)
		}
		c.localCount--
	}
}

// addLocal declares a local in the current scope. Its depth stays -1 until
// the initializer has been compiled.
func (p *Parser) addLocal(name token.Token) {
	c := p.compiler
	if c.localCount == MaxLocals {
		p.error("Too many local variables in function.")
		return
	}
	c.locals[c.localCount] = Local{name: name, depth: -1}
	c.localCount++
}

func (p *Parser) markInitialized() {
	c := p.compiler
	if c.scopeDepth == 0 {
		return
	}
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// resolveLocal looks up a local by name, innermost first
func (p *Parser) resolveLocal(c *Compiler, name token.Token) int {
	for i := c.localCount - 1; i >= 0; i-- {
		local := &c.locals[i]
		if local.name.Lexeme == name.Lexeme {
			if local.depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue looks for the variable in enclosing functions. Finding it
// as a local there marks that local captured and threads an upvalue through
// every compiler in between.
func (p *Parser) resolveUpvalue(c *Compiler, name token.Token) int {
	if c.enclosing == nil {
		return -1
	}

	if local := p.resolveLocal(c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return p.addUpvalue(c, uint8(local), true)
	}

	if upvalue := p.resolveUpvalue(c.enclosing, name); upvalue != -1 {
		return p.addUpvalue(c, uint8(upvalue), false)
	}

	return -1
}

// addUpvalue registers an upvalue on the compiler, deduplicating by
// (index, isLocal) so a variable captured twice shares one slot.
func (p *Parser) addUpvalue(c *Compiler, index uint8, isLocal bool) int {
	count := c.function.UpvalueCount
	for i := 0; i < count; i++ {
		if c.upvalues[i].index == index && c.upvalues[i].isLocal == isLocal {
			return i
		}
	}

	if count == MaxLocals {
		p.error("Too many closure variables in function.")
		return 0
	}

	c.upvalues[count] = Upvalue{index: index, isLocal: isLocal}
	c.function.UpvalueCount++
	return count
}

// Emit helpers. Everything goes into the chunk of the function currently
// being compiled, tagged with the previous token's line.

func (p *Parser) currentChunk() *Chunk {
	return p.compiler.function.Chunk
}

func (p *Parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *Parser) emitOp(op Opcode) {
	p.currentChunk().WriteOp(op, p.previous.Line)
}

func (p *Parser) emitOps(op1, op2 Opcode) {
	p.emitOp(op1)
	p.emitOp(op2)
}

// emitOpShort emits an opcode with a 2-byte big-endian operand
func (p *Parser) emitOpShort(op Opcode, operand int) {
	p.emitOp(op)
	p.emitByte(byte(operand >> 8))
	p.emitByte(byte(operand))
}

func (p *Parser) emitReturn() {
	p.emitOp(OP_NIL)
	p.emitOp(OP_RETURN)
}

// makeConstant adds a value to the constant pool, enforcing the 2-byte
// index limit
func (p *Parser) makeConstant(value Value) int {
	index := p.currentChunk().AddConstant(value)
	if index > 0xffff {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return index
}

func (p *Parser) emitConstant(value Value) {
	p.emitOpShort(OP_CONSTANT, p.makeConstant(value))
}

// identifierConstant interns an identifier's name and stores it in the
// constant pool
func (p *Parser) identifierConstant(name token.Token) int {
	s := copyString(p.heap, p.strings, []byte(name.Lexeme))
	return p.makeConstant(ObjVal(s))
}

// emitJump emits a forward jump with a placeholder 2-byte offset and
// returns the offset's position for patching
func (p *Parser) emitJump(op Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return p.currentChunk().Len() - 2
}

// patchJump back-fills a forward jump's offset to land after the last
// emitted byte
func (p *Parser) patchJump(offset int) {
	// -2 adjusts for the offset bytes themselves
	jump := p.currentChunk().Len() - offset - 2

	if jump > 0xffff {
		p.error("Too much code to jump over.")
	}

	p.currentChunk().Code[offset] = byte(jump >> 8)
	p.currentChunk().Code[offset+1] = byte(jump)
}

// emitLoop emits a backward jump to loopStart
func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(OP_LOOP)

	offset := p.currentChunk().Len() - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
	}

	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}
