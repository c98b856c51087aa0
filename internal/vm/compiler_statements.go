package vm

import "github.com/funvibe/lox/internal/token"

// declaration parses one declaration or statement, synchronizing after a
// syntax error so later statements still get checked
func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.error("Classes are not supported.")
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

// varDeclaration compiles `var name [= initializer];`
func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.ASSIGN) {
		p.expression()
	} else {
		p.emitOp(OP_NIL)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

// funDeclaration compiles `fun name(params) { body }`. The name is marked
// initialized before the body so the function can recurse.
func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TYPE_FUNCTION)
	p.defineVariable(global)
}

// function compiles a function body with its own nested compiler and emits
// the closure along with its upvalue capture pairs
func (p *Parser) function(funcType FunctionType) {
	compiler := newCompiler(p.compiler, funcType, p.heap)
	compiler.function.Name = copyString(p.heap, p.strings, []byte(p.previous.Lexeme))
	p.compiler = compiler
	p.beginScope()

	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			compiler.function.Arity++
			if compiler.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := p.parseVariable("Expect parameter name.")
			p.defineVariable(param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	function := p.endCompiler()
	p.emitOpShort(OP_CLOSURE, p.makeConstant(ObjVal(function)))

	// One (isLocal, index) pair per upvalue tells the VM where to capture
	for i := 0; i < function.UpvalueCount; i++ {
		if compiler.upvalues[i].isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(compiler.upvalues[i].index)
	}
}

// parseVariable consumes an identifier. Locals are declared here; globals
// return their name's constant index.
func (p *Parser) parseVariable(message string) int {
	p.consume(token.IDENT, message)

	p.declareVariable()
	if p.compiler.scopeDepth > 0 {
		return 0
	}

	return p.identifierConstant(p.previous)
}

// declareVariable adds a local for the name, rejecting redeclaration in the
// same scope. Globals are late-bound and skip this.
func (p *Parser) declareVariable() {
	if p.compiler.scopeDepth == 0 {
		return
	}

	name := p.previous
	c := p.compiler
	for i := c.localCount - 1; i >= 0; i-- {
		local := &c.locals[i]
		if local.depth != -1 && local.depth < c.scopeDepth {
			break
		}
		if local.name.Lexeme == name.Lexeme {
			p.error("Already a variable with this name in this scope.")
		}
	}

	p.addLocal(name)
}

// defineVariable makes a declared variable available: globals get a define
// instruction, locals just become initialized in place
func (p *Parser) defineVariable(global int) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpShort(OP_DEFINE_GLOBAL, global)
}

func (p *Parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(OP_POP)
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(OP_PRINT)
}

func (p *Parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.statement()

	elseJump := p.emitJump(OP_JUMP)

	p.patchJump(thenJump)
	p.emitOp(OP_POP)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := p.currentChunk().Len()

	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OP_POP)
}

// forStatement desugars to a while loop. The increment clause executes
// after the body, so it is compiled first, jumped over on the way in, and
// looped back to on the way out.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")

	// Initializer
	switch {
	case p.match(token.SEMICOLON):
		// No initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := p.currentChunk().Len()

	// Condition
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")

		exitJump = p.emitJump(OP_JUMP_IF_FALSE)
		p.emitOp(OP_POP)
	}

	// Increment
	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(OP_JUMP)
		incrementStart := p.currentChunk().Len()

		p.expression()
		p.emitOp(OP_POP)
		p.consume(token.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OP_POP)
	}

	p.endScope()
}

func (p *Parser) returnStatement() {
	if p.compiler.funcType == TYPE_SCRIPT {
		p.error("Can't return from top-level code.")
	}

	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}

	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(OP_RETURN)
}
