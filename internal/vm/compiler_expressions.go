package vm

import (
	"strconv"

	"github.com/funvibe/lox/internal/token"
)

// expression compiles a single expression
func (p *Parser) expression() {
	p.parsePrecedence(PREC_ASSIGNMENT)
}

// parsePrecedence parses everything at the given precedence or higher.
// Assignment is only allowed when the surrounding precedence permits it;
// the flag travels into the prefix rule so `a = c` assigns while
// `a + b = c` reports an error here.
func (p *Parser) parsePrecedence(precedence Precedence) {
	p.advance()
	prefix := getRule(p.previous.Type).prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := precedence <= PREC_ASSIGNMENT
	prefix(p, canAssign)

	for precedence <= getRule(p.current.Type).precedence {
		p.advance()
		infix := getRule(p.previous.Type).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.ASSIGN) {
		p.error("Invalid assignment target.")
	}
}

// number compiles a numeric literal
func (p *Parser) number(canAssign bool) {
	value, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(NumberVal(value))
}

// str compiles a string literal, trimming the surrounding quotes
func (p *Parser) str(canAssign bool) {
	lexeme := p.previous.Lexeme
	s := copyString(p.heap, p.strings, []byte(lexeme[1:len(lexeme)-1]))
	p.emitConstant(ObjVal(s))
}

// literal compiles nil, true and false
func (p *Parser) literal(canAssign bool) {
	switch p.previous.Type {
	case token.NIL:
		p.emitOp(OP_NIL)
	case token.TRUE:
		p.emitOp(OP_TRUE)
	case token.FALSE:
		p.emitOp(OP_FALSE)
	}
}

// grouping compiles a parenthesized expression
func (p *Parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

// unary compiles ! and unary -
func (p *Parser) unary(canAssign bool) {
	operator := p.previous.Type

	p.parsePrecedence(PREC_UNARY)

	switch operator {
	case token.BANG:
		p.emitOp(OP_NOT)
	case token.MINUS:
		p.emitOp(OP_NEGATE)
	}
}

// binary compiles an infix operator; the right operand binds one level
// tighter so binary operators are left-associative
func (p *Parser) binary(canAssign bool) {
	operator := p.previous.Type
	rule := getRule(operator)
	p.parsePrecedence(rule.precedence + 1)

	switch operator {
	case token.NOT_EQ:
		p.emitOps(OP_EQUAL, OP_NOT)
	case token.EQ:
		p.emitOp(OP_EQUAL)
	case token.GT:
		p.emitOp(OP_GREATER)
	case token.GT_EQ:
		p.emitOps(OP_LESS, OP_NOT)
	case token.LT:
		p.emitOp(OP_LESS)
	case token.LT_EQ:
		p.emitOps(OP_GREATER, OP_NOT)
	case token.PLUS:
		p.emitOp(OP_ADD)
	case token.MINUS:
		p.emitOp(OP_SUBTRACT)
	case token.ASTERISK:
		p.emitOp(OP_MULTIPLY)
	case token.SLASH:
		p.emitOp(OP_DIVIDE)
	}
}

// and compiles short-circuiting conjunction: if the left side is falsey it
// stays on the stack and the right side is skipped
func (p *Parser) and(canAssign bool) {
	endJump := p.emitJump(OP_JUMP_IF_FALSE)

	p.emitOp(OP_POP)
	p.parsePrecedence(PREC_AND)

	p.patchJump(endJump)
}

// or compiles short-circuiting disjunction
func (p *Parser) or(canAssign bool) {
	elseJump := p.emitJump(OP_JUMP_IF_FALSE)
	endJump := p.emitJump(OP_JUMP)

	p.patchJump(elseJump)
	p.emitOp(OP_POP)

	p.parsePrecedence(PREC_OR)
	p.patchJump(endJump)
}

// variable compiles an identifier reference or assignment
func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

// namedVariable resolves a name against locals, then enclosing upvalues,
// then falls back to a global access by name constant
func (p *Parser) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp Opcode

	arg := p.resolveLocal(p.compiler, name)
	switch {
	case arg != -1:
		getOp, setOp = OP_GET_LOCAL, OP_SET_LOCAL
	default:
		if arg = p.resolveUpvalue(p.compiler, name); arg != -1 {
			getOp, setOp = OP_GET_UPVALUE, OP_SET_UPVALUE
		} else {
			// Globals address their name in the constant pool
			index := p.identifierConstant(name)
			if canAssign && p.match(token.ASSIGN) {
				p.expression()
				p.emitOpShort(OP_SET_GLOBAL, index)
			} else {
				p.emitOpShort(OP_GET_GLOBAL, index)
			}
			return
		}
	}

	if canAssign && p.match(token.ASSIGN) {
		p.expression()
		p.emitOp(setOp)
		p.emitByte(byte(arg))
	} else {
		p.emitOp(getOp)
		p.emitByte(byte(arg))
	}
}

// call compiles a call expression's argument list
func (p *Parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitOp(OP_CALL)
	p.emitByte(argCount)
}

func (p *Parser) argumentList() byte {
	var argCount int
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argCount == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argCount)
}
