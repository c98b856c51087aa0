package vm

import (
	"fmt"
	"io"

	"github.com/funvibe/lox/internal/lexer"
	"github.com/funvibe/lox/internal/token"
)

// Local represents a local variable during compilation
type Local struct {
	name       token.Token
	depth      int  // scope depth where this local was declared, -1 until initialized
	isCaptured bool // true if captured by a nested function
}

// Upvalue represents a captured variable from an enclosing scope
type Upvalue struct {
	index   uint8 // index of the local/upvalue in the enclosing function
	isLocal bool  // true if it captures a local, false if another upvalue
}

// FunctionType distinguishes top-level code from functions
type FunctionType int

const (
	TYPE_SCRIPT FunctionType = iota
	TYPE_FUNCTION
)

// MaxLocals is the number of local slots addressable by one function
const MaxLocals = 256

// Compiler holds the per-function compilation state. Compilers nest:
// compiling a function body pushes a fresh one whose enclosing pointer
// leads back to the surrounding function.
type Compiler struct {
	enclosing *Compiler

	function *ObjFunction
	funcType FunctionType

	locals     [MaxLocals]Local
	localCount int
	scopeDepth int

	upvalues [MaxLocals]Upvalue
}

// Parser drives the single-pass compiler: it pulls tokens from the lexer
// and emits bytecode into the current compiler's function as it goes.
type Parser struct {
	lex      *lexer.Lexer
	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool

	compiler *Compiler

	heap    *Heap
	strings *Table
	errOut  io.Writer
}

// Precedence levels, lowest to highest
type Precedence int

const (
	PREC_NONE       Precedence = iota
	PREC_ASSIGNMENT            // =
	PREC_OR                    // or
	PREC_AND                   // and
	PREC_EQUALITY              // == !=
	PREC_COMPARISON            // < > <= >=
	PREC_TERM                  // + -
	PREC_FACTOR                // * /
	PREC_UNARY                 // ! -
	PREC_CALL                  // . ()
	PREC_PRIMARY
)

// parseFn is a prefix or infix parse rule. canAssign is threaded through so
// only low-precedence identifier rules consume '='.
type parseFn func(p *Parser, canAssign bool)

// parseRule binds a token type to its parse behavior
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the Pratt parse table. Built in init to avoid an initialization
// cycle between the table and the rule methods.
var rules map[token.TokenType]parseRule

func init() {
	rules = map[token.TokenType]parseRule{
		token.LPAREN:    {prefix: (*Parser).grouping, infix: (*Parser).call, precedence: PREC_CALL},
		token.RPAREN:    {},
		token.LBRACE:    {},
		token.RBRACE:    {},
		token.COMMA:     {},
		token.DOT:       {},
		token.MINUS:     {prefix: (*Parser).unary, infix: (*Parser).binary, precedence: PREC_TERM},
		token.PLUS:      {infix: (*Parser).binary, precedence: PREC_TERM},
		token.SEMICOLON: {},
		token.SLASH:     {infix: (*Parser).binary, precedence: PREC_FACTOR},
		token.ASTERISK:  {infix: (*Parser).binary, precedence: PREC_FACTOR},

		token.BANG:   {prefix: (*Parser).unary},
		token.NOT_EQ: {infix: (*Parser).binary, precedence: PREC_EQUALITY},
		token.ASSIGN: {},
		token.EQ:     {infix: (*Parser).binary, precedence: PREC_EQUALITY},
		token.GT:     {infix: (*Parser).binary, precedence: PREC_COMPARISON},
		token.GT_EQ:  {infix: (*Parser).binary, precedence: PREC_COMPARISON},
		token.LT:     {infix: (*Parser).binary, precedence: PREC_COMPARISON},
		token.LT_EQ:  {infix: (*Parser).binary, precedence: PREC_COMPARISON},

		token.IDENT:  {prefix: (*Parser).variable},
		token.STRING: {prefix: (*Parser).str},
		token.NUMBER: {prefix: (*Parser).number},

		token.AND:    {infix: (*Parser).and, precedence: PREC_AND},
		token.CLASS:  {},
		token.ELSE:   {},
		token.FALSE:  {prefix: (*Parser).literal},
		token.FOR:    {},
		token.FUN:    {},
		token.IF:     {},
		token.NIL:    {prefix: (*Parser).literal},
		token.OR:     {infix: (*Parser).or, precedence: PREC_OR},
		token.PRINT:  {},
		token.RETURN: {},
		token.SUPER:  {},
		token.THIS:   {},
		token.TRUE:   {prefix: (*Parser).literal},
		token.VAR:    {},
		token.WHILE:  {},

		token.ERROR: {},
		token.EOF:   {},
	}
}

func getRule(typ token.TokenType) parseRule {
	return rules[typ]
}

// newCompiler pushes a compiler for the function about to be compiled.
// Slot 0 of every call frame holds the callee, so the first local is
// reserved with an empty name.
func newCompiler(enclosing *Compiler, funcType FunctionType, heap *Heap) *Compiler {
	c := &Compiler{
		enclosing: enclosing,
		function:  newFunction(heap),
		funcType:  funcType,
	}
	c.locals[0] = Local{depth: 0}
	c.localCount = 1
	return c
}

// Compile lowers source text into a top-level function. Interned strings
// and all allocated objects go into the caller's interner and heap so the
// VM can share them. Diagnostics are written to errOut; the returned error
// is ErrCompile if any were reported.
func Compile(source string, heap *Heap, strings *Table, errOut io.Writer) (*ObjFunction, error) {
	p := &Parser{
		lex:     lexer.New(source),
		heap:    heap,
		strings: strings,
		errOut:  errOut,
	}
	p.compiler = newCompiler(nil, TYPE_SCRIPT, heap)

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}

	function := p.endCompiler()
	if p.hadError {
		return nil, ErrCompile
	}
	return function, nil
}

// endCompiler finishes the current function and pops back to the enclosing
// compiler.
func (p *Parser) endCompiler() *ObjFunction {
	p.emitReturn()
	function := p.compiler.function
	p.compiler = p.compiler.enclosing
	return function
}

// Token plumbing

func (p *Parser) advance() {
	p.previous = p.current

	for {
		p.current = p.lex.NextToken()
		if p.current.Type != token.ERROR {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) consume(typ token.TokenType, message string) {
	if p.current.Type == typ {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *Parser) check(typ token.TokenType) bool {
	return p.current.Type == typ
}

func (p *Parser) match(typ token.TokenType) bool {
	if !p.check(typ) {
		return false
	}
	p.advance()
	return true
}

// Error reporting. The first error flips panic mode, which suppresses
// further reports until the parser synchronizes at a statement boundary.

func (p *Parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	fmt.Fprintf(p.errOut, "[line %d] Error", tok.Line)
	switch tok.Type {
	case token.EOF:
		fmt.Fprintf(p.errOut, " at end")
	case token.ERROR:
		// The token itself is the message
	default:
		fmt.Fprintf(p.errOut, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(p.errOut, ": %s\n", message)

	p.hadError = true
}

func (p *Parser) error(message string) {
	p.errorAt(p.previous, message)
}

func (p *Parser) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

// synchronize skips tokens until a likely statement boundary
func (p *Parser) synchronize() {
	p.panicMode = false

	for p.current.Type != token.EOF {
		if p.previous.Type == token.SEMICOLON {
			return
		}
		switch p.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
