package lexer

import (
	"testing"

	"github.com/funvibe/lox/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `var five = 5;
fun add(a, b) { return a + b; }
if (five >= 4.5 and five != 6) { print "ok"; } else { print !true; }
while (five < 10) { five = five * 2 / 1 - 0; }
`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.VAR, "var"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.FUN, "fun"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "five"},
		{token.GT_EQ, ">="},
		{token.NUMBER, "4.5"},
		{token.AND, "and"},
		{token.IDENT, "five"},
		{token.NOT_EQ, "!="},
		{token.NUMBER, "6"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.STRING, `"ok"`},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.BANG, "!"},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.IDENT, "five"},
		{token.LT, "<"},
		{token.NUMBER, "10"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.IDENT, "five"},
		{token.ASTERISK, "*"},
		{token.NUMBER, "2"},
		{token.SLASH, "/"},
		{token.NUMBER, "1"},
		{token.MINUS, "-"},
		{token.NUMBER, "0"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. got=%s, want=%s (lexeme %q)",
				i, tok.Type, tt.expectedType, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - wrong lexeme. got=%q, want=%q", i, tok.Lexeme, tt.expectedLexeme)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected token.TokenType
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"else", token.ELSE},
		{"false", token.FALSE},
		{"for", token.FOR},
		{"fun", token.FUN},
		{"if", token.IF},
		{"nil", token.NIL},
		{"or", token.OR},
		{"print", token.PRINT},
		{"return", token.RETURN},
		{"super", token.SUPER},
		{"this", token.THIS},
		{"true", token.TRUE},
		{"var", token.VAR},
		{"while", token.WHILE},
		// Near misses stay identifiers
		{"an", token.IDENT},
		{"andd", token.IDENT},
		{"fur", token.IDENT},
		{"classes", token.IDENT},
		{"_var", token.IDENT},
		{"trueish", token.IDENT},
	}

	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.expected {
			t.Errorf("%q - wrong token type. got=%s, want=%s", tt.input, tok.Type, tt.expected)
		}
	}
}

func TestLineTracking(t *testing.T) {
	input := "var a;\n// comment line\nvar b;"

	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	// var a ; var b ; EOF
	wantLines := []int{1, 1, 1, 3, 3, 3, 3}
	if len(tokens) != len(wantLines) {
		t.Fatalf("wrong token count. got=%d, want=%d", len(tokens), len(wantLines))
	}
	for i, want := range wantLines {
		if tokens[i].Line != want {
			t.Errorf("tokens[%d] (%s) - wrong line. got=%d, want=%d",
				i, tokens[i].Type, tokens[i].Line, want)
		}
	}
}

func TestMultilineString(t *testing.T) {
	l := New("\"one\ntwo\" x")

	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("wrong token type. got=%s, want=STRING", tok.Type)
	}
	if tok.Lexeme != "\"one\ntwo\"" {
		t.Errorf("wrong lexeme. got=%q", tok.Lexeme)
	}

	// The newline inside the string advances the line counter
	tok = l.NextToken()
	if tok.Type != token.IDENT || tok.Line != 2 {
		t.Errorf("following token: got=%s line=%d, want=IDENT line=2", tok.Type, tok.Line)
	}
}

func TestErrorTokens(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"@", "Unexpected character."},
		{"\"open", "Unterminated string."},
	}

	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.ERROR {
			t.Fatalf("%q - wrong token type. got=%s, want=ERROR", tt.input, tok.Type)
		}
		if tok.Lexeme != tt.message {
			t.Errorf("%q - wrong message. got=%q, want=%q", tt.input, tok.Lexeme, tt.message)
		}
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("")
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != token.EOF {
			t.Fatalf("call %d - wrong token type. got=%s, want=EOF", i, tok.Type)
		}
	}
}
