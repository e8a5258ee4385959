// Package lexer implements a hand-rolled scanner over C-minus source text,
// used only to drive the `--ts` scan trace (spec.md §6): the actual parser
// in pkg/parser tokenizes independently through goparsec's own combinators,
// since goparsec consumes raw bytes rather than a pre-built token stream.
//
// Grounded on nooga-paserati's pkg/lexer.go (byte-at-a-time
// readChar/peekChar with a running line counter, a NextToken method
// dispatching on the current character, skipWhitespace/skipComment helpers)
// scaled down to C-minus's much smaller character-class table.
package lexer

import (
	"github.com/cminus-lang/cminusc/pkg/token"
)

// Lexer scans one source buffer into a sequence of token.Token values.
type Lexer struct {
	input string

	position     int // index of ch
	readPosition int // index of the next byte to read
	ch           byte
	line         int
}

// New returns a Lexer positioned at the start of input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

// skipBlockComment consumes a C-minus `/* ... */` comment; an unterminated
// comment runs to EOF, matching the original scanner's permissive behavior
// (only the parser stage, not the trace scanner, reports diagnostics).
func (l *Lexer) skipBlockComment() {
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	for !(l.ch == '*' && l.peekChar() == '/') && l.ch != 0 {
		l.readChar()
	}
	if l.ch != 0 {
		l.readChar() // consume '*'
		l.readChar() // consume '/'
	}
}

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// twoCharOp recognizes one of the two-character operators <=, >= and ==,
// falling back to the single-character operator on mismatch. '!=' is
// scanned directly in NextToken, since a lone '!' is ILLEGAL.
func (l *Lexer) twoCharOp(second byte, two, one token.Kind) token.Token {
	line := l.line
	if l.peekChar() == second {
		ch := l.ch
		l.readChar()
		lexeme := string(ch) + string(l.ch)
		l.readChar()
		return token.Token{Kind: two, Lexeme: lexeme, Line: line}
	}
	ch := l.ch
	l.readChar()
	return token.Token{Kind: one, Lexeme: string(ch), Line: line}
}

var singleCharKinds = map[byte]token.Kind{
	'+': token.PLUS, '-': token.MINUS, '*': token.TIMES, '/': token.OVER,
	';': token.SEMI, ',': token.COMMA,
	'(': token.LPAREN, ')': token.RPAREN,
	'{': token.LBRACE, '}': token.RBRACE,
	'[': token.LBRACKET, ']': token.RBRACKET,
}

// NextToken scans and returns the next token, advancing the lexer past it.
// Called repeatedly until it returns an EOF token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()
	line := l.line

	switch {
	case l.ch == 0:
		return token.Token{Kind: token.EOF, Line: line}
	case isLetter(l.ch):
		lexeme := l.readIdentifier()
		return token.Token{Kind: token.LookupIdent(lexeme), Lexeme: lexeme, Line: line}
	case isDigit(l.ch):
		lexeme := l.readNumber()
		return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Line: line}
	case l.ch == '<':
		return l.twoCharOp('=', token.LE, token.LT)
	case l.ch == '>':
		return l.twoCharOp('=', token.GE, token.GT)
	case l.ch == '=':
		return l.twoCharOp('=', token.EQ, token.ASSIGN)
	case l.ch == '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.NE, Lexeme: "!=", Line: line}
		}
		ch := l.ch
		l.readChar()
		return token.Token{Kind: token.ILLEGAL, Lexeme: string(ch), Line: line}
	default:
		if kind, ok := singleCharKinds[l.ch]; ok {
			ch := l.ch
			l.readChar()
			return token.Token{Kind: kind, Lexeme: string(ch), Line: line}
		}
		ch := l.ch
		l.readChar()
		return token.Token{Kind: token.ILLEGAL, Lexeme: string(ch), Line: line}
	}
}

// Scan tokenizes the full input, for the `--ts` trace (spec.md §6): it
// returns every token it produced, up to and including the terminal EOF;
// printing them is left to the caller (cmd/cminusc).
func Scan(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}
