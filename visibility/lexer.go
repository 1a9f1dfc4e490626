/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package visibility

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

/*
LexTokenID represents a unique lexer token ID
*/
type LexTokenID int

/*
Available lexer token types
*/
const (
	TokenEOF LexTokenID = iota
	TokenAND
	TokenOR
	TokenNOT
	TokenLPAREN
	TokenRPAREN
	TokenTERM
)

/*
LexToken represents a token which is returned by the lexer.
*/
type LexToken struct {
	ID  LexTokenID // Token kind
	Pos int        // Starting position (in bytes)
	Val string     // Token value
}

/*
String returns a string representation of a token.
*/
func (t LexToken) String() string {
	switch t.ID {
	case TokenEOF:
		return "EOF"
	case TokenTERM:
		return fmt.Sprintf("%q", t.Val)
	}

	return t.Val
}

/*
symbolMap maps single character symbols to their token ids.
*/
var symbolMap = map[rune]LexTokenID{
	'&': TokenAND,
	'|': TokenOR,
	'!': TokenNOT,
	'(': TokenLPAREN,
	')': TokenRPAREN,
}

/*
lexer splits a visibility expression into tokens.
*/
type lexer struct {
	input string // Input text
	pos   int    // Current position in the input
}

/*
isTermRune checks if a given rune may be part of an unquoted term.
*/
func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-:./", r)
}

/*
next returns the next token of the input.
*/
func (l *lexer) next() (LexToken, error) {

	// Skip whitespace

	for l.pos < len(l.input) {
		r, w := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += w
	}

	if l.pos >= len(l.input) {
		return LexToken{TokenEOF, l.pos, ""}, nil
	}

	start := l.pos
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])

	if r == utf8.RuneError && w == 1 {
		return LexToken{}, newError(l.input, ErrIllegalToken, "invalid UTF-8", start)
	}

	if id, ok := symbolMap[r]; ok {
		l.pos += w
		return LexToken{id, start, string(r)}, nil
	}

	if r == '"' {
		return l.lexQuoted()
	}

	if !isTermRune(r) {
		return LexToken{}, newError(l.input, ErrIllegalToken, fmt.Sprintf("unexpected character %q", r), start)
	}

	for l.pos < len(l.input) {
		r, w = utf8.DecodeRuneInString(l.input[l.pos:])
		if !isTermRune(r) {
			break
		}
		l.pos += w
	}

	return LexToken{TokenTERM, start, l.input[start:l.pos]}, nil
}

/*
lexQuoted reads a double quoted term. Only \" and \\ are valid escapes.
*/
func (l *lexer) lexQuoted() (LexToken, error) {
	var buf strings.Builder

	start := l.pos
	l.pos++

	for l.pos < len(l.input) {
		c := l.input[l.pos]

		switch c {
		case '"':
			l.pos++

			if buf.Len() == 0 {
				return LexToken{}, newError(l.input, ErrEmptyTerm, "empty quoted term", start)
			}

			return LexToken{TokenTERM, start, buf.String()}, nil

		case '\\':
			if l.pos+1 >= len(l.input) {
				return LexToken{}, newError(l.input, ErrUnexpectedEnd, "unterminated escape", l.pos)
			}

			if e := l.input[l.pos+1]; e == '"' || e == '\\' {
				buf.WriteByte(e)
				l.pos += 2
				continue
			}

			return LexToken{}, newError(l.input, ErrIllegalToken, "invalid escape sequence", l.pos)
		}

		buf.WriteByte(c)
		l.pos++
	}

	return LexToken{}, newError(l.input, ErrUnexpectedEnd, "unterminated quoted term", start)
}
