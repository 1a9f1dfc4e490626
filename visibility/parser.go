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
)

/*
Parse parses a visibility expression. Returns an Error if the expression is
malformed.
*/
func Parse(text string) (*Expression, error) {
	if strings.TrimSpace(text) == "" {
		return &Expression{text, All.root}, nil
	}

	p := &parser{lexer: &lexer{input: text}}

	if err := p.advance(); err != nil {
		return nil, err
	}

	root, err := p.parseExpr()

	if err == nil {
		switch p.token.ID {
		case TokenEOF:
		case TokenRPAREN:
			err = p.newError(ErrUnbalancedParens, "unexpected )")
		default:
			err = p.newError(ErrIllegalToken, fmt.Sprintf("unexpected %v", p.token))
		}
	}

	if err != nil {
		return nil, err
	}

	return &Expression{text, root}, nil
}

/*
MustParse parses a visibility expression and panics if it is malformed.
*/
func MustParse(text string) *Expression {
	e, err := Parse(text)
	if err != nil {
		panic(err.Error())
	}
	return e
}

/*
parser is a recursive descent parser for visibility expressions.
*/
type parser struct {
	lexer *lexer   // Lexer which produces the tokens
	token LexToken // Current token
}

/*
advance reads the next token.
*/
func (p *parser) advance() error {
	t, err := p.lexer.next()
	if err == nil {
		p.token = t
	}
	return err
}

/*
newError creates a new parser error at the current token.
*/
func (p *parser) newError(t error, d string) error {
	return newError(p.lexer.input, t, d, p.token.Pos)
}

/*
parseExpr parses a sequence of terms which are joined by the same operator.
*/
func (p *parser) parseExpr() (*node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	var op LexTokenID
	var typ nodeType

	children := []*node{first}

	for p.token.ID == TokenAND || p.token.ID == TokenOR {

		if op == 0 {
			op = p.token.ID
			typ = nodeAnd
			if op == TokenOR {
				typ = nodeOr
			}
		} else if op != p.token.ID {
			return nil, p.newError(ErrMixedOperators, "use parentheses to combine & and |")
		}

		if err := p.advance(); err != nil {
			return nil, err
		}

		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		// Operands of the same operator are flattened

		if t.typ == typ {
			children = append(children, t.children...)
		} else {
			children = append(children, t)
		}
	}

	if op == 0 {
		return first, nil
	}

	if first.typ == typ {
		children = append(append([]*node{}, first.children...), children[1:]...)
	}

	return &node{typ: typ, children: children}, nil
}

/*
parseTerm parses a single term, a negation or an expression in parentheses.
*/
func (p *parser) parseTerm() (*node, error) {
	t := p.token

	switch t.ID {
	case TokenTERM:
		return &node{typ: nodeTerm, term: t.Val}, p.advance()

	case TokenNOT:
		if err := p.advance(); err != nil {
			return nil, err
		}

		c, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		return &node{typ: nodeNot, children: []*node{c}}, nil

	case TokenLPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}

		if p.token.ID == TokenRPAREN {
			return nil, p.newError(ErrEmptyTerm, "empty parentheses")
		}

		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if p.token.ID != TokenRPAREN {
			if p.token.ID == TokenEOF {
				return nil, newError(p.lexer.input, ErrUnbalancedParens, "missing )", t.Pos)
			}
			return nil, p.newError(ErrIllegalToken, fmt.Sprintf("unexpected %v", p.token))
		}

		return e, p.advance()

	case TokenEOF:
		return nil, p.newError(ErrUnexpectedEnd, "term expected")

	case TokenRPAREN:
		return nil, p.newError(ErrUnbalancedParens, "unexpected )")
	}

	return nil, p.newError(ErrEmptyTerm, fmt.Sprintf("term expected before %v", t))
}
