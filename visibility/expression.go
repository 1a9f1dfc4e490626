/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package visibility contains the cell-level visibility security model.

Visibility expressions

A visibility expression is a boolean formula over authorization tokens:

	a&b         both a and b are required
	a|(b&c)     a, or both b and c
	!a          everyone who does not hold a
	"x y"&z     quoted tokens may contain any character

The empty expression is always satisfied. Mixing & and | on the same nesting
level without parentheses is rejected so expressions have exactly one
reading.

Cache

Parsing is the expensive step and the same expression strings recur across
a very large number of cells. A Cache holds parsed expressions keyed by
their source text. Lookups never block; a Cache should be created once per
process and handed to every resolution.
*/
package visibility

import (
	"strconv"
	"strings"
)

/*
nodeType is the type of an expression tree node
*/
type nodeType int

/*
Known expression tree node types
*/
const (
	nodeAll nodeType = iota
	nodeTerm
	nodeAnd
	nodeOr
	nodeNot
)

/*
node is a node of a parsed expression tree.
*/
type node struct {
	typ      nodeType // Type of this node
	term     string   // Token for term nodes
	children []*node  // Operands for and, or and not nodes
}

/*
Expression is a parsed visibility expression. Expressions are immutable and
safe for concurrent use.
*/
type Expression struct {
	source string // Original expression text
	root   *node  // Root of the expression tree
}

/*
All is the universal-true expression.
*/
var All = &Expression{"", &node{typ: nodeAll}}

/*
Source returns the text the expression was parsed from.
*/
func (e *Expression) Source() string {
	return e.source
}

/*
IsAll returns if this is the empty expression which is always satisfied.
*/
func (e *Expression) IsAll() bool {
	return e.root.typ == nodeAll
}

/*
Evaluate checks if the given authorizations satisfy this expression.
*/
func (e *Expression) Evaluate(auths Authorizations) bool {
	return e.root.eval(auths)
}

/*
eval evaluates a node against a set of authorizations.
*/
func (n *node) eval(auths Authorizations) bool {
	switch n.typ {
	case nodeTerm:
		return auths.Contains(n.term)

	case nodeAnd:
		for _, c := range n.children {
			if !c.eval(auths) {
				return false
			}
		}
		return true

	case nodeOr:
		for _, c := range n.children {
			if c.eval(auths) {
				return true
			}
		}
		return false

	case nodeNot:
		return !n.children[0].eval(auths)
	}

	return true
}

/*
Terms returns all tokens which appear in this expression.
*/
func (e *Expression) Terms() []string {
	var ret []string

	seen := make(map[string]bool)

	var collect func(n *node)
	collect = func(n *node) {
		if n.typ == nodeTerm && !seen[n.term] {
			seen[n.term] = true
			ret = append(ret, n.term)
		}
		for _, c := range n.children {
			collect(c)
		}
	}

	collect(e.root)

	return ret
}

/*
String returns a normalized rendering of this expression.
*/
func (e *Expression) String() string {
	var buf strings.Builder
	e.root.write(&buf, false)
	return buf.String()
}

/*
write renders a node. Compound nodes are put in parentheses if they appear
as an operand.
*/
func (n *node) write(buf *strings.Builder, operand bool) {
	switch n.typ {
	case nodeTerm:
		if isPlainTerm(n.term) {
			buf.WriteString(n.term)
		} else {
			buf.WriteString(quoteTerm(n.term))
		}

	case nodeAnd, nodeOr:
		op := "&"
		if n.typ == nodeOr {
			op = "|"
		}

		if operand {
			buf.WriteByte('(')
		}

		for i, c := range n.children {
			if i > 0 {
				buf.WriteString(op)
			}
			c.write(buf, true)
		}

		if operand {
			buf.WriteByte(')')
		}

	case nodeNot:
		buf.WriteByte('!')
		n.children[0].write(buf, true)
	}
}

/*
isPlainTerm checks if a term can be written without quotes.
*/
func isPlainTerm(term string) bool {
	if term == "" {
		return false
	}

	for _, r := range term {
		if !isTermRune(r) {
			return false
		}
	}

	return true
}

/*
quoteTerm quotes a term escaping quotes and backslashes.
*/
func quoteTerm(term string) string {
	var buf strings.Builder

	buf.WriteByte('"')

	for i := 0; i < len(term); i++ {
		if c := term[i]; c == '"' || c == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(term[i])
	}

	buf.WriteByte('"')

	return buf.String()
}

/*
Quote returns a token in a form which can be used as a single term inside an
expression.
*/
func Quote(token string) string {
	if isPlainTerm(token) {
		return token
	}
	return quoteTerm(token)
}

/*
debugString returns the tree structure of an expression (used for tests).
*/
func (n *node) debugString() string {
	switch n.typ {
	case nodeTerm:
		return "term:" + strconv.Quote(n.term)
	case nodeAll:
		return "all"
	}

	var parts []string
	for _, c := range n.children {
		parts = append(parts, c.debugString())
	}

	name := map[nodeType]string{nodeAnd: "and", nodeOr: "or", nodeNot: "not"}[n.typ]

	return name + "(" + strings.Join(parts, " ") + ")"
}
