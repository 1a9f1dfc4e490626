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
	"errors"
	"fmt"
)

/*
Error models a malformed visibility expression. It is returned by Parse and
is fatal to the single parse call.
*/
type Error struct {
	Source string // Expression text which was given to the parser
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
	Pos    int    // Byte position of the error
}

/*
newError creates a new Error object.
*/
func newError(source string, t error, d string, pos int) error {
	return &Error{source, t, d, pos}
}

/*
Error returns a human-readable string representation of this error.
*/
func (e *Error) Error() string {
	var ret string

	if e.Detail != "" {
		ret = fmt.Sprintf("Malformed visibility %q: %v (%v)", e.Source, e.Type, e.Detail)
	} else {
		ret = fmt.Sprintf("Malformed visibility %q: %v", e.Source, e.Type)
	}

	return fmt.Sprintf("%s (Pos:%d)", ret, e.Pos)
}

/*
Unwrap returns the error type so errors.Is can be used on the error.
*/
func (e *Error) Unwrap() error {
	return e.Type
}

/*
Visibility expression related error types
*/
var (
	ErrUnbalancedParens = errors.New("Unbalanced parentheses")
	ErrIllegalToken     = errors.New("Illegal token")
	ErrMixedOperators   = errors.New("Mixed operators without parentheses")
	ErrUnexpectedEnd    = errors.New("Unexpected end")
	ErrEmptyTerm        = errors.New("Empty term")
)
