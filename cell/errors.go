/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cell

import (
	"errors"
	"fmt"
)

/*
Error is a cell layout related error.
*/
type Error struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("CellError: %v (%v)", e.Type, e.Detail)
	}
	return fmt.Sprintf("CellError: %v", e.Type)
}

/*
Unwrap returns the error type so errors.Is can be used on the error.
*/
func (e *Error) Unwrap() error {
	return e.Type
}

/*
Cell related error types
*/
var (
	ErrInvalidCell      = errors.New("Invalid cell")
	ErrInvalidQualifier = errors.New("Invalid qualifier")
	ErrInvalidValue     = errors.New("Invalid value")
)
