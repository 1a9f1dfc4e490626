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
Package util contains utility types for the graph layer.

GraphError

Models a graph related error. Storage, codec and resolution errors are
wrapped in a GraphError before they are returned to a client. The wrapped
error stays reachable through errors.As.
*/
package util

import (
	"errors"
	"fmt"
)

/*
GraphError is a graph related error
*/
type GraphError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
	Cause  error  // Error which caused this error (may be nil)
}

/*
NewGraphError creates a new GraphError which wraps a cause.
*/
func NewGraphError(t error, cause error) *GraphError {
	return &GraphError{t, cause.Error(), cause}
}

/*
Error returns a human-readable string representation of this error.
*/
func (ge *GraphError) Error() string {
	if ge.Detail != "" {
		return fmt.Sprintf("GraphError: %v (%v)", ge.Type, ge.Detail)
	}

	return fmt.Sprintf("GraphError: %v", ge.Type)
}

/*
Unwrap returns the error type and the cause of this error.
*/
func (ge *GraphError) Unwrap() []error {
	if ge.Cause != nil {
		return []error{ge.Type, ge.Cause}
	}
	return []error{ge.Type}
}

/*
Graph related error types
*/
var (
	ErrInvalidData = errors.New("Invalid data")
	ErrReading     = errors.New("Could not read graph information")
	ErrWriting     = errors.New("Could not write graph information")
	ErrResolving   = errors.New("Could not resolve element")
	ErrImport      = errors.New("Could not import mutations")
	ErrValueCodec  = errors.New("Could not convert property value")
	ErrRule        = errors.New("Graph rule error")
)
