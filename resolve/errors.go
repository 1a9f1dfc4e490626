/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package resolve

import (
	"errors"
	"fmt"
)

/*
PreconditionError is returned when the input of a resolution violates the
contract of the engine.
*/
type PreconditionError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (pe *PreconditionError) Error() string {
	if pe.Detail != "" {
		return fmt.Sprintf("PreconditionError: %v (%v)", pe.Type, pe.Detail)
	}
	return fmt.Sprintf("PreconditionError: %v", pe.Type)
}

/*
Unwrap returns the error type so errors.Is can be used on the error.
*/
func (pe *PreconditionError) Unwrap() error {
	return pe.Type
}

/*
Precondition error types
*/
var (
	ErrUnsorted      = errors.New("Mutations are not sorted")
	ErrMixedElements = errors.New("Row contains cells of another element")
)

/*
UnsupportedFetchHintCombinationError is returned for fetch hints which
cannot be satisfied together.
*/
type UnsupportedFetchHintCombinationError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (fe *UnsupportedFetchHintCombinationError) Error() string {
	return fmt.Sprintf("UnsupportedFetchHintCombinationError: %v (%v)", fe.Type, fe.Detail)
}

/*
Unwrap returns the error type so errors.Is can be used on the error.
*/
func (fe *UnsupportedFetchHintCombinationError) Unwrap() error {
	return fe.Type
}

/*
Fetch hint error types
*/
var (
	ErrMetadataWithoutProperties = errors.New("Property metadata requires properties")
	ErrLabelsWithoutEdges        = errors.New("Edge labels require edge references")
	ErrLabelsWithAllRefs         = errors.New("Edge labels cannot restrict all edge references")
	ErrUnknownEdgeRefPolicy      = errors.New("Unknown edge reference policy")
)
