/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package storage

import (
	"errors"
	"fmt"

	"devt.de/krotik/common/logutil"
	"devt.de/krotik/common/pools"
)

/*
BufferPool is a pool of byte buffers used to build keys and values.
*/
var BufferPool = pools.NewByteBufferPool()

/*
logger of the storage package
*/
var logger = logutil.GetLogger("cellgraph.storage")

/*
Common storage related errors.
*/
var (
	ErrOpening = errors.New("Failed to open storage")
	ErrClosed  = errors.New("Storage is closed")
	ErrWriting = errors.New("Failed to write cells")
	ErrReading = errors.New("Failed to read cells")
	ErrCorrupt = errors.New("Corrupt stored cell")
)

/*
Error is a storage related error.
*/
type Error struct {
	Type        error  // Error type (to be used for equal checks)
	Detail      string // Details of this error
	Storagename string // Name of the storage
	cause       error  // Backend error which caused this error
}

/*
newError returns a new storage error which wraps a backend error.
*/
func newError(t error, cause error, storagename string) *Error {
	return &Error{t, cause.Error(), storagename, cause}
}

/*
Error returns a string representation of the error.
*/
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s - %s)", e.Type.Error(), e.Storagename, e.Detail)
}

/*
Unwrap returns the error type so errors.Is can be used on the error.
*/
func (e *Error) Unwrap() error {
	return e.Type
}

/*
Cause returns the backend error which caused this error.
*/
func (e *Error) Cause() error {
	return e.cause
}
