/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"devt.de/krotik/cellgraph/resolve"
	"devt.de/krotik/cellgraph/visibility"
)

/*
ElementIterator can be used to iterate the ids of all stored elements. The
ids are taken when the iterator is created.
*/
type ElementIterator struct {
	gm        *Manager // GraphManager which created the iterator
	ids       []string // Element ids
	pos       int      // Current position
	LastError error    // Last encountered error
}

/*
Next returns the next element id.
*/
func (it *ElementIterator) Next() string {
	if !it.HasNext() {
		return ""
	}

	id := it.ids[it.pos]
	it.pos++

	return id
}

/*
NextElement resolves the next element for a caller. Returns nil if the
element is not visible to the caller. Sets the LastError attribute if an
error occurs.
*/
func (it *ElementIterator) NextElement(auths visibility.Authorizations,
	hints resolve.FetchHints) *resolve.ElementSnapshot {

	id := it.Next()
	if id == "" {
		return nil
	}

	es, err := it.gm.FetchElement(id, auths, hints)
	if err != nil {
		it.LastError = err
	}

	return es
}

/*
HasNext returns if there is a next element id.
*/
func (it *ElementIterator) HasNext() bool {
	return it.pos < len(it.ids)
}

/*
Error returns the last encountered error.
*/
func (it *ElementIterator) Error() error {
	return it.LastError
}
