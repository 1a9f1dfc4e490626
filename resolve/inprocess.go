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
Package resolve contains the element state resolution engine.

An element is stored as a log of mutations. A resolution folds all mutations
of one element into an ElementSnapshot for one caller: the newest version of
every column wins, soft deletes and hidden markers are reconciled against the
columns they refer to, and everything the caller's authorizations cannot see
is dropped. Fetch hints limit which parts of the element are materialized.

There are two engines with identical results:

ResolveMutations folds a sorted list of buffered mutations.

ResolveRow folds the cells of one row of a sorted store. Versions arrive
newest first so the first version of each column wins. Column families which
the fetch hints exclude are never read.

Both engines are pure functions of their input. They can run concurrently
for different elements; the only shared structure is the visibility cache.
*/
package resolve

import (
	"fmt"

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/visibility"
)

/*
ResolveMutations resolves an element from its mutations. The mutations must
be sorted (see mutation.Sort). Returns nil if the element does not exist or
is not visible to the caller.
*/
func ResolveMutations(id string, muts []mutation.Mutation, auths visibility.Authorizations,
	hints FetchHints, cache *visibility.Cache) (*ElementSnapshot, error) {

	es, err := resolveMutations(id, muts, auths, hints, cache)

	resolutionsTotal.WithLabelValues(EngineInProcess, resultLabel(es, err)).Inc()

	return es, err
}

func resolveMutations(id string, muts []mutation.Mutation, auths visibility.Authorizations,
	hints FetchHints, cache *visibility.Cache) (*ElementSnapshot, error) {

	if err := hints.Validate(); err != nil {
		return nil, err
	}

	for i := 1; i < len(muts); i++ {
		if mutation.Compare(muts[i-1], muts[i]) > 0 {
			return nil, &PreconditionError{ErrUnsorted,
				fmt.Sprintf("%v at position %v sorts before %v", muts[i].Kind(), i, muts[i-1].Kind())}
		}
	}

	f := newFolder(id, hints, lastWins)

	for _, m := range muts {
		for _, e := range cell.Entries(m) {
			f.observe(e.Qualifier(), e)
		}
	}

	return f.finish(auths, cache)
}
