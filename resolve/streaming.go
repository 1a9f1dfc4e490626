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

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/edgeinfo"
	"devt.de/krotik/cellgraph/visibility"
)

/*
CellSource is the row scan of a sorted store. Cells are returned in store
order: family, qualifier and descending timestamp.
*/
type CellSource interface {

	/*
		Seek restricts the scan to the given column families. Cells of other
		families are never returned.
	*/
	Seek(families []cell.Family) error

	/*
		Next returns the next cell of the row or nil at the end of the row.
	*/
	Next() (*cell.Cell, error)
}

/*
ResolveRow resolves an element from the cells of its row. Returns nil if the
row has no signal column or the element is not visible to the caller.
*/
func ResolveRow(id string, src CellSource, auths visibility.Authorizations,
	hints FetchHints, cache *visibility.Cache) (*ElementSnapshot, error) {

	es, err := resolveRow(id, src, auths, hints, cache)

	resolutionsTotal.WithLabelValues(EngineStreaming, resultLabel(es, err)).Inc()

	return es, err
}

func resolveRow(id string, src CellSource, auths visibility.Authorizations,
	hints FetchHints, cache *visibility.Cache) (*ElementSnapshot, error) {

	if err := hints.Validate(); err != nil {
		return nil, err
	}

	families := hints.Families()

	if len(families) < len(cell.Families) {
		sought := make(map[cell.Family]bool)
		for _, f := range families {
			sought[f] = true
		}
		for _, f := range cell.Families {
			if !sought[f] {
				familiesSkippedTotal.WithLabelValues(f.String()).Inc()
			}
		}
	}

	if err := src.Seek(families); err != nil {
		return nil, err
	}

	f := newFolder(id, hints, firstWins)

	for {
		c, err := src.Next()

		if err != nil {
			return nil, err
		} else if c == nil {
			break
		}

		if c.Row != id {
			return nil, &PreconditionError{ErrMixedElements,
				fmt.Sprintf("expected row %v but got %v", id, c.Row)}
		}

		// Older versions and unwanted markers are skipped without decoding

		if f.seen(c.Family, c.Qualifier) {
			continue
		}

		if len(c.Qualifier) > 0 && !hints.wants(c.Family, cell.QualifierKind(c.Qualifier[0])) {
			familiesSkippedTotal.WithLabelValues(c.Family.String()).Inc()
			continue
		}

		e, err := cell.Decode(*c)
		if err != nil {
			var ce *edgeinfo.CodecError
			if errors.As(err, &ce) {
				codecErrorsTotal.Inc()
			}
			return nil, err
		}

		cellsReadTotal.WithLabelValues(c.Family.String()).Inc()

		f.observe(c.Qualifier, e)
	}

	return f.finish(auths, cache)
}
