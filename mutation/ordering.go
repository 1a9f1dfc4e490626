/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package mutation

import (
	"sort"
	"sync/atomic"
)

/*
rankTable assigns every variant a fixed rank which breaks ties between
mutations with equal timestamps. The ranks follow the alphabetical order of
the variant names. The table is part of the stored data contract and must
not be reordered.
*/
var rankTable = map[Kind]int{
	KindAddAdditionalVisibility:    1,
	KindAddEdgeRef:                 2,
	KindAddPropertyMetadataEntry:   3,
	KindAddPropertyValue:           4,
	KindAlterEdgeLabel:             5,
	KindAlterElementVisibility:     6,
	KindDeleteAdditionalVisibility: 7,
	KindEdgeSetup:                  8,
	KindElementTimestampTouch:      9,
	KindMarkElementHidden:          10,
	KindMarkElementVisible:         11,
	KindMarkPropertyHidden:         12,
	KindMarkPropertyVisible:        13,
	KindSoftDeleteEdgeRef:          14,
	KindSoftDeleteElement:          15,
	KindSoftDeleteProperty:         16,
}

/*
Rank returns the tie break rank of a mutation variant.
*/
func Rank(k Kind) int {
	return rankTable[k]
}

/*
Compare returns -1, 0 or 1 depending on whether mutation a sorts before, equal
to or after mutation b. Mutations are ordered by timestamp, then by variant
rank and finally by sequence number.
*/
func Compare(a, b Mutation) int {
	ha, hb := a.Head(), b.Head()

	switch {
	case ha.Timestamp < hb.Timestamp:
		return -1
	case ha.Timestamp > hb.Timestamp:
		return 1
	}

	ra, rb := Rank(a.Kind()), Rank(b.Kind())

	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case ha.Sequence < hb.Sequence:
		return -1
	case ha.Sequence > hb.Sequence:
		return 1
	}

	return 0
}

/*
Sort sorts a list of mutations in place.
*/
func Sort(muts []Mutation) {
	sort.SliceStable(muts, func(i, j int) bool {
		return Compare(muts[i], muts[j]) < 0
	})
}

/*
IsSorted checks if a list of mutations is sorted.
*/
func IsSorted(muts []Mutation) bool {
	for i := 1; i < len(muts); i++ {
		if Compare(muts[i-1], muts[i]) > 0 {
			return false
		}
	}
	return true
}

/*
Sequencer assigns process-local monotonic sequence numbers. It is safe for
concurrent use.
*/
type Sequencer struct {
	last atomic.Uint64
}

/*
NewSequencer creates a new sequencer which continues after a given sequence
number (e.g. the highest number found on disk).
*/
func NewSequencer(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

/*
Next returns the next sequence number.
*/
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

/*
Stamp returns a copy of a mutation with the next sequence number.
*/
func (s *Sequencer) Stamp(m Mutation) Mutation {
	h := m.Head()
	h.Sequence = s.Next()
	return m.withHeader(h)
}

/*
WithTimestamp returns a copy of a mutation with a different timestamp.
*/
func WithTimestamp(m Mutation, ts int64) Mutation {
	h := m.Head()
	h.Timestamp = ts
	return m.withHeader(h)
}
