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
	"fmt"
	"sort"

	"devt.de/krotik/cellgraph/edgeinfo"
	"devt.de/krotik/cellgraph/mutation"
)

/*
Cell is a single encoded column value of a row.
*/
type Cell struct {
	Row        string // Element id
	Family     Family // Column family
	Qualifier  string // Encoded qualifier
	Visibility string // Visibility expression of the cell
	Timestamp  int64  // Version of the cell
	Rank       int    // Variant rank of the mutation which wrote the cell
	Sequence   uint64 // Sequence number of the mutation which wrote the cell
	Value      []byte // Encoded value
}

/*
String returns a string representation of this cell.
*/
func (c Cell) String() string {
	return fmt.Sprintf("%v %v:%v [%v] %v -> %d bytes", c.Row, c.Family,
		QualifierString(c.Family, c.Qualifier), c.Visibility, c.Timestamp, len(c.Value))
}

/*
Less defines the store order of cells: row, family, qualifier and descending
timestamp.
*/
func Less(a, b Cell) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	if a.Family != b.Family {
		return a.Family < b.Family
	}
	if a.Qualifier != b.Qualifier {
		return a.Qualifier < b.Qualifier
	}
	return a.Timestamp > b.Timestamp
}

/*
SameVersion checks if two cells address the same version of the same column.
A store keeps only one of them.
*/
func SameVersion(a, b Cell) bool {
	return a.Row == b.Row && a.Family == b.Family && a.Qualifier == b.Qualifier && a.Timestamp == b.Timestamp
}

/*
Supersedes checks if cell a replaces cell b of the same version. The cell of
the mutation which sorts later by variant rank and sequence number wins. On
a full tie the newer write wins.
*/
func Supersedes(a, b Cell) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	return a.Sequence >= b.Sequence
}

/*
Entry is the decoded form of a cell without its row.
*/
type Entry struct {
	Family     Family
	Kind       QualifierKind
	Parts      []string
	Visibility string
	Timestamp  int64

	Value       mutation.Value              // Property and metadata values
	Label       string                      // Edge label (signal label)
	OutVertexID string                      // Edge endpoints (signal endpoints)
	InVertexID  string                      // Edge endpoints (signal endpoints)
	EdgeInfo    edgeinfo.EdgeInfo           // Edge references
	SoftDelete  edgeinfo.SoftDeleteEdgeInfo // Edge reference soft deletes
}

/*
Qualifier returns the encoded qualifier of this entry.
*/
func (e *Entry) Qualifier() string {
	return Qualifier(e.Kind, e.Parts...)
}

// Encoding
// ========

/*
Encode encodes an entry into a cell of a given row.
*/
func Encode(row string, e Entry) Cell {
	var value []byte

	switch e.Family {
	case FamilySignal:
		switch e.Kind {
		case KindSignalLabel:
			value = []byte(e.Label)
		case KindSignalEndpoints:
			value = appendParts(nil, e.OutVertexID, e.InVertexID)
		}

	case FamilyProperty, FamilyPropertyMetadata:
		value = appendParts(nil, e.Value.Type, string(e.Value.Data))

	case FamilyOutEdge, FamilyInEdge:
		value = edgeinfo.Encode(e.EdgeInfo)

	case FamilySoftDelete:
		if e.Kind == KindDeleteOutEdge || e.Kind == KindDeleteInEdge {
			value = edgeinfo.EncodeSoftDelete(e.SoftDelete)
		}
	}

	return Cell{Row: row, Family: e.Family, Qualifier: e.Qualifier(), Visibility: e.Visibility,
		Timestamp: e.Timestamp, Value: value}
}

/*
Decode decodes a cell. Corrupt edge references produce an edgeinfo.CodecError.
*/
func Decode(c Cell) (Entry, error) {
	if !c.Family.Valid() {
		return Entry{}, &Error{ErrInvalidCell, fmt.Sprintf("unknown family %v in row %v", c.Family, c.Row)}
	}

	kind, parts, err := ParseQualifier(c.Family, c.Qualifier)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{Family: c.Family, Kind: kind, Parts: parts, Visibility: c.Visibility, Timestamp: c.Timestamp}

	switch c.Family {
	case FamilySignal:
		switch kind {
		case KindSignalLabel:
			e.Label = string(c.Value)
		case KindSignalEndpoints:
			vp, err := readParts(c.Value, 2)
			if err != nil {
				return Entry{}, &Error{ErrInvalidValue, fmt.Sprintf("edge endpoints in row %v: %v", c.Row, err)}
			}
			e.OutVertexID, e.InVertexID = vp[0], vp[1]
		}

	case FamilyProperty, FamilyPropertyMetadata:
		vp, err := readParts(c.Value, 2)
		if err != nil {
			return Entry{}, &Error{ErrInvalidValue, fmt.Sprintf("%v value in row %v: %v", c.Family, c.Row, err)}
		}
		e.Value = mutation.Value{Type: vp[0], Data: []byte(vp[1])}

	case FamilyOutEdge, FamilyInEdge:
		if e.EdgeInfo, err = edgeinfo.Decode(c.Value); err != nil {
			return Entry{}, err
		}

	case FamilySoftDelete:
		if kind == KindDeleteOutEdge || kind == KindDeleteInEdge {
			if e.SoftDelete, err = edgeinfo.DecodeSoftDelete(c.Value); err != nil {
				return Entry{}, err
			}
		}
	}

	return e, nil
}

// Projection of mutations
// =======================

/*
PropertyParts returns the qualifier parts which identify a property.
*/
func PropertyParts(key, name, visibility string) []string {
	return []string{key, name, visibility}
}

/*
EdgeFamily returns the column family of edge references of a given direction.
*/
func EdgeFamily(d mutation.Direction) Family {
	if d == mutation.DirectionIn {
		return FamilyInEdge
	}
	return FamilyOutEdge
}

/*
Entries projects a mutation into the entries it writes. All entries carry the
timestamp of the mutation.
*/
func Entries(m mutation.Mutation) []Entry {
	h := m.Head()
	ts := h.Timestamp

	switch m := m.(type) {
	case *mutation.AddPropertyValue:
		pp := PropertyParts(m.Key, m.Name, h.Visibility)

		ret := []Entry{{Family: FamilyProperty, Kind: KindValue, Parts: pp,
			Visibility: h.Visibility, Timestamp: ts, Value: m.Value}}

		for _, md := range m.Metadata {
			ret = append(ret, Entry{Family: FamilyPropertyMetadata, Kind: KindValue,
				Parts:      append(PropertyParts(m.Key, m.Name, h.Visibility), md.Key, md.Visibility),
				Visibility: md.Visibility, Timestamp: ts, Value: md.Value})
		}

		return ret

	case *mutation.AddPropertyMetadataEntry:
		return []Entry{{Family: FamilyPropertyMetadata, Kind: KindValue,
			Parts:      append(PropertyParts(m.Key, m.Name, m.PropertyVisibility), m.Metadata.Key, m.Metadata.Visibility),
			Visibility: m.Metadata.Visibility, Timestamp: ts, Value: m.Metadata.Value}}

	case *mutation.SoftDeleteProperty:
		return []Entry{{Family: FamilySoftDelete, Kind: KindDeleteProperty,
			Parts:      PropertyParts(m.Key, m.Name, m.PropertyVisibility),
			Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.MarkPropertyHidden:
		return []Entry{{Family: FamilyHidden, Kind: KindPropertyHidden,
			Parts:      append(PropertyParts(m.Key, m.Name, m.PropertyVisibility), m.HiddenVisibility),
			Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.MarkPropertyVisible:
		return []Entry{{Family: FamilyHidden, Kind: KindPropertyVisible,
			Parts:      append(PropertyParts(m.Key, m.Name, m.PropertyVisibility), m.HiddenVisibility),
			Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.AlterElementVisibility:
		return []Entry{{Family: FamilySignal, Kind: KindSignalExists,
			Visibility: m.NewVisibility, Timestamp: ts}}

	case *mutation.AddAdditionalVisibility:
		return []Entry{{Family: FamilyAdditionalVisibility, Kind: KindAdditionalAdd,
			Parts: []string{m.AdditionalVisibility}, Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.DeleteAdditionalVisibility:
		return []Entry{{Family: FamilyAdditionalVisibility, Kind: KindAdditionalDelete,
			Parts: []string{m.AdditionalVisibility}, Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.EdgeSetup:
		return []Entry{
			{Family: FamilySignal, Kind: KindSignalExists, Visibility: h.Visibility, Timestamp: ts},
			{Family: FamilySignal, Kind: KindSignalLabel, Visibility: h.Visibility, Timestamp: ts,
				Label: m.Label},
			{Family: FamilySignal, Kind: KindSignalEndpoints, Visibility: h.Visibility, Timestamp: ts,
				OutVertexID: m.OutVertexID, InVertexID: m.InVertexID},
		}

	case *mutation.AlterEdgeLabel:
		return []Entry{{Family: FamilySignal, Kind: KindSignalLabel, Visibility: h.Visibility,
			Timestamp: ts, Label: m.NewLabel}}

	case *mutation.SoftDeleteElement:
		return []Entry{{Family: FamilySoftDelete, Kind: KindDeleteElement,
			Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.MarkElementHidden:
		return []Entry{{Family: FamilyHidden, Kind: KindElementHidden,
			Parts: []string{m.HiddenVisibility}, Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.MarkElementVisible:
		return []Entry{{Family: FamilyHidden, Kind: KindElementVisible,
			Parts: []string{m.HiddenVisibility}, Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.ElementTimestampTouch:
		return []Entry{{Family: FamilySignal, Kind: KindSignalExists,
			Visibility: h.Visibility, Timestamp: ts}}

	case *mutation.AddEdgeRef:
		return []Entry{{Family: EdgeFamily(m.Direction), Kind: KindValue,
			Parts: []string{m.EdgeID}, Visibility: h.Visibility, Timestamp: ts,
			EdgeInfo: edgeinfo.EdgeInfo{Label: m.Label, VertexID: m.OtherVertex, Timestamp: ts}}}

	case *mutation.SoftDeleteEdgeRef:
		kind := KindDeleteOutEdge
		if m.Direction == mutation.DirectionIn {
			kind = KindDeleteInEdge
		}

		return []Entry{{Family: FamilySoftDelete, Kind: kind,
			Parts: []string{m.EdgeID}, Visibility: h.Visibility, Timestamp: ts,
			SoftDelete: edgeinfo.SoftDeleteEdgeInfo{EdgeID: m.EdgeID, Timestamp: ts}}}
	}

	return nil
}

/*
FromMutations projects all mutations of one element into cells. The result
is in store order. Every cell carries the rank and sequence number of its
mutation. Cells which address the same version of a column are collapsed;
the cell of the mutation which sorts last is kept (see Supersedes).
*/
func FromMutations(row string, muts []mutation.Mutation) []Cell {
	sorted := make([]mutation.Mutation, len(muts))
	copy(sorted, muts)
	mutation.Sort(sorted)

	type versionKey struct {
		family    Family
		qualifier string
		ts        int64
	}

	index := make(map[versionKey]int)

	var cells []Cell

	for _, m := range sorted {
		rank, seq := mutation.Rank(m.Kind()), m.Head().Sequence

		for _, e := range Entries(m) {
			c := Encode(row, e)
			c.Rank, c.Sequence = rank, seq
			k := versionKey{c.Family, c.Qualifier, c.Timestamp}

			if i, ok := index[k]; ok {
				cells[i] = c
				continue
			}

			index[k] = len(cells)
			cells = append(cells, c)
		}
	}

	sort.Slice(cells, func(i, j int) bool {
		return Less(cells[i], cells[j])
	})

	return cells
}
