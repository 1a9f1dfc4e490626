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
Package mutation contains the typed, timestamped mutation records which
describe every possible change to a graph element.

Elements are never updated in place. The write path appends mutations and a
resolution pass folds all mutations of an element into its current state.
Mutations are immutable once created.

Every mutation carries a Header with a logical timestamp, a process-local
sequence number and the visibility under which the mutation itself is
governed. For mutations which write a value (AddPropertyValue, AddEdgeRef,
EdgeSetup, ElementTimestampTouch) this is the visibility of the written
value. For markers (soft deletes, hidden markers, additional visibilities)
it decides who observes the marker at all.

EdgeSetup, ElementTimestampTouch and AlterElementVisibility all write the
element visibility. A touch must therefore carry the current element
visibility; a newer touch with a different visibility re-scopes the element
exactly like AlterElementVisibility does.
*/
package mutation

/*
Kind identifies a mutation variant.
*/
type Kind uint8

/*
Known mutation variants
*/
const (
	KindAddPropertyValue Kind = iota + 1
	KindAddPropertyMetadataEntry
	KindSoftDeleteProperty
	KindMarkPropertyHidden
	KindMarkPropertyVisible
	KindAlterElementVisibility
	KindAddAdditionalVisibility
	KindDeleteAdditionalVisibility
	KindEdgeSetup
	KindAlterEdgeLabel
	KindSoftDeleteElement
	KindMarkElementHidden
	KindMarkElementVisible
	KindElementTimestampTouch
	KindAddEdgeRef
	KindSoftDeleteEdgeRef
)

/*
kindNames maps kinds to their variant names.
*/
var kindNames = map[Kind]string{
	KindAddPropertyValue:           "AddPropertyValue",
	KindAddPropertyMetadataEntry:   "AddPropertyMetadataEntry",
	KindSoftDeleteProperty:         "SoftDeleteProperty",
	KindMarkPropertyHidden:         "MarkPropertyHidden",
	KindMarkPropertyVisible:        "MarkPropertyVisible",
	KindAlterElementVisibility:     "AlterElementVisibility",
	KindAddAdditionalVisibility:    "AddAdditionalVisibility",
	KindDeleteAdditionalVisibility: "DeleteAdditionalVisibility",
	KindEdgeSetup:                  "EdgeSetup",
	KindAlterEdgeLabel:             "AlterEdgeLabel",
	KindSoftDeleteElement:          "SoftDeleteElement",
	KindMarkElementHidden:          "MarkElementHidden",
	KindMarkElementVisible:         "MarkElementVisible",
	KindElementTimestampTouch:      "ElementTimestampTouch",
	KindAddEdgeRef:                 "AddEdgeRef",
	KindSoftDeleteEdgeRef:          "SoftDeleteEdgeRef",
}

/*
String returns the variant name of a kind.
*/
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

/*
KindByName looks up a kind by its variant name.
*/
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

/*
Header holds the fields which are common to all mutations.
*/
type Header struct {
	Timestamp  int64  // Logical timestamp
	Sequence   uint64 // Tie breaker for equal timestamps (assigned by a Sequencer)
	Visibility string // Visibility which governs the mutation itself
}

/*
Mutation is a single change to a graph element. The interface is sealed;
only the variants of this package implement it.
*/
type Mutation interface {

	/*
		Kind returns the variant of this mutation.
	*/
	Kind() Kind

	/*
		Head returns the common mutation fields.
	*/
	Head() Header

	/*
		withHeader returns a copy of this mutation with a different header.
	*/
	withHeader(h Header) Mutation
}

/*
Direction of an edge reference relative to the element which holds it.
*/
type Direction uint8

/*
Edge directions
*/
const (
	DirectionOut Direction = iota + 1
	DirectionIn
)

/*
String returns a string representation of a direction.
*/
func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionIn:
		return "in"
	}
	return "unknown"
}

/*
Value is an opaque property value: a type tag and the serialized payload.
The payload is produced by an external value codec and never interpreted here.
*/
type Value struct {
	Type string
	Data []byte
}

/*
MetadataEntry is a single property metadata entry.
*/
type MetadataEntry struct {
	Key        string
	Visibility string
	Value      Value
}

/*
AddPropertyValue sets the value of a property. The header visibility is the
property visibility.
*/
type AddPropertyValue struct {
	Header
	Key      string
	Name     string
	Value    Value
	Metadata []MetadataEntry
}

/*
AddPropertyMetadataEntry adds a metadata entry to an existing property.
*/
type AddPropertyMetadataEntry struct {
	Header
	Key                string
	Name               string
	PropertyVisibility string
	Metadata           MetadataEntry
}

/*
SoftDeleteProperty marks a property as deleted.
*/
type SoftDeleteProperty struct {
	Header
	Key                string
	Name               string
	PropertyVisibility string
}

/*
MarkPropertyHidden hides a property from holders of the hidden visibility.
*/
type MarkPropertyHidden struct {
	Header
	Key                string
	Name               string
	PropertyVisibility string
	HiddenVisibility   string
}

/*
MarkPropertyVisible revokes an earlier MarkPropertyHidden.
*/
type MarkPropertyVisible struct {
	Header
	Key                string
	Name               string
	PropertyVisibility string
	HiddenVisibility   string
}

/*
AlterElementVisibility changes the visibility of the element.
*/
type AlterElementVisibility struct {
	Header
	NewVisibility string
}

/*
AddAdditionalVisibility adds an additional visibility to the element.
*/
type AddAdditionalVisibility struct {
	Header
	AdditionalVisibility string
}

/*
DeleteAdditionalVisibility removes an additional visibility from the element.
*/
type DeleteAdditionalVisibility struct {
	Header
	AdditionalVisibility string
}

/*
EdgeSetup creates an edge element between two vertices.
*/
type EdgeSetup struct {
	Header
	OutVertexID string
	InVertexID  string
	Label       string
}

/*
AlterEdgeLabel changes the label of an edge element.
*/
type AlterEdgeLabel struct {
	Header
	NewLabel string
}

/*
SoftDeleteElement marks the element as deleted.
*/
type SoftDeleteElement struct {
	Header
}

/*
MarkElementHidden hides the element from holders of the hidden visibility.
*/
type MarkElementHidden struct {
	Header
	HiddenVisibility string
}

/*
MarkElementVisible revokes an earlier MarkElementHidden.
*/
type MarkElementVisible struct {
	Header
	HiddenVisibility string
}

/*
ElementTimestampTouch signals the existence of the element. The header
visibility becomes the element visibility and must match the current
element visibility unless the element should be re-scoped.
*/
type ElementTimestampTouch struct {
	Header
}

/*
AddEdgeRef adds an adjacency reference to a vertex. The header visibility is
the visibility of the edge.
*/
type AddEdgeRef struct {
	Header
	EdgeID      string
	Direction   Direction
	Label       string
	OtherVertex string
}

/*
SoftDeleteEdgeRef marks an adjacency reference as deleted.
*/
type SoftDeleteEdgeRef struct {
	Header
	EdgeID    string
	Direction Direction
}

// Mutation interface implementation
// =================================

func (m *AddPropertyValue) Kind() Kind           { return KindAddPropertyValue }
func (m *AddPropertyMetadataEntry) Kind() Kind   { return KindAddPropertyMetadataEntry }
func (m *SoftDeleteProperty) Kind() Kind         { return KindSoftDeleteProperty }
func (m *MarkPropertyHidden) Kind() Kind         { return KindMarkPropertyHidden }
func (m *MarkPropertyVisible) Kind() Kind        { return KindMarkPropertyVisible }
func (m *AlterElementVisibility) Kind() Kind     { return KindAlterElementVisibility }
func (m *AddAdditionalVisibility) Kind() Kind    { return KindAddAdditionalVisibility }
func (m *DeleteAdditionalVisibility) Kind() Kind { return KindDeleteAdditionalVisibility }
func (m *EdgeSetup) Kind() Kind                  { return KindEdgeSetup }
func (m *AlterEdgeLabel) Kind() Kind             { return KindAlterEdgeLabel }
func (m *SoftDeleteElement) Kind() Kind          { return KindSoftDeleteElement }
func (m *MarkElementHidden) Kind() Kind          { return KindMarkElementHidden }
func (m *MarkElementVisible) Kind() Kind         { return KindMarkElementVisible }
func (m *ElementTimestampTouch) Kind() Kind      { return KindElementTimestampTouch }
func (m *AddEdgeRef) Kind() Kind                 { return KindAddEdgeRef }
func (m *SoftDeleteEdgeRef) Kind() Kind          { return KindSoftDeleteEdgeRef }

/*
Head returns the common mutation fields.
*/
func (h Header) Head() Header {
	return h
}

func (m *AddPropertyValue) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *AddPropertyMetadataEntry) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *SoftDeleteProperty) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *MarkPropertyHidden) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *MarkPropertyVisible) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *AlterElementVisibility) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *AddAdditionalVisibility) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *DeleteAdditionalVisibility) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *EdgeSetup) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *AlterEdgeLabel) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *SoftDeleteElement) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *MarkElementHidden) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *MarkElementVisible) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *ElementTimestampTouch) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *AddEdgeRef) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}

func (m *SoftDeleteEdgeRef) withHeader(h Header) Mutation {
	c := *m
	c.Header = h
	return &c
}
