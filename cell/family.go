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
Package cell contains the columnar layout of graph elements in a sorted
store.

Each element is one row. Every mutation is projected into one or more cells
(column family, qualifier, visibility, timestamp, value). The store keeps
all versions of a cell and returns a row sorted by family, then qualifier,
then descending timestamp.

Column families

Families are sorted in this fixed order:

	Signal                   element existence, edge label and endpoints
	Property                 key + name + property visibility -> value
	PropertyMetadata         property qualifier + metadata key + visibility -> value
	OutEdge                  edge id -> EdgeInfo
	InEdge                   edge id -> EdgeInfo
	Hidden                   hidden and visible markers of element and properties
	SoftDelete               soft delete markers of element, properties and edges
	AdditionalVisibility     add and delete markers of additional visibilities

Qualifiers

A qualifier is one kind byte followed by length prefixed parts. The kind
byte separates different markers (e.g. hidden and visible) so both survive
side by side in the store.
*/
package cell

import "fmt"

/*
Family is a column family.
*/
type Family byte

/*
Column families in store order
*/
const (
	FamilySignal Family = iota + 1
	FamilyProperty
	FamilyPropertyMetadata
	FamilyOutEdge
	FamilyInEdge
	FamilyHidden
	FamilySoftDelete
	FamilyAdditionalVisibility
)

/*
Families lists all column families in store order.
*/
var Families = []Family{
	FamilySignal,
	FamilyProperty,
	FamilyPropertyMetadata,
	FamilyOutEdge,
	FamilyInEdge,
	FamilyHidden,
	FamilySoftDelete,
	FamilyAdditionalVisibility,
}

/*
familyNames holds the names of all column families.
*/
var familyNames = map[Family]string{
	FamilySignal:               "signal",
	FamilyProperty:             "property",
	FamilyPropertyMetadata:     "propertyMetadata",
	FamilyOutEdge:              "outEdge",
	FamilyInEdge:               "inEdge",
	FamilyHidden:               "hidden",
	FamilySoftDelete:           "softDelete",
	FamilyAdditionalVisibility: "additionalVisibility",
}

/*
String returns the name of a column family.
*/
func (f Family) String() string {
	if n, ok := familyNames[f]; ok {
		return n
	}
	return fmt.Sprintf("family(%d)", byte(f))
}

/*
Valid checks if a family is known.
*/
func (f Family) Valid() bool {
	return f >= FamilySignal && f <= FamilyAdditionalVisibility
}

/*
QualifierKind is the first byte of a qualifier.
*/
type QualifierKind byte

/*
Qualifier kinds of the signal family
*/
const (
	KindSignalExists    QualifierKind = 0x00
	KindSignalLabel     QualifierKind = 0x01
	KindSignalEndpoints QualifierKind = 0x02
)

/*
Qualifier kind of the property, property metadata and edge families
*/
const KindValue QualifierKind = 0x00

/*
Qualifier kinds of the hidden family
*/
const (
	KindElementHidden   QualifierKind = 0x01
	KindElementVisible  QualifierKind = 0x02
	KindPropertyHidden  QualifierKind = 0x03
	KindPropertyVisible QualifierKind = 0x04
)

/*
Qualifier kinds of the soft delete family
*/
const (
	KindDeleteElement  QualifierKind = 0x01
	KindDeleteProperty QualifierKind = 0x02
	KindDeleteOutEdge  QualifierKind = 0x03
	KindDeleteInEdge   QualifierKind = 0x04
)

/*
Qualifier kinds of the additional visibility family
*/
const (
	KindAdditionalAdd    QualifierKind = 0x01
	KindAdditionalDelete QualifierKind = 0x02
)

/*
partCounts is the number of qualifier parts per family and kind.
*/
var partCounts = map[Family]map[QualifierKind]int{
	FamilySignal:               {KindSignalExists: 0, KindSignalLabel: 0, KindSignalEndpoints: 0},
	FamilyProperty:             {KindValue: 3},
	FamilyPropertyMetadata:     {KindValue: 5},
	FamilyOutEdge:              {KindValue: 1},
	FamilyInEdge:               {KindValue: 1},
	FamilyHidden:               {KindElementHidden: 1, KindElementVisible: 1, KindPropertyHidden: 4, KindPropertyVisible: 4},
	FamilySoftDelete:           {KindDeleteElement: 0, KindDeleteProperty: 3, KindDeleteOutEdge: 1, KindDeleteInEdge: 1},
	FamilyAdditionalVisibility: {KindAdditionalAdd: 1, KindAdditionalDelete: 1},
}
