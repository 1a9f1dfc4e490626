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
	"fmt"
	"strings"

	"devt.de/krotik/cellgraph/cell"
)

/*
EdgeRefPolicy controls which edge references are materialized.
*/
type EdgeRefPolicy int

/*
Edge reference policies
*/
const (
	EdgeRefNone                EdgeRefPolicy = iota // No edge references
	EdgeRefOutOnly                                  // Outgoing edge references
	EdgeRefInOnly                                   // Incoming edge references
	EdgeRefBoth                                     // Both directions, optionally filtered by label
	EdgeRefLabelsAndCountsOnly                      // Label counts of both directions
	EdgeRefAll                                      // Both directions, never filtered
)

var edgeRefPolicyNames = []string{"none", "out", "in", "both", "labels", "all"}

/*
String returns the name of an edge reference policy.
*/
func (p EdgeRefPolicy) String() string {
	if p >= 0 && int(p) < len(edgeRefPolicyNames) {
		return edgeRefPolicyNames[p]
	}
	return fmt.Sprintf("EdgeRefPolicy(%d)", int(p))
}

/*
ParseEdgeRefPolicy looks up an edge reference policy by its name.
*/
func ParseEdgeRefPolicy(name string) (EdgeRefPolicy, error) {
	for i, n := range edgeRefPolicyNames {
		if strings.EqualFold(n, name) {
			return EdgeRefPolicy(i), nil
		}
	}
	return EdgeRefNone, fmt.Errorf("Unknown edge reference policy: %v (expected one of %v)",
		name, strings.Join(edgeRefPolicyNames, ", "))
}

/*
FetchHints limits which parts of an element a resolution materializes.
*/
type FetchHints struct {
	IncludeProperties       bool          // Include property values
	IncludePropertyMetadata bool          // Include metadata of property values
	IncludeHidden           bool          // Keep hidden items and report their hidden visibilities
	EdgeRefs                EdgeRefPolicy // Edge references to include
	EdgeLabels              []string      // Only include edges with these labels (empty means all)
}

/*
AllFetchHints materializes everything.
*/
var AllFetchHints = FetchHints{
	IncludeProperties:       true,
	IncludePropertyMetadata: true,
	IncludeHidden:           true,
	EdgeRefs:                EdgeRefAll,
}

/*
DefaultFetchHints materializes visible properties and all edge references.
*/
var DefaultFetchHints = FetchHints{
	IncludeProperties:       true,
	IncludePropertyMetadata: true,
	EdgeRefs:                EdgeRefAll,
}

/*
Validate checks that the hints can be satisfied.
*/
func (h FetchHints) Validate() error {
	if h.IncludePropertyMetadata && !h.IncludeProperties {
		return &UnsupportedFetchHintCombinationError{ErrMetadataWithoutProperties,
			"IncludePropertyMetadata is set but IncludeProperties is not"}
	}

	if h.EdgeRefs < EdgeRefNone || h.EdgeRefs > EdgeRefAll {
		return &UnsupportedFetchHintCombinationError{ErrUnknownEdgeRefPolicy,
			fmt.Sprintf("policy %v", int(h.EdgeRefs))}
	}

	if len(h.EdgeLabels) > 0 {
		switch h.EdgeRefs {
		case EdgeRefNone:
			return &UnsupportedFetchHintCombinationError{ErrLabelsWithoutEdges,
				fmt.Sprintf("labels %v given with edge policy %v", h.EdgeLabels, h.EdgeRefs)}
		case EdgeRefAll:
			return &UnsupportedFetchHintCombinationError{ErrLabelsWithAllRefs,
				fmt.Sprintf("labels %v given with edge policy %v", h.EdgeLabels, h.EdgeRefs)}
		}
	}

	return nil
}

/*
IncludesOutEdges checks if outgoing edge references are needed.
*/
func (h FetchHints) IncludesOutEdges() bool {
	return h.EdgeRefs != EdgeRefNone && h.EdgeRefs != EdgeRefInOnly
}

/*
IncludesInEdges checks if incoming edge references are needed.
*/
func (h FetchHints) IncludesInEdges() bool {
	return h.EdgeRefs != EdgeRefNone && h.EdgeRefs != EdgeRefOutOnly
}

/*
Families returns the column families a row scan must read to satisfy the
hints. Marker families are always read.
*/
func (h FetchHints) Families() []cell.Family {
	ret := []cell.Family{cell.FamilySignal}

	if h.IncludeProperties {
		ret = append(ret, cell.FamilyProperty)
	}
	if h.IncludePropertyMetadata {
		ret = append(ret, cell.FamilyPropertyMetadata)
	}
	if h.IncludesOutEdges() {
		ret = append(ret, cell.FamilyOutEdge)
	}
	if h.IncludesInEdges() {
		ret = append(ret, cell.FamilyInEdge)
	}

	return append(ret, cell.FamilyHidden, cell.FamilySoftDelete, cell.FamilyAdditionalVisibility)
}

/*
wants checks if cells of a given family and qualifier kind can influence the
result under these hints.
*/
func (h FetchHints) wants(f cell.Family, kind cell.QualifierKind) bool {
	switch f {
	case cell.FamilyProperty:
		return h.IncludeProperties
	case cell.FamilyPropertyMetadata:
		return h.IncludePropertyMetadata
	case cell.FamilyOutEdge:
		return h.IncludesOutEdges()
	case cell.FamilyInEdge:
		return h.IncludesInEdges()
	case cell.FamilyHidden:
		return h.IncludeProperties || (kind != cell.KindPropertyHidden && kind != cell.KindPropertyVisible)
	case cell.FamilySoftDelete:
		switch kind {
		case cell.KindDeleteProperty:
			return h.IncludeProperties
		case cell.KindDeleteOutEdge:
			return h.IncludesOutEdges()
		case cell.KindDeleteInEdge:
			return h.IncludesInEdges()
		}
	}
	return true
}

/*
String returns a string representation of these hints.
*/
func (h FetchHints) String() string {
	return fmt.Sprintf("FetchHints(properties:%v metadata:%v hidden:%v edges:%v labels:%v)",
		h.IncludeProperties, h.IncludePropertyMetadata, h.IncludeHidden, h.EdgeRefs, h.EdgeLabels)
}
