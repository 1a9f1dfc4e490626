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
	"sort"
	"strings"

	"devt.de/krotik/cellgraph/edgeinfo"
	"devt.de/krotik/cellgraph/mutation"
)

/*
ResolvedProperty is a property value as seen by one caller.
*/
type ResolvedProperty struct {
	Key                string
	Name               string
	Value              mutation.Value
	Visibility         string
	Metadata           []mutation.MetadataEntry // Only set if metadata was requested
	HiddenVisibilities []string                 // Only set if hidden items were requested
}

/*
ElementSnapshot is the resolved state of one element as seen by one caller.
A snapshot is owned by the caller and never modified by a resolution.
*/
type ElementSnapshot struct {
	ID         string
	Visibility string
	IsDeleted  bool

	Properties []ResolvedProperty // Sorted by key, name and visibility

	OutEdges           map[string]edgeinfo.EdgeInfo // Outgoing edge references by edge id
	InEdges            map[string]edgeinfo.EdgeInfo // Incoming edge references by edge id
	OutEdgeLabelCounts map[string]int               // Outgoing edge counts by label (labels and counts mode)
	InEdgeLabelCounts  map[string]int               // Incoming edge counts by label (labels and counts mode)

	AdditionalVisibilities []string // Sorted
	HiddenVisibilities     []string // Sorted

	EdgeLabel   string // Edge elements only
	OutVertexID string // Edge elements only
	InVertexID  string // Edge elements only
}

/*
IsEdge checks if this snapshot describes an edge element.
*/
func (es *ElementSnapshot) IsEdge() bool {
	return es.OutVertexID != "" || es.InVertexID != ""
}

/*
Property returns all values of a property with a given key and name.
*/
func (es *ElementSnapshot) Property(key, name string) []ResolvedProperty {
	var ret []ResolvedProperty

	for _, p := range es.Properties {
		if p.Key == key && p.Name == name {
			ret = append(ret, p)
		}
	}

	return ret
}

/*
Edges returns the edge references of a given direction.
*/
func (es *ElementSnapshot) Edges(dir mutation.Direction) map[string]edgeinfo.EdgeInfo {
	if dir == mutation.DirectionIn {
		return es.InEdges
	}
	return es.OutEdges
}

/*
EdgeLabelCounts returns the number of edges per label of a given direction.
*/
func (es *ElementSnapshot) EdgeLabelCounts(dir mutation.Direction) map[string]int {
	counts := es.OutEdgeLabelCounts
	if dir == mutation.DirectionIn {
		counts = es.InEdgeLabelCounts
	}

	if counts != nil {
		return counts
	}

	if edges := es.Edges(dir); edges != nil {
		counts = make(map[string]int)
		for _, ei := range edges {
			counts[ei.Label]++
		}
	}

	return counts
}

/*
EncodeEdgeRefs encodes the edge references of a given direction grouped by
label.
*/
func (es *ElementSnapshot) EncodeEdgeRefs(dir mutation.Direction, labelsOnly bool) []byte {
	if edges := es.Edges(dir); edges != nil {
		return edgeinfo.EncodeGrouped(edges, labelsOnly)
	}

	if !labelsOnly {
		return edgeinfo.EncodeGrouped(nil, false)
	}

	return edgeinfo.EncodeLabelCounts(es.EdgeLabelCounts(dir))
}

/*
String returns a string representation of this snapshot.
*/
func (es *ElementSnapshot) String() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "%v [%v]", es.ID, es.Visibility)

	if es.IsDeleted {
		buf.WriteString(" deleted")
	}

	if es.IsEdge() {
		fmt.Fprintf(&buf, " %v -%v-> %v", es.OutVertexID, es.EdgeLabel, es.InVertexID)
	}

	if len(es.HiddenVisibilities) > 0 {
		fmt.Fprintf(&buf, " hidden:%v", es.HiddenVisibilities)
	}

	if len(es.AdditionalVisibilities) > 0 {
		fmt.Fprintf(&buf, " additional:%v", es.AdditionalVisibilities)
	}

	buf.WriteString("\n")

	for _, p := range es.Properties {
		fmt.Fprintf(&buf, "  %v.%v [%v] = %v:%x\n", p.Key, p.Name, p.Visibility, p.Value.Type, p.Value.Data)
	}

	writeEdges := func(prefix string, edges map[string]edgeinfo.EdgeInfo) {
		ids := make([]string, 0, len(edges))
		for id := range edges {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			ei := edges[id]
			fmt.Fprintf(&buf, "  %v %v %v %v (%v)\n", prefix, id, ei.Label, ei.VertexID, ei.Timestamp)
		}
	}

	writeEdges("out", es.OutEdges)
	writeEdges("in", es.InEdges)

	return buf.String()
}

/*
sortProperties brings properties into their canonical order.
*/
func sortProperties(props []ResolvedProperty) {
	sort.Slice(props, func(i, j int) bool {
		a, b := props[i], props[j]

		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Visibility < b.Visibility
	})
}
