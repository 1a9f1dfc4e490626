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
	"sort"

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/edgeinfo"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/visibility"
)

/*
policy decides which version of a column becomes authoritative.
*/
type policy int

const (
	lastWins  policy = iota // Versions arrive in ascending order
	firstWins               // Versions arrive newest first
)

/*
slotKey identifies a column of an element.
*/
type slotKey struct {
	family    cell.Family
	qualifier string
}

/*
less orders slot keys like the store does.
*/
func (k slotKey) less(o slotKey) bool {
	if k.family != o.family {
		return k.family < o.family
	}
	return k.qualifier < o.qualifier
}

/*
folder reduces the entries of one element to one winning version per
column and turns the winners into a snapshot. Both engines feed the same
folder; they only differ in the order in which versions arrive.
*/
type folder struct {
	id     string
	hints  FetchHints
	policy policy
	slots  map[slotKey]*cell.Entry
}

/*
newFolder creates a new folder for one element.
*/
func newFolder(id string, hints FetchHints, p policy) *folder {
	return &folder{id, hints, p, make(map[slotKey]*cell.Entry)}
}

/*
seen checks if a column already has an authoritative version.
*/
func (f *folder) seen(family cell.Family, qualifier string) bool {
	_, ok := f.slots[slotKey{family, qualifier}]
	return ok
}

/*
observe offers one version of a column to the folder.
*/
func (f *folder) observe(qualifier string, e cell.Entry) {
	if !f.hints.wants(e.Family, e.Kind) {
		return
	}

	k := slotKey{e.Family, qualifier}

	if cur, ok := f.slots[k]; ok {
		if f.policy == firstWins || e.Timestamp < cur.Timestamp {
			return
		}
	}

	f.slots[k] = &e
}

/*
evaluator evaluates visibilities for one caller. The first malformed
expression is kept and ends the resolution.
*/
type evaluator struct {
	auths visibility.Authorizations
	cache *visibility.Cache
	err   error
}

/*
eval evaluates a visibility expression.
*/
func (ev *evaluator) eval(text string) bool {
	if ev.err != nil {
		return false
	}

	var ok bool
	var err error

	if ev.cache != nil {
		ok, err = ev.cache.Evaluate(text, ev.auths)
	} else {
		var e *visibility.Expression
		if e, err = visibility.Parse(text); err == nil {
			ok = e.Evaluate(ev.auths)
		}
	}

	if err != nil {
		ev.err = err
	}

	return ok
}

/*
rowState holds the winning versions of one element bucketed by their role.
Markers are keyed by the slot of the column they refer to.
*/
type rowState struct {
	signal    *cell.Entry
	label     *cell.Entry
	endpoints *cell.Entry

	properties []slotKey
	metadata   map[slotKey][]*cell.Entry
	edges      map[cell.Family][]slotKey

	deletes    map[slotKey]*cell.Entry
	hidden     map[slotKey][]*cell.Entry
	additional map[string][2]*cell.Entry // Add and delete marker per visibility
}

/*
elementTarget is the slot which markers of the element itself refer to.
*/
var elementTarget = slotKey{cell.FamilySignal, cell.Qualifier(cell.KindSignalExists)}

/*
propertyTarget returns the slot of a property from the leading qualifier parts
of a metadata, hidden or soft delete column.
*/
func propertyTarget(parts []string) slotKey {
	return slotKey{cell.FamilyProperty, cell.Qualifier(cell.KindValue, parts[:3]...)}
}

/*
bucket sorts the winning versions into their roles.
*/
func (f *folder) bucket() *rowState {
	keys := make([]slotKey, 0, len(f.slots))
	for k := range f.slots {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})

	rs := &rowState{
		metadata:   make(map[slotKey][]*cell.Entry),
		edges:      make(map[cell.Family][]slotKey),
		deletes:    make(map[slotKey]*cell.Entry),
		hidden:     make(map[slotKey][]*cell.Entry),
		additional: make(map[string][2]*cell.Entry),
	}

	for _, k := range keys {
		e := f.slots[k]

		switch e.Family {
		case cell.FamilySignal:
			switch e.Kind {
			case cell.KindSignalExists:
				rs.signal = e
			case cell.KindSignalLabel:
				rs.label = e
			case cell.KindSignalEndpoints:
				rs.endpoints = e
			}

		case cell.FamilyProperty:
			rs.properties = append(rs.properties, k)

		case cell.FamilyPropertyMetadata:
			t := propertyTarget(e.Parts)
			rs.metadata[t] = append(rs.metadata[t], e)

		case cell.FamilyOutEdge, cell.FamilyInEdge:
			rs.edges[e.Family] = append(rs.edges[e.Family], k)

		case cell.FamilyHidden:
			t := elementTarget
			if e.Kind == cell.KindPropertyHidden || e.Kind == cell.KindPropertyVisible {
				t = propertyTarget(e.Parts)
			}
			rs.hidden[t] = append(rs.hidden[t], e)

		case cell.FamilySoftDelete:
			switch e.Kind {
			case cell.KindDeleteElement:
				rs.deletes[elementTarget] = e
			case cell.KindDeleteProperty:
				rs.deletes[propertyTarget(e.Parts)] = e
			case cell.KindDeleteOutEdge:
				rs.deletes[slotKey{cell.FamilyOutEdge, cell.Qualifier(cell.KindValue, e.Parts[0])}] = e
			case cell.KindDeleteInEdge:
				rs.deletes[slotKey{cell.FamilyInEdge, cell.Qualifier(cell.KindValue, e.Parts[0])}] = e
			}

		case cell.FamilyAdditionalVisibility:
			a := rs.additional[e.Parts[0]]
			if e.Kind == cell.KindAdditionalAdd {
				a[0] = e
			} else {
				a[1] = e
			}
			rs.additional[e.Parts[0]] = a
		}
	}

	return rs
}

/*
finish turns the winning versions into a snapshot for one caller. Returns
nil if the element does not exist or the caller cannot see it.
*/
func (f *folder) finish(auths visibility.Authorizations, cache *visibility.Cache) (*ElementSnapshot, error) {
	rs := f.bucket()
	ev := &evaluator{auths: auths, cache: cache}

	es := f.snapshot(rs, ev)

	if ev.err != nil {
		return nil, ev.err
	}

	return es, nil
}

/*
deleted checks if a column was soft deleted after its winning version was
written. Deletes win ties.
*/
func (rs *rowState) deleted(target slotKey, ts int64, ev *evaluator) bool {
	d, ok := rs.deletes[target]
	return ok && d.Timestamp >= ts && ev.eval(d.Visibility)
}

/*
hiddenVisibilities returns the hidden visibilities of a column which apply
to the caller. A visible marker revokes a hidden marker with an older or
equal timestamp.
*/
func (rs *rowState) hiddenVisibilities(target slotKey, ev *evaluator) []string {
	markers := rs.hidden[target]
	if len(markers) == 0 {
		return nil
	}

	hidden := make(map[string]int64)
	visible := make(map[string]int64)

	for _, m := range markers {
		if !ev.eval(m.Visibility) {
			continue
		}

		hv := m.Parts[len(m.Parts)-1]

		if m.Kind == cell.KindElementHidden || m.Kind == cell.KindPropertyHidden {
			hidden[hv] = m.Timestamp
		} else {
			visible[hv] = m.Timestamp
		}
	}

	hvs := make([]string, 0, len(hidden))
	for hv := range hidden {
		hvs = append(hvs, hv)
	}
	sort.Strings(hvs)

	var ret []string

	for _, hv := range hvs {
		if vts, ok := visible[hv]; ok && vts >= hidden[hv] {
			continue
		}
		if ev.eval(hv) {
			ret = append(ret, hv)
		}
	}

	return ret
}

/*
snapshot builds the snapshot from the bucketed versions.
*/
func (f *folder) snapshot(rs *rowState, ev *evaluator) *ElementSnapshot {
	if rs.signal == nil || !ev.eval(rs.signal.Visibility) {
		return nil
	}

	es := &ElementSnapshot{ID: f.id, Visibility: rs.signal.Visibility}

	if rs.deleted(elementTarget, rs.signal.Timestamp, ev) {
		es.IsDeleted = true
		return es
	}

	if hvs := rs.hiddenVisibilities(elementTarget, ev); len(hvs) > 0 {
		if !f.hints.IncludeHidden {
			return nil
		}
		es.HiddenVisibilities = hvs
	}

	if rs.label != nil && ev.eval(rs.label.Visibility) {
		es.EdgeLabel = rs.label.Label
	}

	if rs.endpoints != nil && ev.eval(rs.endpoints.Visibility) {
		es.OutVertexID, es.InVertexID = rs.endpoints.OutVertexID, rs.endpoints.InVertexID
	}

	es.AdditionalVisibilities = f.additionalVisibilities(rs, ev)

	if f.hints.IncludeProperties {
		es.Properties = f.properties(rs, ev)
	}

	if f.hints.IncludesOutEdges() {
		es.OutEdges, es.OutEdgeLabelCounts = f.edges(rs, cell.FamilyOutEdge, ev)
	}

	if f.hints.IncludesInEdges() {
		es.InEdges, es.InEdgeLabelCounts = f.edges(rs, cell.FamilyInEdge, ev)
	}

	return es
}

/*
additionalVisibilities returns the additional visibilities which are in
effect and visible to the caller.
*/
func (f *folder) additionalVisibilities(rs *rowState, ev *evaluator) []string {
	avs := make([]string, 0, len(rs.additional))
	for av := range rs.additional {
		avs = append(avs, av)
	}
	sort.Strings(avs)

	var ret []string

	for _, av := range avs {
		add, del := rs.additional[av][0], rs.additional[av][1]

		if add == nil || !ev.eval(add.Visibility) {
			continue
		}

		if del != nil && del.Timestamp >= add.Timestamp && ev.eval(del.Visibility) {
			continue
		}

		if ev.eval(av) {
			ret = append(ret, av)
		}
	}

	return ret
}

/*
properties returns the property values which are visible to the caller.
*/
func (f *folder) properties(rs *rowState, ev *evaluator) []ResolvedProperty {
	var ret []ResolvedProperty

	for _, k := range rs.properties {
		e := f.slots[k]

		if rs.deleted(k, e.Timestamp, ev) || !ev.eval(e.Visibility) {
			continue
		}

		hvs := rs.hiddenVisibilities(k, ev)

		if len(hvs) > 0 && !f.hints.IncludeHidden {
			continue
		}

		p := ResolvedProperty{
			Key:                e.Parts[0],
			Name:               e.Parts[1],
			Visibility:         e.Parts[2],
			Value:              copyValue(e.Value),
			HiddenVisibilities: hvs,
		}

		if f.hints.IncludePropertyMetadata {
			for _, m := range rs.metadata[k] {
				if ev.eval(m.Visibility) {
					p.Metadata = append(p.Metadata, mutation.MetadataEntry{
						Key:        m.Parts[3],
						Visibility: m.Parts[4],
						Value:      copyValue(m.Value),
					})
				}
			}

			sort.Slice(p.Metadata, func(i, j int) bool {
				a, b := p.Metadata[i], p.Metadata[j]
				if a.Key != b.Key {
					return a.Key < b.Key
				}
				return a.Visibility < b.Visibility
			})
		}

		ret = append(ret, p)
	}

	sortProperties(ret)

	return ret
}

/*
edges returns the edge references of one direction which are visible to the
caller. In labels and counts mode only the counts are returned.
*/
func (f *folder) edges(rs *rowState, family cell.Family, ev *evaluator) (map[string]edgeinfo.EdgeInfo, map[string]int) {
	var labels map[string]bool

	if len(f.hints.EdgeLabels) > 0 {
		labels = make(map[string]bool, len(f.hints.EdgeLabels))
		for _, l := range f.hints.EdgeLabels {
			labels[l] = true
		}
	}

	countsOnly := f.hints.EdgeRefs == EdgeRefLabelsAndCountsOnly

	edges := make(map[string]edgeinfo.EdgeInfo)
	counts := make(map[string]int)

	for _, k := range rs.edges[family] {
		e := f.slots[k]

		if rs.deleted(k, e.Timestamp, ev) || !ev.eval(e.Visibility) {
			continue
		}

		if labels != nil && !labels[e.EdgeInfo.Label] {
			continue
		}

		if countsOnly {
			counts[e.EdgeInfo.Label]++
		} else {
			edges[e.Parts[0]] = e.EdgeInfo
		}
	}

	if countsOnly {
		return nil, counts
	}

	return edges, nil
}

/*
copyValue copies a value so snapshots never share memory with their input.
*/
func copyValue(v mutation.Value) mutation.Value {
	var data []byte

	if len(v.Data) > 0 {
		data = append(data, v.Data...)
	}

	return mutation.Value{Type: v.Type, Data: data}
}
