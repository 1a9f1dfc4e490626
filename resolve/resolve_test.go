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
	"math/rand"
	"reflect"
	"testing"

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/edgeinfo"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/visibility"
)

var testCache = visibility.NewCache(0)

/*
sliceSource is a row scan over a list of cells in store order.
*/
type sliceSource struct {
	cells    []cell.Cell
	families map[cell.Family]bool
	failOn   map[cell.Family]bool // Families which must never be read
	pos      int
}

func (s *sliceSource) Seek(families []cell.Family) error {
	s.families = make(map[cell.Family]bool)
	for _, f := range families {
		s.families[f] = true
	}
	s.pos = 0
	return nil
}

func (s *sliceSource) Next() (*cell.Cell, error) {
	for s.pos < len(s.cells) {
		c := &s.cells[s.pos]
		s.pos++

		if !s.families[c.Family] {
			continue
		}

		if s.failOn[c.Family] {
			return nil, &edgeinfo.CodecError{Type: edgeinfo.ErrTruncated, Detail: "column should not be read"}
		}

		return c, nil
	}

	return nil, nil
}

func hdr(ts int64, vis string) mutation.Header {
	return mutation.Header{Timestamp: ts, Visibility: vis}
}

func touch(ts int64) mutation.Mutation {
	return &mutation.ElementTimestampTouch{Header: hdr(ts, "")}
}

func addProp(ts int64, key, vis, value string) mutation.Mutation {
	return &mutation.AddPropertyValue{Header: hdr(ts, vis), Key: key, Name: "name",
		Value: mutation.Value{Type: "string", Data: []byte(value)}}
}

/*
resolveBoth resolves with both engines and checks that the results are equal.
*/
func resolveBoth(id string, muts []mutation.Mutation, auths visibility.Authorizations,
	hints FetchHints) (*ElementSnapshot, error) {

	sorted := make([]mutation.Mutation, len(muts))
	copy(sorted, muts)
	mutation.Sort(sorted)

	es1, err1 := ResolveMutations(id, sorted, auths, hints, testCache)
	es2, err2 := ResolveRow(id, &sliceSource{cells: cell.FromMutations(id, muts)}, auths, hints, testCache)

	if (err1 == nil) != (err2 == nil) {
		return nil, fmt.Errorf("engines disagree on error: %v / %v", err1, err2)
	}

	if err1 == nil && !reflect.DeepEqual(es1, es2) {
		return nil, fmt.Errorf("engines disagree:\n%v\n%v", es1, es2)
	}

	return es1, err1
}

func TestSoftDeleteTiming(t *testing.T) {
	auths := visibility.NewAuthorizations()

	es, err := resolveBoth("v1", []mutation.Mutation{
		touch(1),
		addProp(5, "k", "", "x"),
		&mutation.SoftDeleteProperty{Header: hdr(5, ""), Key: "k", Name: "name"},
	}, auths, DefaultFetchHints)

	if err != nil || es == nil || len(es.Properties) != 0 {
		t.Error("Unexpected result:", es, err)
		return
	}

	es, err = resolveBoth("v1", []mutation.Mutation{
		touch(1),
		&mutation.SoftDeleteProperty{Header: hdr(5, ""), Key: "k", Name: "name"},
		addProp(6, "k", "", "x"),
	}, auths, DefaultFetchHints)

	if err != nil || len(es.Properties) != 1 || string(es.Properties[0].Value.Data) != "x" {
		t.Error("Unexpected result:", es, err)
		return
	}

	// A delete which is invisible to the caller does not apply

	es, err = resolveBoth("v1", []mutation.Mutation{
		touch(1),
		addProp(5, "k", "", "x"),
		&mutation.SoftDeleteProperty{Header: hdr(6, "admin"), Key: "k", Name: "name"},
	}, auths, DefaultFetchHints)

	if err != nil || len(es.Properties) != 1 {
		t.Error("Unexpected result:", es, err)
		return
	}

	// Element deletes

	muts := []mutation.Mutation{
		touch(1),
		addProp(2, "k", "", "x"),
		&mutation.SoftDeleteElement{Header: hdr(3, "")},
	}

	es, err = resolveBoth("v1", muts, auths, DefaultFetchHints)

	if err != nil || !es.IsDeleted || es.Properties != nil || es.ID != "v1" {
		t.Error("Unexpected result:", es, err)
		return
	}

	es, err = resolveBoth("v1", append(muts, touch(4)), auths, DefaultFetchHints)

	if err != nil || es.IsDeleted || len(es.Properties) != 1 {
		t.Error("Unexpected result:", es, err)
		return
	}
}

func TestVisibilityFiltering(t *testing.T) {

	muts := []mutation.Mutation{
		touch(1),
		addProp(2, "and", "a&b", "1"),
		addProp(2, "or", "a|b", "2"),
	}

	for _, tc := range []struct {
		auths []string
		res   string
	}{
		{nil, "[]"},
		{[]string{"a"}, "[or]"},
		{[]string{"b", "c"}, "[or]"},
		{[]string{"a", "b"}, "[and or]"},
	} {
		es, err := resolveBoth("v1", muts, visibility.NewAuthorizations(tc.auths...), DefaultFetchHints)
		if err != nil {
			t.Error(err)
			return
		}

		var keys []string
		for _, p := range es.Properties {
			keys = append(keys, p.Key)
		}

		if res := fmt.Sprint(keys); res != tc.res {
			t.Error("Unexpected result for", tc.auths, ":", res)
			return
		}
	}

	// Element visibility

	muts = []mutation.Mutation{
		touch(1),
		&mutation.AlterElementVisibility{Header: hdr(2, ""), NewVisibility: "secret"},
	}

	if es, err := resolveBoth("v1", muts, visibility.NewAuthorizations(), DefaultFetchHints); es != nil || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	if es, err := resolveBoth("v1", muts, visibility.NewAuthorizations("secret"), DefaultFetchHints); es == nil ||
		es.Visibility != "secret" || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	// A newer touch writes the element visibility like an alter

	muts = append(muts, &mutation.ElementTimestampTouch{Header: hdr(3, "other")})

	if es, err := resolveBoth("v1", muts, visibility.NewAuthorizations("secret"), DefaultFetchHints); es != nil ||
		err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	if es, err := resolveBoth("v1", muts, visibility.NewAuthorizations("other"), DefaultFetchHints); es == nil ||
		es.Visibility != "other" || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	// A touch which carries the current visibility keeps the element in scope

	muts[len(muts)-1] = &mutation.ElementTimestampTouch{Header: hdr(3, "secret")}

	if es, err := resolveBoth("v1", muts, visibility.NewAuthorizations("secret"), DefaultFetchHints); es == nil ||
		es.Visibility != "secret" || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	// Additional visibilities

	muts = []mutation.Mutation{
		touch(1),
		&mutation.AddAdditionalVisibility{Header: hdr(2, ""), AdditionalVisibility: "x"},
		&mutation.AddAdditionalVisibility{Header: hdr(2, ""), AdditionalVisibility: "y"},
		&mutation.AddAdditionalVisibility{Header: hdr(2, ""), AdditionalVisibility: "z"},
		&mutation.DeleteAdditionalVisibility{Header: hdr(2, ""), AdditionalVisibility: "z"},
	}

	es, err := resolveBoth("v1", muts, visibility.NewAuthorizations("x", "z"), DefaultFetchHints)

	if err != nil || fmt.Sprint(es.AdditionalVisibilities) != "[x]" {
		t.Error("Unexpected result:", es, err)
		return
	}
}

func TestHiddenToggling(t *testing.T) {
	auths := visibility.NewAuthorizations("x")
	hints := AllFetchHints

	hide := func(ts int64) mutation.Mutation {
		return &mutation.MarkPropertyHidden{Header: hdr(ts, ""), Key: "k", Name: "name", HiddenVisibility: "x"}
	}
	show := func(ts int64) mutation.Mutation {
		return &mutation.MarkPropertyVisible{Header: hdr(ts, ""), Key: "k", Name: "name", HiddenVisibility: "x"}
	}

	es, err := resolveBoth("v1", []mutation.Mutation{touch(1), addProp(1, "k", "", "v"), hide(1), show(2)}, auths, hints)

	if err != nil || len(es.Properties) != 1 || es.Properties[0].HiddenVisibilities != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	es, err = resolveBoth("v1", []mutation.Mutation{touch(1), addProp(1, "k", "", "v"), show(1), hide(2)}, auths, hints)

	if err != nil || len(es.Properties) != 1 || fmt.Sprint(es.Properties[0].HiddenVisibilities) != "[x]" {
		t.Error("Unexpected result:", es, err)
		return
	}

	// Without hidden items the property is dropped

	es, err = resolveBoth("v1", []mutation.Mutation{touch(1), addProp(1, "k", "", "v"), show(1), hide(2)}, auths, DefaultFetchHints)

	if err != nil || len(es.Properties) != 0 {
		t.Error("Unexpected result:", es, err)
		return
	}

	// The hidden visibility only applies to its holders

	es, err = resolveBoth("v1", []mutation.Mutation{touch(1), addProp(1, "k", "", "v"), hide(2)},
		visibility.NewAuthorizations(), DefaultFetchHints)

	if err != nil || len(es.Properties) != 1 {
		t.Error("Unexpected result:", es, err)
		return
	}

	// Hidden elements

	muts := []mutation.Mutation{
		touch(1),
		&mutation.MarkElementHidden{Header: hdr(2, ""), HiddenVisibility: "x"},
	}

	if es, err := resolveBoth("v1", muts, auths, DefaultFetchHints); es != nil || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	if es, err := resolveBoth("v1", muts, auths, AllFetchHints); err != nil ||
		fmt.Sprint(es.HiddenVisibilities) != "[x]" {
		t.Error("Unexpected result:", es, err)
		return
	}

	muts = append(muts, &mutation.MarkElementVisible{Header: hdr(2, ""), HiddenVisibility: "x"})

	if es, err := resolveBoth("v1", muts, auths, DefaultFetchHints); es == nil || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}
}

func TestEdges(t *testing.T) {
	auths := visibility.NewAuthorizations("a")

	ref := func(ts int64, id string, dir mutation.Direction, label, vis string) mutation.Mutation {
		return &mutation.AddEdgeRef{Header: hdr(ts, vis), EdgeID: id, Direction: dir, Label: label, OtherVertex: "o" + id}
	}

	muts := []mutation.Mutation{
		touch(1),
		ref(2, "e1", mutation.DirectionOut, "knows", ""),
		ref(2, "e2", mutation.DirectionOut, "likes", ""),
		ref(2, "e3", mutation.DirectionOut, "knows", "a"),
		ref(2, "e4", mutation.DirectionOut, "knows", "b"),
		ref(3, "e5", mutation.DirectionIn, "knows", ""),
		ref(3, "e6", mutation.DirectionIn, "knows", ""),
		&mutation.SoftDeleteEdgeRef{Header: hdr(3, ""), EdgeID: "e6", Direction: mutation.DirectionIn},
		&mutation.SoftDeleteEdgeRef{Header: hdr(3, ""), EdgeID: "e1", Direction: mutation.DirectionIn},
	}

	es, err := resolveBoth("v1", muts, auths, FetchHints{EdgeRefs: EdgeRefBoth})
	if err != nil {
		t.Error(err)
		return
	}

	if res := fmt.Sprint(es.OutEdges); res != "map[e1:{knows false oe1 2} e2:{likes false oe2 2} e3:{knows false oe3 2}]" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := fmt.Sprint(es.InEdges); res != "map[e5:{knows false oe5 3}]" {
		t.Error("Unexpected result:", res)
		return
	}

	if es.Properties != nil || es.OutEdgeLabelCounts != nil {
		t.Error("Unexpected result:", es)
		return
	}

	// Label filter

	es, _ = resolveBoth("v1", muts, auths, FetchHints{EdgeRefs: EdgeRefOutOnly, EdgeLabels: []string{"likes"}})

	if res := fmt.Sprint(es.OutEdges, es.InEdges); res != "map[e2:{likes false oe2 2}] map[]" {
		t.Error("Unexpected result:", res)
		return
	}

	// Labels and counts

	es, _ = resolveBoth("v1", muts, auths, FetchHints{EdgeRefs: EdgeRefLabelsAndCountsOnly})

	if res := fmt.Sprint(es.OutEdgeLabelCounts, es.InEdgeLabelCounts, es.OutEdges == nil); res != "map[knows:2 likes:1] map[knows:1] true" {
		t.Error("Unexpected result:", res)
		return
	}

	g, err := edgeinfo.DecodeGrouped(es.EncodeEdgeRefs(mutation.DirectionOut, true), true)

	if err != nil || fmt.Sprint(g.Counts) != "map[knows:2 likes:1]" {
		t.Error("Unexpected result:", g, err)
		return
	}

	es, _ = resolveBoth("v1", muts, auths, AllFetchHints)

	g, err = edgeinfo.DecodeGrouped(es.EncodeEdgeRefs(mutation.DirectionIn, false), false)

	if err != nil || fmt.Sprint(g.Edges) != "map[knows:map[e5:{knows false oe5 3}]]" {
		t.Error("Unexpected result:", g, err)
		return
	}

	if res := fmt.Sprint(es.EdgeLabelCounts(mutation.DirectionOut)); res != "map[knows:2 likes:1]" {
		t.Error("Unexpected result:", res)
		return
	}

	// Edge elements

	muts = []mutation.Mutation{
		&mutation.EdgeSetup{Header: hdr(1, ""), OutVertexID: "v1", InVertexID: "v2", Label: "knows"},
		&mutation.AlterEdgeLabel{Header: hdr(2, ""), NewLabel: "loves"},
		addProp(2, "since", "", "2016"),
	}

	es, err = resolveBoth("e1", muts, auths, DefaultFetchHints)

	if err != nil || !es.IsEdge() || es.EdgeLabel != "loves" || es.OutVertexID != "v1" || es.InVertexID != "v2" ||
		len(es.Property("since", "name")) != 1 {
		t.Error("Unexpected result:", es, err)
		return
	}
}

func TestMetadata(t *testing.T) {

	muts := []mutation.Mutation{
		touch(1),
		&mutation.AddPropertyValue{Header: hdr(2, ""), Key: "k", Name: "name",
			Value: mutation.Value{Type: "string", Data: []byte("v")},
			Metadata: []mutation.MetadataEntry{
				{Key: "source", Visibility: "", Value: mutation.Value{Type: "string", Data: []byte("import")}},
				{Key: "secret", Visibility: "a", Value: mutation.Value{Type: "string"}},
			}},
		&mutation.AddPropertyMetadataEntry{Header: hdr(3, ""), Key: "k", Name: "name",
			Metadata: mutation.MetadataEntry{Key: "checked", Value: mutation.Value{Type: "bool", Data: []byte{1}}}},
	}

	es, err := resolveBoth("v1", muts, visibility.NewAuthorizations(), DefaultFetchHints)
	if err != nil {
		t.Error(err)
		return
	}

	if res := fmt.Sprint(es.Properties[0].Metadata); res != "[{checked  {bool [1]}} {source  {string [105 109 112 111 114 116]}}]" {
		t.Error("Unexpected result:", res)
		return
	}

	es, _ = resolveBoth("v1", muts, visibility.NewAuthorizations("a"), DefaultFetchHints)

	if res := len(es.Properties[0].Metadata); res != 3 {
		t.Error("Unexpected result:", res)
		return
	}

	es, _ = resolveBoth("v1", muts, visibility.NewAuthorizations("a"), FetchHints{IncludeProperties: true})

	if es.Properties[0].Metadata != nil {
		t.Error("Unexpected result:", es.Properties[0])
		return
	}
}

func TestFetchHintPruning(t *testing.T) {

	muts := []mutation.Mutation{
		touch(1),
		addProp(1, "k", "", "v"),
		&mutation.AddEdgeRef{Header: hdr(2, ""), EdgeID: "e1", Direction: mutation.DirectionOut, Label: "l", OtherVertex: "v2"},
		&mutation.AddEdgeRef{Header: hdr(2, ""), EdgeID: "e2", Direction: mutation.DirectionIn, Label: "l", OtherVertex: "v3"},
		&mutation.SoftDeleteEdgeRef{Header: hdr(3, ""), EdgeID: "e2", Direction: mutation.DirectionIn},
	}

	cells := cell.FromMutations("v1", muts)

	// Edge columns are never read if edges are excluded

	src := &sliceSource{cells: cells, failOn: map[cell.Family]bool{
		cell.FamilyOutEdge: true,
		cell.FamilyInEdge:  true,
	}}

	es, err := ResolveRow("v1", src, visibility.NewAuthorizations(), FetchHints{IncludeProperties: true}, testCache)

	if err != nil || es.OutEdges != nil || es.InEdges != nil || len(es.Properties) != 1 {
		t.Error("Unexpected result:", es, err)
		return
	}

	// Soft deleted edge references are not decoded either

	for i, c := range cells {
		if c.Family == cell.FamilySoftDelete {
			cells[i].Value = []byte{1}
		}
	}

	es, err = ResolveRow("v1", &sliceSource{cells: cells}, visibility.NewAuthorizations(),
		FetchHints{EdgeRefs: EdgeRefOutOnly}, testCache)

	if err != nil || len(es.OutEdges) != 1 || es.InEdges != nil || es.Properties != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	// Reading a corrupt column ends the resolution

	_, err = ResolveRow("v1", &sliceSource{cells: cells}, visibility.NewAuthorizations(),
		FetchHints{EdgeRefs: EdgeRefInOnly}, testCache)

	if !errors.Is(err, edgeinfo.ErrTruncated) {
		t.Error("Unexpected error:", err)
		return
	}
}

func TestNotFound(t *testing.T) {

	muts := []mutation.Mutation{
		&mutation.AddPropertyMetadataEntry{Header: hdr(1, ""), Key: "k", Name: "name"},
		addProp(1, "k", "", "v"),
	}

	es, err := resolveBoth("v1", muts, visibility.NewAuthorizations(), AllFetchHints)

	if es != nil || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	if es, err := ResolveRow("v1", &sliceSource{}, visibility.NewAuthorizations(), AllFetchHints, nil); es != nil || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}

	if es, err := ResolveMutations("v1", nil, visibility.NewAuthorizations(), AllFetchHints, nil); es != nil || err != nil {
		t.Error("Unexpected result:", es, err)
		return
	}
}

func TestErrors(t *testing.T) {
	auths := visibility.NewAuthorizations()

	muts := []mutation.Mutation{addProp(2, "k", "", "v"), touch(1)}

	if _, err := ResolveMutations("v1", muts, auths, AllFetchHints, testCache); !errors.Is(err, ErrUnsorted) ||
		err.Error() != "PreconditionError: Mutations are not sorted (ElementTimestampTouch at position 1 sorts before AddPropertyValue)" {
		t.Error("Unexpected error:", err)
		return
	}

	if _, err := resolveBoth("v1", muts, auths, FetchHints{IncludePropertyMetadata: true}); !errors.Is(err, ErrMetadataWithoutProperties) {
		t.Error("Unexpected error:", err)
		return
	}

	var fe *UnsupportedFetchHintCombinationError

	if _, err := resolveBoth("v1", muts, auths, FetchHints{EdgeRefs: EdgeRefAll, EdgeLabels: []string{"a"}}); !errors.As(err, &fe) ||
		fe.Type != ErrLabelsWithAllRefs {
		t.Error("Unexpected error:", err)
		return
	}

	if err := (FetchHints{EdgeLabels: []string{"a"}}).Validate(); !errors.Is(err, ErrLabelsWithoutEdges) {
		t.Error("Unexpected error:", err)
		return
	}

	if err := (FetchHints{EdgeRefs: 99}).Validate(); !errors.Is(err, ErrUnknownEdgeRefPolicy) {
		t.Error("Unexpected error:", err)
		return
	}

	// Malformed visibilities end the resolution

	muts = []mutation.Mutation{touch(1), addProp(2, "k", "a&", "v")}

	if _, err := resolveBoth("v1", muts, auths, AllFetchHints); !errors.Is(err, visibility.ErrUnexpectedEnd) {
		t.Error("Unexpected error:", err)
		return
	}

	// A row must only contain cells of one element

	cells := append(cell.FromMutations("v1", []mutation.Mutation{touch(1)}), cell.FromMutations("v2", []mutation.Mutation{touch(1)})...)

	if _, err := ResolveRow("v1", &sliceSource{cells: cells}, auths, AllFetchHints, testCache); !errors.Is(err, ErrMixedElements) {
		t.Error("Unexpected error:", err)
		return
	}
}

func TestIdempotenceAndTieBreaks(t *testing.T) {
	auths := visibility.NewAuthorizations("a")

	muts := []mutation.Mutation{touch(1)}
	for i := 0; i < 10; i++ {
		m := addProp(5, "k", "", fmt.Sprint(i))
		muts = append(muts, mutation.NewSequencer(uint64(i)).Stamp(m))
	}

	sorted := make([]mutation.Mutation, len(muts))
	copy(sorted, muts)
	mutation.Sort(sorted)

	first, err := ResolveMutations("v1", sorted, auths, AllFetchHints, testCache)
	if err != nil {
		t.Error(err)
		return
	}

	// The highest sequence number wins

	if res := string(first.Properties[0].Value.Data); res != "9" {
		t.Error("Unexpected result:", res)
		return
	}

	rnd := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		rnd.Shuffle(len(muts), func(i, j int) {
			muts[i], muts[j] = muts[j], muts[i]
		})

		es, err := resolveBoth("v1", muts, auths, AllFetchHints)

		if err != nil || !reflect.DeepEqual(es, first) {
			t.Error("Unexpected result:", es, err)
			return
		}
	}

	// Snapshots do not share memory with their input

	first.Properties[0].Value.Data[0] = 'x'

	if es, _ := ResolveMutations("v1", sorted, auths, AllFetchHints, testCache); string(es.Properties[0].Value.Data) != "9" {
		t.Error("Snapshot shares memory with mutations")
		return
	}
}

// Randomized equivalence
// ======================

var (
	testVisibilities = []string{"", "", "a", "b", "a&b", "a|b", "!c", "(a|c)&b"}
	testKeys         = []string{"k1", "k2"}
	testEdges        = []string{"e1", "e2", "e3"}
	testLabels       = []string{"l1", "l2"}
	testTokens       = []string{"a", "b", "c", "x"}
)

func randomMutation(rnd *rand.Rand, seq uint64) mutation.Mutation {
	pick := func(l []string) string {
		return l[rnd.Intn(len(l))]
	}

	h := mutation.Header{Timestamp: int64(rnd.Intn(6) + 1), Sequence: seq, Visibility: pick(testVisibilities)}
	key, vis := pick(testKeys), pick(testVisibilities)
	dir := mutation.Direction(rnd.Intn(2) + 1)

	switch rnd.Intn(17) {
	case 0, 16:
		return &mutation.AddPropertyValue{Header: h, Key: key, Name: "n",
			Value:    mutation.Value{Type: "string", Data: []byte(fmt.Sprint(rnd.Intn(100)))},
			Metadata: []mutation.MetadataEntry{{Key: "m", Visibility: vis, Value: mutation.Value{Type: "int"}}}}
	case 1:
		return &mutation.AddPropertyMetadataEntry{Header: h, Key: key, Name: "n", PropertyVisibility: vis,
			Metadata: mutation.MetadataEntry{Key: "m2", Visibility: pick(testVisibilities),
				Value: mutation.Value{Type: "int", Data: []byte{byte(seq)}}}}
	case 2:
		return &mutation.SoftDeleteProperty{Header: h, Key: key, Name: "n", PropertyVisibility: vis}
	case 3:
		return &mutation.MarkPropertyHidden{Header: h, Key: key, Name: "n", PropertyVisibility: vis,
			HiddenVisibility: pick(testTokens)}
	case 4:
		return &mutation.MarkPropertyVisible{Header: h, Key: key, Name: "n", PropertyVisibility: vis,
			HiddenVisibility: pick(testTokens)}
	case 5:
		return &mutation.AlterElementVisibility{Header: h, NewVisibility: vis}
	case 6:
		return &mutation.AddAdditionalVisibility{Header: h, AdditionalVisibility: pick(testTokens)}
	case 7:
		return &mutation.DeleteAdditionalVisibility{Header: h, AdditionalVisibility: pick(testTokens)}
	case 8:
		return &mutation.EdgeSetup{Header: h, OutVertexID: "v1", InVertexID: "v2", Label: pick(testLabels)}
	case 9:
		return &mutation.AlterEdgeLabel{Header: h, NewLabel: pick(testLabels)}
	case 10:
		return &mutation.SoftDeleteElement{Header: h}
	case 11:
		return &mutation.MarkElementHidden{Header: h, HiddenVisibility: pick(testTokens)}
	case 12:
		return &mutation.MarkElementVisible{Header: h, HiddenVisibility: pick(testTokens)}
	case 13:
		return &mutation.ElementTimestampTouch{Header: h}
	case 14:
		return &mutation.AddEdgeRef{Header: h, EdgeID: pick(testEdges), Direction: dir,
			Label: pick(testLabels), OtherVertex: "v" + fmt.Sprint(rnd.Intn(3))}
	}

	return &mutation.SoftDeleteEdgeRef{Header: h, EdgeID: pick(testEdges), Direction: dir}
}

func randomHints(rnd *rand.Rand) FetchHints {
	h := FetchHints{
		IncludeProperties: rnd.Intn(2) == 0,
		IncludeHidden:     rnd.Intn(2) == 0,
		EdgeRefs:          EdgeRefPolicy(rnd.Intn(6)),
	}

	h.IncludePropertyMetadata = h.IncludeProperties && rnd.Intn(2) == 0

	if h.EdgeRefs != EdgeRefNone && h.EdgeRefs != EdgeRefAll && rnd.Intn(3) == 0 {
		h.EdgeLabels = []string{testLabels[rnd.Intn(len(testLabels))]}
	}

	return h
}

func TestEquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	found := 0

	for i := 0; i < 2000; i++ {
		var muts []mutation.Mutation

		// Most elements exist

		if rnd.Intn(10) > 0 {
			muts = append(muts, &mutation.ElementTimestampTouch{Header: mutation.Header{Timestamp: 1}})
		}

		for j := rnd.Intn(25); j >= 0; j-- {
			muts = append(muts, randomMutation(rnd, uint64(j)))
		}

		var tokens []string
		for _, tok := range testTokens {
			if rnd.Intn(2) == 0 {
				tokens = append(tokens, tok)
			}
		}

		auths := visibility.NewAuthorizations(tokens...)
		hints := randomHints(rnd)

		es, err := resolveBoth(fmt.Sprint("v", i), muts, auths, hints)
		if err != nil {
			t.Error("Run", i, "with", auths, hints, ":", err)
			return
		}

		if es != nil {
			found++
		}
	}

	// Make sure the generated data is not trivial

	if found < 500 {
		t.Error("Too few elements were found:", found)
		return
	}
}
