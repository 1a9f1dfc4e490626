/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/resolve"
	"devt.de/krotik/cellgraph/visibility"
)

const badgerTestDir = "badgertest"

func TestMain(m *testing.M) {
	os.RemoveAll(badgerTestDir)

	res := m.Run()

	os.RemoveAll(badgerTestDir)

	os.Exit(res)
}

func testMutations() []mutation.Mutation {
	return []mutation.Mutation{
		&mutation.ElementTimestampTouch{Header: mutation.Header{Timestamp: 1}},
		&mutation.AddPropertyValue{Header: mutation.Header{Timestamp: 2, Visibility: "a"}, Key: "k", Name: "n",
			Value: mutation.Value{Type: "string", Data: []byte("v1")}},
		&mutation.AddPropertyValue{Header: mutation.Header{Timestamp: 3, Visibility: "a"}, Key: "k", Name: "n",
			Value: mutation.Value{Type: "string", Data: []byte("v2")}},
		&mutation.AddEdgeRef{Header: mutation.Header{Timestamp: 4}, EdgeID: "e\x001", Direction: mutation.DirectionOut,
			Label: "knows", OtherVertex: "v2"},
		&mutation.AddEdgeRef{Header: mutation.Header{Timestamp: -5}, EdgeID: "e2", Direction: mutation.DirectionIn,
			Label: "knows", OtherVertex: "v3"},
		&mutation.MarkElementHidden{Header: mutation.Header{Timestamp: 6}, HiddenVisibility: "x"},
	}
}

func runStorageTests(t *testing.T, s Storage) {

	cells := cell.FromMutations("v1", testMutations())

	if err := s.Write(cells); err != nil {
		t.Error(err)
		return
	}

	if err := s.Write(cell.FromMutations("v\x000", testMutations()[:1])); err != nil {
		t.Error(err)
		return
	}

	if err := s.Write(cell.FromMutations("v0", testMutations()[:1])); err != nil {
		t.Error(err)
		return
	}

	// Same versions are replaced

	overwrite := cells[0]
	overwrite.Visibility = "b"

	if err := s.Write([]cell.Cell{overwrite}); err != nil {
		t.Error(err)
		return
	}

	ids, err := s.RowIDs()
	if err != nil || fmt.Sprintf("%q", ids) != `["v\x000" "v0" "v1"]` {
		t.Error("Unexpected result:", ids, err)
		return
	}

	scan := func(families ...cell.Family) ([]cell.Cell, error) {
		sc, err := s.Scan("v1")
		if err != nil {
			return nil, err
		}
		defer sc.Close()

		if families != nil {
			if err := sc.Seek(families); err != nil {
				return nil, err
			}
		}

		var ret []cell.Cell

		for {
			c, err := sc.Next()
			if err != nil || c == nil {
				return ret, err
			}
			ret = append(ret, *c)
		}
	}

	res, err := scan()
	if err != nil {
		t.Error(err)
		return
	}

	expected := append([]cell.Cell{overwrite}, cells[1:]...)

	if !reflect.DeepEqual(res, expected) {
		t.Error("Unexpected result:", res, "expected:", expected)
		return
	}

	// Newest versions come first

	if res[1].Timestamp != 3 || res[2].Timestamp != 2 {
		t.Error("Unexpected result:", res[1], res[2])
		return
	}

	res, err = scan(cell.FamilyInEdge, cell.FamilySignal)
	if err != nil || len(res) != 2 || res[0].Family != cell.FamilySignal || res[1].Family != cell.FamilyInEdge ||
		res[1].Timestamp != -5 {
		t.Error("Unexpected result:", res, err)
		return
	}

	res, err = scan(cell.FamilyPropertyMetadata)
	if err != nil || len(res) != 0 {
		t.Error("Unexpected result:", res, err)
		return
	}

	// A stored version is only replaced by a cell which sorts later in
	// mutation order regardless of write order

	stored := cell.FromMutations("v0", testMutations()[:1])[0]

	lower := stored
	lower.Rank, lower.Visibility = mutation.Rank(mutation.KindAlterElementVisibility), "x"

	later := stored
	later.Sequence, later.Visibility = 3, "y"

	if !cell.Supersedes(later, lower) || cell.Supersedes(lower, stored) {
		t.Error("Unexpected version order")
		return
	}

	for i, c := range []cell.Cell{lower, later, lower} {
		if err := s.Write([]cell.Cell{c}); err != nil {
			t.Error(err)
			return
		}

		sc, err := s.Scan("v0")
		if err != nil {
			t.Error(err)
			return
		}

		res, err := sc.Next()
		sc.Close()

		if expected := []string{"", "y", "y"}[i]; err != nil || res == nil || res.Visibility != expected {
			t.Error("Unexpected result:", i, res, err)
			return
		}
	}

	// Resolution straight from the store

	sc, _ := s.Scan("v1")
	defer sc.Close()

	es, err := resolve.ResolveRow("v1", sc, visibility.NewAuthorizations("a", "b"), resolve.AllFetchHints, nil)

	if err != nil || es.Visibility != "b" || len(es.OutEdges) != 1 || string(es.Properties[0].Value.Data) != "v2" ||
		fmt.Sprint(es.HiddenVisibilities) != "[]" {
		t.Error("Unexpected result:", es, err)
		return
	}
}

func TestMemoryStorage(t *testing.T) {
	ms := NewMemoryStorage("test")

	runStorageTests(t, ms)

	if res := ms.String(); res != "MemoryStorage test (3 rows, 8 cells)" {
		t.Error("Unexpected result:", res)
		return
	}

	ms.Close()

	if _, err := ms.Scan("v1"); !errors.Is(err, ErrClosed) || err.Error() != "Storage is closed (test - )" {
		t.Error("Unexpected error:", err)
		return
	}

	if err := ms.Write(nil); !errors.Is(err, ErrClosed) {
		t.Error("Unexpected error:", err)
		return
	}
}

func TestBadgerStorage(t *testing.T) {
	bs, err := NewBadgerStorage("test", BadgerConfig{InMemory: true})
	if err != nil {
		t.Error(err)
		return
	}

	runStorageTests(t, bs)

	if err := bs.Close(); err != nil {
		t.Error(err)
		return
	}

	// Persistent storage

	if _, err := NewBadgerStorage("test", BadgerConfig{}); !errors.Is(err, ErrOpening) {
		t.Error("Unexpected error:", err)
		return
	}

	bs, err = NewBadgerStorage("disk", BadgerConfig{Path: badgerTestDir, SyncWrites: true})
	if err != nil {
		t.Error(err)
		return
	}

	bs.Write(cell.FromMutations("v1", testMutations()))
	bs.Close()

	bs, err = NewBadgerStorage("disk", BadgerConfig{Path: badgerTestDir})
	if err != nil {
		t.Error(err)
		return
	}
	defer bs.Close()

	if ids, err := bs.RowIDs(); err != nil || fmt.Sprint(ids) != "[v1]" {
		t.Error("Unexpected result:", ids, err)
		return
	}
}

func TestKeys(t *testing.T) {

	c := cell.Cell{Row: "r\x00w", Family: cell.FamilyHidden, Qualifier: "\x01\x02a\x00",
		Visibility: "a&b", Timestamp: -42, Rank: 7, Sequence: 300, Value: []byte{1, 2}}

	res, err := decodeCell(encodeKey(&c), encodeValue(&c))
	if err != nil || !reflect.DeepEqual(*res, c) {
		t.Error("Unexpected result:", res, err)
		return
	}

	// Key order is store order

	cells := []cell.Cell{
		{Row: "a", Family: cell.FamilySignal, Timestamp: 5},
		{Row: "a", Family: cell.FamilySignal, Timestamp: -5},
		{Row: "a", Family: cell.FamilyProperty, Qualifier: "a", Timestamp: 1},
		{Row: "a", Family: cell.FamilyProperty, Qualifier: "a\x00", Timestamp: 1},
		{Row: "a", Family: cell.FamilyProperty, Qualifier: "ab", Timestamp: 1},
		{Row: "a\x00", Family: cell.FamilySignal, Timestamp: 1},
		{Row: "ab", Family: cell.FamilySignal, Timestamp: 1},
	}

	for i := 1; i < len(cells); i++ {
		if !cell.Less(cells[i-1], cells[i]) {
			t.Error("Unexpected store order at", i)
			return
		}
		if bytes.Compare(encodeKey(&cells[i-1]), encodeKey(&cells[i])) >= 0 {
			t.Error("Unexpected key order at", i)
			return
		}
	}

	for _, key := range [][]byte{
		{'a'},
		{'a', 0, 2},
		{'a', 0, 1},
		{'a', 0, 1, 1, 'q', 0, 1, 1, 2},
	} {
		if _, err := decodeCell(key, []byte{0}); err == nil {
			t.Error("Corrupt key was accepted:", key)
			return
		}
	}

	if _, err := decodeCell(encodeKey(&c), []byte{5}); err == nil || !strings.Contains(err.Error(), "visibility") {
		t.Error("Unexpected error:", err)
		return
	}

	if _, err := decodeCell(encodeKey(&c), []byte{0, 1}); err == nil || !strings.Contains(err.Error(), "sequence") {
		t.Error("Unexpected error:", err)
		return
	}
}
