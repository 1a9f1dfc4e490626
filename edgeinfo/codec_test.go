/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edgeinfo

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

var testRunes = []rune("abcXYZ019 _-äöü€漢字😀\u0000￿")

func randomString(rnd *rand.Rand) string {
	var l int

	switch rnd.Intn(4) {
	case 0:
		return ""
	case 1:
		l = 5000
	default:
		l = rnd.Intn(40)
	}

	var buf strings.Builder
	for i := 0; i < l; i++ {
		buf.WriteRune(testRunes[rnd.Intn(len(testRunes))])
	}

	return buf.String()
}

func TestEncodingFormat(t *testing.T) {

	res := hex.EncodeToString(Encode(EdgeInfo{Label: "ab", VertexID: "v", Timestamp: 1}))

	if res != "00000002"+"6162"+"0000000000000001"+"00000001"+"76" {
		t.Error("Unexpected result:", res)
		return
	}

	// Null and empty labels must be distinguishable

	res = hex.EncodeToString(Encode(EdgeInfo{NullLabel: true, VertexID: "", Timestamp: -1}))

	if res != "ffffffff"+"ffffffffffffffff"+"00000000" {
		t.Error("Unexpected result:", res)
		return
	}

	res = hex.EncodeToString(Encode(EdgeInfo{Label: "", VertexID: "", Timestamp: 0}))

	if res != "00000000"+"0000000000000000"+"00000000" {
		t.Error("Unexpected result:", res)
		return
	}

	res = hex.EncodeToString(EncodeSoftDelete(SoftDeleteEdgeInfo{EdgeID: "e1", Timestamp: 2}))

	if res != "00000002"+"6531"+"0000000000000002" {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		ei := EdgeInfo{
			Label:     randomString(rnd),
			VertexID:  randomString(rnd),
			Timestamp: rnd.Int63() - rnd.Int63(),
		}

		if i%10 == 0 {
			ei.Label = ""
			ei.NullLabel = true
		}

		enc := Encode(ei)

		res, err := Decode(enc)
		if err != nil {
			t.Error(err)
			return
		}

		if !reflect.DeepEqual(res, ei) {
			t.Error("Unexpected result:", res, "expected:", ei)
			return
		}

		if enc2 := Encode(res); string(enc2) != string(enc) {
			t.Error("Encoding is not stable for:", ei)
			return
		}
	}

	sd := SoftDeleteEdgeInfo{EdgeID: "漢字", Timestamp: 99}

	if res, err := DecodeSoftDelete(EncodeSoftDelete(sd)); err != nil || res != sd {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestDecodingErrors(t *testing.T) {

	enc := Encode(EdgeInfo{Label: "label", VertexID: "vertex", Timestamp: 5})

	// Every truncation must produce an error and never panic

	for i := 0; i < len(enc); i++ {
		_, err := Decode(enc[:i])

		if !errors.Is(err, ErrTruncated) {
			t.Error("Unexpected error for truncation at", i, ":", err)
			return
		}
	}

	_, err := Decode(append(enc, 0))

	if !errors.Is(err, ErrTrailingBytes) {
		t.Error("Unexpected error:", err)
		return
	}

	// Invalid negative length

	bad, _ := hex.DecodeString("fffffffe0000000000000001")

	if _, err := Decode(bad); !errors.Is(err, ErrInvalidLength) ||
		err.Error() != "CodecError: Invalid length (label length -2 at offset 0)" {
		t.Error("Unexpected error:", err)
		return
	}

	if _, err := Decode([]byte{0, 0}); err.Error() !=
		"CodecError: Truncated input (label length needs 4 bytes at offset 0 but only 2 are left)" {
		t.Error("Unexpected error:", err)
		return
	}

	sd := EncodeSoftDelete(SoftDeleteEdgeInfo{EdgeID: "e", Timestamp: 1})

	if _, err := DecodeSoftDelete(sd[:len(sd)-1]); !errors.Is(err, ErrTruncated) {
		t.Error("Unexpected error:", err)
		return
	}

	var ce *CodecError

	if !errors.As(err, &ce) || ce.Type != ErrTrailingBytes {
		t.Error("Unexpected error:", err)
		return
	}
}

func TestGroupedEncoding(t *testing.T) {

	edges := map[string]EdgeInfo{
		"e1": {Label: "knows", VertexID: "v1", Timestamp: 1},
		"e2": {Label: "knows", VertexID: "v2", Timestamp: 2},
		"e3": {Label: "likes", VertexID: "v1", Timestamp: 3},
		"e4": {Label: "", VertexID: "v9", Timestamp: 4},
	}

	enc := EncodeGrouped(edges, false)

	if string(enc) != string(EncodeGrouped(edges, false)) {
		t.Error("Grouped encoding should be deterministic")
		return
	}

	g, err := DecodeGrouped(enc, false)
	if err != nil {
		t.Error(err)
		return
	}

	if res := fmt.Sprint(g.Counts); res != "map[:1 knows:2 likes:1]" {
		t.Error("Unexpected result:", res)
		return
	}

	for id, ei := range edges {
		if res := g.Edges[ei.Label][id]; res != ei {
			t.Error("Unexpected result:", res, "expected:", ei)
			return
		}
	}

	// Labels and counts only

	enc = EncodeGrouped(edges, true)

	g, err = DecodeGrouped(enc, true)
	if err != nil {
		t.Error(err)
		return
	}

	if res := fmt.Sprint(g.Counts); res != "map[:1 knows:2 likes:1]" || g.Edges != nil {
		t.Error("Unexpected result:", res, g.Edges)
		return
	}

	if res := EncodeLabelCounts(g.Counts); string(res) != string(enc) {
		t.Error("Unexpected result:", hex.EncodeToString(res))
		return
	}

	// Mode mismatch and truncation are detected

	if _, err := DecodeGrouped(EncodeGrouped(edges, false), true); !errors.Is(err, ErrTrailingBytes) {
		t.Error("Unexpected error:", err)
		return
	}

	full := EncodeGrouped(edges, false)

	for i := 0; i < len(full); i++ {
		if _, err := DecodeGrouped(full[:i], false); !errors.Is(err, ErrTruncated) {
			t.Error("Unexpected error for truncation at", i, ":", err)
			return
		}
	}

	if _, err := DecodeGrouped([]byte{0xff, 0xff, 0xff, 0xf0}, false); !errors.Is(err, ErrInvalidLength) {
		t.Error("Unexpected error:", err)
		return
	}

	// Null labels are kept apart from empty labels

	edges = map[string]EdgeInfo{
		"e1": {NullLabel: true, VertexID: "v1", Timestamp: 1},
		"e2": {Label: "", VertexID: "v2", Timestamp: 2},
	}

	enc = EncodeGrouped(edges, false)

	if res := hex.EncodeToString(enc); res != "00000002"+
		"ffffffff"+"00000001"+"00000002"+"6531"+"0000000000000001"+"00000002"+"7631"+
		"00000000"+"00000001"+"00000002"+"6532"+"0000000000000002"+"00000002"+"7632" {
		t.Error("Unexpected result:", res)
		return
	}

	g, err = DecodeGrouped(enc, false)

	if err != nil || g.NullCount != 1 || fmt.Sprint(g.Counts) != "map[:1]" ||
		g.NullEdges["e1"] != edges["e1"] || g.Edges[""]["e2"] != edges["e2"] {
		t.Error("Unexpected result:", g, err)
		return
	}

	g, err = DecodeGrouped(EncodeGrouped(edges, true), true)

	if err != nil || g.NullCount != 1 || fmt.Sprint(g.Counts) != "map[:1]" || g.NullEdges != nil {
		t.Error("Unexpected result:", g, err)
		return
	}

	for i := 0; i < len(enc); i++ {
		if _, err := DecodeGrouped(enc[:i], false); !errors.Is(err, ErrTruncated) {
			t.Error("Unexpected error for truncation at", i, ":", err)
			return
		}
	}

	// Empty list

	g, err = DecodeGrouped(EncodeGrouped(nil, false), false)

	if err != nil || len(g.Counts) != 0 {
		t.Error("Unexpected result:", g, err)
		return
	}
}
