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
Package edgeinfo contains the binary codec for edge references.

An edge reference is the compact representation of one edge endpoint which
is stored with a vertex so adjacency can be resolved without loading the
edge itself. The format is part of the stored data and must stay bit exact:

	EdgeInfo:  label string | timestamp int64 | vertex id string
	string:    int32 length (-1 means null, 0 means empty) | UTF-8 bytes

All integers are big-endian.

Many edge references of one element can be written grouped by label:

	int32 label count
	per label: label string | int32 edge count | edges (full mode only)
	per edge:  edge id string | timestamp int64 | vertex id string

Edges without a label form their own group with a null label string which
is written before all other groups. In labels-and-counts mode only the
counts are written.
*/
package edgeinfo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"devt.de/krotik/common/pools"
)

/*
bufferPool is a pool of byte buffers used for encoding.
*/
var bufferPool = pools.NewByteBufferPool()

/*
nullLength is the length prefix which marks a null string.
*/
const nullLength = -1

/*
CodecError is returned if edge reference bytes are truncated or corrupt.
*/
type CodecError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (ce *CodecError) Error() string {
	if ce.Detail != "" {
		return fmt.Sprintf("CodecError: %v (%v)", ce.Type, ce.Detail)
	}
	return fmt.Sprintf("CodecError: %v", ce.Type)
}

/*
Unwrap returns the error type so errors.Is can be used on the error.
*/
func (ce *CodecError) Unwrap() error {
	return ce.Type
}

/*
Codec related error types
*/
var (
	ErrTruncated     = errors.New("Truncated input")
	ErrInvalidLength = errors.New("Invalid length")
	ErrTrailingBytes = errors.New("Unexpected trailing bytes")
)

/*
EdgeInfo is a single directed adjacency reference.
*/
type EdgeInfo struct {
	Label     string // Edge label
	NullLabel bool   // Flag if the label is absent (encoded as -1)
	VertexID  string // Id of the vertex at the other end of the edge
	Timestamp int64  // Timestamp of the reference
}

/*
SoftDeleteEdgeInfo is the payload of an edge reference soft delete marker.
*/
type SoftDeleteEdgeInfo struct {
	EdgeID    string
	Timestamp int64
}

// Encoding
// ========

/*
writeString writes a length prefixed string.
*/
func writeString(buf *bytes.Buffer, s string, null bool) {
	if null {
		writeInt32(buf, nullLength)
		return
	}

	writeInt32(buf, int32(len(s)))
	buf.WriteString(s)
}

/*
writeInt32 writes a signed 32 bit integer.
*/
func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

/*
writeInt64 writes a signed 64 bit integer.
*/
func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

/*
encode runs an encoding function with a pooled buffer and returns a copy of
the result.
*/
func encode(f func(buf *bytes.Buffer)) []byte {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	f(buf)

	ret := make([]byte, buf.Len())
	copy(ret, buf.Bytes())

	return ret
}

/*
Encode encodes a single edge reference.
*/
func Encode(ei EdgeInfo) []byte {
	return encode(func(buf *bytes.Buffer) {
		writeString(buf, ei.Label, ei.NullLabel)
		writeInt64(buf, ei.Timestamp)
		writeString(buf, ei.VertexID, false)
	})
}

/*
EncodeSoftDelete encodes an edge reference soft delete marker.
*/
func EncodeSoftDelete(sd SoftDeleteEdgeInfo) []byte {
	return encode(func(buf *bytes.Buffer) {
		writeString(buf, sd.EdgeID, false)
		writeInt64(buf, sd.Timestamp)
	})
}

// Decoding
// ========

/*
reader reads primitive values from a byte slice.
*/
type reader struct {
	data []byte
	pos  int
}

/*
need checks that n more bytes are available.
*/
func (r *reader) need(n int, what string) error {
	if n > len(r.data)-r.pos {
		return &CodecError{ErrTruncated, fmt.Sprintf("%v needs %v bytes at offset %v but only %v are left",
			what, n, r.pos, len(r.data)-r.pos)}
	}
	return nil
}

/*
readInt32 reads a signed 32 bit integer.
*/
func (r *reader) readInt32(what string) (int32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}

	v := int32(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4

	return v, nil
}

/*
readInt64 reads a signed 64 bit integer.
*/
func (r *reader) readInt64(what string) (int64, error) {
	if err := r.need(8, what); err != nil {
		return 0, err
	}

	v := int64(binary.BigEndian.Uint64(r.data[r.pos:]))
	r.pos += 8

	return v, nil
}

/*
readString reads a length prefixed string. Returns if the string was null.
*/
func (r *reader) readString(what string) (string, bool, error) {
	l, err := r.readInt32(what + " length")
	if err != nil {
		return "", false, err
	}

	if l == nullLength {
		return "", true, nil
	} else if l < 0 {
		return "", false, &CodecError{ErrInvalidLength, fmt.Sprintf("%v length %v at offset %v", what, l, r.pos-4)}
	}

	if err := r.need(int(l), what); err != nil {
		return "", false, err
	}

	s := string(r.data[r.pos : r.pos+int(l)])
	r.pos += int(l)

	return s, false, nil
}

/*
readCount reads a non-negative count.
*/
func (r *reader) readCount(what string) (int, error) {
	c, err := r.readInt32(what)
	if err == nil && c < 0 {
		err = &CodecError{ErrInvalidLength, fmt.Sprintf("%v %v at offset %v", what, c, r.pos-4)}
	}
	return int(c), err
}

/*
done checks that all input was consumed.
*/
func (r *reader) done() error {
	if r.pos != len(r.data) {
		return &CodecError{ErrTrailingBytes, fmt.Sprintf("%v bytes after offset %v", len(r.data)-r.pos, r.pos)}
	}
	return nil
}

/*
Decode decodes a single edge reference.
*/
func Decode(data []byte) (EdgeInfo, error) {
	r := &reader{data: data}

	ei, err := r.readEdgeInfo()
	if err == nil {
		err = r.done()
	}

	if err != nil {
		return EdgeInfo{}, err
	}

	return ei, nil
}

/*
readEdgeInfo reads a single edge reference.
*/
func (r *reader) readEdgeInfo() (EdgeInfo, error) {
	var ei EdgeInfo
	var err error

	if ei.Label, ei.NullLabel, err = r.readString("label"); err != nil {
		return EdgeInfo{}, err
	}

	if ei.Timestamp, err = r.readInt64("timestamp"); err != nil {
		return EdgeInfo{}, err
	}

	if ei.VertexID, _, err = r.readString("vertex id"); err != nil {
		return EdgeInfo{}, err
	}

	return ei, nil
}

/*
DecodeSoftDelete decodes an edge reference soft delete marker.
*/
func DecodeSoftDelete(data []byte) (SoftDeleteEdgeInfo, error) {
	var sd SoftDeleteEdgeInfo
	var err error

	r := &reader{data: data}

	if sd.EdgeID, _, err = r.readString("edge id"); err != nil {
		return SoftDeleteEdgeInfo{}, err
	}

	if sd.Timestamp, err = r.readInt64("timestamp"); err != nil {
		return SoftDeleteEdgeInfo{}, err
	}

	return sd, r.done()
}

// Grouped encoding
// ================

/*
Grouped is the decoded form of a grouped edge reference list.
*/
type Grouped struct {
	Counts    map[string]int                 // Number of edges per label
	Edges     map[string]map[string]EdgeInfo // Edges per label and edge id (full mode only)
	NullCount int                            // Number of edges without label
	NullEdges map[string]EdgeInfo            // Edges without label by edge id (full mode only)
}

/*
EncodeGrouped encodes a map of edge id to edge reference grouped by label.
Labels and edge ids are written in sorted order so equal input produces
equal output. In labelsOnly mode only the label counts are written.
*/
func EncodeGrouped(edges map[string]EdgeInfo, labelsOnly bool) []byte {
	var nullIDs []string

	byLabel := make(map[string][]string)

	for id, ei := range edges {
		if ei.NullLabel {
			nullIDs = append(nullIDs, id)
			continue
		}
		byLabel[ei.Label] = append(byLabel[ei.Label], id)
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	return encode(func(buf *bytes.Buffer) {
		groups := len(labels)
		if len(nullIDs) > 0 {
			groups++
		}

		writeInt32(buf, int32(groups))

		writeGroup := func(label string, null bool, ids []string) {
			sort.Strings(ids)

			writeString(buf, label, null)
			writeInt32(buf, int32(len(ids)))

			if labelsOnly {
				return
			}

			for _, id := range ids {
				ei := edges[id]
				writeString(buf, id, false)
				writeInt64(buf, ei.Timestamp)
				writeString(buf, ei.VertexID, false)
			}
		}

		if len(nullIDs) > 0 {
			writeGroup("", true, nullIDs)
		}

		for _, l := range labels {
			writeGroup(l, false, byLabel[l])
		}
	})
}

/*
EncodeLabelCounts encodes label counts in labels-and-counts mode.
*/
func EncodeLabelCounts(counts map[string]int) []byte {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	return encode(func(buf *bytes.Buffer) {
		writeInt32(buf, int32(len(labels)))

		for _, l := range labels {
			c := counts[l]
			if c > math.MaxInt32 {
				c = math.MaxInt32
			}
			writeString(buf, l, false)
			writeInt32(buf, int32(c))
		}
	})
}

/*
DecodeGrouped decodes a grouped edge reference list. The labelsOnly flag must
match the flag which was used for encoding.
*/
func DecodeGrouped(data []byte, labelsOnly bool) (*Grouped, error) {
	r := &reader{data: data}

	n, err := r.readCount("label count")
	if err != nil {
		return nil, err
	}

	g := &Grouped{Counts: make(map[string]int)}
	if !labelsOnly {
		g.Edges = make(map[string]map[string]EdgeInfo)
	}

	for i := 0; i < n; i++ {
		label, null, err := r.readString("label")
		if err != nil {
			return nil, err
		}

		c, err := r.readCount("edge count")
		if err != nil {
			return nil, err
		}

		if null {
			g.NullCount = c
		} else {
			g.Counts[label] = c
		}

		if labelsOnly {
			continue
		}

		edges := make(map[string]EdgeInfo)

		for j := 0; j < c; j++ {
			ei := EdgeInfo{Label: label, NullLabel: null}

			id, _, err := r.readString("edge id")
			if err != nil {
				return nil, err
			}

			if ei.Timestamp, err = r.readInt64("timestamp"); err != nil {
				return nil, err
			}

			if ei.VertexID, _, err = r.readString("vertex id"); err != nil {
				return nil, err
			}

			edges[id] = ei
		}

		if null {
			g.NullEdges = edges
		} else {
			g.Edges[label] = edges
		}
	}

	if err := r.done(); err != nil {
		return nil, err
	}

	return g, nil
}
