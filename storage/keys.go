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
	"encoding/binary"
	"fmt"

	"devt.de/krotik/cellgraph/cell"
)

/*
Key layout of stored cells:

	row (escaped) | family (1 byte) | qualifier (escaped) | inverted timestamp (8 bytes)

Escaped strings replace every 0x00 byte with 0x00 0xff and end with 0x00 0x01.
This keeps the byte order of keys equal to the store order of cells.
*/

const (
	escapeByte = 0x00
	escapedNul = 0xff
	terminator = 0x01
)

/*
appendEscaped appends an escaped string.
*/
func appendEscaped(buf *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		buf.WriteByte(s[i])
		if s[i] == escapeByte {
			buf.WriteByte(escapedNul)
		}
	}
	buf.WriteByte(escapeByte)
	buf.WriteByte(terminator)
}

/*
readEscaped reads an escaped string and returns the remaining bytes.
*/
func readEscaped(b []byte) (string, []byte, error) {
	var buf bytes.Buffer

	for i := 0; i < len(b); i++ {
		if b[i] != escapeByte {
			buf.WriteByte(b[i])
			continue
		}

		if i+1 >= len(b) {
			break
		}

		i++

		switch b[i] {
		case escapedNul:
			buf.WriteByte(escapeByte)
		case terminator:
			return buf.String(), b[i+1:], nil
		default:
			return "", nil, fmt.Errorf("invalid escape sequence at offset %v", i-1)
		}
	}

	return "", nil, fmt.Errorf("unterminated string")
}

/*
invertTimestamp maps a timestamp to an unsigned integer which sorts newest
first.
*/
func invertTimestamp(ts int64) uint64 {
	return ^(uint64(ts) ^ (1 << 63))
}

/*
rowPrefix returns the key prefix of all cells of a row.
*/
func rowPrefix(row string) []byte {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer BufferPool.Put(buf)

	appendEscaped(buf, row)

	return append([]byte(nil), buf.Bytes()...)
}

/*
familyPrefix returns the key prefix of all cells of a column family of a row.
*/
func familyPrefix(row string, f cell.Family) []byte {
	return append(rowPrefix(row), byte(f))
}

/*
encodeKey encodes the key of a cell.
*/
func encodeKey(c *cell.Cell) []byte {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer BufferPool.Put(buf)

	appendEscaped(buf, c.Row)
	buf.WriteByte(byte(c.Family))
	appendEscaped(buf, c.Qualifier)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], invertTimestamp(c.Timestamp))
	buf.Write(ts[:])

	return append([]byte(nil), buf.Bytes()...)
}

/*
encodeValue encodes the value of a cell: the visibility as a length prefixed
string, the rank and sequence number as varints and the value bytes.
*/
func encodeValue(c *cell.Cell) []byte {
	ret := binary.AppendUvarint(make([]byte, 0, len(c.Visibility)+len(c.Value)+12), uint64(len(c.Visibility)))
	ret = append(ret, c.Visibility...)
	ret = binary.AppendUvarint(ret, uint64(c.Rank))
	ret = binary.AppendUvarint(ret, c.Sequence)
	return append(ret, c.Value...)
}

/*
decodeCell decodes a stored key and value.
*/
func decodeCell(key, value []byte) (*cell.Cell, error) {
	var c cell.Cell
	var err error

	if c.Row, key, err = readEscaped(key); err != nil {
		return nil, fmt.Errorf("row: %v", err)
	}

	if len(key) == 0 {
		return nil, fmt.Errorf("missing family")
	}

	c.Family, key = cell.Family(key[0]), key[1:]

	if c.Qualifier, key, err = readEscaped(key); err != nil {
		return nil, fmt.Errorf("qualifier: %v", err)
	}

	if len(key) != 8 {
		return nil, fmt.Errorf("timestamp has %v bytes", len(key))
	}

	c.Timestamp = int64(^binary.BigEndian.Uint64(key) ^ (1 << 63))

	l, n := binary.Uvarint(value)
	if n <= 0 || l > uint64(len(value)-n) {
		return nil, fmt.Errorf("invalid visibility length")
	}

	c.Visibility = string(value[n : n+int(l)])
	value = value[n+int(l):]

	rank, n := binary.Uvarint(value)
	if n <= 0 {
		return nil, fmt.Errorf("invalid rank")
	}
	value = value[n:]

	if c.Sequence, n = binary.Uvarint(value); n <= 0 {
		return nil, fmt.Errorf("invalid sequence number")
	}

	c.Rank = int(rank)

	if rest := value[n:]; len(rest) > 0 {
		c.Value = rest
	}

	return &c, nil
}
