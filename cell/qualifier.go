/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cell

import (
	"encoding/binary"
	"fmt"
	"strings"
)

/*
appendParts appends length prefixed parts to a byte slice.
*/
func appendParts(b []byte, parts ...string) []byte {
	for _, p := range parts {
		b = binary.AppendUvarint(b, uint64(len(p)))
		b = append(b, p...)
	}
	return b
}

/*
readParts reads exactly n length prefixed parts.
*/
func readParts(b []byte, n int) ([]string, error) {
	parts := make([]string, 0, n)

	for i := 0; i < n; i++ {
		l, w := binary.Uvarint(b)

		if w <= 0 {
			return nil, fmt.Errorf("part %v has an invalid length prefix", i)
		} else if l > uint64(len(b)-w) {
			return nil, fmt.Errorf("part %v needs %v bytes but only %v are left", i, l, len(b)-w)
		}

		parts = append(parts, string(b[w:w+int(l)]))
		b = b[w+int(l):]
	}

	if len(b) != 0 {
		return nil, fmt.Errorf("%v unexpected trailing bytes", len(b))
	}

	return parts, nil
}

/*
Qualifier builds the qualifier of a given kind from its parts.
*/
func Qualifier(kind QualifierKind, parts ...string) string {
	n := 1
	for _, p := range parts {
		n += len(p) + binary.MaxVarintLen64
	}

	b := make([]byte, 1, n)
	b[0] = byte(kind)

	return string(appendParts(b, parts...))
}

/*
ParseQualifier splits a qualifier of a given family into its kind and parts.
*/
func ParseQualifier(f Family, q string) (QualifierKind, []string, error) {
	if len(q) == 0 {
		return 0, nil, &Error{ErrInvalidQualifier, fmt.Sprintf("empty qualifier in family %v", f)}
	}

	kind := QualifierKind(q[0])

	n, ok := partCounts[f][kind]
	if !ok {
		return 0, nil, &Error{ErrInvalidQualifier, fmt.Sprintf("unknown kind %#x in family %v", byte(kind), f)}
	}

	parts, err := readParts([]byte(q[1:]), n)
	if err != nil {
		return 0, nil, &Error{ErrInvalidQualifier, fmt.Sprintf("family %v: %v", f, err)}
	}

	return kind, parts, nil
}

/*
QualifierString returns a human-readable representation of a qualifier.
*/
func QualifierString(f Family, q string) string {
	kind, parts, err := ParseQualifier(f, q)
	if err != nil {
		return fmt.Sprintf("%q", q)
	}
	return fmt.Sprintf("%#x:%v", byte(kind), strings.Join(parts, "/"))
}
