/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"bytes"
	"fmt"

	"devt.de/krotik/cellgraph/graph/util"
	"devt.de/krotik/cellgraph/mutation"
	"github.com/vmihailenco/msgpack/v5"
)

/*
ValueCodec converts property values into opaque mutation values and back.
*/
type ValueCodec interface {

	/*
		Encode converts a value into an opaque mutation value.
	*/
	Encode(v interface{}) (mutation.Value, error)

	/*
		Decode converts an opaque mutation value back into a value.
	*/
	Decode(v mutation.Value) (interface{}, error)
}

/*
MsgpackValueType is the type tag of values produced by MsgpackValueCodec.
*/
const MsgpackValueType = "msgpack"

/*
MsgpackValueCodec is a ValueCodec which serializes values with msgpack.
Decoded integers are int64 or uint64, decoded floats are float64 and decoded
maps are map[string]interface{}.
*/
type MsgpackValueCodec struct {
}

/*
Encode converts a value into an opaque mutation value.
*/
func (c *MsgpackValueCodec) Encode(v interface{}) (mutation.Value, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return mutation.Value{}, util.NewGraphError(util.ErrValueCodec, err)
	}

	return mutation.Value{Type: MsgpackValueType, Data: data}, nil
}

/*
Decode converts an opaque mutation value back into a value.
*/
func (c *MsgpackValueCodec) Decode(v mutation.Value) (interface{}, error) {
	if v.Type != MsgpackValueType {
		return nil, &util.GraphError{Type: util.ErrValueCodec,
			Detail: fmt.Sprintf("Unknown value type: %v", v.Type)}
	}

	if len(v.Data) == 0 {
		return nil, nil
	}

	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(v.Data))

	ret, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, util.NewGraphError(util.ErrValueCodec, err)
	}

	return ret, nil
}
