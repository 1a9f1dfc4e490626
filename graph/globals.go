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
Package graph contains the main API to the cell graph datastore.

Manager API

The main API is provided by a Manager object which can be created with the
NewManager() constructor function. The manager writes mutations of graph
elements into a storage and resolves elements for a caller with the streaming
resolution engine. Batch fetches resolve several elements concurrently; a
failure of one element does not affect the others.

Element iterator

All stored element ids can be iterated by using an ElementIterator. The
manager can produce these with the ElementIterator() function.

Transactions

A transaction is used to buffer mutations of several elements. Nothing is
written to the datastore before calling Commit(). Buffered elements can be
resolved with the in-process resolution engine before they are committed.
This gives a writer a consistent view of its own pending changes.

A trans object can be created with the NewGraphTrans() function.

Import and export

Mutation logs can be imported from YAML documents:

	elements:
	  - id: v1
	    mutations:
	      - kind: ElementTimestampTouch
	        timestamp: 1
	        visibility: a
	      - kind: AddPropertyValue
	        timestamp: 2
	        key: k1
	        name: name
	        value: Alice

Property values are converted into opaque values with a ValueCodec. Resolved
snapshots can be exported into plain maps which are suitable for JSON.

Storage layout

Each element is one row of a sorted storage. Mutations are projected into
cells by the cell package. See the cell package for the column families and
qualifier layout.
*/
package graph

import (
	"errors"
	"runtime"

	"devt.de/krotik/common/logutil"
)

/*
VERSION of the graph Manager
*/
const VERSION = 1

/*
DefaultResolveWorkers is the default number of elements which are resolved
concurrently during a batch fetch.
*/
var DefaultResolveWorkers = runtime.NumCPU()

/*
logger of the graph package
*/
var logger = logutil.GetLogger("cellgraph.graph")

// Graph events
// ============

/*
EventElementStored is thrown when mutations of an element were written to
the datastore.

Parameters: element id, stored mutations
*/
const EventElementStored = 0x01

/*
ErrEventHandled is a special error which an event handler can return to
notify the emitter that the event was fully handled.
*/
var ErrEventHandled = errors.New("Event handled upstream")
