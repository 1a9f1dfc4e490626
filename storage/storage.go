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
Package storage contains sorted cell stores.

A store keeps all versions of all cells and returns the cells of a row in
store order: column family, qualifier and descending timestamp. Writing a
cell with the same row, family, qualifier and timestamp as an existing cell
replaces it.

There are two stores: MemoryStorage keeps all cells in memory and
BadgerStorage keeps them in a badger key value store on disk.
*/
package storage

import "devt.de/krotik/cellgraph/cell"

/*
Storage models a sorted cell store.
*/
type Storage interface {

	/*
	   Name returns the name of the storage instance.
	*/
	Name() string

	/*
		Write writes a list of cells. All cells are written or none. A cell
		which addresses a stored version replaces it only if it supersedes
		the stored cell (see cell.Supersedes).
	*/
	Write(cells []cell.Cell) error

	/*
		Scan returns a scanner over the cells of one row. The scanner reads a
		consistent view of the row. It must be closed after use.
	*/
	Scan(row string) (RowScanner, error)

	/*
		RowIDs returns all row ids in ascending order.
	*/
	RowIDs() ([]string, error)

	/*
		Close closes the storage.
	*/
	Close() error
}

/*
RowScanner reads the cells of one row in store order.
*/
type RowScanner interface {

	/*
		Seek restricts the scanner to the given column families and moves it to
		the start of the row. Cells of other families are never read.
	*/
	Seek(families []cell.Family) error

	/*
		Next returns the next cell or nil at the end of the row.
	*/
	Next() (*cell.Cell, error)

	/*
		Close releases the resources of the scanner.
	*/
	Close() error
}
