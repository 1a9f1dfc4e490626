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
	"fmt"
	"sort"
	"sync"

	"devt.de/krotik/cellgraph/cell"
)

/*
MemoryStorage keeps all cells in memory.
*/
type MemoryStorage struct {
	name   string                 // Name of the storage
	rows   map[string][]cell.Cell // Cells of each row in store order
	closed bool                   // Flag if the storage was closed
	lock   *sync.RWMutex          // Lock for rows
}

/*
NewMemoryStorage creates a new MemoryStorage instance.
*/
func NewMemoryStorage(name string) *MemoryStorage {
	return &MemoryStorage{name, make(map[string][]cell.Cell), false, &sync.RWMutex{}}
}

/*
Name returns the name of the MemoryStorage instance.
*/
func (ms *MemoryStorage) Name() string {
	return ms.name
}

/*
Write writes a list of cells.
*/
func (ms *MemoryStorage) Write(cells []cell.Cell) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	if ms.closed {
		return &Error{Type: ErrClosed, Storagename: ms.name}
	}

	for _, c := range cells {
		row := ms.rows[c.Row]

		i := sort.Search(len(row), func(i int) bool {
			return !cell.Less(row[i], c)
		})

		c.Value = append([]byte(nil), c.Value...)

		if i < len(row) && cell.SameVersion(row[i], c) {
			if cell.Supersedes(c, row[i]) {
				row[i] = c
			}
			continue
		}

		row = append(row, cell.Cell{})
		copy(row[i+1:], row[i:])
		row[i] = c

		ms.rows[c.Row] = row
	}

	return nil
}

/*
Scan returns a scanner over the cells of one row.
*/
func (ms *MemoryStorage) Scan(row string) (RowScanner, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	if ms.closed {
		return nil, &Error{Type: ErrClosed, Storagename: ms.name}
	}

	// Rows are copied on scan so writers never change what a scanner sees

	cells := make([]cell.Cell, len(ms.rows[row]))
	copy(cells, ms.rows[row])

	return &memoryScanner{cells: cells}, nil
}

/*
RowIDs returns all row ids in ascending order.
*/
func (ms *MemoryStorage) RowIDs() ([]string, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	ret := make([]string, 0, len(ms.rows))
	for id := range ms.rows {
		ret = append(ret, id)
	}

	sort.Strings(ret)

	return ret, nil
}

/*
Close closes the storage.
*/
func (ms *MemoryStorage) Close() error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	ms.closed = true
	ms.rows = nil

	return nil
}

/*
String returns a string representation of this storage.
*/
func (ms *MemoryStorage) String() string {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	count := 0
	for _, row := range ms.rows {
		count += len(row)
	}

	return fmt.Sprintf("MemoryStorage %v (%v rows, %v cells)", ms.name, len(ms.rows), count)
}

/*
memoryScanner reads the cells of one row of a MemoryStorage.
*/
type memoryScanner struct {
	cells    []cell.Cell          // Cells of the row in store order
	families map[cell.Family]bool // Sought families
	pos      int                  // Current position
}

/*
Seek restricts the scanner to the given column families.
*/
func (s *memoryScanner) Seek(families []cell.Family) error {
	s.families = make(map[cell.Family]bool, len(families))
	for _, f := range families {
		s.families[f] = true
	}
	s.pos = 0
	return nil
}

/*
Next returns the next cell or nil at the end of the row.
*/
func (s *memoryScanner) Next() (*cell.Cell, error) {
	for s.pos < len(s.cells) {
		c := &s.cells[s.pos]

		if s.families != nil && !s.families[c.Family] {

			// Jump to the first cell of the next family

			f := c.Family
			s.pos += sort.Search(len(s.cells)-s.pos, func(i int) bool {
				return s.cells[s.pos+i].Family > f
			})

			continue
		}

		s.pos++

		return c, nil
	}

	return nil, nil
}

/*
Close releases the resources of the scanner.
*/
func (s *memoryScanner) Close() error {
	s.cells = nil
	return nil
}
