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
	"os"
	"sort"

	"devt.de/krotik/cellgraph/cell"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

/*
BadgerConfig holds the configuration of a BadgerStorage.
*/
type BadgerConfig struct {
	Path       string // Directory of the database files (ignored in memory mode)
	InMemory   bool   // Keep everything in memory
	SyncWrites bool   // Sync every write to disk
}

/*
BadgerStorage keeps cells in a badger key value store.
*/
type BadgerStorage struct {
	name string     // Name of the storage
	db   *badger.DB // Badger database
}

/*
badgerLogger forwards badger log messages to the storage logger.
*/
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warning(fmt.Sprintf(format, args...))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

/*
NewBadgerStorage opens a BadgerStorage. The database directory is created if
it does not exist.
*/
func NewBadgerStorage(name string, cfg BadgerConfig) (*BadgerStorage, error) {
	var opts badger.Options

	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, &Error{ErrOpening, "a path is required for a persistent storage", name, nil}
		}

		if err := os.MkdirAll(cfg.Path, 0770); err != nil {
			return nil, newError(ErrOpening, errors.Wrapf(err, "create directory %v", cfg.Path), name)
		}

		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, newError(ErrOpening, errors.Wrap(err, "open badger database"), name)
	}

	logger.Info(fmt.Sprintf("Opened badger storage %v (in memory: %v)", name, cfg.InMemory))

	return &BadgerStorage{name, db}, nil
}

/*
Name returns the name of the BadgerStorage instance.
*/
func (bs *BadgerStorage) Name() string {
	return bs.name
}

/*
Write writes a list of cells in one read-write transaction. Stored versions
are only replaced by superseding cells.
*/
func (bs *BadgerStorage) Write(cells []cell.Cell) error {
	err := bs.db.Update(func(txn *badger.Txn) error {
		for i := range cells {
			key := encodeKey(&cells[i])

			item, err := txn.Get(key)

			if err == nil {
				value, err := item.ValueCopy(nil)
				if err != nil {
					return errors.Wrapf(err, "read stored cell %v", cells[i])
				}

				stored, err := decodeCell(key, value)
				if err != nil {
					return errors.Wrapf(err, "decode stored cell %v", cells[i])
				}

				if !cell.Supersedes(cells[i], *stored) {
					continue
				}

			} else if err != badger.ErrKeyNotFound {
				return errors.Wrapf(err, "read stored cell %v", cells[i])
			}

			if err := txn.Set(key, encodeValue(&cells[i])); err != nil {
				return errors.Wrapf(err, "set cell %v", cells[i])
			}
		}

		return nil
	})

	if err != nil {
		return newError(ErrWriting, errors.Wrapf(err, "write %v cells", len(cells)), bs.name)
	}

	return nil
}

/*
Scan returns a scanner over the cells of one row. The scanner reads from a
read-only transaction.
*/
func (bs *BadgerStorage) Scan(row string) (RowScanner, error) {
	return &badgerScanner{
		storage: bs,
		row:     row,
		txn:     bs.db.NewTransaction(false),
	}, nil
}

/*
RowIDs returns all row ids in ascending order.
*/
func (bs *BadgerStorage) RowIDs() ([]string, error) {
	var ret []string

	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); {
			row, _, err := readEscaped(it.Item().Key())
			if err != nil {
				return errors.Wrapf(err, "key %x", it.Item().Key())
			}

			ret = append(ret, row)

			// Skip all remaining cells of the row

			prefix := rowPrefix(row)
			it.Seek(append(prefix, 0xff))
		}

		return nil
	})

	if err != nil {
		return nil, newError(ErrReading, err, bs.name)
	}

	return ret, nil
}

/*
Close closes the storage.
*/
func (bs *BadgerStorage) Close() error {
	if err := bs.db.Close(); err != nil {
		return newError(ErrClosed, errors.Wrap(err, "close badger database"), bs.name)
	}

	logger.Info(fmt.Sprintf("Closed badger storage %v", bs.name))

	return nil
}

/*
badgerScanner reads the cells of one row from a badger transaction. Every
sought family is read with its own prefix iterator so other families are
never touched.
*/
type badgerScanner struct {
	storage  *BadgerStorage
	row      string
	txn      *badger.Txn
	sought   bool             // Flag if Seek was called
	prefixes [][]byte         // Key prefixes of the sought families
	it       *badger.Iterator // Iterator of the current family
	prefix   []byte           // Prefix of the current family
}

/*
Seek restricts the scanner to the given column families.
*/
func (s *badgerScanner) Seek(families []cell.Family) error {
	s.closeIterator()

	fams := append([]cell.Family(nil), families...)
	sort.Slice(fams, func(i, j int) bool {
		return fams[i] < fams[j]
	})

	s.sought = true
	s.prefixes = nil
	for _, f := range fams {
		s.prefixes = append(s.prefixes, familyPrefix(s.row, f))
	}

	return nil
}

/*
Next returns the next cell or nil at the end of the row.
*/
func (s *badgerScanner) Next() (*cell.Cell, error) {
	if s.txn == nil {
		return nil, &Error{Type: ErrClosed, Detail: "scanner is closed", Storagename: s.storage.name}
	}

	if !s.sought {
		s.sought = true
		s.prefixes = [][]byte{rowPrefix(s.row)}
	}

	for {
		if s.it == nil {
			if len(s.prefixes) == 0 {
				return nil, nil
			}

			s.prefix, s.prefixes = s.prefixes[0], s.prefixes[1:]

			opts := badger.DefaultIteratorOptions
			opts.Prefix = s.prefix

			s.it = s.txn.NewIterator(opts)
			s.it.Seek(s.prefix)
		}

		if !s.it.ValidForPrefix(s.prefix) {
			s.closeIterator()
			continue
		}

		item := s.it.Item()

		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, newError(ErrReading, errors.Wrapf(err, "value of key %x", item.Key()), s.storage.name)
		}

		c, err := decodeCell(item.KeyCopy(nil), value)
		if err != nil {
			return nil, newError(ErrCorrupt, errors.Wrapf(err, "key %x", item.Key()), s.storage.name)
		}

		s.it.Next()

		return c, nil
	}
}

/*
closeIterator closes the iterator of the current family.
*/
func (s *badgerScanner) closeIterator() {
	if s.it != nil {
		s.it.Close()
		s.it = nil
	}
}

/*
Close releases the transaction of the scanner.
*/
func (s *badgerScanner) Close() error {
	s.closeIterator()

	if s.txn != nil {
		s.txn.Discard()
		s.txn = nil
	}

	return nil
}
