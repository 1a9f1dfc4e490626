/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package visibility

import (
	"sync"
	"sync/atomic"
)

/*
Cache stores parsed expressions keyed by their source text. Readers never
block each other or concurrent inserts.
*/
type Cache struct {
	entries sync.Map     // Parsed expressions
	size    atomic.Int64 // Number of cached expressions
	maxSize int64        // Max number of cached expressions (0 means no limit)
}

/*
NewCache creates a new expression cache. Once maxSize expressions are cached
further expressions are still parsed but no longer retained. A maxSize of 0
means no limit.
*/
func NewCache(maxSize int) *Cache {
	return &Cache{maxSize: int64(maxSize)}
}

/*
Parse returns the parsed expression for a given text.
*/
func (c *Cache) Parse(text string) (*Expression, error) {
	if e, ok := c.entries.Load(text); ok {
		return e.(*Expression), nil
	}

	e, err := Parse(text)
	if err != nil {
		return nil, err
	}

	// A slot is reserved before the entry is stored

	if n := c.size.Add(1); c.maxSize != 0 && n > c.maxSize {
		c.size.Add(-1)
		return e, nil
	}

	if actual, loaded := c.entries.LoadOrStore(text, e); loaded {
		c.size.Add(-1)
		return actual.(*Expression), nil
	}

	return e, nil
}

/*
Evaluate parses (or looks up) an expression and evaluates it against the given
authorizations.
*/
func (c *Cache) Evaluate(text string, auths Authorizations) (bool, error) {
	e, err := c.Parse(text)
	if err != nil {
		return false, err
	}
	return e.Evaluate(auths), nil
}

/*
Len returns the number of cached expressions.
*/
func (c *Cache) Len() int {
	return int(c.size.Load())
}
