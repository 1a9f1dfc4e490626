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
	"fmt"
	"sync"

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/graph/util"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/resolve"
	"devt.de/krotik/cellgraph/storage"
	"devt.de/krotik/cellgraph/visibility"
	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/stringutil"
	"golang.org/x/sync/errgroup"
)

/*
Manager data structure
*/
type Manager struct {
	storage storage.Storage     // Storage which holds the element rows
	cache   *visibility.Cache   // Shared cache of parsed visibility expressions
	seq     *mutation.Sequencer // Sequencer for buffered mutations of transactions
	gr      *graphRulesManager  // Manager for graph rules
	workers int                 // Number of concurrent resolutions of a batch fetch
	mutex   *sync.RWMutex       // Mutex to protect atomic graph operations
}

/*
NewManager returns a new Manager instance. The visibility cache may be nil.
*/
func NewManager(s storage.Storage, cache *visibility.Cache) *Manager {
	gm := &Manager{s, cache, mutation.NewSequencer(0), &graphRulesManager{nil, make(map[string]Rule),
		make(map[int]map[string]Rule)}, DefaultResolveWorkers, &sync.RWMutex{}}

	gm.gr.gm = gm

	gm.SetGraphRule(&SystemRuleEdgeRefs{})
	gm.SetGraphRule(NewSystemRuleMutationStats())

	return gm
}

/*
Name returns the name of this graph manager.
*/
func (gm *Manager) Name() string {
	return fmt.Sprint("Graph ", gm.storage.Name())
}

/*
SetResolveWorkers sets the number of elements which are resolved
concurrently during a batch fetch.
*/
func (gm *Manager) SetResolveWorkers(n int) {
	errorutil.AssertTrue(n > 0, "Number of resolve workers must be positive")
	gm.workers = n
}

/*
SetGraphRule sets a GraphRule.
*/
func (gm *Manager) SetGraphRule(rule Rule) {
	gm.gr.SetGraphRule(rule)
}

/*
GraphRules returns a list of all available graph rules.
*/
func (gm *Manager) GraphRules() []string {
	return gm.gr.GraphRules()
}

/*
GraphRule returns a graph rule by name or nil if the rule is not known.
*/
func (gm *Manager) GraphRule(name string) Rule {
	return gm.gr.rules[name]
}

/*
StoreMutations writes mutations of a single element to the datastore.
Mutations are idempotent: writing the same mutation twice has no effect.
*/
func (gm *Manager) StoreMutations(id string, muts ...mutation.Mutation) error {

	// Take writer lock

	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return gm.storeMutations(id, muts, true)
}

/*
storeMutations writes mutations of a single element and optionally notifies
the graph rules. The caller must hold the writer lock.
*/
func (gm *Manager) storeMutations(id string, muts []mutation.Mutation, events bool) error {

	if id == "" {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "Element is missing an id"}
	}

	for _, m := range muts {
		if m == nil {
			return &util.GraphError{Type: util.ErrInvalidData,
				Detail: fmt.Sprintf("Element %v has a nil mutation", id)}
		}
	}

	if len(muts) == 0 {
		return nil
	}

	cells := cell.FromMutations(id, muts)

	if err := gm.storage.Write(cells); err != nil {
		return util.NewGraphError(util.ErrWriting, err)
	}

	logger.Debug(fmt.Sprintf("Stored %v mutation%v (%v cell%v) of element %v",
		len(muts), stringutil.Plural(len(muts)), len(cells), stringutil.Plural(len(cells)), id))

	if !events {
		return nil
	}

	// Rules write their changes into a subtransaction which is committed
	// without triggering further events

	trans := newInternalGraphTrans(gm)
	trans.subtrans = true

	if err := gm.gr.graphEvent(trans, EventElementStored, id, muts); err != nil && err != ErrEventHandled {
		return err
	}

	return trans.Commit()
}

/*
storedEndpoints reads the newest stored endpoints of an edge row. Returns nil
if the row has no endpoints. The caller must hold the writer lock.
*/
func (gm *Manager) storedEndpoints(id string) (*cell.Entry, error) {
	sc, err := gm.storage.Scan(id)
	if err != nil {
		return nil, util.NewGraphError(util.ErrReading, err)
	}
	defer sc.Close()

	if err := sc.Seek([]cell.Family{cell.FamilySignal}); err != nil {
		return nil, util.NewGraphError(util.ErrReading, err)
	}

	for {
		c, err := sc.Next()
		if err != nil {
			return nil, util.NewGraphError(util.ErrReading, err)
		} else if c == nil {
			return nil, nil
		}

		e, err := cell.Decode(*c)
		if err != nil {
			return nil, util.NewGraphError(util.ErrReading, err)
		}

		if e.Kind == cell.KindSignalEndpoints {
			return &e, nil
		}
	}
}

/*
FetchElement resolves a single element from the datastore for a caller with
given authorizations. Returns nil if the element does not exist or is not
visible to the caller.
*/
func (gm *Manager) FetchElement(id string, auths visibility.Authorizations,
	hints resolve.FetchHints) (*resolve.ElementSnapshot, error) {

	// Take reader lock only while the scan is created; a scan reads a
	// consistent view of the row

	gm.mutex.RLock()
	sc, err := gm.storage.Scan(id)
	gm.mutex.RUnlock()

	if err != nil {
		return nil, util.NewGraphError(util.ErrReading, err)
	}

	defer sc.Close()

	es, err := resolve.ResolveRow(id, sc, auths, hints, gm.cache)
	if err != nil {
		return nil, &util.GraphError{Type: util.ErrResolving,
			Detail: fmt.Sprintf("Element %v: %v", id, err), Cause: err}
	}

	return es, nil
}

/*
FetchElements resolves several elements concurrently. The result has one
entry per requested id (nil if the element was not found or could not be
resolved). Failures of single elements are collected in an
errorutil.CompositeError; the other elements are still returned.
*/
func (gm *Manager) FetchElements(ids []string, auths visibility.Authorizations,
	hints resolve.FetchHints) ([]*resolve.ElementSnapshot, error) {

	if err := hints.Validate(); err != nil {
		return nil, err
	}

	res := make([]*resolve.ElementSnapshot, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(gm.workers)

	for i, id := range ids {
		i, id := i, id

		g.Go(func() error {
			res[i], errs[i] = gm.FetchElement(id, auths, hints)
			return nil
		})
	}

	g.Wait()

	ce := errorutil.NewCompositeError()

	for _, err := range errs {
		if err != nil {
			logger.Error(err.Error())
			ce.Add(err)
		}
	}

	if ce.HasErrors() {
		return res, ce
	}

	return res, nil
}

/*
ElementIDs returns the ids of all stored elements in ascending order.
*/
func (gm *Manager) ElementIDs() ([]string, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	ids, err := gm.storage.RowIDs()
	if err != nil {
		return nil, util.NewGraphError(util.ErrReading, err)
	}

	return ids, nil
}

/*
ElementIterator returns an iterator over all stored element ids.
*/
func (gm *Manager) ElementIterator() (*ElementIterator, error) {
	ids, err := gm.ElementIDs()
	if err != nil {
		return nil, err
	}

	return &ElementIterator{gm, ids, 0, nil}, nil
}
