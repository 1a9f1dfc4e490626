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
	"sort"
	"sync"

	"devt.de/krotik/cellgraph/graph/util"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/resolve"
	"devt.de/krotik/cellgraph/visibility"
	"devt.de/krotik/common/errorutil"
)

/*
Trans is a transaction object which should be used to group mutations of
several elements.
*/
type Trans interface {

	/*
	   ID returns a unique transaction ID.
	*/
	ID() string

	/*
	   String returns a string representation of this transaction.
	*/
	String() string

	/*
	   Counts returns the transaction size. Returned values are the number of
	   elements and the number of buffered mutations.
	*/
	Counts() (int, int)

	/*
	   IsEmpty returns if this transaction is empty.
	*/
	IsEmpty() bool

	/*
	   Commit writes the transaction to the graph database. Elements which
	   were written are removed from the transaction. If an error occurs the
	   remaining elements stay in the transaction and the commit can be
	   retried since writing a mutation twice has no effect.
	*/
	Commit() error

	/*
	   AddMutations buffers mutations of a single element. Every mutation
	   gets a sequence number which orders mutations with equal timestamps
	   in the order they were added.
	*/
	AddMutations(id string, muts ...mutation.Mutation) error

	/*
	   Resolve resolves an element from its buffered mutations. Stored
	   mutations of the element are not considered. Returns nil if the
	   element does not exist in the transaction or is not visible to the
	   caller.
	*/
	Resolve(id string, auths visibility.Authorizations, hints resolve.FetchHints) (*resolve.ElementSnapshot, error)
}

/*
NewGraphTrans creates a new graph transaction. This object is not thread safe
and should only be used for non-concurrent use cases; use NewConcurrentGraphTrans
for concurrent use cases.
*/
func NewGraphTrans(gm *Manager) Trans {
	return newInternalGraphTrans(gm)
}

/*
NewConcurrentGraphTrans creates a new thread-safe graph transaction.
*/
func NewConcurrentGraphTrans(gm *Manager) Trans {
	return &concurrentTrans{NewGraphTrans(gm), &sync.RWMutex{}}
}

/*
NewRollingTrans wraps an existing transaction into a rolling transaction.
Rolling transactions can be used for VERY large mutation logs and will commit
themselves after n mutations. Rolling transactions are always thread-safe.
*/
func NewRollingTrans(t Trans, n int, gm *Manager, newTrans func(*Manager) Trans) Trans {
	idCounterLock.Lock()
	defer idCounterLock.Unlock()

	idCounter++

	// Smallest commit threshold is 1

	if n < 1 {
		n = 1
	}

	return &rollingTrans{
		id:           fmt.Sprint(idCounter),
		gm:           gm,
		currentTrans: t,
		newTransFunc: newTrans,
		transErrors:  errorutil.NewCompositeError(),
		opThreshold:  n,
		transLock:    &sync.Mutex{},
	}
}

/*
newInternalGraphTrans is used for internal transactions. The returned object
contains extra fields which are only for internal use.
*/
func newInternalGraphTrans(gm *Manager) *baseTrans {
	idCounterLock.Lock()
	defer idCounterLock.Unlock()

	idCounter++

	return &baseTrans{fmt.Sprint(idCounter), gm, false, make(map[string][]mutation.Mutation), 0}
}

/*
idCounter is a simple counter for ids
*/
var idCounter uint64
var idCounterLock = &sync.Mutex{}

/*
baseTrans is the main data structure for a graph transaction
*/
type baseTrans struct {
	id       string   // Unique transaction ID
	gm       *Manager // Graph manager which created this transaction
	subtrans bool     // Flag if the transaction is a subtransaction

	elements map[string][]mutation.Mutation // Buffered mutations by element id
	count    int                            // Number of buffered mutations
}

/*
ID returns a unique transaction ID.
*/
func (gt *baseTrans) ID() string {
	return gt.id
}

/*
IsEmpty returns if this transaction is empty.
*/
func (gt *baseTrans) IsEmpty() bool {
	return gt.count == 0
}

/*
Counts returns the transaction size. Returned values are the number of
elements and the number of buffered mutations.
*/
func (gt *baseTrans) Counts() (int, int) {
	return len(gt.elements), gt.count
}

/*
String returns a string representation of this transaction.
*/
func (gt *baseTrans) String() string {
	e, m := gt.Counts()

	return fmt.Sprintf("Transaction %v - Elements: %v Mutations: %v", gt.id, e, m)
}

/*
AddMutations buffers mutations of a single element.
*/
func (gt *baseTrans) AddMutations(id string, muts ...mutation.Mutation) error {
	if id == "" {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "Element is missing an id"}
	}

	stamped := make([]mutation.Mutation, 0, len(muts))

	for _, m := range muts {
		if m == nil {
			return &util.GraphError{Type: util.ErrInvalidData,
				Detail: fmt.Sprintf("Element %v has a nil mutation", id)}
		}

		stamped = append(stamped, gt.gm.seq.Stamp(m))
	}

	if len(stamped) > 0 {
		gt.elements[id] = append(gt.elements[id], stamped...)
		gt.count += len(stamped)
	}

	return nil
}

/*
Resolve resolves an element from its buffered mutations.
*/
func (gt *baseTrans) Resolve(id string, auths visibility.Authorizations,
	hints resolve.FetchHints) (*resolve.ElementSnapshot, error) {

	muts := append([]mutation.Mutation(nil), gt.elements[id]...)
	mutation.Sort(muts)

	return resolve.ResolveMutations(id, muts, auths, hints, gt.gm.cache)
}

/*
Commit writes the transaction to the graph database.
*/
func (gt *baseTrans) Commit() error {

	// Take writer lock if we are not in a subtransaction

	if !gt.subtrans {
		gt.gm.mutex.Lock()
		defer gt.gm.mutex.Unlock()
	}

	// Return if there is nothing to do

	if gt.IsEmpty() {
		return nil
	}

	// Elements are written in a stable order

	ids := make([]string, 0, len(gt.elements))
	for id := range gt.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		muts := gt.elements[id]

		if err := gt.gm.storeMutations(id, muts, !gt.subtrans); err != nil {
			return err
		}

		delete(gt.elements, id)
		gt.count -= len(muts)
	}

	return nil
}

/*
concurrentTrans is a lock-wrapper around baseTrans which allows concurrent use.
*/
type concurrentTrans struct {
	Trans
	transLock *sync.RWMutex
}

/*
ID returns a unique transaction ID.
*/
func (gt *concurrentTrans) ID() string {
	gt.transLock.RLock()
	defer gt.transLock.RUnlock()

	return gt.Trans.ID()
}

/*
String returns a string representation of this transaction.
*/
func (gt *concurrentTrans) String() string {
	gt.transLock.RLock()
	defer gt.transLock.RUnlock()

	return gt.Trans.String()
}

/*
Counts returns the transaction size.
*/
func (gt *concurrentTrans) Counts() (int, int) {
	gt.transLock.RLock()
	defer gt.transLock.RUnlock()

	return gt.Trans.Counts()
}

/*
IsEmpty returns if this transaction is empty.
*/
func (gt *concurrentTrans) IsEmpty() bool {
	gt.transLock.RLock()
	defer gt.transLock.RUnlock()

	return gt.Trans.IsEmpty()
}

/*
Commit writes the transaction to the graph database.
*/
func (gt *concurrentTrans) Commit() error {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	return gt.Trans.Commit()
}

/*
AddMutations buffers mutations of a single element.
*/
func (gt *concurrentTrans) AddMutations(id string, muts ...mutation.Mutation) error {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	return gt.Trans.AddMutations(id, muts...)
}

/*
Resolve resolves an element from its buffered mutations.
*/
func (gt *concurrentTrans) Resolve(id string, auths visibility.Authorizations,
	hints resolve.FetchHints) (*resolve.ElementSnapshot, error) {

	gt.transLock.RLock()
	defer gt.transLock.RUnlock()

	return gt.Trans.Resolve(id, auths, hints)
}

/*
rollingTrans is a rolling transaction which will commit itself after
n mutations.
*/
type rollingTrans struct {
	id string   // ID of this transaction
	gm *Manager // Graph manager which created this transaction

	currentTrans Trans                     // Current transaction which is build up
	newTransFunc func(*Manager) Trans      // Function to create a new transaction
	transErrors  *errorutil.CompositeError // Collected transaction errors

	opThreshold int // Commit threshold
	opCount     int // Mutations in the current transaction
	totalCount  int // Mutations which were committed

	transLock *sync.Mutex // Lock for this transaction
}

/*
ID returns a unique transaction ID.
*/
func (gt *rollingTrans) ID() string {
	return gt.id
}

/*
String returns a string representation of this transaction.
*/
func (gt *rollingTrans) String() string {
	e, m := gt.Counts()

	return fmt.Sprintf("Rolling transaction %v - Elements: %v Mutations: %v Threshold: %v Committed: %v",
		gt.id, e, m, gt.opThreshold, gt.committed())
}

/*
committed returns the number of committed mutations.
*/
func (gt *rollingTrans) committed() int {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	return gt.totalCount
}

/*
Counts returns the size of the current transaction.
*/
func (gt *rollingTrans) Counts() (int, int) {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	return gt.currentTrans.Counts()
}

/*
IsEmpty returns if this transaction is empty.
*/
func (gt *rollingTrans) IsEmpty() bool {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	return gt.currentTrans.IsEmpty()
}

/*
AddMutations buffers mutations of a single element and commits the current
transaction once the threshold was reached.
*/
func (gt *rollingTrans) AddMutations(id string, muts ...mutation.Mutation) error {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	if err := gt.currentTrans.AddMutations(id, muts...); err != nil {
		return err
	}

	gt.opCount += len(muts)

	if gt.opCount >= gt.opThreshold {
		gt.commitCurrent()
	}

	return nil
}

/*
Resolve resolves an element from the mutations of the current transaction.
*/
func (gt *rollingTrans) Resolve(id string, auths visibility.Authorizations,
	hints resolve.FetchHints) (*resolve.ElementSnapshot, error) {

	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	return gt.currentTrans.Resolve(id, auths, hints)
}

/*
commitCurrent commits the current transaction and starts a new one. The
caller must hold the transaction lock.
*/
func (gt *rollingTrans) commitCurrent() {
	if err := gt.currentTrans.Commit(); err != nil {
		gt.transErrors.Add(err)
	} else {
		gt.totalCount += gt.opCount
	}

	gt.currentTrans = gt.newTransFunc(gt.gm)
	gt.opCount = 0
}

/*
Commit commits the current transaction. Returns all errors of earlier
automatic commits.
*/
func (gt *rollingTrans) Commit() error {
	gt.transLock.Lock()
	defer gt.transLock.Unlock()

	gt.commitCurrent()

	if gt.transErrors.HasErrors() {
		err := gt.transErrors
		gt.transErrors = errorutil.NewCompositeError()
		return err
	}

	return nil
}
