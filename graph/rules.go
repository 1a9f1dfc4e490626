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
	"sort"
	"strings"
	"sync"

	"devt.de/krotik/cellgraph/cell"
	"devt.de/krotik/cellgraph/graph/util"
	"devt.de/krotik/cellgraph/mutation"
)

/*
GraphRulesManager data structure
*/
type graphRulesManager struct {
	gm       *Manager                // GraphManager which provides events
	rules    map[string]Rule         // Map of graph rules
	eventMap map[int]map[string]Rule // Map of events to graph rules
}

/*
Rule models a graph rule.
*/
type Rule interface {

	/*
	   Name returns the name of the rule.
	*/
	Name() string

	/*
		Handles returns a list of events which are handled by this rule.
	*/
	Handles() []int

	/*
		Handle handles an event. The function should write all changes to the
		given transaction.
	*/
	Handle(gm *Manager, trans Trans, event int, data ...interface{}) error
}

/*
graphEvent main event handler which receives all graph related events.
*/
func (gr *graphRulesManager) graphEvent(trans Trans, event int, data ...interface{}) error {
	var errors []string

	handled := false // Flag to return a special handled error if no other error occurred

	names := make([]string, 0, len(gr.eventMap[event]))
	for name := range gr.eventMap[event] {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := gr.eventMap[event][name].Handle(gr.gm, trans, event, data...)

		if err == ErrEventHandled {
			handled = true
		} else if err != nil {
			errors = append(errors, err.Error())
		}
	}

	if errors != nil {
		return &util.GraphError{Type: util.ErrRule, Detail: strings.Join(errors, ";")}
	}

	if handled {
		return ErrEventHandled
	}

	return nil
}

/*
SetGraphRule sets a GraphRule.
*/
func (gr *graphRulesManager) SetGraphRule(rule Rule) {
	gr.rules[rule.Name()] = rule

	for _, handledEvent := range rule.Handles() {

		rules, ok := gr.eventMap[handledEvent]
		if !ok {
			rules = make(map[string]Rule)
			gr.eventMap[handledEvent] = rules
		}

		rules[rule.Name()] = rule
	}
}

/*
GraphRules returns a list of all available graph rules.
*/
func (gr *graphRulesManager) GraphRules() []string {
	ret := make([]string, 0, len(gr.rules))

	for rule := range gr.rules {
		ret = append(ret, rule)
	}

	sort.StringSlice(ret).Sort()

	return ret
}

// System rule SystemRuleEdgeRefs
// ==============================

/*
SystemRuleEdgeRefs is a system rule which keeps the adjacency references of
the vertices of an edge up to date. A newly set up edge adds references to
both of its vertices with the timestamp and visibility of the setup. A
relabelled edge re-issues both references with the new label and a soft
deleted edge soft deletes both references. Relabels and deletes use the
newest stored endpoints of the edge.
*/
type SystemRuleEdgeRefs struct {
}

/*
Name returns the name of the rule.
*/
func (r *SystemRuleEdgeRefs) Name() string {
	return "system.edgerefs"
}

/*
Handles returns a list of events which are handled by this rule.
*/
func (r *SystemRuleEdgeRefs) Handles() []int {
	return []int{EventElementStored}
}

/*
Handle handles an event.
*/
func (r *SystemRuleEdgeRefs) Handle(gm *Manager, trans Trans, event int, ed ...interface{}) error {
	id := ed[0].(string)
	muts := ed[1].([]mutation.Mutation)

	var endpoints *cell.Entry
	var looked bool

	for _, m := range muts {

		if es, ok := m.(*mutation.EdgeSetup); ok {
			if es.OutVertexID == "" || es.InVertexID == "" {
				continue
			}

			h := mutation.Header{Timestamp: es.Timestamp, Visibility: es.Visibility}

			if err := addEdgeRefs(trans, id, h, es.Label, es.OutVertexID, es.InVertexID); err != nil {
				return err
			}

			continue
		}

		if m.Kind() != mutation.KindAlterEdgeLabel && m.Kind() != mutation.KindSoftDeleteElement {
			continue
		}

		if !looked {
			var err error

			if endpoints, err = gm.storedEndpoints(id); err != nil {
				return err
			}

			looked = true
		}

		if endpoints == nil {
			continue // Not an edge
		}

		h := m.Head()

		if al, ok := m.(*mutation.AlterEdgeLabel); ok {
			h = mutation.Header{Timestamp: h.Timestamp, Visibility: endpoints.Visibility}

			if err := addEdgeRefs(trans, id, h, al.NewLabel, endpoints.OutVertexID,
				endpoints.InVertexID); err != nil {
				return err
			}

			continue
		}

		if err := trans.AddMutations(endpoints.OutVertexID, &mutation.SoftDeleteEdgeRef{Header: h,
			EdgeID: id, Direction: mutation.DirectionOut}); err != nil {
			return err
		}

		if err := trans.AddMutations(endpoints.InVertexID, &mutation.SoftDeleteEdgeRef{Header: h,
			EdgeID: id, Direction: mutation.DirectionIn}); err != nil {
			return err
		}
	}

	return nil
}

/*
addEdgeRefs adds the references of an edge to both of its vertices.
*/
func addEdgeRefs(trans Trans, id string, h mutation.Header, label, outVertex, inVertex string) error {

	if err := trans.AddMutations(outVertex, &mutation.AddEdgeRef{Header: h, EdgeID: id,
		Direction: mutation.DirectionOut, Label: label, OtherVertex: inVertex}); err != nil {
		return err
	}

	return trans.AddMutations(inVertex, &mutation.AddEdgeRef{Header: h, EdgeID: id,
		Direction: mutation.DirectionIn, Label: label, OtherVertex: outVertex})
}

// System rule SystemRuleMutationStats
// ===================================

/*
SystemRuleMutationStats is a system rule which counts stored mutations by
variant.
*/
type SystemRuleMutationStats struct {
	counts map[mutation.Kind]uint64 // Stored mutations by variant
	lock   *sync.Mutex              // Lock for counts
}

/*
NewSystemRuleMutationStats creates a new SystemRuleMutationStats instance.
*/
func NewSystemRuleMutationStats() *SystemRuleMutationStats {
	return &SystemRuleMutationStats{make(map[mutation.Kind]uint64), &sync.Mutex{}}
}

/*
Name returns the name of the rule.
*/
func (r *SystemRuleMutationStats) Name() string {
	return "system.mutationstats"
}

/*
Handles returns a list of events which are handled by this rule.
*/
func (r *SystemRuleMutationStats) Handles() []int {
	return []int{EventElementStored}
}

/*
Handle handles an event.
*/
func (r *SystemRuleMutationStats) Handle(gm *Manager, trans Trans, event int, ed ...interface{}) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, m := range ed[1].([]mutation.Mutation) {
		r.counts[m.Kind()]++
	}

	return nil
}

/*
Stats returns the number of stored mutations by variant name.
*/
func (r *SystemRuleMutationStats) Stats() map[string]uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()

	ret := make(map[string]uint64, len(r.counts))
	for k, c := range r.counts {
		ret[k.String()] = c
	}

	return ret
}
