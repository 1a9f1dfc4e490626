/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/*
Engine names used as metric labels
*/
const (
	EngineInProcess = "inprocess"
	EngineStreaming = "streaming"
)

/*
Resolution results used as metric labels
*/
const (
	ResultFound    = "found"
	ResultNotFound = "notfound"
	ResultDeleted  = "deleted"
	ResultError    = "error"
)

var (
	// resolutionsTotal counts resolutions.
	// Labels: engine (inprocess, streaming), result (found, notfound, deleted, error)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellgraph",
		Name:      "resolutions_total",
		Help:      "Total element resolutions",
	}, []string{"engine", "result"})

	// cellsReadTotal counts cells which the streaming engine decoded.
	// Labels: family
	cellsReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellgraph",
		Name:      "cells_read_total",
		Help:      "Total cells decoded by the streaming engine",
	}, []string{"family"})

	// familiesSkippedTotal counts column families or cells which were never
	// decoded because the fetch hints did not need them.
	// Labels: family
	familiesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellgraph",
		Name:      "families_skipped_total",
		Help:      "Total column families and cells skipped because of fetch hints",
	}, []string{"family"})

	// codecErrorsTotal counts corrupt edge references.
	codecErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cellgraph",
		Name:      "codec_errors_total",
		Help:      "Total corrupt edge references found during resolution",
	})
)

/*
resultLabel returns the metric label of a resolution result.
*/
func resultLabel(es *ElementSnapshot, err error) string {
	switch {
	case err != nil:
		return ResultError
	case es == nil:
		return ResultNotFound
	case es.IsDeleted:
		return ResultDeleted
	}
	return ResultFound
}
