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
	"io"
	"sort"

	"devt.de/krotik/cellgraph/edgeinfo"
	"devt.de/krotik/cellgraph/graph/util"
	"devt.de/krotik/cellgraph/mutation"
	"devt.de/krotik/cellgraph/resolve"
	"gopkg.in/yaml.v3"
)

/*
importDocument is a YAML mutation log.
*/
type importDocument struct {
	Elements []importElement `yaml:"elements"`
}

/*
importElement holds the mutations of one element.
*/
type importElement struct {
	ID        string           `yaml:"id"`
	Mutations []importMutation `yaml:"mutations"`
}

/*
importMetadata is a single property metadata entry.
*/
type importMetadata struct {
	Key        string      `yaml:"key"`
	Visibility string      `yaml:"visibility"`
	Value      interface{} `yaml:"value"`
}

/*
importMutation holds the fields of all mutation variants. The kind selects
which fields are used.
*/
type importMutation struct {
	Kind       string `yaml:"kind"`
	Timestamp  int64  `yaml:"timestamp"`
	Visibility string `yaml:"visibility"`

	Key                string           `yaml:"key"`
	Name               string           `yaml:"name"`
	PropertyVisibility string           `yaml:"propertyVisibility"`
	Value              interface{}      `yaml:"value"`
	Metadata           []importMetadata `yaml:"metadata"`

	HiddenVisibility     string `yaml:"hiddenVisibility"`
	NewVisibility        string `yaml:"newVisibility"`
	AdditionalVisibility string `yaml:"additionalVisibility"`

	OutVertex   string `yaml:"outVertex"`
	InVertex    string `yaml:"inVertex"`
	Label       string `yaml:"label"`
	EdgeID      string `yaml:"edgeId"`
	Direction   string `yaml:"direction"`
	OtherVertex string `yaml:"otherVertex"`
}

/*
ImportMutations reads a YAML mutation log and adds all mutations to a given
transaction. A reader may contain several YAML documents. Returns the ids of
all imported elements in the order of their first appearance. The
transaction is not committed. Property values are converted with the
MsgpackValueCodec if no codec is given.
*/
func ImportMutations(r io.Reader, trans Trans, codec ValueCodec) ([]string, error) {
	var ids []string

	if codec == nil {
		codec = &MsgpackValueCodec{}
	}

	seen := make(map[string]bool)
	dec := yaml.NewDecoder(r)

	for {
		var doc importDocument

		if err := dec.Decode(&doc); err == io.EOF {
			break
		} else if err != nil {
			return ids, util.NewGraphError(util.ErrImport, err)
		}

		for _, e := range doc.Elements {
			muts := make([]mutation.Mutation, 0, len(e.Mutations))

			for i, im := range e.Mutations {
				m, err := im.toMutation(codec)
				if err != nil {
					return ids, &util.GraphError{Type: util.ErrImport,
						Detail: fmt.Sprintf("Element %v mutation %v: %v", e.ID, i+1, err), Cause: err}
				}
				muts = append(muts, m)
			}

			if err := trans.AddMutations(e.ID, muts...); err != nil {
				return ids, err
			}

			if !seen[e.ID] {
				seen[e.ID] = true
				ids = append(ids, e.ID)
			}
		}
	}

	return ids, nil
}

/*
toMutation converts an imported mutation.
*/
func (im *importMutation) toMutation(codec ValueCodec) (mutation.Mutation, error) {
	kind, ok := mutation.KindByName(im.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown mutation kind %q", im.Kind)
	}

	h := mutation.Header{Timestamp: im.Timestamp, Visibility: im.Visibility}

	switch kind {
	case mutation.KindAddPropertyValue:
		val, err := codec.Encode(im.Value)
		if err != nil {
			return nil, err
		}

		m := &mutation.AddPropertyValue{Header: h, Key: im.Key, Name: im.Name, Value: val}

		for _, md := range im.Metadata {
			me, err := md.toEntry(codec)
			if err != nil {
				return nil, err
			}
			m.Metadata = append(m.Metadata, me)
		}

		return m, nil

	case mutation.KindAddPropertyMetadataEntry:
		if len(im.Metadata) != 1 {
			return nil, fmt.Errorf("expected exactly one metadata entry but got %v", len(im.Metadata))
		}

		me, err := im.Metadata[0].toEntry(codec)
		if err != nil {
			return nil, err
		}

		return &mutation.AddPropertyMetadataEntry{Header: h, Key: im.Key, Name: im.Name,
			PropertyVisibility: im.PropertyVisibility, Metadata: me}, nil

	case mutation.KindSoftDeleteProperty:
		return &mutation.SoftDeleteProperty{Header: h, Key: im.Key, Name: im.Name,
			PropertyVisibility: im.PropertyVisibility}, nil

	case mutation.KindMarkPropertyHidden:
		return &mutation.MarkPropertyHidden{Header: h, Key: im.Key, Name: im.Name,
			PropertyVisibility: im.PropertyVisibility, HiddenVisibility: im.HiddenVisibility}, nil

	case mutation.KindMarkPropertyVisible:
		return &mutation.MarkPropertyVisible{Header: h, Key: im.Key, Name: im.Name,
			PropertyVisibility: im.PropertyVisibility, HiddenVisibility: im.HiddenVisibility}, nil

	case mutation.KindAlterElementVisibility:
		return &mutation.AlterElementVisibility{Header: h, NewVisibility: im.NewVisibility}, nil

	case mutation.KindAddAdditionalVisibility:
		return &mutation.AddAdditionalVisibility{Header: h, AdditionalVisibility: im.AdditionalVisibility}, nil

	case mutation.KindDeleteAdditionalVisibility:
		return &mutation.DeleteAdditionalVisibility{Header: h, AdditionalVisibility: im.AdditionalVisibility}, nil

	case mutation.KindEdgeSetup:
		return &mutation.EdgeSetup{Header: h, OutVertexID: im.OutVertex, InVertexID: im.InVertex,
			Label: im.Label}, nil

	case mutation.KindAlterEdgeLabel:
		return &mutation.AlterEdgeLabel{Header: h, NewLabel: im.Label}, nil

	case mutation.KindSoftDeleteElement:
		return &mutation.SoftDeleteElement{Header: h}, nil

	case mutation.KindMarkElementHidden:
		return &mutation.MarkElementHidden{Header: h, HiddenVisibility: im.HiddenVisibility}, nil

	case mutation.KindMarkElementVisible:
		return &mutation.MarkElementVisible{Header: h, HiddenVisibility: im.HiddenVisibility}, nil

	case mutation.KindElementTimestampTouch:
		return &mutation.ElementTimestampTouch{Header: h}, nil
	}

	dir, err := parseDirection(im.Direction)
	if err != nil {
		return nil, err
	}

	if kind == mutation.KindAddEdgeRef {
		return &mutation.AddEdgeRef{Header: h, EdgeID: im.EdgeID, Direction: dir, Label: im.Label,
			OtherVertex: im.OtherVertex}, nil
	}

	return &mutation.SoftDeleteEdgeRef{Header: h, EdgeID: im.EdgeID, Direction: dir}, nil
}

/*
toEntry converts an imported metadata entry.
*/
func (md *importMetadata) toEntry(codec ValueCodec) (mutation.MetadataEntry, error) {
	val, err := codec.Encode(md.Value)
	return mutation.MetadataEntry{Key: md.Key, Visibility: md.Visibility, Value: val}, err
}

/*
parseDirection parses the direction of an edge reference.
*/
func parseDirection(s string) (mutation.Direction, error) {
	switch s {
	case mutation.DirectionOut.String():
		return mutation.DirectionOut, nil
	case mutation.DirectionIn.String():
		return mutation.DirectionIn, nil
	}
	return 0, fmt.Errorf("unknown edge direction %q", s)
}

/*
ExportSnapshot converts a resolved element into a plain map which can be
serialized to JSON. Property values are decoded with a given codec; values
which the codec cannot decode are exported with their type tag and raw bytes.
*/
func ExportSnapshot(es *resolve.ElementSnapshot, codec ValueCodec) map[string]interface{} {
	ret := map[string]interface{}{
		"id":         es.ID,
		"visibility": es.Visibility,
	}

	if es.IsDeleted {
		ret["deleted"] = true
	}

	if es.IsEdge() {
		ret["label"] = es.EdgeLabel
		ret["outVertex"] = es.OutVertexID
		ret["inVertex"] = es.InVertexID
	}

	if len(es.AdditionalVisibilities) > 0 {
		ret["additionalVisibilities"] = es.AdditionalVisibilities
	}

	if len(es.HiddenVisibilities) > 0 {
		ret["hiddenVisibilities"] = es.HiddenVisibilities
	}

	if es.Properties != nil {
		props := make([]interface{}, 0, len(es.Properties))

		for _, p := range es.Properties {
			prop := map[string]interface{}{
				"key":        p.Key,
				"name":       p.Name,
				"visibility": p.Visibility,
				"value":      exportValue(p.Value, codec),
			}

			if p.Metadata != nil {
				md := make([]interface{}, 0, len(p.Metadata))
				for _, m := range p.Metadata {
					md = append(md, map[string]interface{}{
						"key":        m.Key,
						"visibility": m.Visibility,
						"value":      exportValue(m.Value, codec),
					})
				}
				prop["metadata"] = md
			}

			if len(p.HiddenVisibilities) > 0 {
				prop["hiddenVisibilities"] = p.HiddenVisibilities
			}

			props = append(props, prop)
		}

		ret["properties"] = props
	}

	exportEdges := func(name string, edges map[string]edgeinfo.EdgeInfo) {
		if edges == nil {
			return
		}

		ids := make([]string, 0, len(edges))
		for id := range edges {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		list := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			ei := edges[id]
			list = append(list, map[string]interface{}{
				"id":        id,
				"label":     ei.Label,
				"vertex":    ei.VertexID,
				"timestamp": ei.Timestamp,
			})
		}

		ret[name] = list
	}

	exportEdges("outEdges", es.OutEdges)
	exportEdges("inEdges", es.InEdges)

	if es.OutEdgeLabelCounts != nil {
		ret["outEdgeLabelCounts"] = es.OutEdgeLabelCounts
	}

	if es.InEdgeLabelCounts != nil {
		ret["inEdgeLabelCounts"] = es.InEdgeLabelCounts
	}

	return ret
}

/*
exportValue decodes a property value for export.
*/
func exportValue(v mutation.Value, codec ValueCodec) interface{} {
	if codec != nil {
		if res, err := codec.Decode(v); err == nil {
			return res
		}
	}

	return map[string]interface{}{
		"type": v.Type,
		"data": v.Data,
	}
}
