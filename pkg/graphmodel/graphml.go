package graphmodel

import (
	"encoding/xml"
	"fmt"
	"io"
)

// GraphML key domains. A key declared for="all" applies to both.
const (
	keyForNode = "node"
	keyForEdge = "edge"
	keyForAll  = "all"
)

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
}

type graphmlGraph struct {
	Nodes []graphmlNode `xml:"node"`
	Edges []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// DecodeGraphML parses a GraphML document into a Model. Data keys are
// resolved through the document's key declarations; a data element whose
// key is undeclared keeps the raw key id as its attribute name.
func DecodeGraphML(r io.Reader) (*Model, error) {
	var doc graphmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("graphmodel: decoding graphml: %w", err)
	}

	nodeKeys := make(map[string]string)
	edgeKeys := make(map[string]string)
	for _, k := range doc.Keys {
		switch k.For {
		case keyForNode:
			nodeKeys[k.ID] = k.AttrName
		case keyForEdge:
			edgeKeys[k.ID] = k.AttrName
		case keyForAll, "":
			nodeKeys[k.ID] = k.AttrName
			edgeKeys[k.ID] = k.AttrName
		}
	}

	m := NewModel()
	for _, n := range doc.Graph.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("graphmodel: graphml node without id")
		}
		m.Nodes[NodeID(n.ID)] = dataAttributes(n.Data, nodeKeys)
	}

	for _, e := range doc.Graph.Edges {
		src, dst := NodeID(e.Source), NodeID(e.Target)
		if _, ok := m.Nodes[src]; !ok {
			return nil, fmt.Errorf("graphmodel: edge references unknown node %q", src)
		}
		if _, ok := m.Nodes[dst]; !ok {
			return nil, fmt.Errorf("graphmodel: edge references unknown node %q", dst)
		}
		m.Edges = append(m.Edges, Edge{
			Source:     src,
			Target:     dst,
			Attributes: dataAttributes(e.Data, edgeKeys),
		})
	}

	return m, nil
}

func dataAttributes(data []graphmlData, keys map[string]string) Attributes {
	attrs := make(Attributes, len(data))
	for _, d := range data {
		name, ok := keys[d.Key]
		if !ok {
			name = d.Key
		}
		attrs[name] = d.Value
	}
	return attrs
}
