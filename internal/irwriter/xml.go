package irwriter

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/specialistvlad/modelopt/internal/graph"
)

type xmlNet struct {
	XMLName    xml.Name     `xml:"net"`
	Name       string       `xml:"name,attr"`
	Version    int          `xml:"version,attr"`
	Layers     []xmlLayer   `xml:"layers>layer"`
	Edges      []xmlEdge    `xml:"edges>edge"`
	PreProcess []xmlPreProc `xml:"pre-process,omitempty"`
	Meta       *xmlMetaData `xml:"meta_data,omitempty"`
}

type xmlLayer struct {
	ID        int           `xml:"id,attr"`
	Name      string        `xml:"name,attr"`
	Type      string        `xml:"type,attr"`
	Version   string        `xml:"version,attr,omitempty"`
	Precision string        `xml:"precision,attr,omitempty"`
	Data      *xmlAttrs     `xml:"data,omitempty"`
	Input     *xmlPorts     `xml:"input,omitempty"`
	Output    *xmlPorts     `xml:"output,omitempty"`
	Blobs     *xmlBlobs     `xml:"blobs,omitempty"`
	PortMap   *xmlPortMap   `xml:"port_map,omitempty"`
	BackEdges *xmlBackEdges `xml:"back_edges,omitempty"`
	Body      *xmlBody      `xml:"body,omitempty"`
}

// xmlAttrs renders an element whose attributes are not known up front.
type xmlAttrs struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

type xmlPorts struct {
	Ports []xmlPort `xml:"port"`
}

type xmlPort struct {
	ID        int     `xml:"id,attr"`
	Precision string  `xml:"precision,attr,omitempty"`
	Dims      []int64 `xml:"dim"`
}

type xmlBlobs struct {
	Custom xmlBlob `xml:"custom"`
}

type xmlBlob struct {
	Offset    int64  `xml:"offset,attr"`
	Size      int64  `xml:"size,attr"`
	Precision string `xml:"precision,attr"`
}

type xmlEdge struct {
	FromLayer int `xml:"from-layer,attr"`
	FromPort  int `xml:"from-port,attr"`
	ToLayer   int `xml:"to-layer,attr"`
	ToPort    int `xml:"to-port,attr"`
}

type xmlPortMap struct {
	Inputs  []xmlPortMapEntry `xml:"input"`
	Outputs []xmlPortMapEntry `xml:"output"`
}

type xmlPortMapEntry struct {
	ExternalPort  int  `xml:"external_port_id,attr"`
	InternalLayer int  `xml:"internal_layer_id,attr"`
	InternalPort  int  `xml:"internal_port_id,attr"`
	Axis          *int `xml:"axis,attr,omitempty"`
}

type xmlBackEdges struct {
	Edges []xmlEdge `xml:"edge"`
}

type xmlBody struct {
	Layers []xmlLayer `xml:"layers>layer"`
	Edges  []xmlEdge  `xml:"edges>edge"`
}

type xmlPreProc struct {
	ReferenceLayer string       `xml:"reference-layer-name,attr"`
	MeanPrecision  string       `xml:"mean-precision,attr,omitempty"`
	Channels       []xmlChannel `xml:"channel"`
}

type xmlChannel struct {
	ID    int       `xml:"id,attr"`
	Mean  *xmlValue `xml:"mean,omitempty"`
	Scale *xmlValue `xml:"scale,omitempty"`
}

type xmlValue struct {
	Value string `xml:"value,attr"`
}

type xmlMetaData struct {
	MOVersion xmlValue `xml:"MO_version"`
	RunID     xmlValue `xml:"run_id"`
	CLI       xmlCLI   `xml:"cli_parameters"`
}

type xmlCLI struct {
	Entries []xmlAttrs `xml:",any"`
}

// builder lays out one graph level. Bodies get their own builder sharing
// the weights.
type builder struct {
	irVersion int
	dataType  string
	weights   *Weights
}

// v7 spells a few operation types differently.
var v7Types = map[string]string{
	graph.OpParameter: "Input",
}

func (b *builder) layerType(op string) string {
	if b.irVersion < 10 {
		if t, ok := v7Types[op]; ok {
			return t
		}
	}
	return op
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinDims(dims []int64) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return strings.Join(parts, ",")
}

// portCounts returns how many input and output ports n exposes.
func portCounts(g *graph.Graph, n *graph.Node) (inputs, outputs int) {
	for _, e := range g.InEdges(n.ID) {
		inputs = max(inputs, e.ToPort+1)
	}
	if n.Op == graph.OpResult {
		return inputs, 0
	}
	outputs = 1
	for _, e := range g.OutEdges(n.ID) {
		outputs = max(outputs, e.FromPort+1)
	}
	return inputs, outputs
}

// build converts g into layers and edges. Layer ids follow topological
// order. Output ports are numbered after the input ports of their layer.
func (b *builder) build(g *graph.Graph) ([]xmlLayer, []xmlEdge, map[string]int, error) {
	nodes, err := g.TopologicalSort()
	if err != nil {
		return nil, nil, nil, err
	}
	ids := make(map[string]int, len(nodes))
	for i, n := range nodes {
		ids[n.ID] = i
	}

	layers := make([]xmlLayer, 0, len(nodes))
	for _, n := range nodes {
		l, err := b.layer(g, n, ids[n.ID])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("layer %s: %w", n.ID, err)
		}
		layers = append(layers, l)
	}

	var edges []xmlEdge
	for _, e := range g.Edges() {
		if e.Dangling() {
			return nil, nil, nil, fmt.Errorf("edge into %s has no source; constants must be materialized before writing", e.To)
		}
		from, _ := g.Node(e.From)
		fromInputs, _ := portCounts(g, from)
		edges = append(edges, xmlEdge{
			FromLayer: ids[e.From],
			FromPort:  fromInputs + e.FromPort,
			ToLayer:   ids[e.To],
			ToPort:    e.ToPort,
		})
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].ToLayer != edges[j].ToLayer {
			return edges[i].ToLayer < edges[j].ToLayer
		}
		return edges[i].ToPort < edges[j].ToPort
	})
	return layers, edges, ids, nil
}

func (b *builder) layer(g *graph.Graph, n *graph.Node, id int) (xmlLayer, error) {
	l := xmlLayer{ID: id, Name: n.Name, Type: b.layerType(n.Op)}
	precision := precisionOf(n.DataType, b.dataType)
	if b.irVersion >= 10 {
		l.Version = "opset1"
	} else {
		l.Precision = precision
	}

	var attrs []xml.Attr
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: k}, Value: n.Attrs[k]})
	}

	switch n.Op {
	case graph.OpParameter:
		if b.irVersion >= 10 {
			attrs = append(attrs,
				xml.Attr{Name: xml.Name{Local: "element_type"}, Value: elementTypes[precision]},
				xml.Attr{Name: xml.Name{Local: "shape"}, Value: joinDims(n.Shape)},
			)
		}
	case graph.OpConst:
		if n.Value == nil {
			return l, fmt.Errorf("constant has no value")
		}
		cp := precisionOf(n.Value.DataType, b.dataType)
		data, err := encodeTensor(n.Value, cp)
		if err != nil {
			return l, err
		}
		offset, size := b.weights.Add(data)
		if b.irVersion >= 10 {
			attrs = append(attrs,
				xml.Attr{Name: xml.Name{Local: "element_type"}, Value: elementTypes[cp]},
				xml.Attr{Name: xml.Name{Local: "shape"}, Value: joinDims(n.Value.Shape)},
				xml.Attr{Name: xml.Name{Local: "offset"}, Value: strconv.FormatInt(offset, 10)},
				xml.Attr{Name: xml.Name{Local: "size"}, Value: strconv.FormatInt(size, 10)},
			)
		} else {
			l.Blobs = &xmlBlobs{Custom: xmlBlob{Offset: offset, Size: size, Precision: cp}}
		}
		precision = cp
	}
	if len(attrs) > 0 {
		l.Data = &xmlAttrs{Attrs: attrs}
	}

	inputs, outputs := portCounts(g, n)
	if inputs > 0 {
		ports := make([]xmlPort, inputs)
		for i := range ports {
			ports[i].ID = i
		}
		for _, e := range g.InEdges(n.ID) {
			if src, ok := g.Node(e.From); ok {
				ports[e.ToPort].Dims = src.Shape
			} else if e.Value != nil {
				ports[e.ToPort].Dims = e.Value.Shape
			}
		}
		l.Input = &xmlPorts{Ports: ports}
	}
	if outputs > 0 {
		ports := make([]xmlPort, outputs)
		for i := range ports {
			ports[i] = xmlPort{ID: inputs + i, Dims: n.Shape}
			if b.irVersion >= 10 {
				ports[i].Precision = precision
			}
		}
		l.Output = &xmlPorts{Ports: ports}
	}

	if n.Body != nil {
		if err := b.body(n, inputs, &l); err != nil {
			return l, err
		}
	}
	return l, nil
}

// body writes a TensorIterator's port map, back edges and nested network.
func (b *builder) body(n *graph.Node, inputs int, l *xmlLayer) error {
	layers, edges, ids, err := b.build(n.Body)
	if err != nil {
		return err
	}
	l.Body = &xmlBody{Layers: layers, Edges: edges}

	pm := &xmlPortMap{}
	for _, m := range n.PortMap {
		entry := xmlPortMapEntry{
			ExternalPort:  m.ExternalPort,
			InternalLayer: ids[m.InternalLayer],
			InternalPort:  m.InternalPort,
			Axis:          m.Axis,
		}
		if m.Output {
			entry.ExternalPort += inputs
			pm.Outputs = append(pm.Outputs, entry)
			continue
		}
		pm.Inputs = append(pm.Inputs, entry)
	}
	l.PortMap = pm

	if len(n.BackEdges) > 0 {
		be := &xmlBackEdges{}
		for _, e := range n.BackEdges {
			be.Edges = append(be.Edges, xmlEdge{
				FromLayer: ids[e.FromLayer],
				FromPort:  e.FromPort,
				ToLayer:   ids[e.ToLayer],
				ToPort:    e.ToPort,
			})
		}
		l.BackEdges = be
	}
	return nil
}

// preProcess renders mean and scale values per channel. A single scale
// value applies to every channel.
func preProcess(data []graph.MeanData, precision string) []xmlPreProc {
	var out []xmlPreProc
	for _, md := range data {
		channels := max(len(md.Mean), len(md.Scale))
		pp := xmlPreProc{ReferenceLayer: md.Input, MeanPrecision: precision}
		for c := 0; c < channels; c++ {
			ch := xmlChannel{ID: c}
			if c < len(md.Mean) {
				ch.Mean = &xmlValue{Value: formatFloat(md.Mean[c])}
			}
			switch {
			case c < len(md.Scale):
				ch.Scale = &xmlValue{Value: formatFloat(md.Scale[c])}
			case len(md.Scale) == 1:
				ch.Scale = &xmlValue{Value: formatFloat(md.Scale[0])}
			}
			pp.Channels = append(pp.Channels, ch)
		}
		out = append(out, pp)
	}
	return out
}
