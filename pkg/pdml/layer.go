package pdml

import "encoding/json"

// Layer is one protocol occurrence in a packet's layer stack, e.g. one "ip"
// header. Tunnelled traffic repeats protocol names; each occurrence is a
// distinct layer with its own index.
type Layer struct {
	name     string
	index    int
	metadata []Metadata
}

// NewLayer builds an empty layer with the given protocol name and stack
// index. The decoder creates layers itself; this constructor exists for
// callers assembling packets by hand.
func NewLayer(name string, index int) Layer {
	return Layer{name: name, index: index}
}

// Name returns the protocol identifier of this layer, e.g. "ip".
func (l *Layer) Name() string { return l.name }

// Index returns the 0-based position of this layer in the packet's stack.
// Layer 0 is the outermost framing layer.
func (l *Layer) Index() int { return l.index }

// AddMetadata appends a metadata, preserving report order.
func (l *Layer) AddMetadata(m Metadata) {
	l.metadata = append(l.metadata, m)
}

// Metadata returns the first metadata with the given name.
func (l *Layer) Metadata(name string) (Metadata, bool) {
	for _, m := range l.metadata {
		if m.name == name {
			return m, true
		}
	}
	return Metadata{}, false
}

// AllMetadata returns the layer's metadata in report order. The returned
// slice is the layer's backing storage and must not be modified.
func (l *Layer) AllMetadata() []Metadata { return l.metadata }

// NumMetadata returns the number of metadata in this layer.
func (l *Layer) NumMetadata() int { return len(l.metadata) }

// MarshalJSON renders the layer with its metadata in report order.
func (l Layer) MarshalJSON() ([]byte, error) {
	out := struct {
		Name     string     `json:"name"`
		Index    int        `json:"index"`
		Metadata []Metadata `json:"metadata"`
	}{
		Name:     l.name,
		Index:    l.index,
		Metadata: l.metadata,
	}
	return json.Marshal(out)
}
