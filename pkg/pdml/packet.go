package pdml

import "encoding/json"

// Packet is one decoded network packet: an ordered stack of layers plus an
// optional capture timestamp. Once yielded by the decoder a packet is owned
// by the caller; the decoder keeps no reference to it.
type Packet struct {
	layers          []Layer
	timestampMicros int64
	hasTimestamp    bool
}

// TimestampMicros returns the capture time as microseconds since the Unix
// epoch, UTC. The second result is false when the report carried no
// general-information timestamp.
func (p *Packet) TimestampMicros() (int64, bool) {
	return p.timestampMicros, p.hasTimestamp
}

// Push appends a new empty layer with the given protocol name at the top of
// the stack. The decoder builds packets itself; Push exists for callers
// assembling packets by hand.
func (p *Packet) Push(name string) {
	p.layers = append(p.layers, Layer{name: name, index: len(p.layers)})
}

// pushIfNotExist pushes a layer unless the topmost layer already carries
// that exact name. Used when synthesizing layers from field-name prefixes in
// whitelist-style reports.
func (p *Packet) pushIfNotExist(name string) {
	if last := p.lastLayer(); last != nil && last.name == name {
		return
	}
	p.Push(name)
}

// lastLayer returns the most recently created layer, or nil for an empty
// packet. Incoming metadata always attaches here.
func (p *Packet) lastLayer() *Layer {
	if len(p.layers) == 0 {
		return nil
	}
	return &p.layers[len(p.layers)-1]
}

func (p *Packet) setTimestampMicros(micros int64) {
	p.timestampMicros = micros
	p.hasTimestamp = true
}

// LayerAt returns the layer at the given stack index, or nil when out of
// range.
func (p *Packet) LayerAt(index int) *Layer {
	if index < 0 || index >= len(p.layers) {
		return nil
	}
	return &p.layers[index]
}

// Layer returns the layer with the given protocol name. When the name
// repeats (tunnelling) the occurrence with the lowest index wins.
func (p *Packet) Layer(name string) *Layer {
	for i := range p.layers {
		if p.layers[i].name == name {
			return &p.layers[i]
		}
	}
	return nil
}

// Layers returns the layer stack in report order. The returned slice is the
// packet's backing storage and must not be modified.
func (p *Packet) Layers() []Layer { return p.layers }

// NumLayers returns the number of layers in this packet.
func (p *Packet) NumLayers() int { return len(p.layers) }

// MarshalJSON renders the packet with its layer stack and, when present, the
// capture timestamp in microseconds since epoch.
func (p *Packet) MarshalJSON() ([]byte, error) {
	out := struct {
		TimestampMicros *int64  `json:"timestamp_micros,omitempty"`
		Layers          []Layer `json:"layers"`
	}{
		Layers: p.layers,
	}
	if p.hasTimestamp {
		out.TimestampMicros = &p.timestampMicros
	}
	return json.Marshal(out)
}
