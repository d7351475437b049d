// Package pdml decodes Packet Details Markup Language reports, the XML
// rendering tshark emits with -Tpdml, into packets, layers and metadata.
// The decoder is streaming: it pulls one packet at a time from an io.Reader
// and never buffers the whole report.
package pdml

import "encoding/json"

// Metadata is one named value decoded from a field tag. It belongs to
// exactly one Layer and is immutable once built.
type Metadata struct {
	name        string
	value       string
	rawValue    string
	display     string
	size        uint32
	position    uint32
	hasRaw      bool
	hasSize     bool
	hasPosition bool
}

// MetadataOption configures optional attributes on a Metadata built with
// NewMetadata. The decoder fills these from the report; the constructor
// exists for callers assembling packets by hand (tests, fixtures).
type MetadataOption func(*Metadata)

// WithDisplay sets the combined name+value label (the showname attribute).
func WithDisplay(display string) MetadataOption {
	return func(m *Metadata) { m.display = display }
}

// WithRawValue sets the machine value when it differs from the readable one.
func WithRawValue(raw string) MetadataOption {
	return func(m *Metadata) { m.rawValue, m.hasRaw = raw, true }
}

// WithSize sets the byte length of the field in the packet.
func WithSize(size uint32) MetadataOption {
	return func(m *Metadata) { m.size, m.hasSize = size, true }
}

// WithPosition sets the byte offset of the field in the packet.
func WithPosition(pos uint32) MetadataOption {
	return func(m *Metadata) { m.position, m.hasPosition = pos, true }
}

// NewMetadata builds a metadata from a field name and its readable value.
func NewMetadata(name, value string, opts ...MetadataOption) Metadata {
	m := Metadata{name: name, value: value}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Name returns the dotted field identifier, e.g. "ip.src".
func (m Metadata) Name() string { return m.name }

// Value returns the best human readable value for this field. The report may
// carry the value under several attributes; selection order is show, then
// value, then showname.
func (m Metadata) Value() string { return m.value }

// RawValue returns the machine value of the field. When the report carried
// no distinct machine value it equals Value.
func (m Metadata) RawValue() string {
	if m.hasRaw {
		return m.rawValue
	}
	return m.value
}

// Display returns the combined name+value label, or "" when the report had
// none.
func (m Metadata) Display() string { return m.display }

// Size returns the byte length of the field, when known.
func (m Metadata) Size() (uint32, bool) { return m.size, m.hasSize }

// Position returns the byte offset of the field in the packet, when known.
func (m Metadata) Position() (uint32, bool) { return m.position, m.hasPosition }

// MarshalJSON renders the metadata with its optional attributes omitted
// when absent.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := struct {
		Name     string  `json:"name"`
		Value    string  `json:"value"`
		RawValue string  `json:"raw_value,omitempty"`
		Display  string  `json:"display,omitempty"`
		Size     *uint32 `json:"size,omitempty"`
		Position *uint32 `json:"position,omitempty"`
	}{
		Name:     m.name,
		Value:    m.value,
		RawValue: m.rawValue,
		Display:  m.display,
	}
	if m.hasSize {
		out.Size = &m.size
	}
	if m.hasPosition {
		out.Position = &m.position
	}
	return json.Marshal(out)
}
