package pdml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Bookkeeping proto names tshark emits that never describe packet data.
// "geninfo" carries per-packet bookkeeping such as the capture timestamp,
// "fake-field-wrapper" wraps fields a dissector left outside any protocol
// (typically under whitelist filtering with -e).
const (
	genInfoProto     = "geninfo"
	fakeWrapperProto = "fake-field-wrapper"
)

// Fields whose name starts with this prefix are dissector diagnostics, not
// packet data, and are skipped.
const diagnosticPrefix = "_ws."

// protoContext is the decoder's notion of which kind of proto tag currently
// encloses incoming fields. The three special cases are kept as explicit
// states rather than sentinel name comparisons scattered through the
// decode loop.
type protoContext int

const (
	// ctxNone: no enclosing proto tag. Happens in whitelist-style reports
	// where fields sit directly under the packet tag.
	ctxNone protoContext = iota
	// ctxGenInfo: inside the general-information bookkeeping proto.
	ctxGenInfo
	// ctxFakeWrapper: inside the wrapper proto holding ungrouped fields.
	ctxFakeWrapper
	// ctxProto: inside an ordinary protocol that owns the topmost layer.
	ctxProto
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithBlacklist registers field names to suppress. Suppressed fields never
// become metadata and never cause a layer to be created on their behalf.
func WithBlacklist(names ...string) Option {
	return func(d *Decoder) {
		for _, name := range names {
			d.blacklist[name] = struct{}{}
		}
	}
}

// Decoder turns a PDML byte stream into packets, one per Next call. It is
// not safe for concurrent use.
type Decoder struct {
	xd        *xml.Decoder
	blacklist map[string]struct{}
}

// NewDecoder builds a streaming decoder over r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		xd:        xml.NewDecoder(r),
		blacklist: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next decodes and returns the next packet from the report. It returns
// io.EOF once the report ends with no packet open, including when the
// closing pdml tag never arrives: a process dying mid-capture stops the
// stream wherever it happens to be. A packet truncated mid-way or malformed
// markup yields an error carrying the input byte offset.
func (d *Decoder) Next() (*Packet, error) {
	pkt := &Packet{}
	ctx := ctxNone
	inPacket := false

	for {
		tok, err := d.xd.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			// encoding/xml reports end-of-input inside an open element as
			// a syntax error. Between packets that is an end of stream
			// like any other.
			var syntax *xml.SyntaxError
			if !inPacket && errors.As(err, &syntax) && syntax.Msg == "unexpected EOF" {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("pdml: report syntax error at offset %d: %w", d.xd.InputOffset(), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "packet":
				inPacket = true
			case "proto":
				name, ok := attr(t, "name")
				if !ok {
					return nil, fmt.Errorf("%w: proto tag at offset %d", ErrNoName, d.xd.InputOffset())
				}
				switch name {
				case genInfoProto:
					ctx = ctxGenInfo
				case fakeWrapperProto:
					ctx = ctxFakeWrapper
				default:
					pkt.Push(name)
					ctx = ctxProto
				}
			case "field":
				// Fields nest inside other fields; depth does not change
				// which layer they attach to, so every field tag takes the
				// same path.
				if err := d.handleField(t, pkt, ctx); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "packet":
				return pkt, nil
			case "proto":
				ctx = ctxNone
			}
		}
	}
}

// handleField routes one field tag according to the current proto context.
func (d *Decoder) handleField(t xml.StartElement, pkt *Packet, ctx protoContext) error {
	if ctx == ctxGenInfo {
		return d.genInfoField(t, pkt)
	}

	name, ok := attr(t, "name")
	if !ok {
		return fmt.Errorf("%w: field tag at offset %d", ErrNoName, d.xd.InputOffset())
	}
	if name == "" || strings.HasPrefix(name, diagnosticPrefix) {
		return nil
	}
	if _, suppressed := d.blacklist[name]; suppressed {
		return nil
	}

	md, err := buildMetadata(t, name)
	if err != nil {
		return err
	}

	switch ctx {
	case ctxFakeWrapper:
		// Ungrouped fields belong to the protocol named by their prefix.
		// If the topmost layer is not that protocol, the owning layer was
		// elided (whitelist) and the field has nowhere to go.
		if last := pkt.lastLayer(); last != nil && last.name == protoPrefix(name) {
			last.AddMetadata(md)
		}
		return nil
	case ctxNone:
		pkt.pushIfNotExist(protoPrefix(name))
	}

	last := pkt.lastLayer()
	if last == nil {
		return fmt.Errorf("%w: field %s", ErrNoLayer, name)
	}
	last.AddMetadata(md)
	return nil
}

// genInfoField consumes a field under the general-information proto. Only
// the capture timestamp is kept; it lands on the packet, not in a layer.
func (d *Decoder) genInfoField(t xml.StartElement, pkt *Packet) error {
	name, ok := attr(t, "name")
	if !ok {
		return fmt.Errorf("%w: geninfo field at offset %d", ErrNoName, d.xd.InputOffset())
	}
	if name != "timestamp" {
		return nil
	}
	value, ok := attr(t, "value")
	if !ok {
		return fmt.Errorf("%w: timestamp field has no value attribute", ErrBadTimestamp)
	}
	micros, err := parseEpochMicros(value)
	if err != nil {
		return err
	}
	pkt.setTimestampMicros(micros)
	return nil
}

// buildMetadata extracts a metadata from a field tag's attributes, applying
// the show > value > showname selection order for the readable value.
func buildMetadata(t xml.StartElement, name string) (Metadata, error) {
	show, hasShow := attr(t, "show")
	rawValue, hasValue := attr(t, "value")
	showname, hasShowname := attr(t, "showname")

	var value string
	switch {
	case hasShow:
		value = show
	case hasValue:
		value = rawValue
	case hasShowname:
		value = showname
	default:
		return Metadata{}, fmt.Errorf("%w: %s", ErrNoValue, name)
	}

	md := Metadata{name: name, value: value}
	if hasShowname {
		md.display = showname
	}
	if hasValue && rawValue != value {
		md.rawValue, md.hasRaw = rawValue, true
	}
	// Numeric attributes are best effort: a malformed size or pos is
	// dropped, not fatal.
	if v, ok := attr(t, "size"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			md.size, md.hasSize = uint32(n), true
		}
	}
	if v, ok := attr(t, "pos"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			md.position, md.hasPosition = uint32(n), true
		}
	}
	return md, nil
}

// parseEpochMicros decodes "<seconds>.<nanoseconds>" into microseconds
// since the Unix epoch.
func parseEpochMicros(s string) (int64, error) {
	secStr, nsecStr, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	secs, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	nsecs, err := strconv.ParseInt(nsecStr, 10, 64)
	if err != nil || nsecs < 0 || nsecs > 999_999_999 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	if secs > math.MaxInt64/1_000_000 || secs < math.MinInt64/1_000_000 {
		return 0, fmt.Errorf("%w: %q out of range", ErrBadTimestamp, s)
	}
	return secs*1_000_000 + nsecs/1_000, nil
}

// protoPrefix returns the protocol part of a dotted field name: everything
// before the first dot, or the whole name when it has none.
func protoPrefix(name string) string {
	prefix, _, _ := strings.Cut(name, ".")
	return prefix
}

func attr(t xml.StartElement, name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
