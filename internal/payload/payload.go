// Package payload builds OTLP export requests from telemetry records.
//
// Builders are pure: they validate their input, assemble the
// resource/scope/record nesting OTLP requires and encode it either as
// OTLP/JSON (int64 fields as strings, enums as integers, hex encoded IDs)
// or as protobuf. Invalid input is rejected with a *ConstructionError.
package payload

import (
	"fmt"
	"strings"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

// Encoding selects the wire format of an Envelope body.
type Encoding string

const (
	EncodingJSON  Encoding = "json"
	EncodingProto Encoding = "proto"
)

// ParseEncoding parses s into an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case EncodingJSON, "":
		return EncodingJSON, nil
	case EncodingProto, "protobuf":
		return EncodingProto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

// ContentType returns the HTTP Content-Type for the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingProto {
		return "application/x-protobuf"
	}
	return "application/json"
}

// Envelope is an encoded export request ready to be POSTed.
type Envelope struct {
	Signal      telemetry.Signal
	ContentType string
	Body        []byte
	// Items is the number of spans, data points or log records encoded.
	Items int
	// Identifier is the trace ID (hex) for trace payloads and empty otherwise.
	Identifier string
}

// Builder encodes telemetry records into Envelopes.
type Builder struct {
	encoding Encoding
}

// NewBuilder creates a Builder producing bodies in the given encoding.
func NewBuilder(enc Encoding) *Builder {
	if enc == "" {
		enc = EncodingJSON
	}
	return &Builder{encoding: enc}
}

// Encoding returns the builder's wire format.
func (b *Builder) Encoding() Encoding {
	return b.encoding
}

func (b *Builder) envelope(signal telemetry.Signal, body []byte, items int, id string) Envelope {
	return Envelope{
		Signal:      signal,
		ContentType: b.encoding.ContentType(),
		Body:        body,
		Items:       items,
		Identifier:  id,
	}
}
