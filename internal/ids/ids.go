// Package ids generates OTLP trace and span identifiers.
package ids

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	"go.opentelemetry.io/collector/pdata/pcommon"
)

// Generator produces random, non-zero trace and span IDs. The IDs label
// test traffic and are not security sensitive, so a seeded math/rand
// source is used. Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator reading from src.
func New(src rand.Source) *Generator {
	return &Generator{
		rng: rand.New(src),
	}
}

// NewSeeded creates a Generator whose sequence is fully determined by seed.
func NewSeeded(seed int64) *Generator {
	return New(rand.NewSource(seed))
}

// NewRandom creates a Generator seeded once from crypto/rand.
func NewRandom() *Generator {
	var seed int64
	_ = binary.Read(crand.Reader, binary.LittleEndian, &seed)
	return NewSeeded(seed)
}

// NewTraceID returns a 16 byte trace ID that is never all zeros.
func (g *Generator) NewTraceID() pcommon.TraceID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var id pcommon.TraceID
	for {
		_, _ = g.rng.Read(id[:])
		if !id.IsEmpty() {
			return id
		}
	}
}

// NewSpanID returns an 8 byte span ID that is never all zeros.
func (g *Generator) NewSpanID() pcommon.SpanID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var id pcommon.SpanID
	for {
		_, _ = g.rng.Read(id[:])
		if !id.IsEmpty() {
			return id
		}
	}
}

// Int63n returns a non-negative pseudo-random number in [0,n) from the
// same source as the identifiers, so a seeded generator also makes
// sample values reproducible.
func (g *Generator) Int63n(n int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Int63n(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}
