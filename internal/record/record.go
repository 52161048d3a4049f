// Package record defines the observation record and its wire codec.
//
// DESIGN: The wire format is deliberately tiny - records are colon-joined
// triples, streams are dot-joined records:
//
//	stream := "" | record ("." record)*
//	record := field ":" field ":" field
//
// Fields may contain neither delimiter, which makes encoding total and
// decoding a pure re-split. Decoding always splits on the field delimiter;
// it never indexes characters by position.
package record

import (
	"fmt"
	"strings"
)

// Wire delimiters. Fields must contain neither.
const (
	FieldDelim  = ":"
	RecordDelim = "."
)

// Record is a single monitored observation. Immutable after creation.
type Record struct {
	ObservedAt string // timestamp of the observation, as produced by the source
	Category   string // what kind of thing was observed, e.g. "peugeot"
	Attribute  string // observed property, e.g. "red"
}

// String renders the record in wire form.
func (r Record) String() string {
	return r.ObservedAt + FieldDelim + r.Category + FieldDelim + r.Attribute
}

// Validate reports whether the record satisfies the field invariant:
// no field may contain the field or record delimiter.
func (r Record) Validate() error {
	for _, f := range []string{r.ObservedAt, r.Category, r.Attribute} {
		if strings.ContainsAny(f, FieldDelim+RecordDelim) {
			return fmt.Errorf("field %q contains a reserved delimiter", f)
		}
	}
	return nil
}
