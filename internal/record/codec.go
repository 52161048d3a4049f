package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord is returned by Decode when a record piece does not
// split into exactly three fields on the field delimiter.
var ErrMalformedRecord = errors.New("malformed record")

// fieldCount is fixed by the wire grammar: observedAt, category, attribute.
const fieldCount = 3

// Encode serializes records to their wire form. The empty slice encodes
// to empty bytes. Encoding is total for records satisfying Validate().
func Encode(records []Record) []byte {
	if len(records) == 0 {
		return []byte{}
	}

	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString(RecordDelim)
		}
		b.WriteString(r.String())
	}
	return []byte(b.String())
}

// Decode parses a complete wire stream back into records. Empty input
// yields an empty slice. Each dot-separated piece must split into exactly
// three colon-separated fields; anything else is ErrMalformedRecord.
func Decode(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return []Record{}, nil
	}

	pieces := strings.Split(string(data), RecordDelim)
	records := make([]Record, 0, len(pieces))
	for _, piece := range pieces {
		fields := strings.Split(piece, FieldDelim)
		if len(fields) != fieldCount {
			return nil, fmt.Errorf("%w: %q has %d fields, want %d",
				ErrMalformedRecord, piece, len(fields), fieldCount)
		}
		records = append(records, Record{
			ObservedAt: fields[0],
			Category:   fields[1],
			Attribute:  fields[2],
		})
	}
	return records, nil
}
