package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchwire/watchwire/internal/record"
)

func TestEncode_Empty(t *testing.T) {
	assert.Empty(t, record.Encode(nil))
	assert.Empty(t, record.Encode([]record.Record{}))
}

func TestDecode_Empty(t *testing.T) {
	records, err := record.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = record.Decode([]byte{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEncode_SingleRecord(t *testing.T) {
	data := record.Encode([]record.Record{
		{ObservedAt: "t1", Category: "peugeot", Attribute: "red"},
	})
	assert.Equal(t, "t1:peugeot:red", string(data))
}

func TestEncode_MultipleRecords(t *testing.T) {
	data := record.Encode([]record.Record{
		{ObservedAt: "t1", Category: "peugeot", Attribute: "red"},
		{ObservedAt: "t2", Category: "renault", Attribute: "blue"},
	})
	assert.Equal(t, "t1:peugeot:red.t2:renault:blue", string(data))
}

func TestDecode_SplitsOnFieldDelimiter(t *testing.T) {
	// Fields longer than one character must survive the round trip -
	// decoding splits on the delimiter, it never indexes characters.
	records, err := record.Decode([]byte("20240101T120000Z:peugeot:red"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "20240101T120000Z", records[0].ObservedAt)
	assert.Equal(t, "peugeot", records[0].Category)
	assert.Equal(t, "red", records[0].Attribute)
}

func TestRoundTrip(t *testing.T) {
	in := []record.Record{
		{ObservedAt: "t1", Category: "peugeot", Attribute: "red"},
		{ObservedAt: "t2", Category: "renault", Attribute: "blue"},
		{ObservedAt: "", Category: "", Attribute: ""}, // empty fields are legal
		{ObservedAt: "t4", Category: "citroen", Attribute: "white"},
	}

	out, err := record.Decode(record.Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"no delimiter", "justonefield"},
		{"two fields", "t1:peugeot"},
		{"four fields", "t1:peugeot:red:extra"},
		{"good then bad piece", "t1:peugeot:red.t2:renault"},
		{"trailing record delimiter", "t1:peugeot:red."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := record.Decode([]byte(tc.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, record.ErrMalformedRecord)
		})
	}
}

func TestValidate(t *testing.T) {
	ok := record.Record{ObservedAt: "t1", Category: "peugeot", Attribute: "red"}
	assert.NoError(t, ok.Validate())

	withField := record.Record{ObservedAt: "t1", Category: "a:b", Attribute: "red"}
	assert.Error(t, withField.Validate())

	withRecord := record.Record{ObservedAt: "t1", Category: "peugeot", Attribute: "a.b"}
	assert.Error(t, withRecord.Validate())
}
