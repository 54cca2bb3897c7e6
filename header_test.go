package recordio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendTestUint(b []byte, v uint64) []byte {
	b = append(b, byte(TypeUint))
	return binary.AppendUvarint(b, v)
}

func appendTestString(b []byte, s string) []byte {
	b = append(b, byte(TypeString))
	b = appendTestUint(b, uint64(len(s)))
	return append(b, s...)
}

func TestDecodeHeader(t *testing.T) {
	payload := appendTestUint(nil, 3)
	payload = appendTestString(payload, "alpha")
	payload = append(payload, byte(TypeBool), 1)
	payload = appendTestString(payload, "beta")
	payload = append(payload, byte(TypeInt))
	payload = binary.AppendUvarint(payload, uint64(int64(-7)<<1)^uint64(int64(-7)>>63))
	payload = appendTestString(payload, "gamma")
	payload = appendTestString(payload, "value")

	var rep errorReporter
	entries := decodeHeader(payload, &rep)
	require.NoError(t, rep.Err())
	require.Equal(t, []HeaderEntry{
		{Key: "alpha", Value: HeaderValue{Type: TypeBool, Bool: true}},
		{Key: "beta", Value: HeaderValue{Type: TypeInt, Int: -7}},
		{Key: "gamma", Value: HeaderValue{Type: TypeString, String: "value"}},
	}, entries)
}

func TestDecodeHeaderBadCount(t *testing.T) {
	// The entry count must be a Uint-typed value.
	payload := appendTestString(nil, "not a count")
	var rep errorReporter
	decodeHeader(payload, &rep)
	assert.ErrorIs(t, rep.Err(), ErrHeaderValueType)
}

func TestDecodeHeaderBadKey(t *testing.T) {
	payload := appendTestUint(nil, 1)
	payload = append(payload, byte(TypeBool), 1) // a key must be a string
	var rep errorReporter
	decodeHeader(payload, &rep)
	assert.ErrorIs(t, rep.Err(), ErrHeaderValueType)
}

func TestDecodeHeaderUnknownType(t *testing.T) {
	payload := appendTestUint(nil, 1)
	payload = appendTestString(payload, "key")
	payload = append(payload, 0x7f)
	var rep errorReporter
	decodeHeader(payload, &rep)
	assert.ErrorIs(t, rep.Err(), ErrHeaderValueType)
}

func TestDecodeHeaderTruncated(t *testing.T) {
	payload := appendTestUint(nil, 2)
	payload = appendTestString(payload, "only")
	payload = append(payload, byte(TypeBool), 1)
	// Second entry missing.
	var rep errorReporter
	entries := decodeHeader(payload, &rep)
	assert.Error(t, rep.Err())
	assert.Len(t, entries, 1)
}

func TestHasTrailer(t *testing.T) {
	got, err := hasTrailer([]HeaderEntry{
		{Key: "other", Value: HeaderValue{Type: TypeString, String: "x"}},
		{Key: KeyTrailer, Value: HeaderValue{Type: TypeBool, Bool: true}},
	})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = hasTrailer(nil)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = hasTrailer([]HeaderEntry{
		{Key: KeyTrailer, Value: HeaderValue{Type: TypeUint, Uint: 1}},
	})
	assert.ErrorIs(t, err, ErrHeaderValueType)
}

func TestTransformerNames(t *testing.T) {
	names, err := transformerNames([]HeaderEntry{
		{Key: KeyTransformer, Value: HeaderValue{Type: TypeString, String: "flate 6"}},
		{Key: "other", Value: HeaderValue{Type: TypeBool, Bool: true}},
		{Key: KeyTransformer, Value: HeaderValue{Type: TypeString, String: "zstd"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"flate 6", "zstd"}, names)

	_, err = transformerNames([]HeaderEntry{
		{Key: KeyTransformer, Value: HeaderValue{Type: TypeBool, Bool: true}},
	})
	assert.ErrorIs(t, err, ErrHeaderValueType)
}
