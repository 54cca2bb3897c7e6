package recordio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserUvarint(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint64
		wantErr error
	}{
		{name: "zero", data: []byte{0x00}, want: 0},
		{name: "one byte", data: []byte{0x7f}, want: 127},
		{name: "two bytes", data: []byte{0x80, 0x01}, want: 128},
		{
			name: "max uint64",
			data: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
			want: 1<<64 - 1,
		},
		{
			name:    "ten bytes ending above one",
			data:    []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02},
			wantErr: ErrVarintOverflow,
		},
		{
			name:    "eleven bytes",
			data:    append(bytes.Repeat([]byte{0x80}, 10), 0x00),
			wantErr: ErrVarintOverflow,
		},
		{
			name:    "truncated",
			data:    []byte{0x80, 0x80},
			wantErr: ErrShortRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rep errorReporter
			p := newParser(tt.data, &rep)
			got := p.readUvarint()
			if tt.wantErr != nil {
				assert.ErrorIs(t, rep.Err(), tt.wantErr)
				return
			}
			require.NoError(t, rep.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserUvarintElevenByteValue(t *testing.T) {
	// An 11-byte sequence is rejected even when the continuation bytes
	// would decode below the overflow bound.
	data := append(bytes.Repeat([]byte{0x80}, 10), 0x01)
	var rep errorReporter
	p := newParser(data, &rep)
	p.readUvarint()
	assert.ErrorIs(t, rep.Err(), ErrVarintOverflow)
}

func TestParserVarintZigzag(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 12345, -12345, 1 << 62, -(1 << 62)} {
		u := uint64(v<<1) ^ uint64(v>>63)
		var rep errorReporter
		p := newParser(binary.AppendUvarint(nil, u), &rep)
		got := p.readVarint()
		require.NoError(t, rep.Err())
		assert.Equal(t, v, got)
	}
}

func TestParserLatchesFirstError(t *testing.T) {
	var rep errorReporter
	p := newParser([]byte{0x01, 0x02}, &rep)
	assert.Equal(t, uint32(0), p.readLEUint32())
	first := rep.Err()
	require.Error(t, first)

	// Later reads are safe no-ops and the first error sticks.
	assert.Nil(t, p.readBytes(10))
	assert.Equal(t, uint64(0), p.readLEUint64())
	assert.Equal(t, first, rep.Err())
}

func TestParserReads(t *testing.T) {
	data := make([]byte, 0, 32)
	data = append(data, 'h', 'i')
	data = binary.LittleEndian.AppendUint32(data, 0xdeadbeef)
	data = binary.LittleEndian.AppendUint64(data, 1<<40)
	data = binary.AppendUvarint(data, 300)

	var rep errorReporter
	p := newParser(data, &rep)
	assert.Equal(t, "hi", p.readString(2))
	assert.Equal(t, uint32(0xdeadbeef), p.readLEUint32())
	assert.Equal(t, uint64(1)<<40, p.readLEUint64())
	assert.Equal(t, uint64(300), p.readUvarint())
	require.NoError(t, rep.Err())
	assert.Empty(t, p.rest())
}
