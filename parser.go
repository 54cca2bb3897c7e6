package recordio

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// crcTable is the IEEE polynomial table used for every checksum in the
// format. Compatible with zlib's crc32 with initial value 0.
var crcTable = crc32.MakeTable(crc32.IEEE)

func crcOf(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// parser is a cursor over an immutable byte range. Every read failure
// latches the first error on the shared reporter and returns a zero value;
// subsequent reads stay safe but their results are meaningless, so callers
// check the reporter after a parsing section.
type parser struct {
	data []byte
	err  *errorReporter
}

func newParser(data []byte, err *errorReporter) *parser {
	return &parser{data: data, err: err}
}

// rest returns the unread remainder of the buffer.
func (p *parser) rest() []byte { return p.data }

// readBytes consumes exactly n bytes and returns them as a sub-slice of the
// underlying buffer.
func (p *parser) readBytes(n int) []byte {
	if n < 0 || len(p.data) < n {
		p.err.set(fmt.Errorf("recordio: failed to read %d bytes, %d remain: %w",
			n, len(p.data), ErrShortRead))
		return nil
	}
	b := p.data[:n]
	p.data = p.data[n:]
	return b
}

func (p *parser) readString(n int) string {
	b := p.readBytes(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (p *parser) readLEUint32() uint32 {
	b := p.readBytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (p *parser) readLEUint64() uint64 {
	b := p.readBytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// readUvarint decodes a base-128 varint. Encodings longer than 10 bytes, or
// exactly 10 bytes whose final byte exceeds 1, cannot fit in a uint64 and
// are rejected.
func (p *parser) readUvarint() uint64 {
	var v uint64
	var shift uint
	for i := 0; len(p.data) > 0; i++ {
		b := p.data[0]
		if b < 0x80 {
			if i > 9 || (i == 9 && b > 1) {
				p.err.set(ErrVarintOverflow)
				return 0
			}
			p.data = p.data[1:]
			return v | uint64(b)<<shift
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
		p.data = p.data[1:]
	}
	p.err.set(fmt.Errorf("recordio: truncated uvarint: %w", ErrShortRead))
	return 0
}

// readVarint decodes a zigzag-encoded signed varint.
func (p *parser) readVarint() int64 {
	u := p.readUvarint()
	x := u >> 1
	if u&1 != 0 {
		x = ^x
	}
	return int64(x)
}
