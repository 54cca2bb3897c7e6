package recordio

import (
	"encoding/binary"
	"fmt"

	"github.com/davidvella/recordio/transform"
)

// parsePacked decodes the payload of a packed block:
//
//	table_crc32_le(4) || uvarint n || uvarint size_1 .. size_n || items
//
// The table CRC covers the bytes from the item count through the last size
// varint. The optional untransform is applied to the items region only; the
// size table stays in the clear so items can be located without
// transforming first. The returned item slices borrow from the block
// payload (or the untransform output) and are valid until the next scan.
func parsePacked(payload IoVec, untransform transform.Func, err *errorReporter) [][]byte {
	if len(payload) == 0 {
		return nil
	}
	data := payload[0]
	if len(payload) > 1 {
		data = payload.Flatten()
	}

	p := newParser(data, err)
	expectedCRC := p.readLEUint32()
	if !err.ok() {
		return nil
	}
	table := p.rest()
	nItems := p.readUvarint()
	if !err.ok() {
		return nil
	}
	if nItems == 0 || nItems >= uint64(len(data)) {
		err.set(fmt.Errorf("recordio: invalid packed item count %d: %w",
			nItems, ErrInvalidBlock))
		return nil
	}
	sizes := make([]uint64, nItems)
	for i := range sizes {
		sizes[i] = p.readUvarint()
	}
	if !err.ok() {
		return nil
	}
	tableLen := len(table) - len(p.rest())
	if actualCRC := crcOf(table[:tableLen]); actualCRC != expectedCRC {
		err.set(fmt.Errorf("recordio: packed table checksum mismatch, expect %#x, got %#x: %w",
			expectedCRC, actualCRC, ErrCRCMismatch))
		return nil
	}

	items := p.rest()
	if untransform != nil {
		out, terr := untransform(nil, [][]byte{items})
		if terr != nil {
			err.set(fmt.Errorf("recordio: untransform: %w", terr))
			return nil
		}
		items = out
	}

	result := make([][]byte, nItems)
	var off uint64
	for i, size := range sizes {
		if size > uint64(len(items))-off {
			err.set(fmt.Errorf("recordio: item %d overruns block by %d bytes: %w",
				i, size-(uint64(len(items))-off), ErrInvalidBlock))
			return nil
		}
		result[i] = items[off : off+size]
		off += size
	}
	if off != uint64(len(items)) {
		err.set(fmt.Errorf("recordio: %d bytes of junk at the end of block: %w",
			uint64(len(items))-off, ErrInvalidBlock))
		return nil
	}
	return result
}

// packedHeaderBuilder accumulates the item-size table for the packed block
// being buffered by a writer.
type packedHeaderBuilder struct {
	itemCount int
	sizes     []byte // uvarint encoded
}

func (b *packedHeaderBuilder) addItemSize(size int) {
	b.itemCount++
	b.sizes = binary.AppendUvarint(b.sizes, uint64(size))
}

// appendHeader appends the packed block metadata to buf: a table CRC slot,
// the item count, and the size table. The CRC is computed over the count
// and sizes after they land in buf, then written into the slot, avoiding a
// temporary buffer.
func (b *packedHeaderBuilder) appendHeader(buf []byte) []byte {
	crcOffset := len(buf)
	buf = append(buf, 0, 0, 0, 0)
	varintsOffset := len(buf)
	buf = binary.AppendUvarint(buf, uint64(b.itemCount))
	buf = append(buf, b.sizes...)
	binary.LittleEndian.PutUint32(buf[crcOffset:], crcOf(buf[varintsOffset:]))
	return buf
}

func (b *packedHeaderBuilder) reset() {
	b.itemCount = 0
	b.sizes = b.sizes[:0]
}
