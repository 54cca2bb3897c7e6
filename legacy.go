package recordio

import (
	"fmt"
	"io"

	"github.com/davidvella/recordio/transform"
)

// v1HeaderSize is magic(8) + size(8) + crc32 of the size field (4).
const v1HeaderSize = NumMagicBytes + 8 + 4

// baseReader reads raw V1 blocks with a fixed expected magic and no
// transformation. The block buffer is reused across scans.
type baseReader struct {
	in    io.Reader
	magic Magic
	err   *errorReporter
	buf   []byte
}

// scan reads one block. It returns false with no error on clean EOF at a
// block boundary.
func (r *baseReader) scan() bool {
	if !r.err.ok() {
		return false
	}
	var header [v1HeaderSize]byte
	n, err := io.ReadFull(r.in, header[:])
	if n == 0 {
		if err != nil && err != io.EOF {
			r.err.set(fmt.Errorf("recordio: read block header: %w", err))
		}
		return false
	}
	if n != len(header) {
		r.err.set(fmt.Errorf("recordio: corrupt header, read %d bytes, expect %d: %w",
			n, len(header), ErrCorruptHeader))
		return false
	}

	var magic Magic
	copy(magic[:], header[:NumMagicBytes])
	if magic != r.magic {
		r.err.set(fmt.Errorf("recordio: wrong header magic %s, expect %s: %w",
			magic, r.magic, ErrWrongMagic))
		return false
	}

	p := newParser(header[NumMagicBytes:], r.err)
	size := p.readLEUint64()
	expectedCRC := p.readLEUint32()
	if !r.err.ok() {
		return false
	}
	// The header CRC covers only the 8 size bytes; it detects corruption
	// of the length prefix, not of the payload.
	if actualCRC := crcOf(header[NumMagicBytes : NumMagicBytes+8]); actualCRC != expectedCRC {
		r.err.set(fmt.Errorf("recordio: corrupt header crc, expect %#x, got %#x: %w",
			expectedCRC, actualCRC, ErrCRCMismatch))
		return false
	}
	if size > MaxReadRecordSize {
		r.err.set(fmt.Errorf("recordio: unreasonably large record of %d bytes (max %d): %w",
			size, MaxReadRecordSize, ErrRecordTooLarge))
		return false
	}

	if uint64(cap(r.buf)) < size {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	if m, err := io.ReadFull(r.in, r.buf); err != nil {
		r.err.set(fmt.Errorf("recordio: failed to read %d byte body, found %d bytes: %w",
			size, m, ErrShortRead))
		return false
	}
	return true
}

// unpackedReader is the legacy V1 reader: each scan yields one block as one
// item.
type unpackedReader struct {
	err         errorReporter
	r           baseReader
	untransform transform.Func
	block       []byte
	scratch     []byte
	closer      io.Closer
}

func newLegacyUnpackedReader(in io.Reader, untransform transform.Func, closer io.Closer) *unpackedReader {
	r := &unpackedReader{untransform: untransform, closer: closer}
	r.r = baseReader{in: in, magic: MagicUnpacked, err: &r.err}
	return r
}

func (r *unpackedReader) Scan() bool {
	if !r.r.scan() {
		return false
	}
	r.block = r.r.buf
	if r.untransform != nil {
		out, err := r.untransform(r.scratch[:0], [][]byte{r.block})
		if err != nil {
			r.err.set(fmt.Errorf("recordio: untransform: %w", err))
			return false
		}
		r.scratch = out
		r.block = out
	}
	return true
}

func (r *unpackedReader) Get() []byte     { return r.block }
func (r *unpackedReader) Mutable() []byte { return append([]byte(nil), r.block...) }

func (r *unpackedReader) Seek(ItemLocation) { r.err.set(ErrSeekUnsupported) }

// Header returns nil: a legacy stream carries no header block, and "empty
// with no error" means absent.
func (r *unpackedReader) Header() []HeaderEntry { return nil }
func (r *unpackedReader) Trailer() []byte       { return nil }

func (r *unpackedReader) Err() error { return r.err.Err() }

func (r *unpackedReader) Close() error {
	if r.closer != nil {
		r.err.set(r.closer.Close())
		r.closer = nil
	}
	return r.err.Err()
}

// packedReader is the legacy V1 packed reader: scan yields one item at a
// time, walking the items within each block.
type packedReader struct {
	err         errorReporter
	r           baseReader
	untransform transform.Func
	items       [][]byte
	cur         int
	closer      io.Closer
}

func newLegacyPackedReader(in io.Reader, untransform transform.Func, closer io.Closer) *packedReader {
	r := &packedReader{untransform: untransform, closer: closer}
	r.r = baseReader{in: in, magic: MagicPacked, err: &r.err}
	return r
}

func (r *packedReader) Scan() bool {
	r.cur++
	for r.cur >= len(r.items) {
		if !r.readBlock() {
			return false
		}
	}
	return true
}

func (r *packedReader) readBlock() bool {
	r.cur = 0
	r.items = nil
	if !r.r.scan() {
		return false
	}
	r.items = parsePacked(IoVec{r.r.buf}, r.untransform, &r.err)
	return r.err.ok()
}

func (r *packedReader) Get() []byte     { return r.items[r.cur] }
func (r *packedReader) Mutable() []byte { return append([]byte(nil), r.items[r.cur]...) }

func (r *packedReader) Seek(ItemLocation) { r.err.set(ErrSeekUnsupported) }

func (r *packedReader) Header() []HeaderEntry { return nil }
func (r *packedReader) Trailer() []byte       { return nil }

func (r *packedReader) Err() error { return r.err.Err() }

func (r *packedReader) Close() error {
	if r.closer != nil {
		r.err.set(r.closer.Close())
		r.closer = nil
	}
	return r.err.Err()
}
