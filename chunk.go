package recordio

import (
	"fmt"
	"io"
)

// chunkReader reads fixed-size V2 chunks from a seekable source and
// assembles them into blocks. Chunk buffers are recycled across Scan calls
// through a freelist, so the payload slices returned by chunks() stay valid
// only until the next scan.
type chunkReader struct {
	in  io.ReadSeeker
	err *errorReporter

	magic Magic
	iov   IoVec

	freeChunks [][]byte
	nextFree   int
}

func newChunkReader(in io.ReadSeeker, err *errorReporter) *chunkReader {
	return &chunkReader{in: in, err: err, magic: MagicInvalid}
}

// scan reads the next block: one or more chunks sharing a magic, with
// chunk_index running 0..total-1 in order. It returns false on clean EOF or
// once an error is latched.
func (c *chunkReader) scan() bool {
	c.magic = MagicInvalid
	c.iov = c.iov[:0]
	c.nextFree = 0
	if !c.err.ok() {
		return false
	}
	var totalChunks uint32
	for {
		magic, index, total, payload, ok := c.readChunk()
		if !ok || !c.err.ok() {
			if len(c.iov) > 0 {
				c.err.set(fmt.Errorf("recordio: block truncated after %d of %d chunks: %w",
					len(c.iov), totalChunks, ErrShortRead))
			}
			return false
		}
		if len(c.iov) == 0 { // first chunk of the block
			c.magic = magic
			totalChunks = total
		}
		if magic != c.magic {
			c.err.set(fmt.Errorf("recordio: magic changed mid-block, got %s, expect %s: %w",
				magic, c.magic, ErrChunkSequence))
			return false
		}
		if index != uint32(len(c.iov)) {
			c.err.set(fmt.Errorf("recordio: wrong chunk index %d, expect %d for magic %s: %w",
				index, len(c.iov), magic, ErrChunkSequence))
			return false
		}
		if total != totalChunks {
			c.err.set(fmt.Errorf("recordio: wrong total chunk count %d, expect %d for magic %s: %w",
				total, totalChunks, magic, ErrChunkSequence))
			return false
		}
		c.iov = append(c.iov, payload)
		if index+1 == total {
			return true
		}
	}
}

// chunks returns the assembled payload of the current block as a
// scatter/gather view, one slice per chunk, without copying.
func (c *chunkReader) chunks() IoVec { return c.iov }

// getMagic returns the magic of the current block.
func (c *chunkReader) getMagic() Magic { return c.magic }

// seek positions the reader at an absolute byte offset. The next scan reads
// the block starting there.
func (c *chunkReader) seek(off int64) {
	if !c.err.ok() {
		return
	}
	if _, err := c.in.Seek(off, io.SeekStart); err != nil {
		c.err.set(fmt.Errorf("recordio: seek to %d: %w", off, err))
	}
}

// seekLastBlock positions the reader at the first chunk of the file's final
// block, which must be a trailer. The trailer's last chunk records its own
// index, which gives the distance back to the block start.
func (c *chunkReader) seekLastBlock() {
	if !c.err.ok() {
		return
	}
	if _, err := c.in.Seek(-ChunkSize, io.SeekEnd); err != nil {
		c.err.set(fmt.Errorf("recordio: seek to last chunk: %w", err))
		return
	}
	c.nextFree = 0
	magic, index, _, _, ok := c.readChunk()
	if !ok {
		c.err.set(fmt.Errorf("recordio: failed to read last chunk: %w", ErrShortRead))
		return
	}
	if !c.err.ok() {
		return
	}
	if magic != MagicTrailer {
		c.err.set(fmt.Errorf("recordio: wrong magic for the trailer block: %s: %w",
			magic, ErrNotTrailer))
		return
	}
	off := -int64(ChunkSize) * int64(index+1)
	if _, err := c.in.Seek(off, io.SeekEnd); err != nil {
		c.err.set(fmt.Errorf("recordio: seek to trailer start: %w", err))
	}
}

// readChunk reads and validates one fixed-size chunk. It returns ok=false
// with no error on clean EOF at a chunk boundary.
func (c *chunkReader) readChunk() (magic Magic, index, total uint32, payload []byte, ok bool) {
	for c.nextFree >= len(c.freeChunks) {
		c.freeChunks = append(c.freeChunks, make([]byte, ChunkSize))
	}
	buf := c.freeChunks[c.nextFree]
	c.nextFree++

	n, err := io.ReadFull(c.in, buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			c.err.set(fmt.Errorf("recordio: read chunk: %w", err))
		}
		return MagicInvalid, 0, 0, nil, false
	}
	if n != ChunkSize {
		c.err.set(fmt.Errorf("recordio: failed to read chunk, got %d bytes, expect %d: %w",
			n, ChunkSize, ErrShortRead))
		return MagicInvalid, 0, 0, nil, false
	}

	p := newParser(buf[:chunkHeaderSize], c.err)
	copy(magic[:], p.readBytes(NumMagicBytes))
	expectedCRC := p.readLEUint32()
	p.readLEUint32() // flag, reserved
	size := p.readLEUint32()
	total = p.readLEUint32()
	index = p.readLEUint32()
	if !c.err.ok() {
		return MagicInvalid, 0, 0, nil, false
	}
	if size > MaxChunkPayloadSize {
		c.err.set(fmt.Errorf("recordio: invalid chunk payload size %d: %w",
			size, ErrCorruptHeader))
		return MagicInvalid, 0, 0, nil, false
	}
	payload = buf[chunkHeaderSize : chunkHeaderSize+int(size)]
	// The chunk CRC covers everything after the checksum field itself:
	// flag, sizes, index fields and the payload bytes.
	actualCRC := crcOf(buf[12 : chunkHeaderSize+int(size)])
	if expectedCRC != actualCRC {
		c.err.set(fmt.Errorf("recordio: chunk checksum mismatch, expect %#x, got %#x: %w",
			expectedCRC, actualCRC, ErrCRCMismatch))
		return MagicInvalid, 0, 0, nil, false
	}
	return magic, index, total, payload, true
}
