package recordio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/davidvella/recordio/transform"
)

// Default packing limits for a packed writer.
const (
	DefaultMaxPackedItems = 16 << 10
	DefaultMaxPackedBytes = 16 << 20
)

// Indexer receives a notification for every block a writer emits, after
// the block is fully written, in file order. Implementations build
// location indexes for later random access.
type Indexer interface {
	// IndexBlock reports a finished block: the byte offset of its magic
	// from the start of the stream, and the number of items it holds.
	IndexBlock(start int64, items int) error
}

// Writer appends items to a recordio stream. Errors latch: after the first
// failure every Write returns the same error, and Err reports it. Close
// flushes any buffered packed block; once closed, writes fail with
// ErrClosed.
//
// Writers are thread compatible, not thread safe.
type Writer interface {
	Write(item []byte) error
	Close() error
	Err() error
}

// WriterOpts configures NewWriter.
type WriterOpts struct {
	// Packed selects the packed V1 format: items are buffered and emitted
	// as multi-item blocks. Unpacked writes one block per item.
	Packed bool

	// MaxPackedItems bounds the number of items buffered into one packed
	// block. Zero means DefaultMaxPackedItems.
	MaxPackedItems int

	// MaxPackedBytes bounds the byte size of one packed block's items
	// region. Zero means DefaultMaxPackedBytes. An item larger than this
	// is rejected outright.
	MaxPackedBytes int

	// Transformer, if set, transforms each block before framing: the whole
	// block for unpacked, the items region only for packed.
	Transformer transform.Func

	// Indexer, if set, is told about every block written.
	Indexer Indexer
}

// NewWriter writes a V1 recordio stream to out.
func NewWriter(out io.Writer, opts WriterOpts) Writer {
	return newWriter(out, opts, nil)
}

func newWriter(out io.Writer, opts WriterOpts, closer io.Closer) Writer {
	if opts.MaxPackedItems <= 0 {
		opts.MaxPackedItems = DefaultMaxPackedItems
	}
	if opts.MaxPackedBytes <= 0 {
		opts.MaxPackedBytes = DefaultMaxPackedBytes
	}
	if opts.Packed {
		w := &packedWriter{
			trans:    opts.Transformer,
			maxItems: opts.MaxPackedItems,
			maxBytes: opts.MaxPackedBytes,
		}
		w.w = baseWriter{out: out, magic: MagicPacked, err: &w.err,
			indexer: opts.Indexer, closer: closer}
		return w
	}
	w := &unpackedWriter{trans: opts.Transformer}
	w.w = baseWriter{out: out, magic: MagicUnpacked, err: &w.err,
		indexer: opts.Indexer, closer: closer}
	return w
}

// baseWriter frames raw V1 blocks: magic, size, CRC of the size field,
// payload. It tracks the stream offset for indexer callbacks.
type baseWriter struct {
	out     io.Writer
	magic   Magic
	err     *errorReporter
	indexer Indexer
	closer  io.Closer
	offset  int64
}

// write emits one block whose payload is the concatenation of one and two.
// Two payload spans avoid a copy in the packed writer, which keeps the
// block metadata and the items region in separate buffers.
func (w *baseWriter) write(one, two []byte, items int) bool {
	if !w.err.ok() {
		return false
	}
	blockStart := w.offset
	size := uint64(len(one) + len(two))

	var header [v1HeaderSize]byte
	copy(header[:NumMagicBytes], w.magic[:])
	binary.LittleEndian.PutUint64(header[NumMagicBytes:], size)
	binary.LittleEndian.PutUint32(header[NumMagicBytes+8:],
		crcOf(header[NumMagicBytes:NumMagicBytes+8]))

	if !w.writeAll(header[:], "header") || !w.writeAll(one, "data") ||
		!w.writeAll(two, "data") {
		return false
	}
	if w.indexer != nil {
		if err := w.indexer.IndexBlock(blockStart, items); err != nil {
			w.err.set(fmt.Errorf("recordio: indexer: %w", err))
			return false
		}
	}
	return true
}

func (w *baseWriter) writeAll(p []byte, what string) bool {
	if len(p) == 0 {
		return true
	}
	n, err := w.out.Write(p)
	w.offset += int64(n)
	if err != nil {
		w.err.set(fmt.Errorf("recordio: failed to write %s: %w", what, err))
		return false
	}
	return true
}

func (w *baseWriter) close() error {
	if w.closer != nil {
		w.err.set(w.closer.Close())
		w.closer = nil
	}
	return w.err.Err()
}

// unpackedWriter emits one block per item.
type unpackedWriter struct {
	err     errorReporter
	w       baseWriter
	trans   transform.Func
	scratch []byte
	closed  bool
}

func (w *unpackedWriter) Write(item []byte) error {
	if w.closed {
		return ErrClosed
	}
	if !w.err.ok() {
		return w.err.Err()
	}
	if w.trans != nil {
		out, err := w.trans(w.scratch[:0], [][]byte{item})
		if err != nil {
			w.err.set(fmt.Errorf("recordio: transform: %w", err))
			return w.err.Err()
		}
		w.scratch = out
		item = out
	}
	w.w.write(item, nil, 1)
	return w.err.Err()
}

func (w *unpackedWriter) Close() error {
	if w.closed {
		return w.err.Err()
	}
	w.closed = true
	return w.w.close()
}

func (w *unpackedWriter) Err() error { return w.err.Err() }

// packedWriter buffers items and emits them as packed blocks. A flush
// happens when the next item would exceed the item or byte limit, and on
// Close for the residual.
type packedWriter struct {
	err      errorReporter
	w        baseWriter
	trans    transform.Func
	maxItems int
	maxBytes int

	hb         packedHeaderBuilder
	buf        []byte // buffered item bytes
	hdrScratch []byte
	scratch    []byte
	closed     bool
}

func (w *packedWriter) Write(item []byte) error {
	if w.closed {
		return ErrClosed
	}
	if !w.err.ok() {
		return w.err.Err()
	}
	if len(item) > w.maxBytes {
		w.err.set(fmt.Errorf("recordio: item of %d bytes, max %d: %w",
			len(item), w.maxBytes, ErrItemTooLarge))
		return w.err.Err()
	}
	if w.hb.itemCount+1 > w.maxItems || len(w.buf)+len(item) > w.maxBytes {
		if !w.flush() {
			return w.err.Err()
		}
	}
	w.hb.addItemSize(len(item))
	w.buf = append(w.buf, item...)
	return w.err.Err()
}

// flush writes the buffered items as one packed block. A flush with
// nothing buffered is a no-op.
func (w *packedWriter) flush() bool {
	if w.hb.itemCount == 0 {
		return w.err.ok()
	}
	w.hdrScratch = w.hb.appendHeader(w.hdrScratch[:0])
	items := w.buf
	if w.trans != nil {
		out, err := w.trans(w.scratch[:0], [][]byte{w.buf})
		if err != nil {
			w.err.set(fmt.Errorf("recordio: transform: %w", err))
			return false
		}
		w.scratch = out
		items = out
	}
	if !w.w.write(w.hdrScratch, items, w.hb.itemCount) {
		return false
	}
	w.hb.reset()
	w.buf = w.buf[:0]
	return true
}

func (w *packedWriter) Close() error {
	if w.closed {
		return w.err.Err()
	}
	w.closed = true
	w.flush()
	return w.w.close()
}

func (w *packedWriter) Err() error { return w.err.Err() }

// errorWriter is returned when a writer cannot be constructed.
type errorWriter struct {
	err error
}

func (w *errorWriter) Write([]byte) error { return w.err }
func (w *errorWriter) Close() error       { return w.err }
func (w *errorWriter) Err() error         { return w.err }
