package recordio

import (
	"fmt"
	"io"
	"iter"

	"github.com/davidvella/recordio/transform"
)

// ItemLocation identifies an item for random access: the byte offset of its
// block's first byte from the start of the file, and the item's index
// within that block.
type ItemLocation struct {
	Block int64
	Item  int
}

// Reader yields the items of a recordio file in write order.
//
// A Reader follows the bufio.Scanner idiom: Scan advances to the next item
// and reports whether one is available; Err returns the first error seen,
// or nil after a clean end of stream. Errors latch: once Err is non-nil,
// Scan keeps returning false.
//
// A Reader is thread compatible: distinct readers may be used from distinct
// goroutines, but a single reader must not be shared without
// synchronization.
type Reader interface {
	// Scan advances to the next item. It must be called before the first
	// Get.
	Scan() bool

	// Get returns the current item. The slice is owned by the reader and
	// is invalidated by the next Scan or Close.
	Get() []byte

	// Mutable returns an owned copy of the current item that the caller
	// may keep.
	Mutable() []byte

	// Seek arranges for the next Scan to yield the item at loc. Legacy V1
	// readers do not support seeking and latch an error.
	Seek(loc ItemLocation)

	// Header returns the entries of the file's header block. Legacy
	// streams have no header; nil with a nil Err means absent.
	Header() []HeaderEntry

	// Trailer returns the trailer block contents, or nil if the file has
	// none.
	Trailer() []byte

	// Err returns the first error encountered, or nil. A clean end of
	// stream leaves Err nil.
	Err() error

	// Close releases the underlying source if the reader owns it.
	Close() error
}

// ReaderOpts configures NewReader.
type ReaderOpts struct {
	// Untransformer reverses the transformation applied at write time to
	// legacy V1 files, which carry no header to name it. V2 files resolve
	// their untransformer from the header and ignore this field.
	Untransformer transform.Func
}

// NewReader reads the recordio stream from in, which must be positioned at
// the start of the stream. The format generation is detected from the
// first 8 bytes: MagicUnpacked and MagicPacked select the legacy V1
// readers, anything else the V2 reader. The returned reader never is nil;
// probe failures surface through Err.
func NewReader(in io.ReadSeeker, opts ReaderOpts) Reader {
	start, err := in.Seek(0, io.SeekCurrent)
	if err != nil {
		return &errorReader{err: fmt.Errorf("recordio: tell: %w", err)}
	}
	var magic Magic
	if _, err := io.ReadFull(in, magic[:]); err != nil {
		return &errorReader{err: fmt.Errorf("recordio: read magic: %w", err)}
	}
	if _, err := in.Seek(start, io.SeekStart); err != nil {
		return &errorReader{err: fmt.Errorf("recordio: rewind after probe: %w", err)}
	}
	switch magic {
	case MagicUnpacked:
		return newLegacyUnpackedReader(in, opts.Untransformer, nil)
	case MagicPacked:
		return newLegacyPackedReader(in, opts.Untransformer, nil)
	default:
		return newV2Reader(in, nil)
	}
}

// Seq returns an iterator over the remaining items of r. Each yielded slice
// is only valid for the duration of its iteration step; callers that keep
// items use Mutable instead. Check r.Err once the loop ends.
func Seq(r Reader) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for r.Scan() {
			if !yield(r.Get()) {
				return
			}
		}
	}
}

// errorReader is returned when a reader cannot be constructed. Scan always
// reports false and Err the construction error.
type errorReader struct {
	err error
}

func (r *errorReader) Scan() bool            { return false }
func (r *errorReader) Get() []byte           { return nil }
func (r *errorReader) Mutable() []byte       { return nil }
func (r *errorReader) Seek(ItemLocation)     {}
func (r *errorReader) Header() []HeaderEntry { return nil }
func (r *errorReader) Trailer() []byte       { return nil }
func (r *errorReader) Err() error            { return r.err }
func (r *errorReader) Close() error          { return r.err }

// v2Reader reads the chunked V2 format: a header block, packed data
// blocks, and an optional trailer block.
type v2Reader struct {
	err    errorReporter
	cr     *chunkReader
	in     io.ReadSeeker
	closer io.Closer

	header      []HeaderEntry
	trailer     []byte
	untransform transform.Func

	items    [][]byte
	next     int
	seekItem int
	item     []byte
}

func newV2Reader(in io.ReadSeeker, closer io.Closer) *v2Reader {
	r := &v2Reader{in: in, closer: closer}
	r.cr = newChunkReader(in, &r.err)
	r.readHeader()
	if !r.err.ok() {
		return r
	}
	firstDataOffset, err := in.Seek(0, io.SeekCurrent)
	if err != nil {
		r.err.set(fmt.Errorf("recordio: tell: %w", err))
		return r
	}
	trailer, err := hasTrailer(r.header)
	r.err.set(err)
	if trailer && r.err.ok() {
		r.readTrailer()
		r.cr.seek(firstDataOffset)
	}
	return r
}

// readHeader decodes the mandatory header block and resolves the
// untransformer it names, if any.
func (r *v2Reader) readHeader() {
	payload, ok := r.readSpecialBlock(MagicHeader)
	if !ok {
		return
	}
	r.header = decodeHeader(payload, &r.err)
	if !r.err.ok() {
		return
	}
	names, err := transformerNames(r.header)
	if err != nil {
		r.err.set(err)
		return
	}
	if len(names) > 0 {
		f, err := transform.GetUntransformer(names)
		if err != nil {
			r.err.set(fmt.Errorf("recordio: %w", err))
			return
		}
		r.untransform = f
	}
}

// readTrailer seeks to the file's last block and stores its contents. The
// caller restores the read position afterwards.
func (r *v2Reader) readTrailer() {
	r.cr.seekLastBlock()
	payload, ok := r.readSpecialBlock(MagicTrailer)
	if !ok {
		return
	}
	r.trailer = append([]byte(nil), payload...)
}

// readSpecialBlock reads one block, requires the given magic, and decodes
// it as a packed block of exactly one item.
func (r *v2Reader) readSpecialBlock(want Magic) ([]byte, bool) {
	if !r.cr.scan() {
		r.err.set(fmt.Errorf("recordio: failed to read %s block: %w",
			blockName(want), ErrShortRead))
		return nil, false
	}
	if magic := r.cr.getMagic(); magic != want {
		r.err.set(fmt.Errorf("recordio: failed to read %s block, got %s, expect %s: %w",
			blockName(want), magic, want, ErrWrongMagic))
		return nil, false
	}
	items := parsePacked(r.cr.chunks(), nil, &r.err)
	if !r.err.ok() {
		return nil, false
	}
	if len(items) != 1 {
		r.err.set(fmt.Errorf("recordio: %d items in %s block, expect 1: %w",
			len(items), blockName(want), ErrInvalidBlock))
		return nil, false
	}
	return items[0], true
}

func blockName(m Magic) string {
	switch m {
	case MagicHeader:
		return "header"
	case MagicTrailer:
		return "trailer"
	default:
		return "data"
	}
}

func (r *v2Reader) Scan() bool {
	for r.next >= len(r.items) {
		if !r.readBlock() {
			return false
		}
	}
	r.item = r.items[r.next]
	r.next++
	return true
}

// readBlock reads the next data block and splits it into items. A trailer
// block marks a clean end of stream.
func (r *v2Reader) readBlock() bool {
	r.next = 0
	r.items = nil
	if !r.err.ok() || !r.cr.scan() {
		return false
	}
	switch magic := r.cr.getMagic(); magic {
	case MagicPacked:
		r.items = parsePacked(r.cr.chunks(), r.untransform, &r.err)
		if !r.err.ok() {
			return false
		}
		if r.seekItem > 0 {
			if r.seekItem >= len(r.items) {
				r.err.set(fmt.Errorf("recordio: item %d of a %d item block: %w",
					r.seekItem, len(r.items), ErrSeekOutOfRange))
				return false
			}
			r.next = r.seekItem
			r.seekItem = 0
		}
		return true
	case MagicTrailer:
		return false // end of data
	default:
		r.err.set(fmt.Errorf("recordio: bad magic %s: %w", magic, ErrWrongMagic))
		return false
	}
}

func (r *v2Reader) Get() []byte     { return r.item }
func (r *v2Reader) Mutable() []byte { return append([]byte(nil), r.item...) }

// Seek positions the reader so the next Scan yields the item at loc. An
// item index past the end of the target block latches ErrSeekOutOfRange.
func (r *v2Reader) Seek(loc ItemLocation) {
	if loc.Item < 0 {
		r.err.set(fmt.Errorf("recordio: negative item index %d: %w",
			loc.Item, ErrSeekOutOfRange))
		return
	}
	r.cr.seek(loc.Block)
	r.items = nil
	r.next = 0
	r.seekItem = loc.Item
}

func (r *v2Reader) Header() []HeaderEntry { return r.header }
func (r *v2Reader) Trailer() []byte       { return r.trailer }

func (r *v2Reader) Err() error { return r.err.Err() }

func (r *v2Reader) Close() error {
	if r.closer != nil {
		r.err.set(r.closer.Close())
		r.closer = nil
	}
	return r.err.Err()
}
