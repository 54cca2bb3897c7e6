// Package recordio implements a record-oriented binary container format: a
// stream of opaque byte records stored in checksummed blocks, with optional
// per-block compression and indexed random access.
//
// Two on-disk generations are supported. The legacy V1 layout frames each
// block as
//
//	magic(8) || size_le_u64(8) || crc32_of_size_le_u32(4) || payload
//
// with blocks concatenated back to back. The V2 layout builds blocks out of
// fixed 32 KiB chunks,
//
//	magic(8) || crc32(4) || flag(4) || payload_len(4) || total(4) || index(4) || payload || pad
//
// and adds a header block of typed key-value metadata plus an optional
// trailer block discoverable from the end of the file. NewReader detects
// the generation from the first 8 bytes and handles both transparently.
//
// A packed block carries multiple records behind a checksummed item-size
// table, so small records amortize the framing cost. Packed blocks may be
// compressed: a registered transformer (see the transform subpackage) is
// applied to the items region only, leaving the size table readable without
// decompression.
//
// Writing:
//
//	w := recordio.NewWriter(f, recordio.WriterOpts{Packed: true})
//	for _, rec := range records {
//	    if err := w.Write(rec); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if err := w.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// Reading:
//
//	r := recordio.NewReader(f, recordio.ReaderOpts{})
//	for r.Scan() {
//	    use(r.Get())
//	}
//	if err := r.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Only the V1 formats are written; V2 files are read-only.
package recordio
