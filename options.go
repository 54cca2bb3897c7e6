package recordio

import (
	"fmt"
	"os"
	"strings"

	"github.com/davidvella/recordio/transform"
)

// File suffixes that select default options in OpenReaderFile and
// OpenWriterFile. The core accepts options directly; the suffix table is a
// convenience only.
const (
	// SuffixUnpacked selects the unpacked V1 format.
	SuffixUnpacked = ".rio"

	// SuffixPacked selects the packed V1 format.
	SuffixPacked = ".rpk"

	// SuffixPackedCompressed selects the packed V1 format with the flate
	// transformer.
	SuffixPackedCompressed = ".rpk-gz"
)

// DefaultWriterOpts infers writer options from a path suffix. Unknown
// suffixes yield the unpacked format.
func DefaultWriterOpts(path string) (WriterOpts, error) {
	var opts WriterOpts
	switch {
	case strings.HasSuffix(path, SuffixPackedCompressed):
		opts.Packed = true
		f, err := transform.GetTransformer([]string{"flate"})
		if err != nil {
			return opts, fmt.Errorf("recordio: %w", err)
		}
		opts.Transformer = f
	case strings.HasSuffix(path, SuffixPacked):
		opts.Packed = true
	}
	return opts, nil
}

// DefaultReaderOpts infers reader options from a path suffix.
func DefaultReaderOpts(path string) (ReaderOpts, error) {
	var opts ReaderOpts
	if strings.HasSuffix(path, SuffixPackedCompressed) {
		f, err := transform.GetUntransformer([]string{"flate"})
		if err != nil {
			return opts, fmt.Errorf("recordio: %w", err)
		}
		opts.Untransformer = f
	}
	return opts, nil
}

// OpenReaderFile opens the file at path with options inferred from its
// suffix. The returned reader is never nil; open failures surface through
// Err on the first query.
func OpenReaderFile(path string) Reader {
	opts, err := DefaultReaderOpts(path)
	if err != nil {
		return &errorReader{err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return &errorReader{err: fmt.Errorf("recordio: %w", err)}
	}
	r := NewReader(f, opts)
	attachCloser(r, f)
	return r
}

// attachCloser hands file ownership to a reader built by NewReader.
func attachCloser(r Reader, f *os.File) {
	switch r := r.(type) {
	case *unpackedReader:
		r.closer = f
	case *packedReader:
		r.closer = f
	case *v2Reader:
		r.closer = f
	default:
		// errorReader: construction failed, the caller never reads.
		f.Close()
	}
}

// OpenWriterFile creates the file at path and writes a V1 stream with
// options inferred from the path suffix. The returned writer is never nil;
// open failures surface through Err and the first Write.
func OpenWriterFile(path string) Writer {
	opts, err := DefaultWriterOpts(path)
	if err != nil {
		return &errorWriter{err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &errorWriter{err: fmt.Errorf("recordio: %w", err)}
	}
	return newWriter(f, opts, f)
}
