package transform

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/flate"
)

func init() {
	Register("flate", newFlate, newUnflate)
}

// flateLevel parses the optional compression level argument.
func flateLevel(args string) (int, error) {
	if args == "" {
		return flate.DefaultCompression, nil
	}
	level, err := strconv.Atoi(args)
	if err != nil {
		return 0, fmt.Errorf("transform: bad flate level %q: %w", args, err)
	}
	return level, nil
}

// newFlate builds a compressor producing RFC 1951 raw deflate, the same
// stream a zlib deflate with negative window bits emits.
func newFlate(args string) (Func, error) {
	level, err := flateLevel(args)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("transform: flate init: %w", err)
	}
	return func(scratch []byte, in [][]byte) ([]byte, error) {
		buf.Reset()
		fw.Reset(&buf)
		for _, b := range in {
			if _, err := fw.Write(b); err != nil {
				return nil, fmt.Errorf("transform: flate: %w", err)
			}
		}
		if err := fw.Close(); err != nil {
			return nil, fmt.Errorf("transform: flate: %w", err)
		}
		return append(scratch[:0], buf.Bytes()...), nil
	}, nil
}

// newUnflate builds the matching decompressor. The level argument is
// validated like the compressor's and otherwise ignored, so a shared config
// string resolves both ways.
func newUnflate(args string) (Func, error) {
	if _, err := flateLevel(args); err != nil {
		return nil, err
	}
	return func(scratch []byte, in [][]byte) ([]byte, error) {
		readers := make([]io.Reader, len(in))
		for i, b := range in {
			readers[i] = bytes.NewReader(b)
		}
		fr := flate.NewReader(io.MultiReader(readers...))
		defer fr.Close()
		out := bytes.NewBuffer(scratch[:0])
		if _, err := io.Copy(out, fr); err != nil {
			return nil, fmt.Errorf("transform: unflate: %w", err)
		}
		return out.Bytes(), nil
	}, nil
}
