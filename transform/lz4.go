package transform

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

func init() {
	Register("lz4", newLZ4, newUnlz4)
}

func newLZ4(args string) (Func, error) {
	if args != "" {
		return nil, fmt.Errorf("transform: lz4 takes no arguments, got %q", args)
	}
	return func(scratch []byte, in [][]byte) ([]byte, error) {
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		for _, b := range in {
			if _, err := zw.Write(b); err != nil {
				return nil, fmt.Errorf("transform: lz4: %w", err)
			}
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("transform: lz4: %w", err)
		}
		return append(scratch[:0], buf.Bytes()...), nil
	}, nil
}

func newUnlz4(args string) (Func, error) {
	if args != "" {
		return nil, fmt.Errorf("transform: lz4 takes no arguments, got %q", args)
	}
	return func(scratch []byte, in [][]byte) ([]byte, error) {
		readers := make([]io.Reader, len(in))
		for i, b := range in {
			readers[i] = bytes.NewReader(b)
		}
		zr := lz4.NewReader(io.MultiReader(readers...))
		out := bytes.NewBuffer(scratch[:0])
		if _, err := io.Copy(out, zr); err != nil {
			return nil, fmt.Errorf("transform: unlz4: %w", err)
		}
		return out.Bytes(), nil
	}, nil
}
