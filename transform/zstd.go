package transform

import (
	"fmt"
	"strconv"

	"github.com/klauspost/compress/zstd"
)

func init() {
	Register("zstd", newZstd, newUnzstd)
}

func newZstd(args string) (Func, error) {
	level := zstd.SpeedDefault
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil {
			return nil, fmt.Errorf("transform: bad zstd level %q: %w", args, err)
		}
		level = zstd.EncoderLevelFromZstd(n)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("transform: zstd init: %w", err)
	}
	return func(scratch []byte, in [][]byte) ([]byte, error) {
		flat, err := Identity(nil, in)
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(flat, scratch[:0]), nil
	}, nil
}

func newUnzstd(args string) (Func, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("transform: zstd init: %w", err)
	}
	return func(scratch []byte, in [][]byte) ([]byte, error) {
		flat, err := Identity(nil, in)
		if err != nil {
			return nil, err
		}
		out, err := dec.DecodeAll(flat, scratch[:0])
		if err != nil {
			return nil, fmt.Errorf("transform: unzstd: %w", err)
		}
		return out, nil
	}, nil
}
