// Package transform provides the reversible per-block byte transformations
// applied by recordio readers and writers, and the process-wide registry
// that maps transformer names to factories.
//
// A transformer name may carry arguments after a space, for example
// "flate 6". The name (with arguments) is stored in the "transformer" entry
// of a file's header block, so a reader can resolve the matching reverse
// transformation without out-of-band configuration.
//
// Built-in transformers:
//
//	flate   RFC 1951 raw deflate. Optional argument: compression level.
//	zstd    Zstandard. Optional argument: compression level.
//	lz4     LZ4 frame format.
package transform

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Common errors returned during transformer resolution.
var (
	ErrNotFound         = errors.New("transform: transformer not found")
	ErrChainUnsupported = errors.New("transform: multiple transformers not supported")
)

// Func transforms a scatter/gather input into a single output buffer.
// Parameter scratch is a reuse hint: if the result fits, the function may
// store it in scratch and return scratch, else it allocates. A Func is
// single-owner: it is used sequentially on one stream and must not be
// shared across goroutines.
type Func func(scratch []byte, in [][]byte) ([]byte, error)

// Factory builds a transformer from the argument portion of a config
// string. For "flate 6" the factory receives "6".
type Factory func(args string) (Func, error)

type entry struct {
	forward Factory
	reverse Factory
}

var registry = struct {
	mu sync.Mutex
	m  map[string]entry
}{m: make(map[string]entry)}

// Register adds a named transformer pair to the process-wide registry.
// The forward factory produces the transformation applied at write time,
// the reverse factory its inverse applied at read time. Registering the
// same name twice panics; registration happens at init time and a
// duplicate is a programming error.
func Register(name string, forward, reverse Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.m[name]; ok {
		panic(fmt.Sprintf("transform: %q registered twice", name))
	}
	registry.m[name] = entry{forward: forward, reverse: reverse}
}

// find resolves a config string of form "<name>" or "<name> <args>".
func find(config string) (entry, string, error) {
	name, args := config, ""
	if i := strings.IndexByte(config, ' '); i >= 0 {
		name, args = config[:i], strings.TrimSpace(config[i+1:])
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	e, ok := registry.m[name]
	if !ok {
		return entry{}, "", fmt.Errorf("transform: %q: %w", name, ErrNotFound)
	}
	return e, args, nil
}

// Identity returns the input unchanged, flattened into one buffer.
func Identity(scratch []byte, in [][]byte) ([]byte, error) {
	out := scratch[:0]
	for _, b := range in {
		out = append(out, b...)
	}
	return out, nil
}

// GetTransformer resolves the forward transformers for the given config
// strings. An empty list yields Identity. More than one name is reserved
// for future chaining and is rejected.
func GetTransformer(names []string) (Func, error) {
	return get(names, func(e entry) Factory { return e.forward })
}

// GetUntransformer resolves the reverse transformers for the given config
// strings, with the same contract as GetTransformer.
func GetUntransformer(names []string) (Func, error) {
	return get(names, func(e entry) Factory { return e.reverse })
}

func get(names []string, pick func(entry) Factory) (Func, error) {
	if len(names) == 0 {
		return Identity, nil
	}
	if len(names) > 1 {
		return nil, ErrChainUnsupported
	}
	e, args, err := find(names[0])
	if err != nil {
		return nil, err
	}
	return pick(e)(args)
}
