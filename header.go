package recordio

import "fmt"

// Reserved header keys that change reader behavior.
const (
	// KeyTrailer maps to a Bool reporting whether a trailer block is
	// present at the end of the file.
	KeyTrailer = "trailer"

	// KeyTransformer maps to a String naming the transformer (plus
	// optional space-separated arguments) applied to the data blocks that
	// follow the header.
	KeyTransformer = "transformer"
)

// HeaderValueType tags the variant held by a HeaderValue.
type HeaderValueType uint8

// Header value types. The values are stored on the wire.
const (
	TypeInvalid HeaderValueType = iota
	TypeBool
	TypeInt
	TypeUint
	TypeString
)

func (t HeaderValueType) String() string {
	switch t {
	case TypeInvalid:
		return "invalid"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// HeaderValue is a tagged union. Only the field matching Type is valid.
type HeaderValue struct {
	Type   HeaderValueType
	Bool   bool
	Int    int64
	Uint   uint64
	String string
}

// HeaderEntry is a single key-value pair from a file's header block. Keys
// may repeat.
type HeaderEntry struct {
	Key   string
	Value HeaderValue
}

// readHeaderValue parses one typed value: a type tag byte followed by the
// type-specific body. A string body is a Uint-typed length value followed
// by that many raw bytes.
func readHeaderValue(p *parser) HeaderValue {
	var v HeaderValue
	tag := p.readBytes(1)
	if tag == nil {
		return v
	}
	typ := HeaderValueType(tag[0])
	switch typ {
	case TypeBool:
		b := p.readBytes(1)
		if b == nil {
			return v
		}
		v.Bool = b[0] != 0
	case TypeInt:
		v.Int = p.readVarint()
	case TypeUint:
		v.Uint = p.readUvarint()
	case TypeString:
		length := readHeaderValue(p)
		if length.Type != TypeUint {
			p.err.set(fmt.Errorf("recordio: failed to read string length: %w",
				ErrHeaderValueType))
			return v
		}
		if length.Uint > MaxReadRecordSize {
			p.err.set(fmt.Errorf("recordio: header string of %d bytes: %w",
				length.Uint, ErrRecordTooLarge))
			return v
		}
		v.String = p.readString(int(length.Uint))
	default:
		p.err.set(fmt.Errorf("recordio: invalid header value type %d: %w",
			tag[0], ErrHeaderValueType))
		return v
	}
	if p.err.ok() {
		v.Type = typ
	}
	return v
}

// decodeHeader parses the payload of a header block: a Uint-typed entry
// count followed by that many key-value pairs, keys being String-typed
// values.
func decodeHeader(data []byte, err *errorReporter) []HeaderEntry {
	p := newParser(data, err)
	n := readHeaderValue(p)
	if n.Type != TypeUint {
		err.set(fmt.Errorf("recordio: failed to read header entry count: %w",
			ErrHeaderValueType))
		return nil
	}
	entries := make([]HeaderEntry, 0, n.Uint)
	for i := uint64(0); i < n.Uint; i++ {
		key := readHeaderValue(p)
		if key.Type != TypeString {
			err.set(fmt.Errorf("recordio: failed to read header key: %w",
				ErrHeaderValueType))
			return entries
		}
		value := readHeaderValue(p)
		if !err.ok() {
			return entries
		}
		entries = append(entries, HeaderEntry{Key: key.String, Value: value})
	}
	return entries
}

// hasTrailer reports whether the header promises a trailer block.
func hasTrailer(entries []HeaderEntry) (bool, error) {
	for _, e := range entries {
		if e.Key == KeyTrailer {
			if e.Value.Type != TypeBool {
				return false, fmt.Errorf("recordio: %s value is %s, expect bool: %w",
					KeyTrailer, e.Value.Type, ErrHeaderValueType)
			}
			return e.Value.Bool, nil
		}
	}
	return false, nil
}

// transformerNames collects the transformer config strings named by the
// header, in order.
func transformerNames(entries []HeaderEntry) ([]string, error) {
	var names []string
	for _, e := range entries {
		if e.Key == KeyTransformer {
			if e.Value.Type != TypeString {
				return nil, fmt.Errorf("recordio: %s value is %s, expect string: %w",
					KeyTransformer, e.Value.Type, ErrHeaderValueType)
			}
			names = append(names, e.Value.String)
		}
	}
	return names, nil
}
