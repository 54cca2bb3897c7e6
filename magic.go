package recordio

import "fmt"

// NumMagicBytes is the size of the magic number stored at the start of
// every block and chunk.
const NumMagicBytes = 8

// Magic identifies the kind of a block. It is the first 8 bytes of every
// framed unit on disk.
type Magic [NumMagicBytes]byte

// The magic numbers are constant random bytes chosen once; they are part of
// the wire format and must never change.
var (
	// MagicUnpacked marks a legacy V1 unpacked block.
	MagicUnpacked = Magic{0xfc, 0xae, 0x95, 0x31, 0xf0, 0xd9, 0xbd, 0x20}

	// MagicPacked marks a legacy V1 packed block and a V2 data block.
	MagicPacked = Magic{0x2e, 0x76, 0x47, 0xeb, 0x34, 0x07, 0x3c, 0x2e}

	// MagicHeader marks the header block of a V2 file.
	MagicHeader = Magic{0xd9, 0xe1, 0xd9, 0x5c, 0xc2, 0x16, 0x04, 0xf7}

	// MagicTrailer marks the trailer block of a V2 file.
	MagicTrailer = Magic{0xfe, 0xba, 0x1a, 0xd7, 0xcb, 0xdf, 0x75, 0x3a}

	// MagicInvalid is a sentinel. It is never stored on disk.
	MagicInvalid = Magic{0xe4, 0xe7, 0x9a, 0xc1, 0xb3, 0xf6, 0xb7, 0xa2}
)

// String renders the magic for error messages.
func (m Magic) String() string {
	return fmt.Sprintf("[%x %x %x %x %x %x %x %x]",
		m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7])
}

// V2 chunk geometry. Chunks are fixed-size units; a block is one or more
// chunks sharing a magic.
const (
	// ChunkSize is the fixed on-disk size of a V2 chunk, header included.
	ChunkSize = 32 << 10

	// chunkHeaderSize is magic(8) + crc32(4) + flag(4) + payloadSize(4) +
	// totalChunks(4) + chunkIndex(4).
	chunkHeaderSize = 28

	// MaxChunkPayloadSize is the payload capacity of a single chunk.
	MaxChunkPayloadSize = ChunkSize - chunkHeaderSize
)

// MaxReadRecordSize bounds the declared size of any record read from disk,
// so a corrupt length prefix cannot trigger a huge allocation.
const MaxReadRecordSize = uint64(1) << 29
