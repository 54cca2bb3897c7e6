package recordio

// IoVec is a scatter/gather view over one or more byte slices. The slices
// are borrowed; an IoVec returned by a reader is valid only until the next
// Scan.
type IoVec [][]byte

// TotalSize returns the summed length of all slices.
func (iov IoVec) TotalSize() int {
	var n int
	for _, b := range iov {
		n += len(b)
	}
	return n
}

// Flatten copies the slices into one contiguous buffer. Parsers use the
// single-slice fast path where possible and fall back to Flatten.
func (iov IoVec) Flatten() []byte {
	buf := make([]byte, 0, iov.TotalSize())
	for _, b := range iov {
		buf = append(buf, b...)
	}
	return buf
}
