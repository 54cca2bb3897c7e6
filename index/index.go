// Package index builds block location indexes at write time. An Index
// plugs into a writer's Indexer hook, records where every block starts and
// how many items it holds, and maps item ranks to ItemLocation values, the
// form Reader.Seek takes.
//
// Typical usage:
//
//	idx := index.New()
//	w := recordio.NewWriter(f, recordio.WriterOpts{Packed: true, Indexer: idx})
//	// ... write items, close ...
//	loc, ok := idx.Locate(1000) // location of the 1000th item written
//
// The writers in package recordio emit V1 streams, and the V1 readers do
// not seek: Seek on them latches recordio.ErrSeekUnsupported. Only the V2
// reader accepts a location in Seek.
package index

import (
	"github.com/davidvella/recordio"
	"github.com/google/btree"
)

// entry describes one block: where it starts, the global rank of its first
// item, and its item count.
type entry struct {
	start int64
	rank  int64
	items int
}

// Index maps global item ranks to block locations. It is thread
// compatible: the writer drives IndexBlock sequentially, and lookups must
// not race with writing.
type Index struct {
	tree  *btree.BTreeG[entry]
	total int64
}

var _ recordio.Indexer = (*Index)(nil)

// New returns an empty Index.
func New() *Index {
	return &Index{
		tree: btree.NewG(2, func(a, b entry) bool { return a.rank < b.rank }),
	}
}

// IndexBlock records a finished block. It implements recordio.Indexer; the
// writer invokes it once per block, in file order.
func (x *Index) IndexBlock(start int64, items int) error {
	x.tree.ReplaceOrInsert(entry{start: start, rank: x.total, items: items})
	x.total += int64(items)
	return nil
}

// Locate returns the location of the item with the given global rank: the
// rank-th item written, counting from zero across all blocks. It reports
// false if rank is out of range.
func (x *Index) Locate(rank int64) (recordio.ItemLocation, bool) {
	if rank < 0 || rank >= x.total {
		return recordio.ItemLocation{}, false
	}
	var found entry
	x.tree.DescendLessOrEqual(entry{rank: rank}, func(e entry) bool {
		found = e
		return false
	})
	return recordio.ItemLocation{
		Block: found.start,
		Item:  int(rank - found.rank),
	}, true
}

// Blocks returns the start offsets of all indexed blocks, in file order.
func (x *Index) Blocks() []int64 {
	offsets := make([]int64, 0, x.tree.Len())
	x.tree.Ascend(func(e entry) bool {
		offsets = append(offsets, e.start)
		return true
	})
	return offsets
}

// NumItems returns the total number of items indexed.
func (x *Index) NumItems() int64 { return x.total }

// NumBlocks returns the number of blocks indexed.
func (x *Index) NumBlocks() int { return x.tree.Len() }
