// Package heappage is the in-memory image of one fixed-size slotted disk
// page: a bitmap header followed by a fixed-width slot array. Grounded on
// the teacher's storage_engine/access/heapfile_manager/heap_page.go (the
// header-offset-constants-plus-accessor-functions style) and on
// simpledb.storage.HeapPage in _examples/original_source, whose bitmap
// layout this follows exactly rather than the teacher's variable-length
// slot directory.
package heappage

import (
	"encoding/binary"
	"fmt"

	"SiloDB/dbconfig"
	"SiloDB/dberr"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// NumSlots returns how many fixed-width tuples of tupleWidth bytes fit on
// a page of pageSize bytes once the bitmap header is accounted for:
//
//	S = floor((pageSize*8) / (tupleWidth*8 + 1))
func NumSlots(pageSize, tupleWidth int) int {
	return (pageSize * 8) / (tupleWidth*8 + 1)
}

// HeaderSize returns the byte length of the occupancy bitmap for S slots:
// ceil(S/8).
func HeaderSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// HeapPage is the in-memory image of a single disk page: its PageId, its
// schema (needed to decode/encode slots), the decoded tuple per occupied
// slot, and which transaction (if any) has dirtied it.
type HeapPage struct {
	pid    ids.PageId
	schema *tuple.Schema

	numSlots   int
	headerSize int

	header []byte // occupancy bitmap, headerSize bytes
	slots  []*tuple.Tuple // nil where unoccupied

	dirtyBy   ids.TransactionId
	isDirty   bool
}

// NewEmpty builds a fresh, all-empty page for pid under schema, sized per
// the current dbconfig.PageSize.
func NewEmpty(pid ids.PageId, schema *tuple.Schema) *HeapPage {
	tw := schema.TupleWidth()
	n := NumSlots(dbconfig.PageSize, tw)
	h := HeaderSize(n)
	return &HeapPage{
		pid:        pid,
		schema:     schema,
		numSlots:   n,
		headerSize: h,
		header:     make([]byte, h),
		slots:      make([]*tuple.Tuple, n),
	}
}

// NewFromBytes parses a page image of exactly dbconfig.PageSize bytes,
// eagerly decoding every occupied slot into a Tuple.
func NewFromBytes(pid ids.PageId, schema *tuple.Schema, data []byte) (*HeapPage, error) {
	if len(data) != dbconfig.PageSize {
		return nil, dberr.NewDbError("HeapPage.NewFromBytes",
			fmt.Sprintf("expected %d bytes, got %d", dbconfig.PageSize, len(data)))
	}
	tw := schema.TupleWidth()
	n := NumSlots(dbconfig.PageSize, tw)
	h := HeaderSize(n)

	p := &HeapPage{
		pid:        pid,
		schema:     schema,
		numSlots:   n,
		headerSize: h,
		header:     make([]byte, h),
		slots:      make([]*tuple.Tuple, n),
	}
	copy(p.header, data[:h])

	for i := 0; i < n; i++ {
		if !p.bitSet(i) {
			continue
		}
		off := h + i*tw
		t, err := decodeTuple(schema, data[off:off+tw])
		if err != nil {
			return nil, err
		}
		t.SetRecordId(ids.NewRecordId(pid, i))
		p.slots[i] = t
	}
	return p, nil
}

func (p *HeapPage) bitSet(i int) bool {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	return p.header[byteIdx]&(1<<bitIdx) != 0
}

func (p *HeapPage) setBit(i int, v bool) {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	if v {
		p.header[byteIdx] |= 1 << bitIdx
	} else {
		p.header[byteIdx] &^= 1 << bitIdx
	}
}

func (p *HeapPage) PageId() ids.PageId   { return p.pid }
func (p *HeapPage) Schema() *tuple.Schema { return p.schema }
func (p *HeapPage) NumSlots() int        { return p.numSlots }

// NumEmptySlots returns how many slots currently hold no tuple.
func (p *HeapPage) NumEmptySlots() int {
	empty := 0
	for i := 0; i < p.numSlots; i++ {
		if !p.bitSet(i) {
			empty++
		}
	}
	return empty
}

// IsSlotUsed reports whether slot i is occupied.
func (p *HeapPage) IsSlotUsed(i int) bool {
	if i < 0 || i >= p.numSlots {
		return false
	}
	return p.bitSet(i)
}

// Insert places t in the lowest-indexed empty slot, requiring t's schema
// to match the page's. Stamps t's RecordId to (this page, slot) on
// success.
func (p *HeapPage) Insert(t *tuple.Tuple) error {
	if !p.schema.Equal(t.Schema) {
		return dberr.NewDbError("HeapPage.Insert", "tuple schema does not match page schema")
	}
	for i := 0; i < p.numSlots; i++ {
		if p.bitSet(i) {
			continue
		}
		p.setBit(i, true)
		p.slots[i] = t
		t.SetRecordId(ids.NewRecordId(p.pid, i))
		return nil
	}
	return dberr.NewDbError("HeapPage.Insert", dberr.NotEnoughSpace)
}

// Delete clears the slot named by t's RecordId. Fails if the RecordId
// names a different page, or if the slot is already empty.
func (p *HeapPage) Delete(t *tuple.Tuple) error {
	rid, ok := t.RecordId()
	if !ok || rid.PageId != p.pid {
		return dberr.NewDbError("HeapPage.Delete", dberr.NotOnThisPage)
	}
	if rid.SlotNo < 0 || rid.SlotNo >= p.numSlots || !p.bitSet(rid.SlotNo) {
		return dberr.NewDbError("HeapPage.Delete", dberr.SlotEmpty)
	}
	p.setBit(rid.SlotNo, false)
	p.slots[rid.SlotNo] = nil
	return nil
}

// MarkDirty records that tid has mutated this page.
func (p *HeapPage) MarkDirty(tid ids.TransactionId) {
	p.isDirty = true
	p.dirtyBy = tid
}

// MarkClean clears dirty-by state; called after a successful flush or on
// a fresh read from disk.
func (p *HeapPage) MarkClean() {
	p.isDirty = false
	p.dirtyBy = ids.TransactionId{}
}

// DirtyBy returns the transaction that dirtied this page, if any.
func (p *HeapPage) DirtyBy() (ids.TransactionId, bool) {
	if !p.isDirty {
		return ids.TransactionId{}, false
	}
	return p.dirtyBy, true
}

func (p *HeapPage) IsDirty() bool { return p.isDirty }

// Bytes serializes the page to exactly dbconfig.PageSize bytes: header
// bitmap, then slots back-to-back, empty slots zero-filled. Round-trip
// with NewFromBytes is bit-exact for occupied slots.
func (p *HeapPage) Bytes() []byte {
	out := make([]byte, dbconfig.PageSize)
	copy(out, p.header)

	tw := p.schema.TupleWidth()
	for i := 0; i < p.numSlots; i++ {
		if !p.bitSet(i) {
			continue
		}
		off := p.headerSize + i*tw
		encodeTuple(p.schema, p.slots[i], out[off:off+tw])
	}
	return out
}

// Iterator returns a fresh, non-restartable sequence over occupied slots
// in slot-index order. Callers must obtain a new Iterator for each pass.
func (p *HeapPage) Iterator() *Iterator {
	return &Iterator{page: p, next: 0}
}

// Iterator walks a HeapPage's occupied slots once, in slot order.
type Iterator struct {
	page *HeapPage
	next int
}

// HasNext reports whether another occupied slot remains.
func (it *Iterator) HasNext() bool {
	for it.next < it.page.numSlots {
		if it.page.bitSet(it.next) {
			return true
		}
		it.next++
	}
	return false
}

// Next returns the next tuple, in slot-index order. Panics if no occupied
// slot remains, matching the teacher's convention for internal iterators.
func (it *Iterator) Next() *tuple.Tuple {
	if !it.HasNext() {
		panic("heappage: Next called with no elements remaining")
	}
	t := it.page.slots[it.next]
	it.next++
	return t
}

func encodeTuple(schema *tuple.Schema, t *tuple.Tuple, out []byte) {
	off := 0
	for i, f := range schema.Fields {
		v := t.Values[i]
		switch f.Type {
		case tuple.IntType:
			binary.BigEndian.PutUint32(out[off:], uint32(v.IntVal))
			off += 4
		case tuple.StringType:
			b := []byte(v.StrVal)
			if len(b) > f.Len {
				b = b[:f.Len]
			}
			binary.BigEndian.PutUint32(out[off:], uint32(len(b)))
			off += 4
			copy(out[off:off+f.Len], b)
			for i := len(b); i < f.Len; i++ {
				out[off+i] = 0
			}
			off += f.Len
		}
	}
}

func decodeTuple(schema *tuple.Schema, data []byte) (*tuple.Tuple, error) {
	t := tuple.NewTuple(schema)
	off := 0
	for i, f := range schema.Fields {
		switch f.Type {
		case tuple.IntType:
			v := int32(binary.BigEndian.Uint32(data[off:]))
			t.SetField(i, tuple.IntValue(v))
			off += 4
		case tuple.StringType:
			n := binary.BigEndian.Uint32(data[off:])
			off += 4
			if int(n) > f.Len {
				n = uint32(f.Len)
			}
			s := string(data[off : off+int(n)])
			t.SetField(i, tuple.StringValue(s))
			off += f.Len
		}
	}
	return t, nil
}
