package heap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"relstore/pkg/config"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
	"sync"
)

var (
	// ErrPageFull is returned when a page has no empty slot for an insert.
	ErrPageFull = errors.New("no empty slot available on page")

	// ErrInvalidRecord is returned when a tuple's record id does not name a
	// live slot on the page it claims to be on.
	ErrInvalidRecord = errors.New("invalid record id")
)

// HeapPage is a fixed-size page of equal-width tuple records preceded by a
// slot-occupancy bitmap. It implements the page.Page interface.
//
// Page layout (exactly config.PageSize bytes):
//   - Header: ceil(numSlots/8) bytes of bitmap, bit i set iff slot i holds
//     a live tuple. Bits are stored LSB-first within each byte.
//   - Body: numSlots contiguous records of tupleDesc.GetSize() bytes each.
//
// The bitmap is authoritative for liveness: the bytes of a cleared slot are
// ignored on read and zero-filled on write so serialization stays
// deterministic.
type HeapPage struct {
	pageID    *page.PageDescriptor
	tupleDesc *tuple.TupleDescription
	tuples    []*tuple.Tuple // indexed by slot number, nil for empty slots
	header    []byte         // slot-occupancy bitmap
	numSlots  primitives.SlotID
	dirtier   *primitives.TransactionID
	oldData   []byte // before-image as of the last commit point
	mutex     sync.RWMutex
}

// NewEmptyHeapPage creates a brand new, empty HeapPage for the given
// descriptor and schema.
func NewEmptyHeapPage(pid *page.PageDescriptor, td *tuple.TupleDescription) (*HeapPage, error) {
	return NewHeapPage(pid, make([]byte, config.PageSize), td)
}

// NewHeapPage deserializes a raw page image. Slots whose header bit is
// clear yield no tuple regardless of the bytes in their record area.
func NewHeapPage(pid *page.PageDescriptor, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if len(data) != config.PageSize {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", config.PageSize, len(data))
	}

	hp := &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		oldData:   make([]byte, config.PageSize),
	}

	hp.numSlots = SlotsPerPage(td)
	hp.header = make([]byte, headerSize(hp.numSlots))
	hp.tuples = make([]*tuple.Tuple, hp.numSlots)

	if err := hp.parsePageData(data); err != nil {
		return nil, err
	}

	copy(hp.oldData, data)
	return hp, nil
}

// SlotsPerPage computes how many records of the given schema fit on one
// page, accounting for the one header bit each slot costs:
//
//	floor(PageSize*8 / (tupleSize*8 + 1))
func SlotsPerPage(td *tuple.TupleDescription) primitives.SlotID {
	tupleBits := uint64(td.GetSize())*8 + 1
	return primitives.SlotID(uint64(config.PageSize) * 8 / tupleBits)
}

func headerSize(numSlots primitives.SlotID) int {
	return (int(numSlots) + 7) / 8
}

// GetID returns the unique page identifier for this heap page.
func (hp *HeapPage) GetID() *page.PageDescriptor {
	return hp.pageID
}

// IsDirty returns the transaction that last modified this page, or nil if
// the page is clean.
func (hp *HeapPage) IsDirty() *primitives.TransactionID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier
}

// MarkDirty records or clears the last-writer transaction. The buffer pool
// calls this when a page is modified or flushed.
func (hp *HeapPage) MarkDirty(dirty bool, tid *primitives.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData serializes the page into its on-disk byte image: the bitmap
// header followed by the slot records, with empty slots zero-filled so the
// image round-trips with NewHeapPage byte-exactly.
func (hp *HeapPage) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.serialize()
}

func (hp *HeapPage) serialize() []byte {
	pageData := make([]byte, config.PageSize)
	copy(pageData, hp.header)

	tupleSize := int(hp.tupleDesc.GetSize())
	base := len(hp.header)

	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.slotUsed(i) || hp.tuples[i] == nil {
			continue
		}

		offset := base + int(i)*tupleSize
		buffer := bytes.NewBuffer(pageData[offset:offset])

		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			field, err := hp.tuples[i].GetField(j)
			if err != nil || field == nil {
				continue
			}
			_ = field.Serialize(buffer)
		}
	}

	return pageData
}

// GetBeforeImage returns a page holding the state as of the last commit
// point, for rollback and UNDO logging.
func (hp *HeapPage) GetBeforeImage() page.Page {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	beforePage, _ := NewHeapPage(hp.pageID, hp.oldData, hp.tupleDesc)
	return beforePage
}

// SetBeforeImage snapshots the current contents as the new rollback
// baseline. Called at commit for pages the committing transaction wrote.
func (hp *HeapPage) SetBeforeImage() {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()
	hp.oldData = hp.serialize()
}

// AddTuple inserts a tuple into the lowest-numbered empty slot, sets the
// slot's header bit, and stamps the tuple's RecordID.
func (hp *HeapPage) AddTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return fmt.Errorf("tuple schema does not match page schema")
	}

	slot, ok := hp.findFirstEmptySlot()
	if !ok {
		return fmt.Errorf("page %s: %w", hp.pageID, ErrPageFull)
	}

	hp.setSlotUsed(slot, true)
	hp.tuples[slot] = t
	t.RecordID = tuple.NewTupleRecordID(hp.pageID, slot)
	return nil
}

// RemoveTuple clears the slot named by the tuple's record id. The record id
// must reference this page and the slot must be live.
func (hp *HeapPage) RemoveTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	rid := t.RecordID
	if rid == nil {
		return fmt.Errorf("tuple has no record id: %w", ErrInvalidRecord)
	}

	if !rid.PageID.Equals(hp.pageID) {
		return fmt.Errorf("tuple is not on page %s: %w", hp.pageID, ErrInvalidRecord)
	}

	slot := rid.SlotNum
	if slot >= hp.numSlots || !hp.slotUsed(slot) {
		return fmt.Errorf("slot %d is not in use: %w", slot, ErrInvalidRecord)
	}

	hp.setSlotUsed(slot, false)
	hp.tuples[slot] = nil
	t.RecordID = nil
	return nil
}

// GetTuples returns all live tuples on this page in slot order.
func (hp *HeapPage) GetTuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	tuples := make([]*tuple.Tuple, 0, int(hp.numSlots)-int(hp.numEmptySlots()))
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if hp.slotUsed(i) && hp.tuples[i] != nil {
			tuples = append(tuples, hp.tuples[i])
		}
	}

	return tuples
}

// GetTupleAt returns the tuple at the specified slot, or nil if the slot is
// empty.
func (hp *HeapPage) GetTupleAt(slot primitives.SlotID) (*tuple.Tuple, error) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	if slot >= hp.numSlots {
		return nil, fmt.Errorf("slot index %d out of bounds", slot)
	}
	if !hp.slotUsed(slot) {
		return nil, nil
	}

	return hp.tuples[slot], nil
}

// NumSlots returns the total number of slots on this page.
func (hp *HeapPage) NumSlots() primitives.SlotID {
	return hp.numSlots
}

// NumEmptySlots returns the count of unoccupied slots.
func (hp *HeapPage) NumEmptySlots() primitives.SlotID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.numEmptySlots()
}

// GetTupleDesc returns the schema of the tuples on this page.
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// slotUsed reports bit i of the bitmap, LSB-first within each byte.
func (hp *HeapPage) slotUsed(i primitives.SlotID) bool {
	return hp.header[i/8]&(1<<(i%8)) != 0
}

func (hp *HeapPage) setSlotUsed(i primitives.SlotID, used bool) {
	if used {
		hp.header[i/8] |= 1 << (i % 8)
	} else {
		hp.header[i/8] &^= 1 << (i % 8)
	}
}

func (hp *HeapPage) numEmptySlots() primitives.SlotID {
	empty := primitives.SlotID(0)
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.slotUsed(i) {
			empty++
		}
	}
	return empty
}

func (hp *HeapPage) findFirstEmptySlot() (primitives.SlotID, bool) {
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.slotUsed(i) {
			return i, true
		}
	}
	return 0, false
}

func (hp *HeapPage) parsePageData(data []byte) error {
	copy(hp.header, data[:len(hp.header)])

	tupleSize := int(hp.tupleDesc.GetSize())
	base := len(hp.header)

	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.slotUsed(i) {
			continue
		}

		offset := base + int(i)*tupleSize
		if offset+tupleSize > len(data) {
			return fmt.Errorf("slot %d record extends past page end", i)
		}

		reader := bytes.NewReader(data[offset : offset+tupleSize])
		t, err := readTuple(reader, hp.tupleDesc)
		if err != nil {
			return fmt.Errorf("failed to read tuple at slot %d: %w", i, err)
		}

		t.RecordID = tuple.NewTupleRecordID(hp.pageID, i)
		hp.tuples[i] = t
	}

	return nil
}

// readTuple deserializes a single tuple record from a byte stream.
func readTuple(reader io.Reader, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)

	for j := 0; j < td.NumFields(); j++ {
		fieldType, err := td.TypeAtIndex(j)
		if err != nil {
			return nil, err
		}

		field, err := types.ParseField(reader, fieldType)
		if err != nil {
			return nil, err
		}

		if err := t.SetField(j, field); err != nil {
			return nil, err
		}
	}
	return t, nil
}
