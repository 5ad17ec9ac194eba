package tuple

import (
	"fmt"
	"relstore/pkg/primitives"
)

// TupleRecordID identifies the storage location of a tuple: the page it
// lives on and the slot it occupies. It stays stable until the slot is freed.
type TupleRecordID struct {
	PageID  primitives.PageID
	SlotNum primitives.SlotID
}

// NewTupleRecordID creates a new TupleRecordID
func NewTupleRecordID(pageID primitives.PageID, slotNum primitives.SlotID) *TupleRecordID {
	return &TupleRecordID{
		PageID:  pageID,
		SlotNum: slotNum,
	}
}

func (rid *TupleRecordID) Equals(other *TupleRecordID) bool {
	if other == nil {
		return false
	}
	return rid.PageID.Equals(other.PageID) && rid.SlotNum == other.SlotNum
}

func (rid *TupleRecordID) String() string {
	return fmt.Sprintf("TupleRecordID(page=%s, slot=%d)", rid.PageID.String(), rid.SlotNum)
}
