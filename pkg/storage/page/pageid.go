package page

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"relstore/pkg/primitives"
)

// PageDescriptor identifies a heap page by table id and page number.
type PageDescriptor struct {
	tableID primitives.TableID
	pageNum primitives.PageNumber
}

// NewPageDescriptor creates a new page descriptor
func NewPageDescriptor(tableID primitives.TableID, pageNum primitives.PageNumber) *PageDescriptor {
	return &PageDescriptor{
		tableID: tableID,
		pageNum: pageNum,
	}
}

// GetTableID returns the table ID
func (pd *PageDescriptor) GetTableID() primitives.TableID {
	return pd.tableID
}

// PageNo returns the page number
func (pd *PageDescriptor) PageNo() primitives.PageNumber {
	return pd.pageNum
}

// Key returns the comparable identity of this page for use as a map key.
func (pd *PageDescriptor) Key() primitives.PageKey {
	return primitives.PageKey{Table: pd.tableID, Page: pd.pageNum}
}

// Serialize returns this page ID as a byte array
func (pd *PageDescriptor) Serialize() []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], uint64(pd.tableID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(pd.pageNum))
	return buf
}

// Equals checks if two page IDs name the same page
func (pd *PageDescriptor) Equals(other primitives.PageID) bool {
	if other == nil {
		return false
	}
	return pd.tableID == other.GetTableID() && pd.pageNum == other.PageNo()
}

func (pd *PageDescriptor) String() string {
	return fmt.Sprintf("PageDescriptor(table=%d, page=%d)", pd.tableID, pd.pageNum)
}

// HashCode returns a hash code for this page ID
func (pd *PageDescriptor) HashCode() primitives.HashCode {
	h := fnv.New64a()
	h.Write(pd.Serialize())
	return primitives.HashCode(h.Sum64())
}
