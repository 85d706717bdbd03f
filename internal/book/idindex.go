package book

// idIndex is the sparse mapping from external order id to current pool
// handle; an id is present iff the order is currently resting.
type idIndex struct {
	m map[uint64]Handle
}

func newIDIndex(capacityHint int) idIndex {
	return idIndex{m: make(map[uint64]Handle, capacityHint)}
}

func (idx idIndex) lookup(id uint64) (Handle, bool) {
	h, ok := idx.m[id]
	return h, ok
}

func (idx idIndex) set(id uint64, h Handle) {
	idx.m[id] = h
}

func (idx idIndex) delete(id uint64) {
	delete(idx.m, id)
}
