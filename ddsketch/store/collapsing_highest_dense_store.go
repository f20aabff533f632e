// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package store

// CollapsingHighestDenseStore is a dynamically growing contiguous
// (non-sparse) store with a limited number of bins. When the limit is
// reached, the bins with the highest keys get collapsed into the highest
// surviving bin, which causes the relative accuracy to be lost on the
// highest quantiles.
type CollapsingHighestDenseStore struct {
	DenseStore
	binLimit    int
	isCollapsed bool
}

func NewCollapsingHighestDenseStore(binLimit int) *CollapsingHighestDenseStore {
	return &CollapsingHighestDenseStore{
		DenseStore: DenseStore{minKey: maxInt, maxKey: minInt, chunkSize: defaultChunkSize},
		binLimit:   binLimit,
	}
}

func (s *CollapsingHighestDenseStore) BinLimit() int {
	return s.binLimit
}

func (s *CollapsingHighestDenseStore) IsCollapsed() bool {
	return s.isCollapsed
}

func (s *CollapsingHighestDenseStore) Add(key int) {
	s.AddWithCount(key, float64(1))
}

func (s *CollapsingHighestDenseStore) AddWithCount(key int, count float64) {
	idx := s.getIndex(key)
	s.bins[idx] += count
	s.count += count
}

func (s *CollapsingHighestDenseStore) AddBin(bin Bin) {
	if bin.count == 0 {
		return
	}
	s.AddWithCount(bin.key, bin.count)
}

// getIndex returns the storage index for the key, extending the range if
// necessary. Once the store has collapsed, keys above the collapse boundary
// accumulate into the highest bin.
func (s *CollapsingHighestDenseStore) getIndex(key int) int {
	if key > s.maxKey {
		if s.isCollapsed {
			return s.bins.Len() - 1
		}
		s.extendRange(key, key)
		if s.isCollapsed {
			return s.bins.Len() - 1
		}
	} else if key < s.minKey {
		s.extendRange(key, key)
	}
	return key - s.offset
}

func (s *CollapsingHighestDenseStore) getNewLength(newMinKey, newMaxKey int) int {
	desiredLength := newMaxKey - newMinKey + 1
	numChunks := (desiredLength + s.chunkSize - 1) / s.chunkSize
	return min(s.chunkSize*numChunks, s.binLimit)
}

func (s *CollapsingHighestDenseStore) extendRange(key, secondKey int) {
	newMinKey := min(min(key, secondKey), s.minKey)
	newMaxKey := max(max(key, secondKey), s.maxKey)

	if s.IsEmpty() {
		s.bins.InitializeWithZeros(s.getNewLength(newMinKey, newMaxKey))
		s.offset = newMinKey
		s.adjust(newMinKey, newMaxKey)
	} else if newMinKey >= s.minKey && newMaxKey < s.offset+s.bins.Len() {
		s.minKey = newMinKey
		s.maxKey = newMaxKey
	} else {
		newLength := s.getNewLength(newMinKey, newMaxKey)
		if newLength > s.bins.Len() {
			s.bins.ExtendBackWithZeros(newLength - s.bins.Len())
		}
		s.adjust(newMinKey, newMaxKey)
	}
}

// adjust moves the bins, the offset, the minKey and the maxKey, without
// resizing the bins, in order to make the specified range fit. When the
// requested window is wider than the allocation, the highest bins get
// collapsed.
func (s *CollapsingHighestDenseStore) adjust(newMinKey, newMaxKey int) {
	if newMaxKey-newMinKey+1 > s.bins.Len() {
		newMaxKey = newMinKey + s.bins.Len() - 1

		if newMaxKey <= s.minKey {
			// The new window is disjoint from the stored keys; put
			// everything in the last bin.
			s.offset = newMinKey
			s.maxKey = newMaxKey
			s.bins.InitializeWithZeros(s.bins.Len())
			s.bins[s.bins.Len()-1] = s.count
		} else {
			shift := s.offset - newMinKey
			if shift > 0 {
				collapseStartIndex := newMaxKey - s.offset + 1
				collapseEndIndex := s.maxKey - s.offset + 1
				collapsedCount := s.bins.CollapsedCount(collapseStartIndex, collapseEndIndex)
				s.bins.ReplaceRangeWithZeros(collapseStartIndex, collapseEndIndex, s.maxKey-newMaxKey)
				s.bins[collapseStartIndex-1] += collapsedCount
				s.maxKey = newMaxKey
				// Shift the bins to make room for newMinKey.
				s.shiftBins(shift)
			} else {
				s.maxKey = newMaxKey
				// Shift the bins to make room for newMaxKey.
				s.shiftBins(shift)
			}
		}

		s.minKey = newMinKey
		s.isCollapsed = true
	} else {
		s.centerBins(newMinKey, newMaxKey)
		s.minKey = newMinKey
		s.maxKey = newMaxKey
	}
}

func (s *CollapsingHighestDenseStore) MergeWith(other Store) {
	if other.TotalCount() == 0 {
		return
	}
	o, ok := other.(*CollapsingHighestDenseStore)
	if !ok {
		for bin := range other.Bins() {
			s.AddBin(bin)
		}
		return
	}
	if s.count == 0 {
		s.copy(o)
		return
	}
	if o.minKey < s.minKey || o.maxKey > s.maxKey {
		s.extendRange(o.minKey, o.maxKey)
	}

	// The other store's keys above this store's collapse boundary fold into
	// the highest bin; the rest are added bin-wise.
	collapseEndIdx := o.maxKey - o.offset + 1
	collapseStartIdx := max(s.maxKey+1, o.minKey) - o.offset
	if collapseEndIdx > collapseStartIdx {
		collapsedCount := o.bins.CollapsedCount(collapseStartIdx, collapseEndIdx)
		s.bins[s.bins.Len()-1] += collapsedCount
	} else {
		collapseStartIdx = collapseEndIdx
	}
	for key := o.minKey; key < collapseStartIdx+o.offset; key++ {
		s.bins[key-s.offset] += o.bins[key-o.offset]
	}
	s.count += o.count
}

func (s *CollapsingHighestDenseStore) Copy() Store {
	return &CollapsingHighestDenseStore{
		DenseStore: DenseStore{
			bins:      s.bins.copy(),
			count:     s.count,
			minKey:    s.minKey,
			maxKey:    s.maxKey,
			chunkSize: s.chunkSize,
			offset:    s.offset,
		},
		binLimit:    s.binLimit,
		isCollapsed: s.isCollapsed,
	}
}

func (s *CollapsingHighestDenseStore) copy(o *CollapsingHighestDenseStore) {
	s.DenseStore.copy(&o.DenseStore)
	s.binLimit = o.binLimit
	s.isCollapsed = o.isCollapsed
}
