// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package store

// CollapsingLowestDenseStore is a dynamically growing contiguous (non-sparse)
// store with a limited number of bins. When the limit is reached, the bins
// with the lowest keys get collapsed into the lowest surviving bin, which
// causes the relative accuracy to be lost on the lowest quantiles.
type CollapsingLowestDenseStore struct {
	DenseStore
	binLimit    int
	isCollapsed bool
}

func NewCollapsingLowestDenseStore(binLimit int) *CollapsingLowestDenseStore {
	// Bins are not allocated until keys are added. The allocation grows in
	// chunks up to binLimit.
	return &CollapsingLowestDenseStore{
		DenseStore: DenseStore{minKey: maxInt, maxKey: minInt, chunkSize: defaultChunkSize},
		binLimit:   binLimit,
	}
}

func (s *CollapsingLowestDenseStore) BinLimit() int {
	return s.binLimit
}

func (s *CollapsingLowestDenseStore) IsCollapsed() bool {
	return s.isCollapsed
}

func (s *CollapsingLowestDenseStore) Add(key int) {
	s.AddWithCount(key, float64(1))
}

func (s *CollapsingLowestDenseStore) AddWithCount(key int, count float64) {
	idx := s.getIndex(key)
	s.bins[idx] += count
	s.count += count
}

func (s *CollapsingLowestDenseStore) AddBin(bin Bin) {
	if bin.count == 0 {
		return
	}
	s.AddWithCount(bin.key, bin.count)
}

// getIndex returns the storage index for the key, extending the range if
// necessary. Once the store has collapsed, keys below the collapse boundary
// accumulate into the lowest bin.
func (s *CollapsingLowestDenseStore) getIndex(key int) int {
	if key < s.minKey {
		if s.isCollapsed {
			return 0
		}
		s.extendRange(key, key)
		if s.isCollapsed {
			return 0
		}
	} else if key > s.maxKey {
		s.extendRange(key, key)
	}
	return key - s.offset
}

func (s *CollapsingLowestDenseStore) getNewLength(newMinKey, newMaxKey int) int {
	desiredLength := newMaxKey - newMinKey + 1
	numChunks := (desiredLength + s.chunkSize - 1) / s.chunkSize
	return min(s.chunkSize*numChunks, s.binLimit)
}

func (s *CollapsingLowestDenseStore) extendRange(key, secondKey int) {
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
// requested window is wider than the allocation, the lowest bins get
// collapsed.
func (s *CollapsingLowestDenseStore) adjust(newMinKey, newMaxKey int) {
	if newMaxKey-newMinKey+1 > s.bins.Len() {
		newMinKey = newMaxKey - s.bins.Len() + 1

		if newMinKey >= s.maxKey {
			// The new window is disjoint from the stored keys; put
			// everything in the first bin.
			s.offset = newMinKey
			s.minKey = newMinKey
			s.bins.InitializeWithZeros(s.bins.Len())
			s.bins[0] = s.count
		} else {
			shift := s.offset - newMinKey
			if shift < 0 {
				collapseStartIndex := s.minKey - s.offset
				collapseEndIndex := newMinKey - s.offset
				collapsedCount := s.bins.CollapsedCount(collapseStartIndex, collapseEndIndex)
				s.bins.ReplaceRangeWithZeros(collapseStartIndex, collapseEndIndex, newMinKey-s.minKey)
				s.bins[collapseEndIndex] += collapsedCount
				s.minKey = newMinKey
				// Shift the bins to make room for newMaxKey.
				s.shiftBins(shift)
			} else {
				s.minKey = newMinKey
				// Shift the bins to make room for newMinKey.
				s.shiftBins(shift)
			}
		}

		s.maxKey = newMaxKey
		s.isCollapsed = true
	} else {
		s.centerBins(newMinKey, newMaxKey)
		s.minKey = newMinKey
		s.maxKey = newMaxKey
	}
}

func (s *CollapsingLowestDenseStore) MergeWith(other Store) {
	if other.TotalCount() == 0 {
		return
	}
	o, ok := other.(*CollapsingLowestDenseStore)
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

	// The other store's keys below this store's collapse boundary fold into
	// the lowest bin; the rest are added bin-wise.
	collapseStartIdx := o.minKey - o.offset
	collapseEndIdx := min(s.minKey, o.maxKey+1) - o.offset
	if collapseEndIdx > collapseStartIdx {
		collapsedCount := o.bins.CollapsedCount(collapseStartIdx, collapseEndIdx)
		s.bins[0] += collapsedCount
	} else {
		collapseEndIdx = collapseStartIdx
	}
	for key := collapseEndIdx + o.offset; key <= o.maxKey; key++ {
		s.bins[key-s.offset] += o.bins[key-o.offset]
	}
	s.count += o.count
}

func (s *CollapsingLowestDenseStore) Copy() Store {
	return &CollapsingLowestDenseStore{
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

func (s *CollapsingLowestDenseStore) copy(o *CollapsingLowestDenseStore) {
	s.DenseStore.copy(&o.DenseStore)
	s.binLimit = o.binLimit
	s.isCollapsed = o.isCollapsed
}
