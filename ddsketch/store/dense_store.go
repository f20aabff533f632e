// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package store

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
)

const (
	// The number of bins to grow by.
	defaultChunkSize = 128

	maxInt = 1<<(bits.UintSize-1) - 1
	minInt = -maxInt - 1
)

// DenseStore is a dynamically growing contiguous (non-sparse) store that
// keeps all the bins between the bin for the minKey and the bin for the
// maxKey. The allocated length is always a multiple of the chunk size, and
// the non-zero window is kept centered within the allocation. The number of
// bins is bound only by the size of the slice that can be allocated.
type DenseStore struct {
	bins      BinList
	count     float64
	minKey    int
	maxKey    int
	chunkSize int

	// The difference between the keys and the indices at which they are
	// stored: key k lives at storage index k - offset.
	offset int
}

func NewDenseStore() *DenseStore {
	return NewDenseStoreWithChunkSize(defaultChunkSize)
}

func NewDenseStoreWithChunkSize(chunkSize int) *DenseStore {
	return &DenseStore{minKey: maxInt, maxKey: minInt, chunkSize: chunkSize}
}

func (s *DenseStore) Add(key int) {
	s.AddWithCount(key, float64(1))
}

func (s *DenseStore) AddWithCount(key int, count float64) {
	idx := s.getIndex(key)
	s.bins[idx] += count
	s.count += count
}

func (s *DenseStore) AddBin(bin Bin) {
	if bin.count == 0 {
		return
	}
	s.AddWithCount(bin.key, bin.count)
}

// getIndex returns the storage index for the key, extending the range if
// necessary.
func (s *DenseStore) getIndex(key int) int {
	if key < s.minKey || key > s.maxKey {
		s.extendRange(key, key)
	}
	return key - s.offset
}

func (s *DenseStore) getNewLength(newMinKey, newMaxKey int) int {
	desiredLength := newMaxKey - newMinKey + 1
	numChunks := (desiredLength + s.chunkSize - 1) / s.chunkSize
	return s.chunkSize * numChunks
}

// extendRange grows the bins as necessary so that the keys in
// [newMinKey, newMaxKey] can be stored, then adjusts the window.
func (s *DenseStore) extendRange(key, secondKey int) {
	newMinKey := min(min(key, secondKey), s.minKey)
	newMaxKey := max(max(key, secondKey), s.maxKey)

	if s.IsEmpty() {
		s.bins.InitializeWithZeros(s.getNewLength(newMinKey, newMaxKey))
		s.offset = newMinKey
		s.adjust(newMinKey, newMaxKey)
	} else if newMinKey >= s.minKey && newMaxKey < s.offset+s.bins.Len() {
		// No need to change the range, just the key extrema.
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
// resizing the bins, in order to make the specified range fit.
func (s *DenseStore) adjust(newMinKey, newMaxKey int) {
	s.centerBins(newMinKey, newMaxKey)
	s.minKey = newMinKey
	s.maxKey = newMaxKey
}

// shiftBins shifts the stored counters; this changes the offset.
func (s *DenseStore) shiftBins(shift int) {
	if shift > 0 {
		s.bins.RemoveTrailingElements(shift)
		s.bins.ExtendFrontWithZeros(shift)
	} else {
		s.bins.RemoveLeadingElements(-shift)
		s.bins.ExtendBackWithZeros(-shift)
	}
	s.offset -= shift
}

// centerBins centers the key window within the allocation; this changes the
// offset.
func (s *DenseStore) centerBins(newMinKey, newMaxKey int) {
	middleKey := newMinKey + (newMaxKey-newMinKey+1)/2
	s.shiftBins(s.offset + s.bins.Len()/2 - middleKey)
}

func (s *DenseStore) IsEmpty() bool {
	return s.bins.Len() == 0
}

func (s *DenseStore) TotalCount() float64 {
	return s.count
}

func (s *DenseStore) MinKey() (int, error) {
	if s.count == 0 {
		return 0, errors.New("MinKey of empty store is undefined.")
	}
	return s.minKey, nil
}

func (s *DenseStore) MaxKey() (int, error) {
	if s.count == 0 {
		return 0, errors.New("MaxKey of empty store is undefined.")
	}
	return s.maxKey, nil
}

// KeyAtRank scans the bins in storage order, accumulating counts, and
// returns the key of the first bin whose running count exceeds the rank
// (lower) or reaches rank+1 (upper).
func (s *DenseStore) KeyAtRank(rank float64, lower bool) int {
	var runningCount float64
	for idx, binCount := range s.bins {
		runningCount += binCount
		if (lower && runningCount > rank) || (!lower && runningCount >= rank+1) {
			return idx + s.offset
		}
	}
	return s.maxKey
}

func (s *DenseStore) MergeWith(other Store) {
	if other.TotalCount() == 0 {
		return
	}
	o, ok := other.(*DenseStore)
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
	for key := o.minKey; key <= o.maxKey; key++ {
		s.bins[key-s.offset] += o.bins[key-o.offset]
	}
	s.count += o.count
}

func (s *DenseStore) Bins() <-chan Bin {
	ch := make(chan Bin)
	go func() {
		defer close(ch)
		for key := s.minKey; key <= s.maxKey; key++ {
			if s.bins[key-s.offset] > 0 {
				ch <- Bin{key: key, count: s.bins[key-s.offset]}
			}
		}
	}()
	return ch
}

func (s *DenseStore) Copy() Store {
	return &DenseStore{
		bins:      s.bins.copy(),
		count:     s.count,
		minKey:    s.minKey,
		maxKey:    s.maxKey,
		chunkSize: s.chunkSize,
		offset:    s.offset,
	}
}

func (s *DenseStore) copy(o *DenseStore) {
	s.bins = o.bins.copy()
	s.count = o.count
	s.minKey = o.minKey
	s.maxKey = o.maxKey
	s.chunkSize = o.chunkSize
	s.offset = o.offset
}

func (s *DenseStore) string() string {
	var buffer bytes.Buffer
	buffer.WriteString("{")
	for idx := 0; idx < s.bins.Len(); idx++ {
		buffer.WriteString(fmt.Sprintf("%d: %f, ", idx+s.offset, s.bins[idx]))
	}
	buffer.WriteString(fmt.Sprintf("count: %v, minKey: %d, maxKey: %d, offset: %d}", s.count, s.minKey, s.maxKey, s.offset))
	return buffer.String()
}

func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}
