package dataframe

import (
	xxhash "github.com/cespare/xxhash/v2"
)

const (
	keyIndexLoadFactor     = 0.75
	keyIndexGrowthFactor   = 2
	keyIndexCapacityFactor = 1.3
)

// KeyIndex maps join keys to the row positions holding them. Buckets are
// chosen by xxhash of the key.
type KeyIndex struct {
	buckets  [][]keyEntry
	capacity int
	size     int
}

type keyEntry struct {
	key  string
	rows []int
}

// NewKeyIndex creates an index sized for roughly estimatedSize distinct keys.
func NewKeyIndex(estimatedSize int) *KeyIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * keyIndexCapacityFactor))
	return &KeyIndex{
		buckets:  make([][]keyEntry, capacity),
		capacity: capacity,
	}
}

func (ki *KeyIndex) bucket(key string, capacity int) int {
	//nolint:gosec // capacity is a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// Put records that row holds key.
func (ki *KeyIndex) Put(key string, row int) {
	idx := ki.bucket(key, ki.capacity)

	for i := range ki.buckets[idx] {
		if ki.buckets[idx][i].key == key {
			ki.buckets[idx][i].rows = append(ki.buckets[idx][i].rows, row)
			return
		}
	}

	ki.buckets[idx] = append(ki.buckets[idx], keyEntry{key: key, rows: []int{row}})
	ki.size++

	if float64(ki.size) > float64(ki.capacity)*keyIndexLoadFactor {
		ki.resize()
	}
}

// Get returns the rows holding key in insertion order.
func (ki *KeyIndex) Get(key string) ([]int, bool) {
	for _, entry := range ki.buckets[ki.bucket(key, ki.capacity)] {
		if entry.key == key {
			return entry.rows, true
		}
	}
	return nil, false
}

// Len returns the number of distinct keys.
func (ki *KeyIndex) Len() int {
	return ki.size
}

func (ki *KeyIndex) resize() {
	newCapacity := ki.capacity * keyIndexGrowthFactor
	newBuckets := make([][]keyEntry, newCapacity)

	for _, bucket := range ki.buckets {
		for _, entry := range bucket {
			idx := ki.bucket(entry.key, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	ki.buckets = newBuckets
	ki.capacity = newCapacity
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
