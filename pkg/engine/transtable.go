package engine

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync"
	"sync/atomic"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

const (
	boundUpper = 1
	boundLower = 2
	boundExact = boundUpper | boundLower
)

const (
	ttBucketSize = 4
	ttAgeBits    = 6
	ttAgeCycle   = 1 << ttAgeBits
)

// ttEntry is two words written with relaxed atomics. The check word holds
// key^data, so a torn read fails verification and counts as a miss.
type ttEntry struct {
	check atomic.Uint64
	data  atomic.Uint64
}

func packTTData(move Move, score int, depth int, bound int, age uint32) uint64 {
	return uint64(move) |
		uint64(uint16(int16(score)))<<16 |
		uint64(uint8(depth))<<32 |
		uint64(bound&3)<<40 |
		uint64(age&(ttAgeCycle-1))<<42
}

func ttDataMove(data uint64) Move {
	return Move(data & 0xffff)
}

func ttDataScore(data uint64) int {
	return int(int16(data >> 16))
}

func ttDataDepth(data uint64) int {
	return int(uint8(data >> 32))
}

func ttDataBound(data uint64) int {
	return int(data>>40) & 3
}

func ttDataAge(data uint64) uint32 {
	return uint32(data>>42) & (ttAgeCycle - 1)
}

type transTable struct {
	megabytes   int
	entries     []ttEntry
	shift       uint
	age         uint32
	pendingInit bool
}

func newTransTable(megabytes int) *transTable {
	var tt = &transTable{}
	tt.Resize(megabytes)
	return tt
}

func (tt *transTable) Size() int {
	return tt.megabytes
}

// Resize only records the new size; Finalize performs the allocation so that
// the delay lands on isready, not on setoption.
func (tt *transTable) Resize(megabytes int) {
	if megabytes < 1 {
		megabytes = 1
	}
	if tt.megabytes != megabytes || tt.entries == nil {
		tt.megabytes = megabytes
		tt.pendingInit = true
	}
}

// Finalize allocates and clears a pending resize, reporting whether work was done.
func (tt *transTable) Finalize() (bool, error) {
	if !tt.pendingInit {
		return false, nil
	}
	tt.pendingInit = false

	var buckets = 1024 * 1024 * tt.megabytes / (16 * ttBucketSize)
	var log2 = bits.Len(uint(buckets)) - 1
	tt.shift = uint(64 - log2)
	tt.entries = nil
	runtime.GC()

	var size = (1 << log2) * ttBucketSize
	var allocErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				tt.entries = nil
				allocErr = fmt.Errorf("hash allocation of %v mb failed: %v", tt.megabytes, r)
			}
		}()
		tt.entries = make([]ttEntry, size)
	}()
	if allocErr != nil {
		return true, allocErr
	}
	tt.age = 0
	return true, nil
}

func (tt *transTable) Ready() bool {
	return tt.entries != nil && !tt.pendingInit
}

func (tt *transTable) NextGeneration() {
	tt.age = (tt.age + 1) % ttAgeCycle
}

// Clear zeroes the buffer with one goroutine per CPU.
func (tt *transTable) Clear() {
	tt.age = 0
	var workers = runtime.NumCPU()
	var chunk = (len(tt.entries) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		var lo = w * chunk
		var hi = Min(lo+chunk, len(tt.entries))
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(entries []ttEntry) {
			defer wg.Done()
			for i := range entries {
				entries[i].check.Store(0)
				entries[i].data.Store(0)
			}
		}(tt.entries[lo:hi])
	}
	wg.Wait()
}

func (tt *transTable) bucket(key uint64) []ttEntry {
	var index = int(key>>tt.shift) * ttBucketSize
	return tt.entries[index : index+ttBucketSize]
}

// Read probes the bucket selected by the key's high bits.
func (tt *transTable) Read(key uint64, height int) (depth, score, bound int, move Move, found bool) {
	var bucket = tt.bucket(key)
	for i := range bucket {
		var data = bucket[i].data.Load()
		if data != 0 && bucket[i].check.Load()^data == key {
			depth = ttDataDepth(data)
			score = valueFromTT(ttDataScore(data), height)
			bound = ttDataBound(data)
			move = ttDataMove(data)
			found = true
			return
		}
	}
	return
}

// replacePriority orders victims: older generations go first, then shallower
// entries; exact entries stick a little longer.
func (tt *transTable) replacePriority(data uint64) int {
	var relAge = int((tt.age + ttAgeCycle - ttDataAge(data)) % ttAgeCycle)
	var depth = ttDataDepth(data)
	if ttDataBound(data) == boundExact {
		depth += 2
	}
	return depth - 8*relAge
}

func (tt *transTable) Update(key uint64, depth, score, bound int, move Move, height int) {
	var bucket = tt.bucket(key)
	var victim = 0
	var victimPriority = 1 << 30

	for i := range bucket {
		var data = bucket[i].data.Load()
		if data == 0 {
			victim = i
			break
		}
		if bucket[i].check.Load()^data == key {
			// Same position: keep a deeper entry from this generation, only
			// refreshing its age and preserving its move.
			if depth < ttDataDepth(data) && ttDataAge(data) == tt.age && bound != boundExact {
				return
			}
			if move == MoveEmpty {
				move = ttDataMove(data)
			}
			victim = i
			victimPriority = -1 << 30
			break
		}
		if p := tt.replacePriority(data); p < victimPriority {
			victim = i
			victimPriority = p
		}
	}

	var data = packTTData(move, valueToTT(score, height), depth, bound, tt.age)
	bucket[victim].data.Store(data)
	bucket[victim].check.Store(key ^ data)
}

// Hashfull samples the first thousand entries, in permille.
func (tt *transTable) Hashfull() int {
	var filled = 0
	var n = Min(1000, len(tt.entries))
	for i := 0; i < n; i++ {
		if tt.entries[i].data.Load() != 0 {
			filled++
		}
	}
	return filled
}
