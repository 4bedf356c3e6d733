package protocol

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Memory is anything exposing the region as 32-bit words (shm.Region does).
type Memory interface {
	Words() []uint32
}

// words wraps the region with per-word atomic access.
type words []uint32

func viewOf(mem Memory) (words, error) {
	if mem == nil {
		return nil, fmt.Errorf("protocol: nil region")
	}
	w := mem.Words()
	if len(w) < WordCount {
		return nil, fmt.Errorf("protocol: region has %d words, need %d", len(w), WordCount)
	}
	return words(w[:WordCount]), nil
}

func (w words) load(i int) uint32 { return atomic.LoadUint32(&w[i]) }
func (w words) store(i int, v uint32) { atomic.StoreUint32(&w[i], v) }

// swap stores v and returns the previous value in one step.
func (w words) swap(i int, v uint32) uint32 { return atomic.SwapUint32(&w[i], v) }

func (w words) loadI(i int) int32 { return int32(w.load(i)) }
func (w words) storeI(i int, v int32) { w.store(i, uint32(v)) }

func (w words) loadF(i int) float32 { return math.Float32frombits(w.load(i)) }
func (w words) storeF(i int, v float32) { w.store(i, math.Float32bits(v)) }

func (w words) loadB(i int) bool { return w.load(i) != 0 }
func (w words) storeB(i int, v bool) {
	if v {
		w.store(i, 1)
		return
	}
	w.store(i, 0)
}

// spinUntilClear polls flag until it reads 0 or limit polls have been made.
// It returns the number of polls spent and whether the flag cleared.
// Running out of polls is not an error: the caller proceeds anyway.
func (w words) spinUntilClear(flag, limit int, yield func()) (int, bool) {
	for i := 0; i < limit; i++ {
		if w.load(flag) == 0 {
			return i, true
		}
		if yield != nil {
			yield()
		}
	}
	return limit, w.load(flag) == 0
}
