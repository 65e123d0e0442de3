package store

import (
	"fmt"
	"time"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/lrucache"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// neverExpire stands in for "no TTL" in pkg/lrucache, which only evicts by
// expiration or memory pressure: the spectrum cache never expires entries
// by time, only by the soft entry-count cap and the hard memory cap
// (spec.md §4.E).
const neverExpire = 100 * 365 * 24 * time.Hour

// SpectrumKey identifies one cached query window.
type SpectrumKey struct {
	FrameLow, FrameHigh int32
	FrameType           uimf.FrameType
	ScanLow, ScanHigh   int32
}

func (k SpectrumKey) cacheKey() string {
	return fmt.Sprintf("%d-%d:%d:%d-%d", k.FrameLow, k.FrameHigh, k.FrameType, k.ScanLow, k.ScanHigh)
}

// Spectrum is one cache entry: per-scan decoded bin->intensity maps plus the
// sum across all of the window's scans, for fast whole-window queries.
type Spectrum struct {
	PerScan map[int32]map[int32]int64
	Summed  map[int32]int64
}

// estimateSize is the memory estimator backing the cache's hard cap: a
// rough per-entry byte count, not a goal in itself (spec.md §9 "Implementers
// are free to choose the precise size estimate").
func estimateSize(s *Spectrum) int {
	const bytesPerEntry = 24 // two int32/int64 keys+value, map overhead
	n := len(s.Summed)
	for _, bins := range s.PerScan {
		n += len(bins)
	}
	return n * bytesPerEntry
}

// SpectrumCache is the reader's bounded cache of decoded spectra, one entry
// per distinct query window (spec.md §4.E "Spectrum cache"). Eviction is
// LRU, bounded first by SoftCap entries and then by the memory hard cap
// pkg/lrucache enforces on every insert.
type SpectrumCache struct {
	cache   *lrucache.Cache
	softCap int
}

// NewSpectrumCache builds a cache with the given memory hard cap (bytes)
// and entry-count soft cap.
func NewSpectrumCache(hardCapBytes int64, softCap int) *SpectrumCache {
	return &SpectrumCache{cache: lrucache.New(int(hardCapBytes)), softCap: softCap}
}

// GetOrCompute returns the cached spectrum for key, calling compute to build
// and store it if absent.
func (c *SpectrumCache) GetOrCompute(key SpectrumKey, compute func() *Spectrum) *Spectrum {
	val := c.cache.Get(key.cacheKey(), func() (interface{}, time.Duration, int) {
		spectrum := compute()
		return spectrum, neverExpire, estimateSize(spectrum)
	})

	for c.softCap > 0 && c.cache.Len() > c.softCap {
		if !c.cache.EvictOldest() {
			break
		}
	}

	if val == nil {
		return nil
	}
	return val.(*Spectrum)
}

// Invalidate drops a single cached window, so the next GetOrCompute for
// that key recomputes it.
func (c *SpectrumCache) Invalidate(key SpectrumKey) {
	c.cache.Del(key.cacheKey())
}
