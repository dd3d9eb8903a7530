// Package bloom provides a probabilistic pre-check for visited URLs.
//
// A negative answer is exact, so the frontier can skip its exact lookup for
// URLs the filter has never seen. A positive answer may be a false positive
// and must be confirmed against an exact set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by canonical URL strings.
// Filter is not safe for concurrent use; callers must serialize access.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a URL in the filter.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test returns false if the URL was definitely never added.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// TestAndAdd reports whether the URL might already be present
// and records it in the same step.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestOrAddString(url)
}

// EstimatedCount returns the approximate number of URLs in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
