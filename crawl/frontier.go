package crawl

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/bloom"
)

// Compile-time interface verification.
var _ sitecrawl.URLFrontier = (*Frontier)(nil)

// compactThreshold is the number of consumed slots at the head of the queue
// before the backing slice is compacted.
const compactThreshold = 1024

// Frontier is an in-memory FIFO of canonical URLs with exact deduplication.
// A Bloom filter answers most "never seen" checks without touching the
// exact set. It is safe for concurrent use by multiple goroutines.
//
// The visited set only grows; on sites with very large fan-out both the
// queue and the set grow without bound.
type Frontier struct {
	mu     sync.Mutex
	filter *bloom.Filter
	seen   mapset.Set[string]
	queue  []string
	head   int
}

// NewFrontier creates a new Frontier whose Bloom filter is sized for n
// expected URLs with the given false positive rate.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		filter: bloom.NewFilter(n, fpRate),
		seen:   mapset.NewThreadUnsafeSet[string](),
	}
}

// TryEnqueue marks the URL visited and appends it to the queue in one step.
// Returns false if the URL has already been enqueued, even if it has since
// been dequeued. URLs must already be canonical.
func (f *Frontier) TryEnqueue(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filter.TestAndAdd(url) && f.seen.Contains(url) {
		return false
	}
	f.seen.Add(url)
	f.queue = append(f.queue, url)
	return true
}

// Dequeue returns the oldest queued URL.
// The bool result is false if the frontier is empty.
func (f *Frontier) Dequeue() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.head == len(f.queue) {
		return "", false
	}
	url := f.queue[f.head]
	f.queue[f.head] = ""
	f.head++

	switch {
	case f.head == len(f.queue):
		f.queue = f.queue[:0]
		f.head = 0
	case f.head >= compactThreshold && f.head*2 >= len(f.queue):
		n := copy(f.queue, f.queue[f.head:])
		clear(f.queue[n:])
		f.queue = f.queue[:n]
		f.head = 0
	}
	return url, true
}

// Len returns the number of URLs waiting in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) - f.head
}

// Seen returns true if the URL has ever been enqueued.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.filter.Test(url) {
		return false
	}
	return f.seen.Contains(url)
}

// Visited returns the number of distinct URLs ever enqueued.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Cardinality()
}
