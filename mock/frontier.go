package mock

import "github.com/fwojciec/sitecrawl"

var _ sitecrawl.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of sitecrawl.URLFrontier.
type URLFrontier struct {
	TryEnqueueFn func(url string) bool
	DequeueFn    func() (string, bool)
	LenFn        func() int
}

func (f *URLFrontier) TryEnqueue(url string) bool {
	return f.TryEnqueueFn(url)
}

func (f *URLFrontier) Dequeue() (string, bool) {
	return f.DequeueFn()
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}
