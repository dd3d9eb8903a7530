package sitecrawl

// URLFrontier is a deduplicating FIFO queue of canonical URLs awaiting a fetch.
type URLFrontier interface {
	// TryEnqueue adds a URL to the queue and marks it visited.
	// Returns false if the URL has already been seen.
	TryEnqueue(url string) bool

	// Dequeue returns the oldest queued URL.
	// Returns false if the frontier is empty.
	Dequeue() (string, bool)

	// Len returns the number of URLs waiting in the queue.
	Len() int
}
