package crawl

import "github.com/fwojciec/sitecrawl"

// session is the state of one Crawl call. It is owned by the coordinator
// goroutine: every method runs there, so no field needs a lock.
type session struct {
	origin         *Origin
	frontier       sitecrawl.URLFrontier
	maxConcurrency int
	progress       sitecrawl.ProgressFunc

	active     int // 0 <= active <= maxConcurrency
	processed  int
	discovered []string
	failed     []sitecrawl.PageFailure
}

func newSession(origin *Origin, frontier sitecrawl.URLFrontier, maxConcurrency int, progress sitecrawl.ProgressFunc) *session {
	return &session{
		origin:         origin,
		frontier:       frontier,
		maxConcurrency: maxConcurrency,
		progress:       progress,
	}
}

// dispatch starts fetches while there is both backlog and spare capacity.
// active is incremented before each start.
func (s *session) dispatch(start func(url string)) {
	for s.active < s.maxConcurrency {
		url, ok := s.frontier.Dequeue()
		if !ok {
			return
		}
		s.active++
		start(url)
	}
}

// idle reports that no fetch is in flight. Checked right after a dispatch
// pass, it is the quiescence condition: the pass would have started work
// if the frontier held any.
func (s *session) idle() bool {
	return s.active == 0
}

// complete absorbs a finished fetch: it releases the slot, then feeds every
// new crawlable link back into the frontier and the discovered list.
func (s *session) complete(res pageResult) {
	s.active--
	s.processed++

	if res.err != nil {
		s.failed = append(s.failed, sitecrawl.PageFailure{URL: res.url, Err: res.err})
		s.emit(sitecrawl.ProgressFailed, res.url, res.err)
		return
	}

	for _, raw := range res.links {
		canonical, err := Normalize(raw, s.origin)
		if err != nil {
			continue
		}
		if !IsCrawlable(canonical, s.origin.Domain) {
			continue
		}
		if s.frontier.TryEnqueue(canonical) {
			s.discovered = append(s.discovered, canonical)
			s.emit(sitecrawl.ProgressDiscovered, canonical, nil)
		}
	}
	s.emit(sitecrawl.ProgressCompleted, res.url, nil)
}

func (s *session) emit(typ sitecrawl.ProgressType, url string, err error) {
	if s.progress == nil {
		return
	}
	s.progress(sitecrawl.ProgressEvent{
		Type:    typ,
		URL:     url,
		Error:   err,
		Fetched: s.processed,
		Queued:  s.frontier.Len(),
		Active:  s.active,
	})
}

func (s *session) result() *sitecrawl.CrawlResult {
	links := s.discovered
	if links == nil {
		links = []string{}
	}
	return &sitecrawl.CrawlResult{
		Links:   links,
		Fetched: s.processed - len(s.failed),
		Failed:  s.failed,
	}
}
