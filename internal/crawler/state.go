package crawler

import "sync/atomic"

// State tracks the progress of one run
type State struct {
	MaxPages int

	records     atomic.Int64
	pagesOK     atomic.Int64
	pagesFailed atomic.Int64
	lastPage    atomic.Int64
}

// NewState creates the state for a run visiting at most maxPages pages
func NewState(maxPages int) *State {
	s := &State{MaxPages: maxPages}
	s.lastPage.Store(1)
	return s
}

// AddRecords counts persisted records
func (s *State) AddRecords(n int) { s.records.Add(int64(n)) }

// PageSucceeded records a harvested page
func (s *State) PageSucceeded(page int) {
	s.pagesOK.Add(1)
	for {
		cur := s.lastPage.Load()
		if int64(page) <= cur || s.lastPage.CompareAndSwap(cur, int64(page)) {
			return
		}
	}
}

// PageFailed records a page that failed after all retries
func (s *State) PageFailed() { s.pagesFailed.Add(1) }

// Records returns the number of persisted records
func (s *State) Records() int64 { return s.records.Load() }

// PagesSucceeded returns the number of harvested pages
func (s *State) PagesSucceeded() int64 { return s.pagesOK.Load() }

// PagesFailed returns the number of failed pages
func (s *State) PagesFailed() int64 { return s.pagesFailed.Load() }

// LastPage returns the highest page number harvested
func (s *State) LastPage() int { return int(s.lastPage.Load()) }
