package catalog

import (
	"context"
	"sync"
)

// PublishFunc receives the results of the latest search. It is called with
// the searcher lock held and must not call Submit.
type PublishFunc func(query string, items []Item)

// Searcher runs one catalog search per submitted query in the background.
// Submitting a query cancels the search in flight; only the latest search
// may publish its results.
type Searcher struct {
	mutex sync.Mutex
	wait  sync.WaitGroup

	catalog *Catalog
	publish PublishFunc
	token   uint64
	cancel  context.CancelFunc
}

func NewSearcher(catalog *Catalog, publish PublishFunc) *Searcher {
	return &Searcher{
		catalog: catalog,
		publish: publish,
	}
}

// Submit cancels the running search and starts a new one for query.
// It returns the token identifying the new search.
func (s *Searcher) Submit(ctx context.Context, query string) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	s.token++
	token := s.token

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wait.Add(1)
	go func() {
		defer s.wait.Done()
		defer cancel()

		items, err := s.catalog.Search(ctx, query)

		s.mutex.Lock()
		defer s.mutex.Unlock()

		if err != nil || ctx.Err() != nil || token != s.token {
			return
		}
		s.publish(query, items)
	}()

	return token
}

// Current returns the token of the latest submitted search.
func (s *Searcher) Current() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.token
}

// Wait blocks until every submitted search has finished.
func (s *Searcher) Wait() {
	s.wait.Wait()
}

// Stop cancels the running search and waits for all searches to return.
func (s *Searcher) Stop() {
	s.mutex.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	// Invalidate the token so a search finishing now cannot publish.
	s.token++
	s.mutex.Unlock()

	s.wait.Wait()
}
