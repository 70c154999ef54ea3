package collector

import (
	"github.com/hwanjo/gsshop-catalog-client/pkg/client"
	"github.com/hwanjo/gsshop-catalog-client/pkg/normalize"
)

// Status is the run status of a collection.
type Status string

const (
	// StatusRunning means more pages may still be fetched.
	StatusRunning Status = "running"

	// StatusTargetReached means the requested number of unique products was collected.
	StatusTargetReached Status = "target_reached"

	// StatusExhausted means the source ran out of new records before the
	// target was met. This is a valid stopping condition, not an error.
	StatusExhausted Status = "exhausted"

	// StatusFailed means a page fetch failed unrecoverably. Partial results
	// are retained.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status ends the run.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// FetchState tracks the progress of one collection run. It is created at run
// start, mutated only by the single control loop, and discarded after export.
type FetchState struct {
	// Endpoint is the listing API the run is locked to.
	Endpoint client.Endpoint

	// Page is the 1-based cursor of the next page to fetch. It only moves forward.
	Page int

	// Status is the current state-machine state.
	Status Status

	// PagesFetched counts issued page requests.
	PagesFetched int

	// Skipped counts payload entries dropped for lacking an identifier.
	Skipped int

	seen     map[string]struct{}
	products []normalize.Product
}

// NewFetchState creates the initial state for a run against ep.
func NewFetchState(ep client.Endpoint) *FetchState {
	return &FetchState{
		Endpoint: ep,
		Page:     1,
		Status:   StatusRunning,
		seen:     make(map[string]struct{}),
	}
}

// Merge folds one page of normalized products into the collection and
// returns how many were new. Duplicate identifiers keep the first-seen
// record's field values.
func (s *FetchState) Merge(batch []normalize.Product) int {
	added := 0
	for _, product := range batch {
		if _, dup := s.seen[product.ID]; dup {
			continue
		}
		s.seen[product.ID] = struct{}{}
		s.products = append(s.products, product)
		added++
	}
	return added
}

// Count returns the number of unique products collected so far.
// It always equals the size of the seen-identifier set.
func (s *FetchState) Count() int {
	return len(s.products)
}

// Products returns the accumulated collection in first-seen order.
func (s *FetchState) Products() []normalize.Product {
	return s.products
}
