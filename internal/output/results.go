package output

import (
	"sort"
	"sync"

	"github.com/tanq16/ytpull/internal/utils"
)

// Results collects JobResults from concurrent workers.
type Results struct {
	mu      sync.Mutex
	results []utils.JobResult
}

func NewResults() *Results {
	return &Results{}
}

func (r *Results) Add(result utils.JobResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Sorted returns a copy ordered by input position, whatever order the jobs
// finished in.
func (r *Results) Sorted() []utils.JobResult {
	r.mu.Lock()
	out := make([]utils.JobResult, len(r.results))
	copy(out, r.results)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (r *Results) Succeeded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.Success {
			n++
		}
	}
	return n
}

func (r *Results) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if !res.Success {
			n++
		}
	}
	return n
}
