package result

import "github.com/kailas-cloud/dirsearch/internal/domain/entry"

// Result is a single search hit.
type Result struct {
	entry  entry.Entry
	score  float64
	ranked bool
}

// New creates a search result. ranked is false for browse-order results,
// where score carries no meaning.
func New(e entry.Entry, score float64, ranked bool) Result {
	return Result{entry: e, score: score, ranked: ranked}
}

// Entry returns the matched directory entry.
func (r *Result) Entry() entry.Entry { return r.entry }

// Score returns the relevance score (meaningful only when Ranked).
func (r *Result) Score() float64 { return r.score }

// Ranked reports whether the hit came from scored full-text matching.
func (r *Result) Ranked() bool { return r.ranked }
