// Package pagination drives a pager.Controller through a whole result set.
//
// The search API has no page-count header, so pages cannot be fanned out
// to a worker pool: the only end-of-results signal is a short page. A
// Walker therefore loads pages one after another through an
// accumulate-mode controller until it is exhausted.
//
// Example usage:
//
//	ctrl, _ := pager.New(searchClient, pager.Config{Mode: pager.ModeAccumulate})
//	walker := pagination.NewWalker(pagination.DefaultConfig())
//	state, err := walker.Walk(ctx, ctrl, 10)
//
// The walker:
//   - Starts a fresh session (page 1, pinned query)
//   - Loads the next page until exhausted, maxPages or ctx is done
//   - Applies a timeout to every page load
//   - Logs progress every ProgressEvery pages
//   - Returns the partial state together with the error when a page fails
package pagination
