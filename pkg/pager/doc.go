// Package pager implements the paginated fetch controller behind the
// trending feed.
//
// A Controller owns one view session over a search result set. It issues
// at most one page request at a time, pins the search predicate when the
// session starts, and publishes immutable LoadState snapshots.
//
// Two lifecycle modes are supported, fixed per controller:
//
//   - ModeReplace: Items always holds exactly the most recently loaded
//     page. Backward navigation is always allowed, forward navigation stops
//     once the result set is exhausted.
//   - ModeAccumulate: Items is the ordered union of every page loaded in
//     the session, unique by repository ID. Only the next page can be
//     requested.
//
// Every state change is computed by Reduce, a pure function of the current
// snapshot and an Event, so transitions can be tested without I/O.
//
// Basic usage:
//
//	ctrl, err := pager.New(searchClient, pager.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	ctrl.Start(ctx)
//	ctrl.LoadNext(ctx)
//	state := ctrl.State()
//
// A response that arrives after Reset or Start began a new session is
// discarded. Within a session responses apply in issue order because the
// loading guard never lets two requests overlap.
package pager
