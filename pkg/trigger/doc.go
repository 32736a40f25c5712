// Package trigger decides when a pager.Controller loads pages.
//
// Manual maps prev/next actions onto the controller and resets the scroll
// position once a load settles. Proximity loads the next page whenever an
// Observer reports that the end of the rendered list is near. Neither holds
// fetch state; redundant intents are dropped by the controller's guards.
package trigger

import "context"

// Loader is the controller surface a trigger drives.
// *pager.Controller implements it.
type Loader interface {
	LoadNext(ctx context.Context) bool
	LoadPrev(ctx context.Context) bool
}
