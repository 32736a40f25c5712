package trigger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Scroller repositions a rendered list after a page change.
type Scroller interface {
	// ScrollToTop moves to the top of the list, animated when smooth is
	// true. Environments that cannot animate return an error.
	ScrollToTop(smooth bool) error
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func(smooth bool) error

// ScrollToTop calls f(smooth).
func (f ScrollFunc) ScrollToTop(smooth bool) error {
	return f(smooth)
}

// Manual maps user prev/next actions 1:1 onto controller loads.
type Manual struct {
	loader   Loader
	scroller Scroller
	logger   zerolog.Logger
}

// NewManual creates a manual trigger. scroller may be nil.
func NewManual(loader Loader, scroller Scroller, logger zerolog.Logger) *Manual {
	return &Manual{
		loader:   loader,
		scroller: scroller,
		logger:   logger,
	}
}

// Next loads the following page and reports whether a request was issued.
func (m *Manual) Next(ctx context.Context) bool {
	issued := m.loader.LoadNext(ctx)
	if issued {
		m.scrollToTop()
	}
	return issued
}

// Prev loads the preceding page and reports whether a request was issued.
func (m *Manual) Prev(ctx context.Context) bool {
	issued := m.loader.LoadPrev(ctx)
	if issued {
		m.scrollToTop()
	}
	return issued
}

// scrollToTop runs after every issued load, whether it succeeded or not.
// A failed smooth scroll falls back to an immediate one; failures of the
// fallback are logged and swallowed.
func (m *Manual) scrollToTop() {
	if m.scroller == nil {
		return
	}

	err := safeScroll(m.scroller, true)
	if err == nil {
		return
	}
	m.logger.Debug().Err(err).Msg("Smooth scroll unavailable, scrolling immediately")

	if err := safeScroll(m.scroller, false); err != nil {
		m.logger.Warn().Err(err).Msg("Scroll to top failed")
	}
}

func safeScroll(s Scroller, smooth bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scroll panicked: %v", r)
		}
	}()
	return s.ScrollToTop(smooth)
}
