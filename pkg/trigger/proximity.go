package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Proximity loads the next page whenever its Observer fires. Each firing
// runs LoadNext in its own goroutine so the observer is never blocked by
// network I/O.
type Proximity struct {
	loader   Loader
	observer Observer
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewProximity creates a proximity trigger.
func NewProximity(loader Loader, observer Observer, logger zerolog.Logger) *Proximity {
	return &Proximity{
		loader:   loader,
		observer: observer,
		logger:   logger,
	}
}

// Start begins observing. Loads issued by the trigger use a context derived
// from ctx that Stop cancels.
func (p *Proximity) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("proximity trigger already started")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.mu.Unlock()

	if err := p.observer.Start(p.fire); err != nil {
		p.mu.Lock()
		p.running = false
		p.cancel()
		p.mu.Unlock()
		return fmt.Errorf("start observer: %w", err)
	}

	p.logger.Debug().Msg("Proximity observation started")
	return nil
}

// Stop releases the observation, cancels loads it started and waits for
// them to return. It is safe to call more than once.
func (p *Proximity) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.observer.Stop()
	p.cancel()
	p.wg.Wait()

	p.logger.Debug().Msg("Proximity observation stopped")
}

// Run starts observing and blocks until ctx is done. The observation is
// released on every return path.
func (p *Proximity) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Stop()

	<-ctx.Done()
	return nil
}

// fire is the observer callback.
func (p *Proximity) fire() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if p.loader.LoadNext(ctx) {
			p.logger.Debug().Msg("Proximity load issued")
		}
	}()
}
