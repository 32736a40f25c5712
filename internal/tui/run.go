package tui

import (
	"context"
	"fmt"

	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/Sternrassler/gh-trending-feed/pkg/trigger"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the feed until the user quits or ctx is done. In accumulate
// mode the proximity trigger is observed for the lifetime of the program
// and released on every return path.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	m := NewModel(ctx, ctrl, updates, opts)

	if ctrl.Mode() == pager.ModeAccumulate {
		proximity := trigger.NewProximity(ctrl, m.Observer(), opts.Logger)
		if err := proximity.Start(ctx); err != nil {
			return err
		}
		defer proximity.Stop()

		opts.Logger.Debug().
			Int("threshold", m.Observer().Threshold()).
			Msg("Loading more when the cursor nears the end")
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
