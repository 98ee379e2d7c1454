package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/event"
	"github.com/Iron-Ham/calcwizard/internal/session"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	session *session.Session
	watch   bool
}

// New creates a new TUI application over a started session.
func New(ctx context.Context, sess *session.Session, opts Options) *App {
	return &App{
		model:   NewModel(ctx, sess, opts),
		session: sess,
		watch:   opts.WatchPlugins,
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			a.program.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	// Bus handlers can run inside Update and must never block.
	notify := make(chan struct{}, 1)
	subID := a.session.Bus().SubscribeAll(func(event.Event) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer a.session.Bus().Unsubscribe(subID)

	go func() {
		for {
			select {
			case <-notify:
				a.program.Send(refreshMsg{})
			case <-ctx.Done():
				return
			}
		}
	}()

	if a.watch {
		if err := a.session.Watch(ctx, func() {
			a.program.Send(resetMsg{})
		}); err != nil {
			return err
		}
	}

	_, err := a.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
