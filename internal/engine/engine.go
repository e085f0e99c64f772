package engine

import (
	"context"
	"errors"

	"github.com/genricoloni/mpris-status/internal/domain"
	"github.com/genricoloni/mpris-status/internal/output"
	"github.com/genricoloni/mpris-status/internal/selector"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Engine decides which player the status line reflects.
// It consumes source events one at a time and writes at most one record per event.
type Engine struct {
	logger     *zap.Logger
	cfg        domain.Config
	source     domain.PlayerSource
	sink       domain.StatusSink
	shutdowner fx.Shutdowner
	cancel     context.CancelFunc
	done       chan struct{}
	outputGone bool
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	source domain.PlayerSource,
	sink domain.StatusSink,
	shutdowner fx.Shutdowner,
) *Engine {
	return &Engine{
		logger:     logger,
		cfg:        cfg,
		source:     source,
		sink:       sink,
		shutdowner: shutdowner,
	}
}

// Start reports the players already present and launches the event loop.
// It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...",
		zap.String("playerFilter", e.cfg.PlayerFilter()))

	names, err := e.source.PlayerNames()
	if err != nil {
		e.logger.Warn("Could not list existing players", zap.Error(err))
	}
	for _, name := range names {
		e.onPlayerAppeared(name)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.runLoop(loopCtx)
	return nil
}

// runLoop dispatches events in arrival order, one at a time
func (e *Engine) runLoop(ctx context.Context) {
	defer close(e.done)

	events := e.source.Events()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case ev, ok := <-events:
			if !ok {
				e.logger.Info("Player source closed")
				e.requestShutdown()
				return
			}
			e.handle(ev)
		}
	}
}

// handle processes a single event
func (e *Engine) handle(ev domain.Event) {
	if e.outputGone {
		return
	}

	e.logger.Debug("Event received",
		zap.Stringer("kind", ev.Kind),
		zap.String("name", ev.Name),
		zap.String("player", ev.Player.Instance),
		zap.String("status", string(ev.Player.Status)))

	switch ev.Kind {
	case domain.EventPlayerAppeared:
		// Start may already have managed a player that appeared while it listed the bus
		if e.isManaged(ev.Name) {
			e.logger.Debug("Ignoring appearance of managed player", zap.String("player", ev.Name))
			return
		}
		e.onPlayerAppeared(ev.Name)
	case domain.EventPlayerVanished:
		e.onPlayerVanished(ev.Player)
	case domain.EventPlaybackChanged:
		e.onPlaybackChanged(ev.Player)
	default:
		e.logger.Warn("Unknown event kind", zap.Int("kind", int(ev.Kind)))
	}
}

// onPlayerAppeared manages players passing the filter and reports their state
// when they are the active player
func (e *Engine) onPlayerAppeared(name string) {
	if filter := e.cfg.PlayerFilter(); !domain.Matches(filter, name) {
		e.logger.Debug("Ignoring filtered player",
			zap.String("player", name),
			zap.String("filter", filter))
		return
	}

	p, err := e.source.Manage(name)
	if err != nil {
		// The player may have left already
		e.logger.Warn("Failed to manage player",
			zap.String("player", name),
			zap.Error(err))
		return
	}

	e.onPlaybackChanged(p)
}

func (e *Engine) isManaged(name string) bool {
	for _, p := range e.source.Players() {
		if p.Instance == name {
			return true
		}
	}
	return false
}

// onPlaybackChanged reports the change only if it concerns the active player
func (e *Engine) onPlaybackChanged(p domain.Player) {
	active, ok := selector.SelectActive(e.source.Players())
	if ok && !active.Same(p) {
		e.logger.Debug("Suppressing status of inactive player",
			zap.String("player", p.Instance),
			zap.String("active", active.Instance))
		return
	}

	e.emit(p)
}

// onPlayerVanished reports the new active player, if any
func (e *Engine) onPlayerVanished(p domain.Player) {
	active, ok := selector.SelectActive(e.source.Players())
	if !ok {
		e.logger.Info("No player left", zap.String("vanished", p.Instance))
		e.check(e.sink.EmitCleared())
		return
	}

	e.emit(active)
}

func (e *Engine) emit(p domain.Player) {
	e.check(e.sink.Emit(p))
}

// check handles a sink error: a closed output ends the program cleanly
func (e *Engine) check(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, output.ErrOutputClosed) {
		if !e.outputGone {
			e.outputGone = true
			e.logger.Info("Status bar went away, shutting down")
			e.requestShutdown()
		}
		return
	}
	e.logger.Error("Failed to write status", zap.Error(err))
}

func (e *Engine) requestShutdown() {
	if err := e.shutdowner.Shutdown(fx.ExitCode(0)); err != nil {
		e.logger.Warn("Failed to request shutdown", zap.Error(err))
	}
}

// Stop ends the event loop and terminates the output with a trailing newline
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	if e.cancel != nil {
		e.cancel()
		<-e.done
	}

	if err := e.sink.Close(); err != nil && !errors.Is(err, output.ErrOutputClosed) {
		e.logger.Error("Failed to flush output", zap.Error(err))
		return err
	}
	return nil
}
