package domain

import "context"

// PlayerSource defines the interface of the media-control notification source.
// Implementations own the player registry; consumers only read snapshots of it.
type PlayerSource interface {
	// Start connects to the backend and begins producing events.
	// It returns once the source is ready.
	Start(ctx context.Context) error

	// Stop gracefully stops the source and closes the Events channel
	Stop(ctx context.Context) error

	// Events returns a read-only channel of player notifications,
	// delivered in arrival order
	Events() <-chan Event

	// PlayerNames lists the instance names of all players currently available
	PlayerNames() ([]string, error)

	// Manage registers interest in playback events of the named player,
	// appends it to the registry and returns its current state
	Manage(name string) (Player, error)

	// Players returns the registry in the order players were managed
	Players() []Player
}

// StatusSink writes status records for the status bar
type StatusSink interface {
	// Emit writes the record describing the given player
	Emit(p Player) error

	// EmitCleared writes the record shown when no player is left
	EmitCleared() error

	// Close terminates the output with a trailing newline and flushes it
	Close() error
}

// Config defines the interface for application configuration
type Config interface {
	// PlayerFilter returns the player to restrict to, empty for all players
	PlayerFilter() string

	// Icon returns the text used for player records
	Icon() string

	// ClearedIcon returns the text used when no player remains
	ClearedIcon() string

	// LogLevel returns the zap level name
	LogLevel() string
}
