package monitor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/genricoloni/mpris-status/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	mprisPath         = "/org/mpris/MediaPlayer2"
	playerInterface   = "org.mpris.MediaPlayer2.Player"
	statusProperty    = playerInterface + ".PlaybackStatus"
	propertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
	nameOwnerChanged  = "org.freedesktop.DBus.NameOwnerChanged"
)

// MprisMonitor tracks MPRIS players on the D-Bus session bus and owns the
// player registry
type MprisMonitor struct {
	logger    *zap.Logger
	events    chan domain.Event
	closeOnce sync.Once
	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	conn      DBusClient                 // Interface for testability
	dial      func() (DBusClient, error) // Replaced in tests
	wg        sync.WaitGroup             // Tracks the signal goroutine
	owners    map[string]string          // Maps unique bus names (:1.45) to well-known names (org.mpris.MediaPlayer2.spotify)
	players   []domain.Player            // Managed players, in the order they were managed
}

// NewMprisMonitor creates a new MPRIS monitor instance
func NewMprisMonitor(logger *zap.Logger) *MprisMonitor {
	return &MprisMonitor{
		logger: logger,
		events: make(chan domain.Event, 16),
		dial:   NewStdDBusClient,
		owners: make(map[string]string),
	}
}

// Start connects to the session bus and starts the signal goroutine.
// It returns once the match rules are installed.
func (m *MprisMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	conn, err := m.dial()
	if err != nil {
		m.logger.Error("Failed to connect to session bus", zap.Error(err))
		return fmt.Errorf("session bus connection failed: %w", err)
	}

	// Check if we were cancelled while connecting to D-Bus
	if err := ctx.Err(); err != nil {
		m.logger.Info("Monitor cancelled during D-Bus connection")
		m.closeConn(conn)
		return err
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(mprisPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		m.closeConn(conn)
		return fmt.Errorf("failed to add PropertiesChanged match signal: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg0Namespace("org.mpris.MediaPlayer2"),
	); err != nil {
		m.closeConn(conn)
		return fmt.Errorf("failed to add NameOwnerChanged match signal: %w", err)
	}

	// Register before the engine lists names so that no appearance is missed.
	// Owners are recorded by Manage; signals of unmanaged players are ignored.
	signals := make(chan *dbus.Signal, 32)
	conn.Signal(signals)

	loopCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.conn = conn
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.monitorSignals(loopCtx, signals)

	m.logger.Info("MPRIS monitor started")
	return nil
}

// Stop gracefully stops the monitor
func (m *MprisMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.mu.Unlock()

	// Wait for the producer before closing the channel
	m.logger.Debug("Waiting for monitoring goroutine to finish")
	m.wg.Wait()
	m.closeEvents()

	m.mu.Lock()
	if m.conn != nil {
		m.closeConn(m.conn)
		m.conn = nil
	}
	m.mu.Unlock()

	m.logger.Info("MPRIS monitor shutdown complete")
	return nil
}

// Events returns a read-only channel of player notifications
func (m *MprisMonitor) Events() <-chan domain.Event {
	return m.events
}

// PlayerNames lists the instance names of the MPRIS players on the bus
func (m *MprisMonitor) PlayerNames() ([]string, error) {
	conn, err := m.client()
	if err != nil {
		return nil, err
	}

	names, err := conn.ListNames()
	if err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if instance, ok := strings.CutPrefix(name, domain.MprisPrefix); ok && instance != "" {
			players = append(players, instance)
		}
	}
	return players, nil
}

// Manage registers the named player and returns its current state.
// Managing an already managed player returns the registered entry.
func (m *MprisMonitor) Manage(name string) (domain.Player, error) {
	if p, ok := m.managed(name); ok {
		return p, nil
	}

	conn, err := m.client()
	if err != nil {
		return domain.Player{}, err
	}

	busName := domain.MprisPrefix + name
	variant, err := conn.GetProperty(busName, mprisPath, statusProperty)
	if err != nil {
		return domain.Player{}, fmt.Errorf("failed to get playback status of %s: %w", name, err)
	}

	// Non-compliant players may report garbage; keep them with an unknown status
	status, ok := variant.Value().(string)
	if !ok {
		m.logger.Debug("Playback status is not a string",
			zap.String("player", name),
			zap.String("type", fmt.Sprintf("%T", variant.Value())))
	}

	owner, err := conn.GetNameOwner(busName)
	if err != nil {
		m.logger.Debug("Failed to resolve player owner", zap.String("player", name), zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if owner != "" {
		m.owners[owner] = busName
	}
	if i := m.indexOf(name); i >= 0 {
		return m.players[i], nil
	}

	p := domain.NewPlayer(name, domain.PlayerStatus(status))
	m.players = append(m.players, p)

	m.logger.Info("Managing MPRIS player",
		zap.String("player", name),
		zap.String("status", status))

	return p, nil
}

// Players returns a snapshot of the registry
func (m *MprisMonitor) Players() []domain.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.players)
}

// monitorSignals listens for D-Bus signals and processes them
func (m *MprisMonitor) monitorSignals(ctx context.Context, signals <-chan *dbus.Signal) {
	defer m.wg.Done()

	m.logger.Debug("Signal monitoring goroutine started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Signal monitoring goroutine stopped")
			return
		case sig, ok := <-signals:
			if !ok {
				// godbus closes handler channels when the connection drops
				m.logger.Warn("Session bus connection lost")
				m.closeEvents()
				return
			}
			if sig == nil {
				continue
			}
			switch sig.Name {
			case nameOwnerChanged:
				m.handleNameOwnerChanged(ctx, sig)
			case propertiesChanged:
				m.handleSignal(ctx, sig)
			}
		}
	}
}

// handleNameOwnerChanged processes NameOwnerChanged signals to track player lifecycle
func (m *MprisMonitor) handleNameOwnerChanged(ctx context.Context, sig *dbus.Signal) {
	if len(sig.Body) < 3 {
		return
	}

	name, ok := sig.Body[0].(string)
	if !ok || !strings.HasPrefix(name, domain.MprisPrefix) {
		return // Not an MPRIS player
	}
	instance := strings.TrimPrefix(name, domain.MprisPrefix)
	if instance == "" {
		return
	}

	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	switch {
	case newOwner != "" && oldOwner == "":
		m.mu.Lock()
		m.owners[newOwner] = name
		m.mu.Unlock()

		m.logger.Info("New MPRIS player detected",
			zap.String("player", name),
			zap.String("unique", newOwner))

		m.emit(ctx, domain.Event{Kind: domain.EventPlayerAppeared, Name: instance})

	case newOwner == "" && oldOwner != "":
		m.mu.Lock()
		delete(m.owners, oldOwner)
		var gone domain.Player
		i := m.indexOf(instance)
		if i >= 0 {
			gone = m.players[i]
			m.players = slices.Delete(m.players, i, i+1)
		}
		m.mu.Unlock()

		m.logger.Info("MPRIS player removed",
			zap.String("player", name),
			zap.String("unique", oldOwner),
			zap.Bool("managed", i >= 0))

		if i >= 0 {
			m.emit(ctx, domain.Event{Kind: domain.EventPlayerVanished, Player: gone})
		}

	case newOwner != "" && oldOwner != "":
		m.mu.Lock()
		delete(m.owners, oldOwner)
		m.owners[newOwner] = name
		m.mu.Unlock()

		m.logger.Debug("MPRIS player ownership changed",
			zap.String("player", name),
			zap.String("oldUnique", oldOwner),
			zap.String("newUnique", newOwner))
	}
}

// handleSignal processes a PropertiesChanged signal
func (m *MprisMonitor) handleSignal(ctx context.Context, sig *dbus.Signal) {
	// PropertiesChanged signal has 3 arguments:
	// 1. Interface name (string)
	// 2. Changed properties (map[string]Variant)
	// 3. Invalidated properties ([]string)

	if sig.Name != propertiesChanged {
		return
	}

	if len(sig.Body) < 2 {
		return
	}

	interfaceName, ok := sig.Body[0].(string)
	if !ok || interfaceName != playerInterface {
		return
	}

	changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	statusVariant, hasStatus := changedProps["PlaybackStatus"]
	if !hasStatus {
		return
	}

	status, ok := statusVariant.Value().(string)
	if !ok {
		m.logger.Warn("Invalid playback status format in signal, ignoring",
			zap.String("sender", sig.Sender))
		return
	}

	playerName := m.getPlayerName(sig.Sender)
	instance := strings.TrimPrefix(playerName, domain.MprisPrefix)

	m.mu.Lock()
	i := m.indexOf(instance)
	if i < 0 {
		m.mu.Unlock()
		m.logger.Debug("Ignoring status of unmanaged player",
			zap.String("sender", sig.Sender),
			zap.String("player", playerName))
		return
	}
	m.players[i].Status = domain.PlayerStatus(status)
	p := m.players[i]
	m.mu.Unlock()

	m.logger.Info("Playback status changed",
		zap.String("player", playerName),
		zap.String("status", status))

	m.emit(ctx, domain.Event{Kind: domain.EventPlaybackChanged, Player: p})
}

// emit delivers an event in order, blocking until it is read or the monitor stops
func (m *MprisMonitor) emit(ctx context.Context, ev domain.Event) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
		m.logger.Debug("Dropping event on shutdown", zap.Stringer("kind", ev.Kind))
	}
}

// getPlayerName returns the well-known player name for a unique bus name
// Falls back to the unique name if no mapping exists
func (m *MprisMonitor) getPlayerName(uniqueName string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if wellKnown, ok := m.owners[uniqueName]; ok {
		return wellKnown
	}
	return uniqueName
}

// managed returns the registry entry for an instance name
func (m *MprisMonitor) managed(instance string) (domain.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(instance); i >= 0 {
		return m.players[i], true
	}
	return domain.Player{}, false
}

// indexOf must be called with mu held
func (m *MprisMonitor) indexOf(instance string) int {
	return slices.IndexFunc(m.players, func(p domain.Player) bool {
		return p.Instance == instance
	})
}

func (m *MprisMonitor) client() (DBusClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.conn == nil {
		return nil, fmt.Errorf("MPRIS monitor is not started")
	}
	return m.conn, nil
}

func (m *MprisMonitor) closeEvents() {
	m.closeOnce.Do(func() { close(m.events) })
}

func (m *MprisMonitor) closeConn(conn DBusClient) {
	if err := conn.Close(); err != nil {
		m.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
	}
}
