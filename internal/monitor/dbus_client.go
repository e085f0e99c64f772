package monitor

import (
	"github.com/godbus/dbus/v5"
)

// DBusClient is the slice of the session bus the monitor needs: the signal
// subscription for player lifecycle and status changes, the bus listing used
// to enumerate players, owner lookups and PlaybackStatus reads.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/mpris-status/internal/monitor DBusClient
type DBusClient interface {
	// Close releases the private bus connection
	Close() error

	// AddMatchSignal subscribes to NameOwnerChanged and PropertiesChanged
	AddMatchSignal(options ...dbus.MatchOption) error

	// Signal routes matched signals to ch; the channel is closed when the
	// connection drops
	Signal(ch chan<- *dbus.Signal)

	// ListNames returns every name on the bus; players are the ones under
	// org.mpris.MediaPlayer2.
	ListNames() ([]string, error)

	// GetNameOwner resolves a player's well-known name to the unique name
	// that appears as the sender of its PropertiesChanged signals
	GetNameOwner(name string) (string, error)

	// GetProperty reads a property of a player object, in practice
	// org.mpris.MediaPlayer2.Player.PlaybackStatus on /org/mpris/MediaPlayer2
	GetProperty(player, path, prop string) (dbus.Variant, error)
}

// StdDBusClient talks to the session bus through godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus, so that
// closing it does not affect other users of the shared connection.
func NewStdDBusClient() (DBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

func (c *StdDBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.AddMatchSignal(options...)
}

func (c *StdDBusClient) Signal(ch chan<- *dbus.Signal) {
	c.conn.Signal(ch)
}

func (c *StdDBusClient) ListNames() ([]string, error) {
	var names []string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

func (c *StdDBusClient) GetNameOwner(name string) (string, error) {
	var owner string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner)
	return owner, err
}

func (c *StdDBusClient) GetProperty(player, path, prop string) (dbus.Variant, error) {
	return c.conn.Object(player, dbus.ObjectPath(path)).GetProperty(prop)
}
