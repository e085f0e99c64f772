package domain

import "strings"

// PlayerStatus represents the current state of a media player
type PlayerStatus string

const (
	// StatusPlaying indicates the media is currently playing
	StatusPlaying PlayerStatus = "Playing"
	// StatusPaused indicates the media is paused
	StatusPaused PlayerStatus = "Paused"
	// StatusStopped indicates the media is stopped
	StatusStopped PlayerStatus = "Stopped"
)

// MprisPrefix is the well-known bus name prefix shared by every MPRIS player
const MprisPrefix = "org.mpris.MediaPlayer2."

// Player is a media player known to the player source
type Player struct {
	// Name is the player name without instance suffix (e.g. "firefox")
	Name string
	// Instance uniquely identifies the player on the bus (e.g. "firefox.instance_1_84")
	Instance string
	// Status is the last reported playback status
	Status PlayerStatus
}

// NewPlayer builds a Player from its instance name
func NewPlayer(instance string, status PlayerStatus) Player {
	name, _, _ := strings.Cut(instance, ".instance")
	return Player{Name: name, Instance: instance, Status: status}
}

// BusName returns the well-known D-Bus name of the player
func (p Player) BusName() string {
	return MprisPrefix + p.Instance
}

// Same reports whether both values refer to the same player instance
func (p Player) Same(other Player) bool {
	return p.Instance == other.Instance
}

// Matches reports whether the player filter selects the given instance name.
// An empty filter selects everything.
func Matches(filter, instance string) bool {
	if filter == "" {
		return true
	}
	p := NewPlayer(instance, "")
	return filter == p.Name || filter == p.Instance
}

// StatusRecord is the line written to the status bar
type StatusRecord struct {
	Text  string `json:"text"`
	Class string `json:"class"`
	Alt   string `json:"alt"`
}

// EventKind tells which notification an Event carries
type EventKind int

const (
	// EventPlayerAppeared is raised when a new MPRIS name shows up on the bus
	EventPlayerAppeared EventKind = iota + 1
	// EventPlayerVanished is raised when a managed player leaves the bus
	EventPlayerVanished
	// EventPlaybackChanged is raised when a managed player reports a new PlaybackStatus
	EventPlaybackChanged
)

func (k EventKind) String() string {
	switch k {
	case EventPlayerAppeared:
		return "player-appeared"
	case EventPlayerVanished:
		return "player-vanished"
	case EventPlaybackChanged:
		return "playback-changed"
	default:
		return "unknown"
	}
}

// Event is a notification produced by a PlayerSource.
// Name is set for EventPlayerAppeared, Player for the other kinds.
type Event struct {
	Kind   EventKind
	Name   string
	Player Player
}
