package domain

import "testing"

func TestNewPlayer(t *testing.T) {
	tests := []struct {
		instance string
		wantName string
	}{
		{"spotify", "spotify"},
		{"firefox.instance_1_84", "firefox"},
		{"vlc.instance7389", "vlc"},
		{"chromium.instance12", "chromium"},
	}

	for _, tt := range tests {
		p := NewPlayer(tt.instance, StatusPaused)
		if p.Name != tt.wantName {
			t.Errorf("NewPlayer(%s).Name: expected %s, got %s", tt.instance, tt.wantName, p.Name)
		}
		if p.Instance != tt.instance {
			t.Errorf("NewPlayer(%s).Instance: expected %s, got %s", tt.instance, tt.instance, p.Instance)
		}
		if p.BusName() != "org.mpris.MediaPlayer2."+tt.instance {
			t.Errorf("unexpected bus name %s", p.BusName())
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		filter   string
		instance string
		want     bool
	}{
		{"", "spotify", true},
		{"spotify", "spotify", true},
		{"B", "A", false},
		{"firefox", "firefox.instance_1_84", true},
		{"firefox.instance_1_84", "firefox.instance_1_84", true},
		{"firefox.instance_1_85", "firefox.instance_1_84", false},
		{"spot", "spotify", false},
	}

	for _, tt := range tests {
		if got := Matches(tt.filter, tt.instance); got != tt.want {
			t.Errorf("Matches(%q, %q): expected %v, got %v", tt.filter, tt.instance, tt.want, got)
		}
	}
}

func TestPlayerSame(t *testing.T) {
	a := NewPlayer("vlc", StatusPlaying)
	b := NewPlayer("vlc", StatusPaused)
	c := NewPlayer("vlc.instance2", StatusPlaying)

	if !a.Same(b) {
		t.Error("players with the same instance should be the same")
	}
	if a.Same(c) {
		t.Error("players with different instances should differ")
	}
}
