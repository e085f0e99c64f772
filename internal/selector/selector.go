// Package selector decides which player the status line reflects.
package selector

import "github.com/genricoloni/mpris-status/internal/domain"

// SelectActive returns the most recently managed player that is Playing.
// When nothing is playing it falls back to the first managed player, and
// reports false only for an empty registry.
func SelectActive(players []domain.Player) (domain.Player, bool) {
	for i := len(players) - 1; i >= 0; i-- {
		if players[i].Status == domain.StatusPlaying {
			return players[i], true
		}
	}
	if len(players) == 0 {
		return domain.Player{}, false
	}
	return players[0], true
}
