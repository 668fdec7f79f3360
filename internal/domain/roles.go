package domain

import "math/rand/v2"

// Shuffler permutes n elements by calling swap, like rand.Shuffle
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// RandomShuffler is a Fisher–Yates shuffle backed by math/rand/v2
type RandomShuffler struct{}

// Shuffle implements Shuffler
func (RandomShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// AssignRoles deals roles to the given players. The deck holds exactly
// len(playerIDs) cards: the configured special roles, then villagers.
// Callers must validate settings against the head count first.
func AssignRoles(playerIDs []string, settings RoleSettings, shuffler Shuffler) map[string]Role {
	deck := make([]Role, 0, len(playerIDs))
	deck = appendRoles(deck, RoleMafia, settings.MafiaCount)
	deck = appendRoles(deck, RoleDetective, settings.DetectiveCount)
	deck = appendRoles(deck, RoleDoctor, settings.DoctorCount)
	for len(deck) < len(playerIDs) {
		deck = append(deck, RoleVillager)
	}
	deck = deck[:len(playerIDs)]

	shuffler.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	roles := make(map[string]Role, len(playerIDs))
	for i, id := range playerIDs {
		roles[id] = deck[i]
	}
	return roles
}

func appendRoles(deck []Role, role Role, n int) []Role {
	for i := 0; i < n; i++ {
		deck = append(deck, role)
	}
	return deck
}
