package domain

import "sort"

// TallyVotes counts voters per target
func TallyVotes(votes map[string]string) map[string]int {
	tally := make(map[string]int, len(votes))
	for _, targetID := range votes {
		tally[targetID]++
	}
	return tally
}

// Leaders returns every target sharing the highest count, sorted by ID, and that count
func Leaders(tally map[string]int) ([]string, int) {
	maxVotes := 0
	var leaders []string
	for targetID, count := range tally {
		switch {
		case count > maxVotes:
			maxVotes = count
			leaders = []string{targetID}
		case count == maxVotes:
			leaders = append(leaders, targetID)
		}
	}
	sort.Strings(leaders)
	return leaders, maxVotes
}
