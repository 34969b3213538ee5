package room

// Tally counts votes per target and returns the round winner, or nil when no
// counted votes were cast. Votes for targets that have since left are skipped.
//
// The strictly highest count wins. When several targets share the highest
// count the one that joined the room earliest wins, so the result never
// depends on map iteration order.
func Tally(votes map[string]string, submissions map[string]string, players map[string]*Player) *Winner {
	counts := make(map[string]int)
	for _, target := range votes {
		if _, ok := players[target]; !ok {
			continue
		}
		counts[target]++
	}

	var (
		winnerID string
		maxVotes int
	)
	for target, n := range counts {
		switch {
		case n > maxVotes:
			winnerID, maxVotes = target, n
		case n == maxVotes && players[target].joinSeq < players[winnerID].joinSeq:
			winnerID = target
		}
	}
	if winnerID == "" {
		return nil
	}

	return &Winner{
		ConnectionID: winnerID,
		DisplayName:  players[winnerID].DisplayName,
		MediaRef:     submissions[winnerID],
		Votes:        maxVotes,
	}
}
