package domain

// EvaluateWinner decides whether a faction has won, counting living players only.
func EvaluateWinner(players map[string]*Player) Faction {
	mafia, others := 0, 0
	for _, p := range players {
		if !p.Alive || p.Role == "" {
			continue
		}
		if p.Role.IsMafia() {
			mafia++
		} else {
			others++
		}
	}

	switch {
	case mafia == 0:
		return FactionVillagers
	case mafia >= others:
		return FactionMafia
	default:
		return FactionNone
	}
}

// checkWinner ends the game if a faction has won. Returns true when it did.
func (r *Room) checkWinner() bool {
	if r.Status != StatusPlaying {
		return false
	}

	winner := EvaluateWinner(r.Players)
	if winner == FactionNone {
		return false
	}

	r.Winner = winner
	r.Status = StatusFinished
	r.enterPhase(PhaseNone)
	clear(r.NightActions)
	clear(r.Votes)

	r.broadcast(EventGameOver, &GameOverPayload{Winner: winner})
	r.broadcast(EventRoleReveal, &RoleRevealPayload{Players: r.roleInfoList()})

	return true
}

func (r *Room) roleInfoList() []RoleInfo {
	list := make([]RoleInfo, 0, len(r.Players))
	for _, p := range r.orderedPlayers() {
		if p.Role == "" {
			continue
		}
		list = append(list, RoleInfo{ID: p.ID, Name: p.Name, Role: p.Role, Alive: p.Alive})
	}
	return list
}
