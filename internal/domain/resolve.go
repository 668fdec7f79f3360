package domain

import "sort"

// resolveNight applies the night's kills and saves, then opens the day
func (r *Room) resolveNight() {
	saves := make(map[string]bool)
	for _, action := range r.NightActions {
		actor, ok := r.Players[action.ActorID]
		if !ok || !actor.Alive {
			continue
		}
		if action.Type == ActionSave && actor.Role == RoleDoctor {
			saves[action.TargetID] = true
		}
	}

	killed := make([]string, 0)
	for _, targetID := range r.killCandidates() {
		if saves[targetID] {
			continue
		}
		victim, ok := r.Players[targetID]
		if !ok || !victim.Alive {
			continue
		}
		victim.Alive = false
		killed = append(killed, victim.Name)
		r.broadcast(EventPlayerEliminated, &PlayerEliminatedPayload{
			PlayerID: victim.ID,
			Name:     victim.Name,
			Role:     victim.Role,
			Phase:    PhaseNight,
		})
	}

	clear(r.NightActions)
	clear(r.Votes)
	r.enterPhase(PhaseDay)

	r.broadcastPhase()
	r.broadcast(EventDayBegins, &DayBeginsPayload{
		Round:        r.Round,
		Killed:       killed,
		AlivePlayers: r.alivePlayerInfoList(),
	})

	r.checkWinner()
}

// killCandidates returns the targets chosen by living mafia, sorted by ID.
// With MultipleMafiaKills every distinct target is a candidate; otherwise
// only a unique plurality target is, and a split mafia kills nobody.
func (r *Room) killCandidates() []string {
	picks := make(map[string]string)
	for actorID, action := range r.NightActions {
		actor, ok := r.Players[actorID]
		if !ok || !actor.Alive || !actor.Role.IsMafia() || action.Type != ActionKill {
			continue
		}
		picks[actorID] = action.TargetID
	}

	tally := TallyVotes(picks)
	if !r.Rules.MultipleMafiaKills {
		leaders, _ := Leaders(tally)
		if len(leaders) != 1 {
			return nil
		}
		return leaders
	}

	targets := make([]string, 0, len(tally))
	for targetID := range tally {
		targets = append(targets, targetID)
	}
	sort.Strings(targets)
	return targets
}

// resolveDay eliminates the unique most-voted player. Ties protect the accused,
// and a leader who already left the room eliminates nobody.
func (r *Room) resolveDay() {
	tally := TallyVotes(r.Votes)
	leaders, top := Leaders(tally)

	result := &VoteResultPayload{Tally: tally, Tie: len(leaders) > 1}
	if len(leaders) == 1 {
		if victim, ok := r.Players[leaders[0]]; ok && victim.Alive {
			victim.Alive = false
			result.EliminatedID = victim.ID
			r.broadcast(EventPlayerEliminated, &PlayerEliminatedPayload{
				PlayerID: victim.ID,
				Name:     victim.Name,
				Role:     victim.Role,
				Phase:    PhaseDay,
				Votes:    top,
			})
		}
	}
	r.broadcast(EventVoteResult, result)

	clear(r.Votes)
	clear(r.NightActions)
	r.enterPhase(PhaseNight)
	r.Round++

	if r.checkWinner() {
		return
	}

	r.broadcastPhase()
	r.deferEffect(DeferAnnounceNight, r.Rules.NightDelay)
}
