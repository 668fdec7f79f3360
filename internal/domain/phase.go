package domain

// Status is the coarse lifecycle of a room
type Status string

const (
	StatusWaiting  Status = "WAITING"  // Lobby, players joining and readying up
	StatusPlaying  Status = "PLAYING"  // Game in progress, see Phase
	StatusFinished Status = "FINISHED" // A faction has won
)

// Phase represents the in-round phase of a game in progress
type Phase string

const (
	PhaseNone       Phase = ""
	PhaseRoleReveal Phase = "ROLE_REVEAL" // Players are reading their roles
	PhaseNight      Phase = "NIGHT"       // Role holders submit their night actions
	PhaseDay        Phase = "DAY"         // Everyone alive votes to eliminate a suspect
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseNone:       {PhaseRoleReveal},
		PhaseRoleReveal: {PhaseNight, PhaseNone},
		PhaseNight:      {PhaseDay, PhaseNone},
		PhaseDay:        {PhaseNight, PhaseNone},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
