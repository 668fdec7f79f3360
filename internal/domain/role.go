package domain

// Role represents a player's hidden role
type Role string

const (
	RoleMafia     Role = "MAFIA"
	RoleDetective Role = "DETECTIVE"
	RoleDoctor    Role = "DOCTOR"
	RoleVillager  Role = "VILLAGER"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsMafia returns true if this role belongs to the mafia faction
func (r Role) IsMafia() bool {
	return r == RoleMafia
}

// NightAction returns the action this role performs at night.
// The second return value is false for roles that sleep through the night.
func (r Role) NightAction() (ActionType, bool) {
	switch r {
	case RoleMafia:
		return ActionKill, true
	case RoleDoctor:
		return ActionSave, true
	case RoleDetective:
		return ActionInvestigate, true
	default:
		return "", false
	}
}

// Faction is the side that can win a game
type Faction string

const (
	FactionNone      Faction = ""
	FactionVillagers Faction = "VILLAGERS"
	FactionMafia     Faction = "MAFIA"
)
