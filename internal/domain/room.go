package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeferredKind names a room effect that must run after a delay
type DeferredKind string

const (
	DeferBeginNight    DeferredKind = "BEGIN_NIGHT"    // role reveal is over, open the first night
	DeferAnnounceNight DeferredKind = "ANNOUNCE_NIGHT" // the day was resolved, announce the next night
)

// Deferred is a delayed effect. Stamp is the room's phase stamp at the time it
// was scheduled; the effect is dropped if the room has moved on since.
type Deferred struct {
	Kind  DeferredKind
	Delay time.Duration
	Stamp uint64
}

// Effects are the outputs of one or more room operations
type Effects struct {
	Events   []*GameEvent
	Deferred []Deferred
}

// JoinResult is returned to the caller of a join or reconnect
type JoinResult struct {
	PlayerID    string
	HostID      string
	Reconnected bool
}

// Room is a game room and the only place its state changes. It is not safe
// for concurrent use; callers serialize access.
type Room struct {
	ID           string                  `json:"id"`
	HostID       string                  `json:"hostId"`
	Players      map[string]*Player      `json:"players"`
	Status       Status                  `json:"status"`
	Phase        Phase                   `json:"phase"`
	Settings     RoleSettings            `json:"settings"`
	Rules        GameSettings            `json:"rules"`
	NightActions map[string]*NightAction `json:"-"`
	Votes        map[string]string       `json:"-"`
	Round        int                     `json:"round"`
	Stamp        uint64                  `json:"-"`
	Winner       Faction                 `json:"winner,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	LastActiveAt time.Time               `json:"lastActiveAt"`

	settingsCustomized bool
	nextSeq            uint64
	outbox             []*GameEvent
	deferred           []Deferred
}

// NewRoom creates an empty room waiting for players
func NewRoom(id string, rules GameSettings, now time.Time) *Room {
	return &Room{
		ID:           id,
		Players:      make(map[string]*Player),
		Status:       StatusWaiting,
		Phase:        PhaseNone,
		Rules:        rules,
		NightActions: make(map[string]*NightAction),
		Votes:        make(map[string]string),
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// TakeEffects returns and clears the events and deferred effects produced so far
func (r *Room) TakeEffects() Effects {
	fx := Effects{Events: r.outbox, Deferred: r.deferred}
	r.outbox = nil
	r.deferred = nil
	return fx
}

// Join adds a player, or rebinds a known player to a new connection.
func (r *Room) Join(name, playerID, connRef string, now time.Time) (JoinResult, error) {
	if p, ok := r.Players[playerID]; ok && playerID != "" {
		p.Reconnect(connRef, now)
		if strings.TrimSpace(name) != "" {
			p.Name = SanitizeName(name)
		}
		r.touch(now)
		r.broadcastRoster()
		return JoinResult{PlayerID: p.ID, HostID: r.HostID, Reconnected: true}, nil
	}

	if r.Rules.MaxPlayers > 0 && len(r.Players) >= r.Rules.MaxPlayers {
		return JoinResult{}, ErrRoomFull
	}

	player := NewPlayer(uuid.NewString(), SanitizeName(name), connRef, now)
	player.seq = r.nextSeq
	r.nextSeq++

	// Late joiners watch the running game without taking part in it
	if r.Status != StatusWaiting {
		player.Alive = false
	}

	r.Players[player.ID] = player

	// First player becomes the host
	if r.HostID == "" {
		r.HostID = player.ID
	}

	r.touch(now)
	r.broadcastRoster()

	return JoinResult{PlayerID: player.ID, HostID: r.HostID}, nil
}

// Reconnect rebinds an existing player to a new connection
func (r *Room) Reconnect(playerID, connRef string, now time.Time) (JoinResult, error) {
	if _, ok := r.Players[playerID]; !ok || playerID == "" {
		return JoinResult{}, ErrPlayerNotFound
	}
	return r.Join("", playerID, connRef, now)
}

// Disconnect marks every player bound to connRef as unreachable. Players keep
// their seat, role and host status. Returns true if any player matched.
func (r *Room) Disconnect(connRef string, now time.Time) bool {
	matched := false
	for _, p := range r.Players {
		if p.ConnRef == connRef && p.Connected {
			p.Disconnect(now)
			matched = true
		}
	}
	if matched {
		r.touch(now)
		r.broadcastRoster()
	}
	return matched
}

// SetReady toggles a lobby player's readiness. Unknown players are ignored.
func (r *Room) SetReady(playerID string, ready bool, now time.Time) error {
	p, ok := r.Players[playerID]
	if !ok {
		return nil
	}
	if r.Status != StatusWaiting {
		return ErrWrongStatus
	}

	p.Ready = ready
	p.Touch(now)
	r.touch(now)
	r.broadcastRoster()
	return nil
}

// UpdateRoleSettings replaces the role mix (host only, lobby only)
func (r *Room) UpdateRoleSettings(playerID string, settings RoleSettings, now time.Time) error {
	if !r.IsHost(playerID) {
		return ErrNotHost
	}
	if r.Status != StatusWaiting {
		return ErrWrongStatus
	}
	if err := settings.Validate(len(r.Players)); err != nil {
		return err
	}

	r.Settings = settings
	r.settingsCustomized = true
	r.Players[playerID].Touch(now)
	r.touch(now)
	r.broadcastRoster()
	return nil
}

// EffectiveSettings returns the host's settings, or defaults scaled to the room
func (r *Room) EffectiveSettings() RoleSettings {
	if r.settingsCustomized {
		return r.Settings
	}
	return DefaultRoleSettings(len(r.Players))
}

// CanStart checks if the game can be started
func (r *Room) CanStart() bool {
	return r.startError() == nil
}

func (r *Room) startError() error {
	if r.Status != StatusWaiting {
		return ErrWrongStatus
	}
	if len(r.Players) < r.Rules.MinPlayers {
		return fmt.Errorf("%w: need at least %d", ErrInsufficientPlayers, r.Rules.MinPlayers)
	}
	for _, p := range r.Players {
		if !p.Ready {
			return ErrNotAllReady
		}
	}
	return r.EffectiveSettings().Validate(len(r.Players))
}

// StartGame deals roles and opens the role reveal (host only)
func (r *Room) StartGame(playerID string, shuffler Shuffler, now time.Time) error {
	if !r.IsHost(playerID) {
		return ErrNotHost
	}
	if err := r.startError(); err != nil {
		return err
	}

	r.Settings = r.EffectiveSettings()
	roles := AssignRoles(r.orderedIDs(), r.Settings, shuffler)
	for id, p := range r.Players {
		p.Role = roles[id]
		p.Alive = true
	}

	r.Status = StatusPlaying
	r.enterPhase(PhaseRoleReveal)
	r.Round = 0
	r.Winner = FactionNone
	clear(r.NightActions)
	clear(r.Votes)
	r.touch(now)

	r.broadcast(EventGameStarting, &GameStartingPayload{
		Players:  r.playerInfoList(),
		Settings: r.Settings,
	})
	r.broadcastPhase()

	mafia := r.mafiaInfoList()
	for _, p := range r.orderedPlayers() {
		payload := &RoleAssignedPayload{Role: p.Role}
		if p.Role.IsMafia() {
			payload.FellowMafia = mafia
		}
		r.sendTo(p.ID, EventRoleAssigned, payload)
	}

	r.deferEffect(DeferBeginNight, r.Rules.RoleRevealDelay)
	return nil
}

// BeginNight ends the role reveal. It is a no-op if the room moved on since
// the effect was scheduled.
func (r *Room) BeginNight(stamp uint64) bool {
	if r.Status != StatusPlaying || r.Phase != PhaseRoleReveal || r.Stamp != stamp {
		return false
	}

	r.enterPhase(PhaseNight)
	r.Round = 1
	clear(r.NightActions)

	r.broadcastPhase()
	r.announceNight()
	r.maybeResolveNight()
	return true
}

// AnnounceNight tells players a new night has begun after a resolved day.
// It is a no-op if the night was already resolved or the game ended.
func (r *Room) AnnounceNight(stamp uint64) bool {
	if r.Status != StatusPlaying || r.Phase != PhaseNight || r.Stamp != stamp {
		return false
	}
	r.announceNight()
	return true
}

// SubmitNightAction records a role holder's action for the current night
func (r *Room) SubmitNightAction(playerID string, actionType ActionType, targetID string, now time.Time) error {
	if r.Status != StatusPlaying {
		return ErrWrongStatus
	}
	if r.Phase != PhaseNight {
		return ErrWrongPhase
	}

	actor, ok := r.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !actor.Alive {
		return fmt.Errorf("%w: eliminated players cannot act", ErrValidation)
	}

	expected, ok := actor.Role.NightAction()
	if !ok {
		return fmt.Errorf("%w: your role has no night action", ErrValidation)
	}
	if actionType != expected {
		return fmt.Errorf("%w: your role can only %s", ErrValidation, strings.ToLower(string(expected)))
	}

	if _, done := r.NightActions[playerID]; done {
		return ErrDuplicateAction
	}

	target, ok := r.Players[targetID]
	if !ok || !target.Alive {
		return fmt.Errorf("%w: target must be a living player", ErrValidation)
	}
	if actionType == ActionInvestigate && targetID == playerID {
		return fmt.Errorf("%w: cannot investigate yourself", ErrValidation)
	}

	r.NightActions[playerID] = NewNightAction(playerID, actionType, targetID, now)
	actor.Touch(now)
	r.touch(now)

	r.sendTo(playerID, EventActionAccepted, &ActionAcceptedPayload{ActionType: actionType, TargetID: targetID})

	switch actionType {
	case ActionInvestigate:
		r.sendTo(playerID, EventInvestigationResult, &InvestigationResultPayload{
			TargetID:   target.ID,
			TargetName: target.Name,
			IsMafia:    target.Role.IsMafia(),
		})
	case ActionKill:
		for _, p := range r.orderedPlayers() {
			if p.ID != playerID && p.Alive && p.Role.IsMafia() {
				r.sendTo(p.ID, EventMafiaAction, &MafiaActionPayload{
					ActorID:    actor.ID,
					ActorName:  actor.Name,
					TargetID:   target.ID,
					TargetName: target.Name,
				})
			}
		}
	}

	r.maybeResolveNight()
	return nil
}

// SubmitDayVote records or replaces a living player's vote
func (r *Room) SubmitDayVote(playerID, targetID string, now time.Time) error {
	if r.Status != StatusPlaying {
		return ErrWrongStatus
	}
	if r.Phase != PhaseDay {
		return ErrWrongPhase
	}

	voter, ok := r.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !voter.Alive {
		return fmt.Errorf("%w: eliminated players cannot vote", ErrValidation)
	}

	target, ok := r.Players[targetID]
	if !ok || !target.Alive {
		return fmt.Errorf("%w: target must be a living player", ErrValidation)
	}

	r.Votes[playerID] = targetID
	voter.Touch(now)
	r.touch(now)

	r.broadcast(EventVoteTally, r.voteTally())
	r.maybeResolveDay()
	return nil
}

// Leave removes a player for good. Returns ErrPlayerNotFound for strangers.
// The caller deletes the room once it is empty.
func (r *Room) Leave(playerID string, now time.Time) error {
	if _, ok := r.Players[playerID]; !ok {
		return ErrPlayerNotFound
	}

	r.removePlayer(playerID)
	r.touch(now)
	if r.Empty() {
		return nil
	}

	r.broadcastRoster()

	if r.Status == StatusPlaying && !r.checkWinner() {
		switch r.Phase {
		case PhaseNight:
			r.maybeResolveNight()
		case PhaseDay:
			r.broadcast(EventVoteTally, r.voteTally())
			r.maybeResolveDay()
		}
	}
	return nil
}

// PruneStale removes lobby players that lost their connection more than
// grace ago. connected reports whether a connection is still reachable.
// Returns true if any player was removed.
func (r *Room) PruneStale(now time.Time, grace time.Duration, connected func(connRef string) bool) bool {
	if r.Status != StatusWaiting {
		return false
	}

	pruned := false
	for _, p := range r.orderedPlayers() {
		if connected(p.ConnRef) || now.Sub(p.LastSeenAt) <= grace {
			continue
		}
		r.removePlayer(p.ID)
		pruned = true
	}

	if pruned && !r.Empty() {
		r.broadcastRoster()
	}
	return pruned
}

// Chat broadcasts a message to the whole room
func (r *Room) Chat(playerID, text string, maxLen int, now time.Time) error {
	p, ok := r.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if r.Status == StatusPlaying {
		if r.Phase != PhaseDay {
			return fmt.Errorf("%w: the town is asleep", ErrWrongPhase)
		}
		if !p.Alive {
			return fmt.Errorf("%w: eliminated players cannot talk", ErrValidation)
		}
	}

	clean, err := SanitizeChat(text, maxLen)
	if err != nil {
		return err
	}

	p.Touch(now)
	r.touch(now)
	r.broadcast(EventChatMessage, &ChatPayload{PlayerID: p.ID, Name: p.Name, Text: clean, SentAt: now})
	return nil
}

// MafiaChat sends a message to the living mafia only, at night
func (r *Room) MafiaChat(playerID, text string, maxLen int, now time.Time) error {
	if r.Status != StatusPlaying {
		return ErrWrongStatus
	}
	if r.Phase != PhaseNight {
		return ErrWrongPhase
	}

	p, ok := r.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !p.Alive || !p.Role.IsMafia() {
		return fmt.Errorf("%w: only living mafia can use this channel", ErrValidation)
	}

	clean, err := SanitizeChat(text, maxLen)
	if err != nil {
		return err
	}

	p.Touch(now)
	r.touch(now)
	payload := &ChatPayload{PlayerID: p.ID, Name: p.Name, Text: clean, SentAt: now}
	for _, m := range r.orderedPlayers() {
		if m.Alive && m.Role.IsMafia() {
			r.sendTo(m.ID, EventMafiaChat, payload)
		}
	}
	return nil
}

// StateSync builds the private snapshot for a (re)joining player
func (r *Room) StateSync(playerID string) *StateSyncPayload {
	state := &StateSyncPayload{
		Status: r.Status,
		Phase:  r.Phase,
		Round:  r.Round,
		Winner: r.Winner,
	}

	if p, ok := r.Players[playerID]; ok {
		state.Alive = p.Alive
		state.Role = p.Role
		if p.Role.IsMafia() {
			state.FellowMafia = r.mafiaInfoList()
		}
	}

	if r.Phase == PhaseDay {
		state.Tally = TallyVotes(r.Votes)
	}

	return state
}

// Roster returns the current lobby view
func (r *Room) Roster() *RosterPayload {
	return &RosterPayload{
		Players:  r.playerInfoList(),
		HostID:   r.HostID,
		Status:   r.Status,
		Settings: r.EffectiveSettings(),
		CanStart: r.CanStart(),
	}
}

// GetPlayer returns a player by ID
func (r *Room) GetPlayer(playerID string) (*Player, error) {
	player, ok := r.Players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

// Empty returns true once the last player is gone
func (r *Room) Empty() bool {
	return len(r.Players) == 0
}

// AliveCount returns the number of living players holding a role
func (r *Room) AliveCount() int {
	count := 0
	for _, p := range r.Players {
		if p.Alive && p.Role != "" {
			count++
		}
	}
	return count
}

// ActorCount returns the number of living players with a night action
func (r *Room) ActorCount() int {
	count := 0
	for _, p := range r.Players {
		if p.CanAct() {
			count++
		}
	}
	return count
}

func (r *Room) maybeResolveNight() {
	if r.Status == StatusPlaying && r.Phase == PhaseNight && len(r.NightActions) >= r.ActorCount() {
		r.resolveNight()
	}
}

func (r *Room) maybeResolveDay() {
	if r.Status == StatusPlaying && r.Phase == PhaseDay && len(r.Votes) >= r.AliveCount() {
		r.resolveDay()
	}
}

// removePlayer deletes a player with their own action and vote, then hands
// the host role to the longest-standing remaining player. Actions and votes
// aimed at the leaver stay recorded so their authors still count as done;
// resolution skips targets that are gone.
func (r *Room) removePlayer(playerID string) {
	delete(r.Players, playerID)
	delete(r.NightActions, playerID)
	delete(r.Votes, playerID)

	if r.HostID != playerID {
		return
	}

	r.HostID = ""
	if ordered := r.orderedPlayers(); len(ordered) > 0 {
		host := ordered[0]
		r.HostID = host.ID
		r.broadcast(EventHostChanged, &HostChangedPayload{HostID: host.ID, HostName: host.Name})
	}
}

func (r *Room) announceNight() {
	r.broadcast(EventNightBegins, &NightBeginsPayload{
		Round:        r.Round,
		AlivePlayers: r.alivePlayerInfoList(),
	})
}

func (r *Room) voteTally() *VoteTallyPayload {
	return &VoteTallyPayload{
		Tally:      TallyVotes(r.Votes),
		VotedCount: len(r.Votes),
		AliveCount: r.AliveCount(),
	}
}

func (r *Room) touch(now time.Time) {
	r.LastActiveAt = now
}

func (r *Room) broadcast(eventType EventType, payload interface{}) {
	r.outbox = append(r.outbox, NewEvent(eventType, r.ID, payload))
}

func (r *Room) sendTo(playerID string, eventType EventType, payload interface{}) {
	r.outbox = append(r.outbox, NewPlayerEvent(eventType, r.ID, playerID, payload))
}

func (r *Room) broadcastRoster() {
	r.broadcast(EventRosterUpdate, r.Roster())
}

func (r *Room) broadcastPhase() {
	r.broadcast(EventPhaseChange, &PhaseChangePayload{Status: r.Status, Phase: r.Phase, Round: r.Round})
}

// enterPhase moves the room to next and invalidates effects deferred in the
// previous phase
func (r *Room) enterPhase(next Phase) {
	if !r.Phase.CanTransitionTo(next) {
		panic(fmt.Sprintf("illegal phase transition %q -> %q", r.Phase, next))
	}
	r.Phase = next
	r.Stamp++
}

func (r *Room) deferEffect(kind DeferredKind, delay time.Duration) {
	r.deferred = append(r.deferred, Deferred{Kind: kind, Delay: delay, Stamp: r.Stamp})
}

// orderedPlayers returns players in join order
func (r *Room) orderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].seq < players[j].seq
	})
	return players
}

func (r *Room) orderedIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.orderedPlayers() {
		ids = append(ids, p.ID)
	}
	return ids
}

func (r *Room) playerInfoList() []PlayerInfo {
	list := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.orderedPlayers() {
		list = append(list, p.ToInfo(r.HostID))
	}
	return list
}

func (r *Room) alivePlayerInfoList() []PlayerInfo {
	list := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.orderedPlayers() {
		if p.Alive && p.Role != "" {
			list = append(list, p.ToInfo(r.HostID))
		}
	}
	return list
}

func (r *Room) mafiaInfoList() []PlayerInfo {
	var list []PlayerInfo
	for _, p := range r.orderedPlayers() {
		if p.Role.IsMafia() {
			list = append(list, p.ToInfo(r.HostID))
		}
	}
	return list
}
