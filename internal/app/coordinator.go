package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mafia/internal/domain"
)

const (
	// DefaultInboxSize is the buffer of the coordinator's work queue
	DefaultInboxSize = 256

	defaultChatMaxLength = 200
)

// ErrStopped is returned when work is submitted to a stopped coordinator
var ErrStopped = errors.New("coordinator stopped")

// Options configures a Coordinator. Zero values fall back to defaults.
type Options struct {
	ChatMaxLength int
	RoomExpiry    time.Duration
	PlayerGrace   time.Duration
	InboxSize     int

	Limiter   *ChatLimiter
	Scheduler Scheduler
	Shuffler  domain.Shuffler
	Clock     func() time.Time
}

// RoomInfo is the public summary of a room
type RoomInfo struct {
	RoomID      string        `json:"roomId"`
	Status      domain.Status `json:"status"`
	Phase       domain.Phase  `json:"phase"`
	Round       int           `json:"round"`
	PlayerCount int           `json:"playerCount"`
	CanJoin     bool          `json:"canJoin"`
}

// binding ties a connection to the player it joined as
type binding struct {
	roomID   string
	playerID string
}

// Coordinator owns the registry and every room. All state changes happen on
// the goroutine running Run, one unit of work at a time.
type Coordinator struct {
	registry  *Registry
	notifier  Notifier
	scheduler Scheduler
	limiter   *ChatLimiter
	shuffler  domain.Shuffler
	clock     func() time.Time
	logger    *slog.Logger

	chatMaxLength int
	roomExpiry    time.Duration
	playerGrace   time.Duration

	bindings map[string]binding // connRef -> player

	inbox chan func()
	done  chan struct{}
}

// NewCoordinator creates a coordinator. Call Run to start processing.
func NewCoordinator(registry *Registry, notifier Notifier, logger *slog.Logger, opts Options) *Coordinator {
	c := &Coordinator{
		registry:      registry,
		notifier:      notifier,
		scheduler:     opts.Scheduler,
		limiter:       opts.Limiter,
		shuffler:      opts.Shuffler,
		clock:         opts.Clock,
		logger:        logger,
		chatMaxLength: opts.ChatMaxLength,
		roomExpiry:    opts.RoomExpiry,
		playerGrace:   opts.PlayerGrace,
		bindings:      make(map[string]binding),
		done:          make(chan struct{}),
	}

	if c.scheduler == nil {
		c.scheduler = NewTimerScheduler()
	}
	if c.limiter == nil {
		c.limiter = NewChatLimiter(0, 0)
	}
	if c.shuffler == nil {
		c.shuffler = domain.RandomShuffler{}
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.chatMaxLength <= 0 {
		c.chatMaxLength = defaultChatMaxLength
	}
	if c.roomExpiry <= 0 {
		c.roomExpiry = 5 * time.Minute
	}
	if c.playerGrace <= 0 {
		c.playerGrace = 2 * time.Minute
	}

	inboxSize := opts.InboxSize
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	c.inbox = make(chan func(), inboxSize)

	return c
}

// Run processes work until ctx is cancelled. Pending timers are cancelled
// on the way out.
func (c *Coordinator) Run(ctx context.Context) error {
	defer func() {
		close(c.done)
		c.scheduler.Stop()
	}()

	c.logger.Info("coordinator started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped", "rooms", c.registry.Len())
			return nil
		case fn := <-c.inbox:
			c.safely(fn)
		}
	}
}

// Submit queues a command for processing
func (c *Coordinator) Submit(ctx context.Context, cmd Command) error {
	return c.enqueue(ctx, func() { c.Dispatch(cmd) })
}

// Sweep queues a janitor pass
func (c *Coordinator) Sweep(ctx context.Context) error {
	return c.enqueue(ctx, c.sweep)
}

// NewRoomCode returns an unused room code
func (c *Coordinator) NewRoomCode(ctx context.Context) (string, error) {
	var code string
	var err error
	if qerr := c.query(ctx, func() { code, err = c.registry.GenerateCode() }); qerr != nil {
		return "", qerr
	}
	return code, err
}

// RoomInfo returns the public summary of a room
func (c *Coordinator) RoomInfo(ctx context.Context, rawID string) (RoomInfo, error) {
	roomID, err := domain.NormalizeRoomID(rawID)
	if err != nil {
		return RoomInfo{}, err
	}

	var info RoomInfo
	qerr := c.query(ctx, func() {
		var room *domain.Room
		room, err = c.registry.Get(roomID)
		if err != nil {
			return
		}
		info = RoomInfo{
			RoomID:      room.ID,
			Status:      room.Status,
			Phase:       room.Phase,
			Round:       room.Round,
			PlayerCount: len(room.Players),
			CanJoin:     room.Rules.MaxPlayers <= 0 || len(room.Players) < room.Rules.MaxPlayers,
		}
	})
	if qerr != nil {
		return RoomInfo{}, qerr
	}
	return info, err
}

// Stats returns registry counters
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.query(ctx, func() { stats = c.registry.Snapshot() })
	return stats, err
}

// Dispatch processes a command synchronously. It must only be called from
// the loop goroutine, or when Run is not running.
func (c *Coordinator) Dispatch(cmd Command) {
	connRef := cmd.origin()

	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("command panicked",
				"command", fmt.Sprintf("%T", cmd),
				"connRef", connRef,
				"panic", rec,
			)
			c.sendError(connRef, "", domain.CodeInternal, "internal error")
		}
	}()

	if err := c.handle(cmd); err != nil {
		c.reject(cmd, err)
	}
}

func (c *Coordinator) handle(cmd Command) error {
	switch cmd := cmd.(type) {
	case Join:
		return c.join(cmd)
	case Reconnect:
		return c.reconnect(cmd)
	case Disconnect:
		c.disconnect(cmd.ConnRef)
		return nil
	case Leave:
		return c.leave(cmd.ConnRef)
	case SetReady:
		err := c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			return room.SetReady(playerID, cmd.Ready, now)
		})
		// Readiness from a stranger or for a vanished room is ignored
		if errors.Is(err, domain.ErrPlayerNotFound) || errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		return err
	case UpdateRoleSettings:
		return c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			return room.UpdateRoleSettings(playerID, cmd.Settings, now)
		})
	case StartGame:
		return c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			if err := room.StartGame(playerID, c.shuffler, now); err != nil {
				return err
			}
			c.logger.Info("game started", "roomID", room.ID, "players", len(room.Players), "settings", room.Settings)
			return nil
		})
	case NightAction:
		return c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			return room.SubmitNightAction(playerID, cmd.Action, cmd.TargetID, now)
		})
	case DayVote:
		return c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			return room.SubmitDayVote(playerID, cmd.TargetID, now)
		})
	case Chat:
		return c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			if !c.limiter.Allow(room.ID, playerID, now) {
				return domain.ErrRateLimited
			}
			return room.Chat(playerID, cmd.Text, c.chatMaxLength, now)
		})
	case MafiaChat:
		return c.withPlayer(cmd.ConnRef, func(room *domain.Room, playerID string, now time.Time) error {
			if !c.limiter.Allow(room.ID, playerID, now) {
				return domain.ErrRateLimited
			}
			return room.MafiaChat(playerID, cmd.Text, c.chatMaxLength, now)
		})
	default:
		return fmt.Errorf("%w: unsupported command %T", domain.ErrValidation, cmd)
	}
}

func (c *Coordinator) join(cmd Join) error {
	roomID, err := domain.NormalizeRoomID(cmd.RoomID)
	if err != nil {
		return err
	}

	// Joining again from a bound connection keeps the same seat
	playerID := cmd.PlayerID
	if b, ok := c.bindings[cmd.ConnRef]; ok && b.roomID == roomID && (playerID == "" || playerID == b.playerID) {
		playerID = b.playerID
	} else {
		c.release(cmd.ConnRef, roomID, playerID)
	}

	now := c.clock()
	room, created := c.registry.GetOrCreate(roomID, now)

	res, err := room.Join(cmd.Name, playerID, cmd.ConnRef, now)
	if err != nil {
		if created && room.Empty() {
			c.registry.Remove(roomID)
		}
		return err
	}

	c.bind(cmd.ConnRef, roomID, res.PlayerID)
	c.logger.Info("player joined",
		"roomID", roomID,
		"playerID", res.PlayerID,
		"reconnected", res.Reconnected,
	)

	c.welcome(room, cmd.ConnRef, res)
	c.flush(room)
	return nil
}

func (c *Coordinator) reconnect(cmd Reconnect) error {
	roomID, err := domain.NormalizeRoomID(cmd.RoomID)
	if err != nil {
		return err
	}

	room, err := c.registry.Get(roomID)
	if err != nil {
		return err
	}
	if _, err := room.GetPlayer(cmd.PlayerID); err != nil {
		return err
	}
	c.release(cmd.ConnRef, roomID, cmd.PlayerID)

	res, err := room.Reconnect(cmd.PlayerID, cmd.ConnRef, c.clock())
	if err != nil {
		return err
	}

	c.bind(cmd.ConnRef, roomID, res.PlayerID)
	c.logger.Info("player reconnected", "roomID", roomID, "playerID", res.PlayerID)

	c.welcome(room, cmd.ConnRef, res)
	c.flush(room)
	return nil
}

// welcome sends the joining connection its identity and a private snapshot
func (c *Coordinator) welcome(room *domain.Room, connRef string, res domain.JoinResult) {
	c.notify(connRef, domain.NewPlayerEvent(domain.EventJoined, room.ID, res.PlayerID, &domain.JoinedPayload{
		PlayerID:    res.PlayerID,
		HostID:      res.HostID,
		Reconnected: res.Reconnected,
	}))
	c.notify(connRef, domain.NewPlayerEvent(domain.EventStateSync, room.ID, res.PlayerID, room.StateSync(res.PlayerID)))
}

func (c *Coordinator) leave(connRef string) error {
	return c.withPlayer(connRef, func(room *domain.Room, playerID string, now time.Time) error {
		if err := room.Leave(playerID, now); err != nil {
			return err
		}
		delete(c.bindings, connRef)
		c.limiter.Forget(room.ID, playerID)
		c.logger.Info("player left", "roomID", room.ID, "playerID", playerID)
		return nil
	})
}

func (c *Coordinator) disconnect(connRef string) {
	b, ok := c.bindings[connRef]
	if !ok {
		return
	}
	delete(c.bindings, connRef)

	room, err := c.registry.Get(b.roomID)
	if err != nil {
		return
	}
	if room.Disconnect(connRef, c.clock()) {
		c.logger.Info("player disconnected", "roomID", room.ID, "playerID", b.playerID)
	}
	c.flush(room)
}

// withPlayer resolves the room and player bound to connRef, runs fn, and
// delivers whatever the room produced.
func (c *Coordinator) withPlayer(connRef string, fn func(room *domain.Room, playerID string, now time.Time) error) error {
	b, ok := c.bindings[connRef]
	if !ok {
		return fmt.Errorf("%w: join a room first", domain.ErrPlayerNotFound)
	}

	room, err := c.registry.Get(b.roomID)
	if err != nil {
		delete(c.bindings, connRef)
		return err
	}

	// A later reconnect from another connection takes the seat over
	p, ok := room.Players[b.playerID]
	if !ok || p.ConnRef != connRef {
		delete(c.bindings, connRef)
		return domain.ErrPlayerNotFound
	}

	err = fn(room, b.playerID, c.clock())
	c.flush(room)
	return err
}

// release disconnects connRef from the seat it holds, unless that seat is
// the one it is about to take
func (c *Coordinator) release(connRef, roomID, playerID string) {
	if prev, ok := c.bindings[connRef]; ok && prev != (binding{roomID: roomID, playerID: playerID}) {
		c.disconnect(connRef)
	}
}

func (c *Coordinator) bind(connRef, roomID, playerID string) {
	c.bindings[connRef] = binding{roomID: roomID, playerID: playerID}
}

// flush delivers the room's pending events, schedules its deferred effects
// and deletes it once empty.
func (c *Coordinator) flush(room *domain.Room) {
	fx := room.TakeEffects()

	for _, event := range fx.Events {
		c.deliver(room, event)
	}
	for _, d := range fx.Deferred {
		c.schedule(room.ID, d)
	}

	if room.Status == domain.StatusFinished && hasEvent(fx.Events, domain.EventGameOver) {
		c.logger.Info("game finished", "roomID", room.ID, "winner", room.Winner, "round", room.Round)
	}

	if room.Empty() {
		c.removeRoom(room.ID)
	}
}

// deliver routes one event: unicasts to their player, broadcasts to every
// connected member of the room
func (c *Coordinator) deliver(room *domain.Room, event *domain.GameEvent) {
	if event.IsUnicast() {
		if p, ok := room.Players[event.PlayerID]; ok && p.Connected {
			c.notify(p.ConnRef, event)
		}
		return
	}

	for _, p := range room.Players {
		if p.Connected {
			c.notify(p.ConnRef, event)
		}
	}
}

func (c *Coordinator) notify(connRef string, event *domain.GameEvent) {
	if err := c.notifier.Send(connRef, event); err != nil {
		c.logger.Debug("failed to send to client", "connRef", connRef, "type", event.Type, "error", err)
	}
}

func (c *Coordinator) schedule(roomID string, d domain.Deferred) {
	c.scheduler.Schedule(roomID, d.Delay, func() {
		err := c.enqueue(context.Background(), func() { c.runDeferred(roomID, d) })
		if err != nil {
			c.logger.Debug("dropped deferred effect", "roomID", roomID, "kind", d.Kind, "error", err)
		}
	})
}

// runDeferred applies a delayed effect if its room still exists and has not
// moved past the phase the effect was scheduled in
func (c *Coordinator) runDeferred(roomID string, d domain.Deferred) {
	room, err := c.registry.Get(roomID)
	if err != nil {
		return
	}

	var applied bool
	switch d.Kind {
	case domain.DeferBeginNight:
		applied = room.BeginNight(d.Stamp)
	case domain.DeferAnnounceNight:
		applied = room.AnnounceNight(d.Stamp)
	}
	if !applied {
		c.logger.Debug("stale deferred effect", "roomID", roomID, "kind", d.Kind, "stamp", d.Stamp)
	}

	c.flush(room)
}

func (c *Coordinator) sweep() {
	removed, changed := c.registry.Sweep(c.clock(), c.roomExpiry, c.playerGrace, c.notifier.Connected)

	for _, id := range removed {
		c.forgetRoom(id)
	}
	for _, room := range changed {
		c.flush(room)
	}

	if len(removed) > 0 || len(changed) > 0 {
		c.logger.Info("janitor sweep", "removed", len(removed), "pruned", len(changed))
	}
}

func (c *Coordinator) removeRoom(id string) {
	c.registry.Remove(id)
	c.forgetRoom(id)
}

// forgetRoom drops everything kept on the side for a deleted room
func (c *Coordinator) forgetRoom(id string) {
	c.scheduler.Cancel(id)
	c.limiter.ForgetRoom(id)
	for connRef, b := range c.bindings {
		if b.roomID == id {
			delete(c.bindings, connRef)
		}
	}
}

func (c *Coordinator) reject(cmd Command, err error) {
	code := domain.ErrorCode(err)
	level := slog.LevelDebug
	if code == domain.CodeInternal {
		level = slog.LevelError
	}
	c.logger.Log(context.Background(), level, "command rejected",
		"command", fmt.Sprintf("%T", cmd),
		"connRef", cmd.origin(),
		"code", code,
		"error", err,
	)

	roomID := ""
	if b, ok := c.bindings[cmd.origin()]; ok {
		roomID = b.roomID
	}
	c.sendError(cmd.origin(), roomID, code, err.Error())
}

func (c *Coordinator) sendError(connRef, roomID, code, message string) {
	c.notify(connRef, domain.NewEvent(domain.EventError, roomID, &domain.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// enqueue hands fn to the loop
func (c *Coordinator) enqueue(ctx context.Context, fn func()) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}

	select {
	case c.inbox <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// query runs fn on the loop and waits for it to finish
func (c *Coordinator) query(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := c.enqueue(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// safely runs a unit of work, keeping the loop alive if it panics
func (c *Coordinator) safely(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("coordinator task panicked", "panic", rec)
		}
	}()
	fn()
}

func hasEvent(events []*domain.GameEvent, eventType domain.EventType) bool {
	for _, e := range events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}
