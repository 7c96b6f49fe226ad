package main

// Lifecycle operations on a session: Join, Leave, Start. Grounded on
// session.c's join_session/leave_session/start_session. Each acquires the
// session's own mutex; broadcasts are unicast sends through the client
// registry, which the lock-ordering rule (session → clients, SPEC_FULL.md §5)
// permits while still holding the session lock.

type joinResult int

const (
	joinOK joinResult = iota
	joinNotWaiting
	joinFull
	joinAlreadyIn
)

// Join adds a player to a waiting session, notifying the players already
// present (not the joiner) with session/player/joined.
func (s *Session) Join(clients *ClientRegistry, clientID int, name string) joinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return joinNotWaiting
	}
	if len(s.Players) >= s.MaxPlayers {
		return joinFull
	}
	for _, p := range s.Players {
		if p.ClientID == clientID {
			return joinAlreadyIn
		}
	}

	player := &SessionPlayer{
		ClientID:      clientID,
		Name:          name,
		Lives:         s.InitialLives,
		CurrentAnswer: -1,
	}
	s.Players = append(s.Players, player)

	notify := frame{
		"action":    "session/player/joined",
		"pseudo":    name,
		"nbPlayers": len(s.Players),
	}.marshal()
	for _, p := range s.Players[:len(s.Players)-1] {
		clients.Send(p.ClientID, notify)
	}
	return joinOK
}

// Leave removes a player (on explicit leave or disconnect). If the leaver
// was creator and others remain, the earliest-joined remaining player
// becomes the new creator. Ends the session if it empties out, or (if
// playing with <=1 left) finalizes results. Otherwise, while playing, it
// wakes the round loop if every remaining active player has now answered.
func (s *Session) Leave(clients *ClientRegistry, clientID int) {
	s.mu.Lock()

	idx := -1
	var leavingName string
	for i, p := range s.Players {
		if p.ClientID == clientID {
			idx = i
			leavingName = p.Name
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)

	if clientID == s.CreatorClient && len(s.Players) > 0 {
		s.CreatorClient = s.Players[0].ClientID
	}

	notify := frame{
		"action": "session/player/left",
		"pseudo": leavingName,
		"reason": "disconnected",
	}.marshal()
	for _, p := range s.Players {
		clients.Send(p.ClientID, notify)
	}

	switch {
	case len(s.Players) == 0:
		s.Status = StatusFinished
		s.mu.Unlock()
	case len(s.Players) == 1 && s.Status == StatusPlaying:
		s.mu.Unlock()
		endSession(s, clients)
	default:
		if s.Status == StatusPlaying && s.answeredCh != nil && allActiveAnswered(s) {
			close(s.answeredCh)
			s.answeredCh = nil
		}
		s.mu.Unlock()
	}
}

// Start transitions waiting→playing, broadcasts session/started with a
// 3-second countdown, then (after that wait) dispatches the first question.
// Restricted to the creator and requiring >=2 players is enforced by the
// caller (handlers_session.go), mirroring handle_start_session's checks.
func (s *Session) Start(ctx sessionCtx, clients *ClientRegistry) {
	s.mu.Lock()
	s.Status = StatusPlaying
	s.CurrentIndex = 0

	notify := frame{
		"action":    "session/started",
		"message":   "session is starting",
		"countdown": 3,
	}.marshal()
	for _, p := range s.Players {
		clients.Send(p.ClientID, notify)
	}
	s.mu.Unlock()

	if !ctx.sleep(countdownDuration) {
		return
	}
	runRound(ctx, s, clients)
}

func (s *Session) findPlayerLocked(clientID int) *SessionPlayer {
	for _, p := range s.Players {
		if p.ClientID == clientID {
			return p
		}
	}
	return nil
}
