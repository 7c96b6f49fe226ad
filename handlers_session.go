package main

import "encoding/json"

// handlers/session.c: list, create, join, start. Field bounds below are
// grounded exactly on handle_create_session's validation.

func handleSessionsList(st *serverState, c *Client, body string) (string, *apiError) {
	waiting := st.sessions.Waiting()
	list := make([]frame, 0, len(waiting))
	for _, s := range waiting {
		s.mu.Lock()
		list = append(list, frame{
			"id":         s.ID,
			"name":       s.Name,
			"mode":       s.Mode.String(),
			"nbPlayers":  len(s.Players),
			"maxPlayers": s.MaxPlayers,
		})
		s.mu.Unlock()
	}
	return frame{
		"action":     "sessions/list",
		"statut":     statusOK,
		"message":    "ok",
		"nbSessions": len(list),
		"sessions":   list,
	}.marshal(), nil
}

func handleSessionCreate(st *serverState, c *Client, body string) (string, *apiError) {
	var req struct {
		Name        string `json:"name"`
		ThemeIDs    []int  `json:"themeIds"`
		Difficulty  string `json:"difficulty"`
		NbQuestions int    `json:"nbQuestions"`
		TimeLimit   int    `json:"timeLimit"`
		Mode        string `json:"mode"`
		Lives       int    `json:"lives"`
		MaxPlayers  int    `json:"maxPlayers"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return "", errBadRequest()
	}

	mode := parseMode(req.Mode)
	if mode == ModeBattle {
		if req.Lives == 0 {
			return "", errAction("session/create", statusBadRequest, "lives required for battle mode")
		}
		if req.Lives < 1 || req.Lives > 10 {
			return "", errAction("session/create", statusBadRequest, "lives must be between 1 and 10")
		}
	}

	if req.NbQuestions < 10 || req.NbQuestions > 50 || req.TimeLimit < 10 || req.TimeLimit > 60 || req.MaxPlayers < 2 {
		return "", errAction("session/create", statusBadRequest, "invalid parameters")
	}

	if len(req.ThemeIDs) > maxThemes {
		req.ThemeIDs = req.ThemeIDs[:maxThemes]
	}

	s, err := st.sessions.Create(req.Name, req.ThemeIDs, parseDifficulty(req.Difficulty),
		req.NbQuestions, req.TimeLimit, mode, req.Lives, req.MaxPlayers, c.ID)
	if err != nil {
		return "", errAction("session/create", statusBadRequest, "not enough questions matching criteria")
	}

	// Creator auto-joins through the same path a later session/join would
	// take, rather than hand-building a SessionPlayer here.
	s.Join(st.clients, c.ID, clientDisplayName(c))
	c.SessionID = s.ID

	resp := frame{
		"action":    "session/create",
		"statut":    statusCreated,
		"message":   "session created",
		"sessionId": s.ID,
		"isCreator": true,
		"jokers":    map[string]int{"fifty": 1, "skip": 1},
	}
	if mode == ModeBattle {
		resp["lives"] = s.InitialLives
	}
	return resp.marshal(), nil
}

func handleSessionJoin(st *serverState, c *Client, body string) (string, *apiError) {
	var req struct {
		SessionID int `json:"sessionId"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return "", errBadRequest()
	}
	s := st.sessions.Find(req.SessionID)
	if s == nil {
		return "", errAction("session/join", statusNotFound, "session not found")
	}

	switch s.Join(st.clients, c.ID, clientDisplayName(c)) {
	case joinFull:
		return "", errAction("session/join", statusForbidden, "session is full")
	case joinNotWaiting, joinAlreadyIn:
		return "", errAction("session/join", statusBadRequest, "cannot join session")
	}
	c.SessionID = s.ID

	s.mu.Lock()
	isCreator := s.CreatorClient == c.ID
	mode := s.Mode
	lives := s.InitialLives
	players := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p.Name)
	}
	s.mu.Unlock()

	// The original reports "201" here even though the session already
	// existed — a cosmetic inconsistency with session/create preserved
	// deliberately rather than "fixed".
	resp := frame{
		"action":    "session/join",
		"statut":    statusCreated,
		"message":   "session joined",
		"sessionId": s.ID,
		"mode":      mode.String(),
		"isCreator": isCreator,
		"players":   players,
		"jokers":    map[string]int{"fifty": 1, "skip": 1},
	}
	if mode == ModeBattle {
		resp["lives"] = lives
	}
	return resp.marshal(), nil
}

func handleSessionStart(st *serverState, c *Client, body string) (string, *apiError) {
	if c.SessionID < 0 {
		return "", errAction("session/start", statusBadRequest, "not in a session")
	}
	s := st.sessions.Find(c.SessionID)
	if s == nil {
		return "", errAction("session/start", statusNotFound, "session not found")
	}

	s.mu.Lock()
	isCreator := s.CreatorClient == c.ID
	tooFew := len(s.Players) < 2
	s.mu.Unlock()

	if !isCreator {
		return "", errAction("session/start", statusForbidden, "only creator can start session")
	}
	if tooFew {
		return "", errAction("session/start", statusBadRequest, "need at least 2 players")
	}

	// No synchronous success reply: the session/started broadcast (and the
	// first question/new that follows it) IS the acknowledgement.
	go s.Start(sessionCtx{ctx: st.ctx, catalog: st.catalog}, st.clients)
	return "", nil
}

func clientDisplayName(c *Client) string {
	if c.Name != "" {
		return c.Name
	}
	return "guest"
}
