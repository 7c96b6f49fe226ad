package main

import "encoding/json"

// handlers/joker.c: fifty and skip. The session, like question/answer, is
// always derived from the client's own current session — never a
// client-supplied sessionId — mirroring client->current_session_id.

func handleJokerUse(st *serverState, c *Client, body string) (string, *apiError) {
	if c.SessionID < 0 {
		return "", errAction("joker/use", statusBadRequest, "not in a session")
	}
	s := st.sessions.Find(c.SessionID)
	if s == nil || sessionStatus(s) != StatusPlaying {
		return "", errAction("joker/use", statusBadRequest, "session not playing")
	}

	var req struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil || req.Type == "" {
		return "", errBadRequest()
	}

	s.mu.Lock()
	p := s.findPlayerLocked(c.ID)
	s.mu.Unlock()
	if p == nil {
		return "", errAction("joker/use", statusBadRequest, "player not found")
	}

	switch req.Type {
	case "fifty":
		result, remaining := useFifty(s, st.catalog, c.ID)
		if result != jokerOK {
			return "", errAction("joker/use", statusBadRequest, "joker not available")
		}
		s.mu.Lock()
		jokers := jokersState(s.findPlayerLocked(c.ID))
		s.mu.Unlock()
		return frame{
			"action":           "joker/use",
			"statut":           statusOK,
			"message":          "joker activated",
			"type":             "fifty",
			"remainingAnswers": remaining,
			"jokers":           jokers,
		}.marshal(), nil

	case "skip":
		if useSkip(s, c.ID) != jokerOK {
			return "", errAction("joker/use", statusBadRequest, "joker not available")
		}
		s.mu.Lock()
		jokers := jokersState(s.findPlayerLocked(c.ID))
		s.mu.Unlock()
		return frame{
			"action":  "joker/use",
			"statut":  statusOK,
			"message": "question skipped",
			"type":    "skip",
			"jokers":  jokers,
		}.marshal(), nil

	default:
		return "", errAction("joker/use", statusBadRequest, "unknown joker type")
	}
}
