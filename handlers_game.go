package main

import "encoding/json"

// handlers/game.c: theme listing and answer submission.

func handleThemesList(st *serverState, c *Client, body string) (string, *apiError) {
	themes := st.catalog.AllThemes()
	list := make([]frame, 0, len(themes))
	for _, t := range themes {
		list = append(list, frame{"id": t.ID, "name": t.Name})
	}
	return frame{
		"action":   "themes/list",
		"statut":   statusOK,
		"message":  "ok",
		"nbThemes": len(list),
		"themes":   list,
	}.marshal(), nil
}

// handleAnswer parses the polymorphic "answer" field (number for QCM, bool
// for boolean questions, string for free text) the way handle_answer's
// cJSON type switch does, then records it against the client's own current
// session — never a client-supplied session id — mirroring
// client->current_session_id. The reply is always a bare ack — correctness
// is only revealed later via question/results.
func handleAnswer(st *serverState, c *Client, body string) (string, *apiError) {
	if c.SessionID < 0 {
		return "", errAction("question/answer", statusBadRequest, "not in a session")
	}
	s := st.sessions.Find(c.SessionID)
	if s == nil || sessionStatus(s) != StatusPlaying {
		return "", errAction("question/answer", statusBadRequest, "session not playing")
	}

	var req struct {
		Answer       json.RawMessage `json:"answer"`
		ResponseTime float64         `json:"responseTime"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil || req.Answer == nil {
		return "", errBadRequest()
	}

	var asInt int
	var asBool bool
	var asString string
	switch {
	case json.Unmarshal(req.Answer, &asInt) == nil:
	case json.Unmarshal(req.Answer, &asBool) == nil:
	case json.Unmarshal(req.Answer, &asString) == nil:
	default:
		return "", errBadRequest()
	}

	processAnswer(s, st.catalog, c.ID, asInt, asString, asBool, req.ResponseTime)

	return frame{
		"action":  "question/answer",
		"statut":  statusOK,
		"message": "answer received",
	}.marshal(), nil
}

func sessionStatus(s *Session) SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status
}
