package main

import (
	"context"
	"sort"
	"time"
)

// The hard core: dispatching questions, scoring answers, settling a round's
// life accounting, and ending a session. Grounded field-for-field on
// session.c's send_question_to_all/process_answer/send_question_results/
// advance_to_next_question/end_session.
//
// Per §9 Design Notes #3, the per-session timing loop uses a time.Timer
// selecting against a derived context rather than blocking time.Sleep, so a
// server shutdown can cancel an in-flight round promptly.

const (
	countdownDuration    = 3 * time.Second
	resultsPauseDuration = 5 * time.Second
)

// sessionCtx carries the cancellation context and catalog a running session
// needs, threaded through Start and the round loop.
type sessionCtx struct {
	ctx     context.Context
	catalog *Catalog
}

// sleep waits for d or for cancellation, returning false if cancelled.
func (sc sessionCtx) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-sc.ctx.Done():
		return false
	}
}

// runRound drives the question/results/advance cycle until the session ends
// or the context is cancelled. Called by Start once the opening countdown
// has elapsed.
func runRound(sc sessionCtx, s *Session, clients *ClientRegistry) {
	for {
		if sessionStatus(s) == StatusFinished {
			return
		}
		sendQuestionToAll(s, clients, sc.catalog)

		if !waitForAnswers(sc, s) {
			return
		}
		if sessionStatus(s) == StatusFinished {
			return
		}

		if sendQuestionResults(s, clients, sc.catalog) {
			return
		}

		if !sc.sleep(resultsPauseDuration) {
			return
		}

		if !advanceToNext(s) {
			endSession(s, clients)
			return
		}
	}
}

// sendQuestionToAll resets every player's per-question state, starts the
// deadline clock, and dispatches question/new to every non-eliminated
// player — grounded on send_question_to_all.
func sendQuestionToAll(s *Session, clients *ClientRegistry, catalog *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return
	}
	q := catalog.ByID(s.QuestionIDs[s.CurrentIndex])
	if q == nil {
		return
	}

	s.QuestionStart = time.Now()
	s.answeredCh = make(chan struct{})
	for _, p := range s.Players {
		p.HasAnswered = false
		p.WasCorrect = false
		p.CurrentAnswer = -1
		p.ResponseTime = 0
		p.SkippedThis = false
	}

	payload := frame{
		"action":         "question/new",
		"questionNum":    s.CurrentIndex + 1,
		"totalQuestions": len(s.QuestionIDs),
		"type":           q.Type.String(),
		"difficulty":     q.Difficulty.String(),
		"question":       q.Prompt,
		"timeLimit":      s.TimeLimit,
	}
	if q.Type == QuestionQCM {
		payload["answers"] = q.Answers
	}
	msg := payload.marshal()

	for _, p := range s.Players {
		if p.Eliminated {
			continue
		}
		clients.Send(p.ClientID, msg)
	}
}

// waitForAnswers blocks until every active player has answered, the question's
// time limit elapses, or the session is cancelled.
func waitForAnswers(sc sessionCtx, s *Session) bool {
	s.mu.Lock()
	ch := s.answeredCh
	limit := time.Duration(s.TimeLimit) * time.Second
	s.mu.Unlock()

	t := time.NewTimer(limit)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return true
	case <-sc.ctx.Done():
		return false
	}
}

// processAnswer records a player's answer for the current question. Ignored
// if the player is unknown, has already answered, or is eliminated — mirrors
// process_answer's early-return guards. Response time is clamped to
// timeLimit+1 only when the server's own clock shows the deadline has
// actually passed, regardless of what the client claims.
func processAnswer(s *Session, catalog *Catalog, clientID, answerIndex int, textAnswer string, boolAnswer bool, responseTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPlayerLocked(clientID)
	if p == nil || p.HasAnswered || p.Eliminated {
		return
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return
	}
	q := catalog.ByID(s.QuestionIDs[s.CurrentIndex])
	if q == nil {
		return
	}

	maxTime := float64(s.TimeLimit) + 1
	if time.Since(s.QuestionStart).Seconds() > maxTime {
		responseTime = maxTime
	}

	p.HasAnswered = true
	p.ResponseTime = responseTime
	p.CurrentAnswer = answerIndex

	correct := checkAnswer(q, answerIndex, textAnswer, boolAnswer)
	if q.Type == QuestionBoolean {
		if boolAnswer {
			p.CurrentAnswer = 1
		} else {
			p.CurrentAnswer = 0
		}
	}
	p.WasCorrect = correct
	if correct {
		p.Score += calculatePoints(q.Difficulty, responseTime, s.TimeLimit)
		p.CorrectCount++
	}

	if s.answeredCh != nil && allActiveAnswered(s) {
		close(s.answeredCh)
		s.answeredCh = nil
	}
}

func allActiveAnswered(s *Session) bool {
	for _, p := range s.Players {
		if !p.Eliminated && !p.HasAnswered {
			return false
		}
	}
	return true
}

// sendQuestionResults settles the round. In battle mode it runs the original's
// two-pass life accounting: pass one decrements (and possibly eliminates) every
// non-eliminated, non-skipped player whose locally recomputed answer is wrong,
// while tracking whichever of them answered with the single longest response
// time regardless of correctness; pass two, if that slowest responder is still
// standing, re-derives their correctness (QCM/boolean only — free text never
// triggers this second penalty) and applies one more life loss if it was
// actually correct. This double jeopardy for the slowest correct responder is
// an intentionally preserved quirk, see SPEC_FULL.md §9. The broadcast payload
// itself always reports each player's recorded was_correct/points, never the
// locally recomputed value used only to drive the life pass. Returns true if
// the session has now ended.
func sendQuestionResults(s *Session, clients *ClientRegistry, catalog *Catalog) bool {
	s.mu.Lock()

	q := catalog.ByID(s.QuestionIDs[s.CurrentIndex])
	var justEliminated []*SessionPlayer
	var lastPlayer *SessionPlayer

	if s.Mode == ModeBattle {
		var maxResponseTime float64 = -1

		for _, p := range s.Players {
			if p.Eliminated || p.SkippedThis {
				continue
			}
			correct := locallyCorrect(q, p)
			if !correct && p.HasAnswered {
				eliminateLife(p, s.CurrentIndex+1, &justEliminated)
			}
			if p.HasAnswered && p.ResponseTime > maxResponseTime {
				maxResponseTime = p.ResponseTime
				lastPlayer = p
			}
		}
		if lastPlayer != nil && !lastPlayer.Eliminated {
			wasCorrect := (q.Type == QuestionQCM || q.Type == QuestionBoolean) && lastPlayer.CurrentAnswer == q.CorrectIndex
			if wasCorrect {
				eliminateLife(lastPlayer, s.CurrentIndex+1, &justEliminated)
			}
		}
	}

	results := make([]frame, 0, len(s.Players))
	for _, p := range s.Players {
		answer := -1
		if p.HasAnswered {
			answer = p.CurrentAnswer
		}
		points := 0
		if p.WasCorrect {
			points = calculatePoints(q.Difficulty, p.ResponseTime, s.TimeLimit)
		}
		entry := frame{
			"pseudo":     p.Name,
			"answer":     answer,
			"correct":    p.WasCorrect,
			"points":     points,
			"totalScore": p.Score,
		}
		if s.Mode == ModeBattle {
			entry["responseTime"] = p.ResponseTime
			entry["lives"] = p.Lives
		}
		results = append(results, entry)
	}

	payload := frame{
		"action":        "question/results",
		"questionNum":   s.CurrentIndex + 1,
		"correctAnswer": correctAnswerValue(q),
		"results":       results,
	}
	if q.Explanation != "" {
		payload["explanation"] = q.Explanation
	}
	if s.Mode == ModeBattle && lastPlayer != nil {
		payload["lastPlayer"] = lastPlayer.Name
	}
	msg := payload.marshal()

	for _, p := range s.Players {
		clients.Send(p.ClientID, msg)
	}

	for _, p := range justEliminated {
		notice := frame{"action": "session/player/eliminated", "pseudo": p.Name}.marshal()
		for _, recipient := range s.Players {
			clients.Send(recipient.ClientID, notice)
		}
	}

	active := 0
	for _, p := range s.Players {
		if !p.Eliminated {
			active++
		}
	}
	lastQuestion := s.CurrentIndex >= len(s.QuestionIDs)-1
	ended := (s.Mode == ModeBattle && active <= 1) || lastQuestion

	s.mu.Unlock()

	if ended {
		endSession(s, clients)
	}
	return ended
}

// locallyCorrect recomputes correctness purely for the battle life-accounting
// pass — grounded verbatim on send_question_results' inline check, which
// differs from checkAnswer/WasCorrect: a free-text answer counts as "correct"
// here as soon as the player has answered at all, regardless of what they
// typed. Since pass one only takes a life from a player who answered, a
// free-text player never loses a life in pass one, whether they answered
// wrong or not at all.
func locallyCorrect(q *Question, p *SessionPlayer) bool {
	switch q.Type {
	case QuestionQCM, QuestionBoolean:
		return p.CurrentAnswer == q.CorrectIndex
	default:
		return p.HasAnswered
	}
}

// correctAnswerValue reports the question's correct answer for the
// question/results payload: the option index for QCM/boolean questions, or
// the first accepted answer string for free text.
func correctAnswerValue(q *Question) any {
	if q.Type == QuestionText {
		if len(q.TextAnswers) > 0 {
			return q.TextAnswers[0]
		}
		return ""
	}
	return q.CorrectIndex
}

// eliminateLife decrements a player's remaining lives, marking them
// eliminated the moment lives run out.
func eliminateLife(p *SessionPlayer, questionNumber int, justEliminated *[]*SessionPlayer) {
	if p.Eliminated {
		return
	}
	p.Lives--
	if p.Lives <= 0 {
		p.Eliminated = true
		p.EliminatedAt = questionNumber
		*justEliminated = append(*justEliminated, p)
	}
}

// advanceToNext moves to the next question, returning false once the
// catalogue is exhausted — mirrors advance_to_next_question's re-dispatch.
func advanceToNext(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentIndex++
	return s.CurrentIndex < len(s.QuestionIDs)
}

// endSession finalizes a session: ranks a COPY of the player list (battle:
// lives desc, then elimination order desc, then score desc; solo: score
// desc), broadcasts session/finished to every player in their original join
// order (ranking order is a property of the payload, not the send order —
// end_session's distinction), and releases each participating client's
// session marker.
func endSession(s *Session, clients *ClientRegistry) {
	s.mu.Lock()
	s.Status = StatusFinished

	ranked := make([]*SessionPlayer, len(s.Players))
	copy(ranked, s.Players)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if s.Mode == ModeBattle {
			if a.Lives != b.Lives {
				return a.Lives > b.Lives
			}
			if a.EliminatedAt != b.EliminatedAt {
				return a.EliminatedAt > b.EliminatedAt
			}
		}
		return a.Score > b.Score
	})

	ranking := make([]frame, 0, len(ranked))
	for i, p := range ranked {
		entry := frame{
			"rank":           i + 1,
			"pseudo":         p.Name,
			"score":          p.Score,
			"correctAnswers": p.CorrectCount,
		}
		if s.Mode == ModeBattle {
			entry["lives"] = p.Lives
			if p.Eliminated {
				entry["eliminatedAt"] = p.EliminatedAt
			}
		}
		ranking = append(ranking, entry)
	}

	payload := frame{
		"action":  "session/finished",
		"mode":    s.Mode.String(),
		"ranking": ranking,
	}
	if s.Mode == ModeBattle && len(ranked) > 0 {
		payload["winner"] = ranked[0].Name
	}
	msg := payload.marshal()

	participants := make([]int, 0, len(s.Players))
	for _, p := range s.Players {
		clients.Send(p.ClientID, msg)
		participants = append(participants, p.ClientID)
	}
	s.mu.Unlock()

	for _, id := range participants {
		clients.ClearSession(id)
	}
}
