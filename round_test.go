package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newBattleSession(t *testing.T, catalog *Catalog, lives int) *Session {
	t.Helper()
	themeID, _ := catalog.themeIDFor("geo")
	ids, err := catalog.Select(DifficultyEasy, []int{themeID}, 2)
	require.NoError(t, err)
	return &Session{
		ID:           1,
		Mode:         ModeBattle,
		InitialLives: lives,
		TimeLimit:    10,
		MaxPlayers:   4,
		Status:       StatusPlaying,
		QuestionIDs:  ids,
		CurrentIndex: 0,
	}
}

func TestProcessAnswerScoresCorrectQCM(t *testing.T) {
	catalog := newTestCatalog(t)
	s := newBattleSession(t, catalog, 2)
	p := &SessionPlayer{ClientID: 1, Name: "a", Lives: 2, CurrentAnswer: -1}
	s.Players = []*SessionPlayer{p}
	s.QuestionStart = time.Now()
	s.answeredCh = make(chan struct{})

	q := catalog.ByID(s.QuestionIDs[0])
	processAnswer(s, catalog, 1, q.CorrectIndex, "", false, 1)

	require.True(t, p.HasAnswered)
	require.True(t, p.WasCorrect)
	require.Greater(t, p.Score, 0)
}

func TestProcessAnswerIgnoresSecondAttempt(t *testing.T) {
	catalog := newTestCatalog(t)
	s := newBattleSession(t, catalog, 2)
	p := &SessionPlayer{ClientID: 1, Name: "a", Lives: 2, CurrentAnswer: -1}
	s.Players = []*SessionPlayer{p}
	s.QuestionStart = time.Now()
	s.answeredCh = make(chan struct{})

	q := catalog.ByID(s.QuestionIDs[0])
	processAnswer(s, catalog, 1, q.CorrectIndex, "", false, 1)
	scoreAfterFirst := p.Score

	processAnswer(s, catalog, 1, -1, "", false, 1)
	require.Equal(t, scoreAfterFirst, p.Score, "a second answer must not change score")
}

func TestBattleEliminationOnWrongAnswer(t *testing.T) {
	logger := tag(newLogger(false), "test")
	clients := newClientRegistry(logger)
	catalog := newTestCatalog(t)
	s := newBattleSession(t, catalog, 1)

	winner, winnerPeer := testClient(t, clients)
	loser, loserPeer := testClient(t, clients)
	go func() { _ = peerDrain(winnerPeer) }()
	go func() { _ = peerDrain(loserPeer) }()

	s.Players = []*SessionPlayer{
		{ClientID: winner.ID, Name: "winner", Lives: 1, CurrentAnswer: -1},
		{ClientID: loser.ID, Name: "loser", Lives: 1, CurrentAnswer: -1},
	}
	s.QuestionStart = time.Now()

	q := catalog.ByID(s.QuestionIDs[0])
	s.Players[0].HasAnswered = true
	s.Players[0].WasCorrect = true
	s.Players[0].CurrentAnswer = q.CorrectIndex
	s.Players[0].ResponseTime = 1
	s.Players[1].HasAnswered = true
	s.Players[1].WasCorrect = false
	s.Players[1].CurrentAnswer = q.CorrectIndex + 1
	if s.Players[1].CurrentAnswer > 3 {
		s.Players[1].CurrentAnswer = 0
	}

	ended := sendQuestionResults(s, clients, catalog)

	require.True(t, s.Players[1].Eliminated, "the wrong-answering player should lose their last life")
	require.True(t, ended, "battle mode with <=1 active player must end the session")
}

func TestEndSessionRanksBattleByLivesThenScore(t *testing.T) {
	logger := tag(newLogger(false), "test")
	clients := newClientRegistry(logger)
	catalog := newTestCatalog(t)
	s := newBattleSession(t, catalog, 3)
	s.Status = StatusPlaying

	a, pa := testClient(t, clients)
	b, pb := testClient(t, clients)
	finished := make(chan string, 1)
	go func() {
		line, _ := pa.ReadString('\n')
		finished <- line
		_ = peerDrain(pa)
	}()
	go func() { _ = peerDrain(pb) }()

	s.Players = []*SessionPlayer{
		{ClientID: a.ID, Name: "a", Lives: 1, Score: 100, CurrentAnswer: -1},
		{ClientID: b.ID, Name: "b", Lives: 2, Score: 10, CurrentAnswer: -1},
	}
	a.SessionID = s.ID
	b.SessionID = s.ID

	endSession(s, clients)

	require.Contains(t, <-finished, `"winner":"b"`, "b has more lives, so it outranks a despite a's higher score")
	require.Equal(t, StatusFinished, s.Status)
	require.Equal(t, -1, requireClientSession(t, clients, a.ID))
	require.Equal(t, -1, requireClientSession(t, clients, b.ID))
}

func requireClientSession(t *testing.T, clients *ClientRegistry, id int) int {
	t.Helper()
	clients.mu.Lock()
	defer clients.mu.Unlock()
	c, ok := clients.byID[id]
	require.True(t, ok)
	return c.SessionID
}
