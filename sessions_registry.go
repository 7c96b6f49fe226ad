package main

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

const maxSessions = 20 // grounded on types.h MAX_SESSIONS

// SessionRegistry owns every Session. Its mutex guards the map and the
// monotonic id counter only — never session-internal state, which is guarded
// by each Session's own mutex (SPEC_FULL.md §5, §9 Design Notes #2: a map
// replaces the source's fixed array with no slot-reuse requirement).
type SessionRegistry struct {
	mu      sync.Mutex
	byID    map[int]*Session
	nextID  int
	catalog *Catalog
	log     *log.Logger
}

func newSessionRegistry(catalog *Catalog, logger *log.Logger) *SessionRegistry {
	return &SessionRegistry{byID: make(map[int]*Session), nextID: 1, catalog: catalog, log: logger}
}

// Create validates session parameters, pre-selects N questions, and
// registers the new session — grounded on session.c's create_session.
// Validation of the numeric bounds (N, T, M, lives) is the caller's
// responsibility (handlers_session.go), mirroring handle_create_session.
func (r *SessionRegistry) Create(name string, themeIDs []int, difficulty Difficulty, numQuestions, timeLimit int, mode GameMode, initialLives, maxPlayers, creatorClient int) (*Session, error) {
	questionIDs, err := r.catalog.Select(difficulty, themeIDs, numQuestions)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Finished sessions are dropped here so their place under the cap is
	// freed; goroutines still holding a pointer keep using it.
	for id, other := range r.byID {
		other.mu.Lock()
		finished := other.Status == StatusFinished
		other.mu.Unlock()
		if finished {
			delete(r.byID, id)
		}
	}

	if len(r.byID) >= maxSessions {
		return nil, fmt.Errorf("max sessions reached (%d)", maxSessions)
	}

	lives := 0
	if mode == ModeBattle {
		lives = initialLives
	}

	s := &Session{
		ID:            r.nextID,
		Name:          name,
		ThemeIDs:      themeIDs,
		Difficulty:    difficulty,
		NumQuestions:  numQuestions,
		TimeLimit:     timeLimit,
		Mode:          mode,
		InitialLives:  lives,
		MaxPlayers:    maxPlayers,
		Status:        StatusWaiting,
		CreatorClient: creatorClient,
		QuestionIDs:   questionIDs,
		CurrentIndex:  -1,
	}
	r.nextID++
	r.byID[s.ID] = s
	r.log.Info("session created", "id", s.ID, "name", name, "mode", mode, "questions", numQuestions)
	return s, nil
}

func (r *SessionRegistry) Find(id int) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// Waiting lists every session still in the lobby state, for sessions/list.
func (r *SessionRegistry) Waiting() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Session
	for _, s := range r.byID {
		s.mu.Lock()
		waiting := s.Status == StatusWaiting
		s.mu.Unlock()
		if waiting {
			out = append(out, s)
		}
	}
	return out
}
