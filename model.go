package main

import (
	"sync"
	"time"
)

// Difficulty is a question's difficulty tier; it drives both question
// selection and scoring.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "facile"
	case DifficultyHard:
		return "difficile"
	default:
		return "moyen"
	}
}

// parseDifficulty accepts both the French strings the catalog/wire format
// uses and their English synonyms, case-insensitively, defaulting to Medium —
// grounded on the original string_to_difficulty.
func parseDifficulty(s string) Difficulty {
	switch {
	case foldEqualsASCII(s, "facile") || foldEqualsASCII(s, "easy"):
		return DifficultyEasy
	case foldEqualsASCII(s, "difficile") || foldEqualsASCII(s, "hard"):
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// QuestionType distinguishes the three question kinds a session can ask.
type QuestionType int

const (
	QuestionQCM QuestionType = iota
	QuestionBoolean
	QuestionText
)

func (t QuestionType) String() string {
	switch t {
	case QuestionBoolean:
		return "boolean"
	case QuestionText:
		return "text"
	default:
		return "qcm"
	}
}

// GameMode selects whether a session eliminates players via shared lives
// (Battle) or simply tracks score (Solo).
type GameMode int

const (
	ModeSolo GameMode = iota
	ModeBattle
)

func (m GameMode) String() string {
	if m == ModeBattle {
		return "battle"
	}
	return "solo"
}

func parseMode(s string) GameMode {
	if foldEqualsASCII(s, "battle") {
		return ModeBattle
	}
	return ModeSolo
}

// SessionStatus is the session lifecycle state (see SPEC_FULL.md §4.4).
type SessionStatus int

const (
	StatusWaiting SessionStatus = iota
	StatusPlaying
	StatusFinished
)

// Theme is a question category. Ids are assigned densely, starting at 0, in
// first-seen order during catalog load and are immutable afterward.
type Theme struct {
	ID   int
	Name string
}

// Question is one catalog entry. Immutable once loaded.
type Question struct {
	ID           int
	ThemeIDs     []int
	Difficulty   Difficulty
	Type         QuestionType
	Prompt       string
	Answers      [4]string // multi-choice options
	CorrectIndex int       // multi-choice: 0-3; boolean: 0 or 1
	TextAnswers  []string  // free-text accepted answers (up to 4)
	Explanation  string
}

func (q *Question) hasTheme(id int) bool {
	for _, t := range q.ThemeIDs {
		if t == id {
			return true
		}
	}
	return false
}

// PlayerAccount is a persistent, registered player identity.
type PlayerAccount struct {
	Name         string
	PasswordHash string
	LoggedIn     bool
}

// SessionPlayer is one player's state within a single session.
type SessionPlayer struct {
	ClientID      int
	Name          string
	Score         int
	Lives         int
	CorrectCount  int
	HasAnswered   bool
	WasCorrect    bool
	CurrentAnswer int // QCM/boolean index, -1 none, -2 skipped
	ResponseTime  float64
	Eliminated    bool
	EliminatedAt  int // 1-based question number at elimination
	FiftyUsed     bool
	SkipUsed      bool
	SkippedThis   bool // used the skip joker on the current question
}

// Session is the central entity: a lobby that becomes a running game and
// ends with a final ranking. See SPEC_FULL.md §3 and §4.4.
type Session struct {
	ID             int
	Name           string
	ThemeIDs       []int
	Difficulty     Difficulty
	NumQuestions   int
	TimeLimit      int // seconds
	Mode           GameMode
	InitialLives   int
	MaxPlayers     int
	Status         SessionStatus
	CreatorClient  int
	QuestionIDs    []int
	CurrentIndex   int // -1 before start, 0-based once playing
	QuestionStart  time.Time
	Players        []*SessionPlayer

	mu         sync.Mutex
	answeredCh chan struct{} // closed once every active player has answered the current question
}
