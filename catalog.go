package main

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const maxThemes = 20 // dense theme id cap, grounded on types.h MAX_THEMES

// Catalog holds the immutable set of themes and questions loaded at startup.
// Both are read-only after Load, so no locking is needed for reads; Load
// itself runs once, before the server starts accepting connections.
type Catalog struct {
	themes    []Theme
	themeID   map[string]int
	questions []Question
	log       *log.Logger
}

func newCatalog(logger *log.Logger) *Catalog {
	return &Catalog{themeID: make(map[string]int), log: logger}
}

func (c *Catalog) themeIDFor(name string) (int, bool) {
	if id, ok := c.themeID[name]; ok {
		return id, true
	}
	if len(c.themes) >= maxThemes {
		c.log.Warn("max themes reached, cannot create theme", "name", name)
		return 0, false
	}
	id := len(c.themes)
	c.themes = append(c.themes, Theme{ID: id, Name: name})
	c.themeID[name] = id
	c.log.Debug("created theme", "id", id, "name", name)
	return id, true
}

func (c *Catalog) ThemeByID(id int) (Theme, bool) {
	if id < 0 || id >= len(c.themes) {
		return Theme{}, false
	}
	return c.themes[id], true
}

// Load parses the semicolon-delimited catalog file:
// themes;difficulty;kind;prompt;answers;correct;explanation
// Grounded field-for-field on question.c's load_questions/get_next_field.
func (c *Catalog) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open questions file %q: %w", path, err)
	}
	defer f.Close()

	nextID := 1
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line, ';')
		if len(fields) < 6 {
			c.log.Warn("skipping malformed catalog line", "line", lineNum)
			continue
		}

		q := Question{ID: nextID}

		if fields[0] != "" {
			for _, name := range splitFields(fields[0], ',') {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				if id, ok := c.themeIDFor(name); ok {
					q.ThemeIDs = append(q.ThemeIDs, id)
				}
			}
		}

		q.Difficulty = parseDifficulty(fields[1])

		switch strings.TrimSpace(fields[2]) {
		case "qcm":
			q.Type = QuestionQCM
		case "boolean":
			q.Type = QuestionBoolean
		default:
			q.Type = QuestionText
		}

		q.Prompt = fields[3]

		if q.Type == QuestionQCM && fields[4] != "" {
			opts := splitFields(fields[4], ',')
			for i := 0; i < 4 && i < len(opts); i++ {
				q.Answers[i] = opts[i]
			}
		}

		correctField := fields[5]
		if q.Type == QuestionText && correctField != "" {
			for _, ans := range splitFields(correctField, ',') {
				if len(q.TextAnswers) >= 4 {
					break
				}
				q.TextAnswers = append(q.TextAnswers, ans)
			}
		} else {
			idx, _ := strconv.Atoi(strings.TrimSpace(correctField))
			q.CorrectIndex = idx
		}

		if len(fields) > 6 {
			q.Explanation = fields[6]
		}

		c.questions = append(c.questions, q)
		nextID++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	c.log.Info("catalog loaded", "questions", len(c.questions), "themes", len(c.themes))
	return nil
}

// splitFields splits on sep, tolerating empty fields — strings.Split already
// does this correctly, unlike the original's strtok-avoiding manual scanner,
// so no hand-rolled equivalent is needed here.
func splitFields(s string, sep byte) []string {
	return strings.Split(s, string(sep))
}

// Select produces N distinct question ids matching the given difficulty and
// intersecting the given theme set, via a Fisher-Yates shuffle of the
// matching pool (select_questions_for_session).
func (c *Catalog) Select(difficulty Difficulty, themeIDs []int, n int) ([]int, error) {
	var matching []int
	for i := range c.questions {
		q := &c.questions[i]
		if q.Difficulty != difficulty {
			continue
		}
		match := false
		for _, t := range themeIDs {
			if q.hasTheme(t) {
				match = true
				break
			}
		}
		if match {
			matching = append(matching, i)
		}
	}

	if len(matching) < n {
		return nil, fmt.Errorf("not enough questions matching criteria: have %d, need %d", len(matching), n)
	}

	shuffleInts(matching)

	ids := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = c.questions[matching[i]].ID
	}
	return ids, nil
}

func (c *Catalog) ByID(id int) *Question {
	for i := range c.questions {
		if c.questions[i].ID == id {
			return &c.questions[i]
		}
	}
	return nil
}

func (c *Catalog) AllThemes() []Theme {
	return c.themes
}

// shuffleInts is a Fisher-Yates shuffle drawing each swap index from
// crypto/rand, following the teacher's shuffle idiom in celebrity.go's
// startGameLocked rather than math/rand.
func shuffleInts(a []int) {
	for i := len(a) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// checkAnswer validates a player's answer against a question, dispatching by
// kind — grounded verbatim on question.c's check_answer.
func checkAnswer(q *Question, answerIndex int, textAnswer string, boolAnswer bool) bool {
	switch q.Type {
	case QuestionQCM:
		return answerIndex == q.CorrectIndex
	case QuestionBoolean:
		return boolAnswer == (q.CorrectIndex == 1)
	case QuestionText:
		for _, accepted := range q.TextAnswers {
			if strEquals(textAnswer, accepted) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// calculatePoints scores a correct answer: a difficulty-based base, plus a
// bonus if the response arrived within the first half of the deadline —
// grounded verbatim on question.c's calculate_points.
func calculatePoints(difficulty Difficulty, responseTime float64, timeLimit int) int {
	var base, bonus int
	switch difficulty {
	case DifficultyEasy:
		base, bonus = 5, 1
	case DifficultyHard:
		base, bonus = 15, 6
	default:
		base, bonus = 10, 3
	}
	if responseTime <= float64(timeLimit)/2.0 {
		return base + bonus
	}
	return base
}
