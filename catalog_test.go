package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCatalogFixture(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.dat")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCatalogLoadAndSelect(t *testing.T) {
	path := writeCatalogFixture(t,
		"geo;facile;qcm;Capital of France?;Paris,Lyon,Nice,Lille;0;It's Paris",
		"geo;facile;qcm;Capital of Italy?;Rome,Milan,Turin,Naples;0;",
		"geo;facile;qcm;Capital of Spain?;Madrid,Barcelona,Seville,Valencia;0;",
		"science;moyen;boolean;The sun is a star.;;1;",
		"science;difficile;text;Name a noble gas.;;helium,neon,argon;",
	)

	c := newCatalog(tag(newLogger(false), "test"))
	require.NoError(t, c.Load(path))
	require.Len(t, c.AllThemes(), 2)

	geoID, ok := c.themeIDFor("geo")
	require.True(t, ok)

	ids, err := c.Select(DifficultyEasy, []int{geoID}, 3)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	_, err = c.Select(DifficultyEasy, []int{geoID}, 10)
	require.Error(t, err, "selecting more questions than available must fail")
}

func TestCheckAnswerByType(t *testing.T) {
	qcm := &Question{Type: QuestionQCM, CorrectIndex: 2}
	require.True(t, checkAnswer(qcm, 2, "", false))
	require.False(t, checkAnswer(qcm, 0, "", false))

	boolQ := &Question{Type: QuestionBoolean, CorrectIndex: 1}
	require.True(t, checkAnswer(boolQ, 0, "", true))
	require.False(t, checkAnswer(boolQ, 0, "", false))

	textQ := &Question{Type: QuestionText, TextAnswers: []string{"Paris"}}
	require.True(t, checkAnswer(textQ, 0, "paris", false))
	require.True(t, checkAnswer(textQ, 0, "PARIS", false))
	require.False(t, checkAnswer(textQ, 0, "Lyon", false))
}

func TestCalculatePointsBonusWindow(t *testing.T) {
	require.Equal(t, 6, calculatePoints(DifficultyEasy, 5, 10))
	require.Equal(t, 5, calculatePoints(DifficultyEasy, 6, 10))
	require.Equal(t, 13, calculatePoints(DifficultyMedium, 5, 10))
	require.Equal(t, 21, calculatePoints(DifficultyHard, 5, 10))
}
