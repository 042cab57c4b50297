package service

import (
	"testing"

	"ecole_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateQuizPoints(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		correct int
		net     float64
		rounded int
	}{
		{name: "all correct", total: 10, correct: 10, net: 15, rounded: 15},
		{name: "all wrong", total: 10, correct: 0, net: -15, rounded: -15},
		{name: "half", total: 10, correct: 5, net: 0, rounded: 0},
		{name: "six of ten", total: 10, correct: 6, net: 3, rounded: 3},
		{name: "two of three", total: 3, correct: 2, net: 5, rounded: 5},
		{name: "one of seven", total: 7, correct: 1, net: -75.0 / 7, rounded: -11},
		{name: "single question", total: 1, correct: 1, net: 15, rounded: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CalculateQuizPoints(tt.total, tt.correct)
			require.NoError(t, err)
			assert.InDelta(t, tt.net, p.NetPoints, 1e-9)
			assert.InDelta(t, 15.0/float64(tt.total), p.PointsPerQuestion, 1e-9)
			assert.InDelta(t, p.PointsEarned-p.PointsLost, p.NetPoints, 1e-9)
			// net = (2k - N) * 15 / N
			assert.InDelta(t, float64(2*tt.correct-tt.total)*15/float64(tt.total), p.NetPoints, 1e-9)
			assert.Equal(t, tt.rounded, p.Rounded())
		})
	}
}

func TestCalculateQuizPointsValidation(t *testing.T) {
	for _, tc := range [][2]int{{0, 0}, {-1, 0}, {10, 11}, {10, -1}} {
		_, err := CalculateQuizPoints(tc[0], tc[1])
		assert.ErrorIs(t, err, util.ErrValidationFailed, "total=%d correct=%d", tc[0], tc[1])
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		level  int
		title  string
	}{
		{-50, 1, "Débutant"},
		{0, 1, "Débutant"},
		{99, 1, "Débutant"},
		{100, 2, "Apprenti"},
		{249, 2, "Apprenti"},
		{250, 3, "Étudiant"},
		{500, 4, "Étoile montante"},
		{999, 4, "Étoile montante"},
		{1000, 5, "Champion"},
		{2000, 6, "Maître"},
		{4000, 7, "Légende"},
		{9999, 7, "Légende"},
		{10000, 8, "Immortel"},
		{1 << 30, 8, "Immortel"},
	}
	for _, tt := range tests {
		info := LevelFor(tt.points)
		assert.Equal(t, tt.level, info.Level, "points=%d", tt.points)
		assert.Equal(t, tt.title, info.Title, "points=%d", tt.points)
	}
	assert.Equal(t, -1, LevelFor(10000).NextMinPoints)
	assert.Equal(t, 8, MaxLevel)
}

func TestLevelForIsMonotonic(t *testing.T) {
	prev := LevelFor(-1000).Level
	for p := -1000; p <= 12000; p += 7 {
		lvl := LevelFor(p).Level
		assert.GreaterOrEqual(t, lvl, prev)
		prev = lvl
	}
}

func TestLevelProgress(t *testing.T) {
	p := LevelProgress(175)
	assert.Equal(t, 2, p.Level)
	assert.InDelta(t, 50.0, p.Progress, 1e-9)
	assert.Equal(t, 75, p.PointsToNext)
	assert.Equal(t, 75, p.CurrentLevelPoints)

	top := LevelProgress(12000)
	assert.Equal(t, 100.0, top.Progress)
	assert.Zero(t, top.PointsToNext)
}

func TestApplyDeltaFloorsAtZero(t *testing.T) {
	assert.Equal(t, 105, ApplyDelta(95, 10))
	assert.Equal(t, 0, ApplyDelta(10, -15))
	assert.Equal(t, 5, ApplyDelta(20, -15))
}

func TestLessonReward(t *testing.T) {
	assert.Equal(t, 10, LessonReward(10, 25))
	assert.Equal(t, 25, LessonReward(0, 25))
	assert.Equal(t, 50, LessonReward(0, 0))
	assert.Equal(t, 25, LessonReward(-5, 25))
}
