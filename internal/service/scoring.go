package service

import (
	"ecole_backend/internal/model"
	"ecole_backend/internal/util"
	"fmt"
	"math"
)

// QuizMaxPoints is the net reward of a perfect quiz, whatever its length.
const QuizMaxPoints = 15.0

// QuizPoints is the breakdown of a quiz score. Wrong answers cost as much as
// right answers earn, so the net value is negative below 50%.
type QuizPoints struct {
	PointsPerQuestion float64 `json:"pointsPerQuestion"`
	PointsEarned      float64 `json:"pointsEarned"`
	PointsLost        float64 `json:"pointsLost"`
	NetPoints         float64 `json:"netPoints"`
}

// Rounded is the integer value persisted to the ledgers.
func (p QuizPoints) Rounded() int {
	return int(math.Round(p.NetPoints))
}

func CalculateQuizPoints(totalQuestions, correctAnswers int) (QuizPoints, error) {
	if totalQuestions <= 0 {
		return QuizPoints{}, fmt.Errorf("%w: totalQuestions must be positive", util.ErrValidationFailed)
	}
	if correctAnswers < 0 || correctAnswers > totalQuestions {
		return QuizPoints{}, fmt.Errorf("%w: correctAnswers must be between 0 and %d", util.ErrValidationFailed, totalQuestions)
	}

	ppq := QuizMaxPoints / float64(totalQuestions)
	earned := float64(correctAnswers) * ppq
	lost := float64(totalQuestions-correctAnswers) * ppq
	return QuizPoints{
		PointsPerQuestion: ppq,
		PointsEarned:      earned,
		PointsLost:        lost,
		NetPoints:         earned - lost,
	}, nil
}

type LevelInfo struct {
	Level         int    `json:"level"`
	Title         string `json:"title"`
	MinPoints     int    `json:"minPoints"`
	NextMinPoints int    `json:"nextMinPoints"` // -1 at the top level
}

var levelTable = []struct {
	minPoints int
	title     string
}{
	{0, "Débutant"},
	{100, "Apprenti"},
	{250, "Étudiant"},
	{500, "Étoile montante"},
	{1000, "Champion"},
	{2000, "Maître"},
	{4000, "Légende"},
	{10000, "Immortel"},
}

// MaxLevel is the highest reachable level.
var MaxLevel = len(levelTable)

// LevelFor maps a point total to its level; totals below zero are level 1.
func LevelFor(points int) LevelInfo {
	idx := 0
	for i := len(levelTable) - 1; i >= 0; i-- {
		if points >= levelTable[i].minPoints {
			idx = i
			break
		}
	}

	next := -1
	if idx+1 < len(levelTable) {
		next = levelTable[idx+1].minPoints
	}
	return LevelInfo{
		Level:         idx + 1,
		Title:         levelTable[idx].title,
		MinPoints:     levelTable[idx].minPoints,
		NextMinPoints: next,
	}
}

type LevelProgressInfo struct {
	LevelInfo
	Progress           float64 `json:"progress"`
	PointsToNext       int     `json:"pointsToNext"`
	CurrentLevelPoints int     `json:"currentLevelPoints"`
}

// LevelProgress reports how far a total is into its level, in percent.
func LevelProgress(points int) LevelProgressInfo {
	info := LevelFor(points)
	p := LevelProgressInfo{LevelInfo: info, CurrentLevelPoints: points - info.MinPoints}
	if info.NextMinPoints < 0 {
		p.Progress = 100
		return p
	}

	span := float64(info.NextMinPoints - info.MinPoints)
	p.Progress = math.Max(0, math.Min(float64(points-info.MinPoints)/span*100, 100))
	p.PointsToNext = info.NextMinPoints - points
	if p.PointsToNext < 0 {
		p.PointsToNext = 0
	}
	return p
}

// ApplyDelta adds delta to a user's total. The total never goes below zero.
func ApplyDelta(total, delta int) int {
	next := total + delta
	if next < 0 {
		return 0
	}
	return next
}

// LessonReward picks the lesson award: explicit request points, then the
// lesson's own reward, then the default.
func LessonReward(requested, lessonReward int) int {
	if requested > 0 {
		return requested
	}
	if lessonReward > 0 {
		return lessonReward
	}
	return model.DefaultLessonReward
}
