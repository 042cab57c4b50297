package service

import (
	"context"
	"sync"
	"testing"

	"ecole_backend/internal/model"
	"ecole_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifies(t *testing.T) {
	st := UserStats{QuizAttempts: 2, LessonsCompleted: 3, SubjectsExplored: 2, TotalPoints: 480, BestScorePercentage: 90}

	tests := []struct {
		name string
		req  model.Requirement
		want bool
	}{
		{"first quiz", model.FirstQuiz{}, true},
		{"perfect score met", model.PerfectScore{Percentage: 90}, true},
		{"perfect score missed", model.PerfectScore{Percentage: 100}, false},
		{"lesson count met", model.LessonCount{Count: 3}, true},
		{"lesson count missed", model.LessonCount{Count: 10}, false},
		{"subjects met", model.SubjectsExplored{Count: 2}, true},
		{"subjects missed", model.SubjectsExplored{Count: 3}, false},
		{"points met", model.TotalPoints{Points: 480}, true},
		{"points missed", model.TotalPoints{Points: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifies(tt.req, st))
		})
	}

	assert.False(t, Qualifies(model.FirstQuiz{}, UserStats{}))
	assert.False(t, Qualifies(model.PerfectScore{Percentage: 100}, UserStats{}))
}

func TestCheckAndUnlockUsesRunningTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)
	l := env.lesson(t, env.subject(t, "Maths").ID, 60)

	first := env.achievement(t, "premier-pas", 50, model.LessonCount{Count: 1})
	hundred := env.achievement(t, "cent-points", 80, model.TotalPoints{Points: 100})
	env.achievement(t, "assidu", 200, model.LessonCount{Count: 10})

	res, err := env.gamification.CompleteLesson(ctx, u.ID, CompleteLessonRequest{LessonID: l.ID})
	require.NoError(t, err)
	assert.Equal(t, 60, res.NewTotalPoints)

	require.Len(t, res.UnlockedAchievements, 2)
	assert.Equal(t, first.ID, res.UnlockedAchievements[0].ID)
	assert.Equal(t, 110, res.UnlockedAchievements[0].NewTotalPoints)
	assert.Equal(t, hundred.ID, res.UnlockedAchievements[1].ID)
	assert.Equal(t, 190, res.UnlockedAchievements[1].NewTotalPoints)
	assert.Equal(t, 2, res.UnlockedAchievements[1].NewLevel)

	stored := env.reload(t, u.ID)
	assert.Equal(t, 190, stored.TotalPoints)
	assert.Equal(t, 2, stored.Level)

	again, err := env.achievements.CheckAndUnlock(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCheckAndUnlockSkipsUnknownRequirement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)
	q := env.quiz(t, env.subject(t, "Maths").ID)

	broken := &model.Achievement{
		Code:         "serie",
		Title:        "Série de victoires",
		Points:       10,
		Rarity:       model.RarityEpic,
		Requirements: model.RequirementSpec{Raw: []byte(`{"type":"consecutive_lessons","count":5}`)},
		IsActive:     true,
	}
	require.NoError(t, env.db.Create(broken).Error)
	firstQuiz := env.achievement(t, "premier-quiz", 30, model.FirstQuiz{})
	perfect := env.achievement(t, "maitre-des-quiz", 500, model.PerfectScore{Percentage: 100})

	res, err := env.gamification.RecordQuizAttempt(ctx, u.ID, QuizAttemptRequest{
		QuizID: q.ID, Score: intPtr(100), TotalQuestions: 4, CorrectAnswers: 4,
	})
	require.NoError(t, err)

	ids := make([]string, 0, len(res.UnlockedAchievements))
	for _, a := range res.UnlockedAchievements {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{firstQuiz.ID, perfect.ID}, ids)
	assert.Equal(t, 15+30+500, env.reload(t, u.ID).TotalPoints)
}

func TestSubjectsExploredCountsLedgerRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)
	explorer := env.achievement(t, "explorateur", 150, model.SubjectsExplored{Count: 2})

	l1 := env.lesson(t, env.subject(t, "Maths").ID, 10)
	l2 := env.lesson(t, env.subject(t, "Histoire").ID, 10)

	res, err := env.gamification.CompleteLesson(ctx, u.ID, CompleteLessonRequest{LessonID: l1.ID})
	require.NoError(t, err)
	assert.Empty(t, res.UnlockedAchievements)

	res, err = env.gamification.CompleteLesson(ctx, u.ID, CompleteLessonRequest{LessonID: l2.ID})
	require.NoError(t, err)
	require.Len(t, res.UnlockedAchievements, 1)
	assert.Equal(t, explorer.ID, res.UnlockedAchievements[0].ID)
}

func TestConcurrentCheckAndUnlockGrantsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 100)
	env.achievement(t, "cent-points", 40, model.TotalPoints{Points: 100})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.achievements.CheckAndUnlock(ctx, u.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, env.db.Model(&model.UserAchievement{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 140, env.reload(t, u.ID).TotalPoints)
}

func TestExplicitUnlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)
	a := env.achievement(t, "assidu", 200, model.LessonCount{Count: 10})

	got, err := env.achievements.Unlock(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, got.NewTotalPoints)
	assert.Equal(t, 2, got.NewLevel)

	_, err = env.achievements.Unlock(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, util.ErrDuplicateUnlock)
	assert.Equal(t, 200, env.reload(t, u.ID).TotalPoints)

	_, err = env.achievements.Unlock(ctx, u.ID, "missing")
	assert.ErrorIs(t, err, util.ErrAchievementNotFound)
}

func TestAchievementCatalogue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)
	common := env.achievement(t, "premier-pas", 50, model.LessonCount{Count: 1})
	rare := env.achievement(t, "assidu", 200, model.LessonCount{Count: 10})
	require.NoError(t, env.db.Model(&model.Achievement{}).Where("id = ?", rare.ID).Update("rarity", model.RarityRare).Error)

	_, err := env.achievements.Unlock(ctx, u.ID, common.ID)
	require.NoError(t, err)

	page, err := env.achievements.Page(ctx, u.ID, model.RarityRare, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Achievements, 1)
	assert.Equal(t, rare.ID, page.Achievements[0].ID)
	assert.EqualValues(t, 1, page.Pagination.Total)

	_, err = env.achievements.Page(ctx, u.ID, model.Rarity("mythic"), 1, 10)
	assert.ErrorIs(t, err, util.ErrValidationFailed)

	detail, err := env.achievements.Detail(ctx, u.ID, common.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsUnlocked)
	assert.EqualValues(t, 1, detail.UnlockCount)

	unlocked, err := env.achievements.Unlocked(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)

	stats, err := env.achievements.UserAchievementStats(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Unlocked)
	assert.InDelta(t, 50.0, stats.Percentage, 1e-9)
	require.Len(t, stats.ByRarity, 4)
	assert.Equal(t, model.RarityCommon, stats.ByRarity[0].Rarity)
	assert.EqualValues(t, 1, stats.ByRarity[0].Unlocked)
}
