package repository

import (
	"context"
	"testing"
	"time"

	"ecole_backend/internal/model"
	"ecole_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, points int) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email, TotalPoints: points, Level: 1}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestUserRepositoryFindByIDIncludesDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "eleve@ecole.fr", 0)
	require.NoError(t, repo.SoftDelete(ctx, u.ID))

	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, found.DeletedAt.Valid)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.SoftDelete(ctx, u.ID), gorm.ErrRecordNotFound)
}

func TestUserRepositoryFindByEmailCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	u := createUser(t, db, "Eleve@Ecole.fr", 0)

	found, err := repo.FindByEmail(context.Background(), "eleve@ECOLE.fr")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestUserRepositoryCountAboveSkipsDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createUser(t, db, "a@ecole.fr", 300)
	createUser(t, db, "b@ecole.fr", 200)
	gone := createUser(t, db, "c@ecole.fr", 900)
	createUser(t, db, "d@ecole.fr", 200)
	require.NoError(t, repo.SoftDelete(ctx, gone.ID))

	n, err := repo.CountAbove(ctx, 200)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	top, err := repo.FindTopByPoints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a@ecole.fr", top[0].Email)
}

func TestUserRepositoryUpdateSubjects(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "a@ecole.fr", 0)

	require.NoError(t, repo.UpdateSubjects(ctx, u.ID, []string{"maths", "francais"}))
	require.NoError(t, repo.UpdateClass(ctx, u.ID, "6eme"))

	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"maths", "francais"}, found.Matieres)
	assert.Equal(t, "6eme", found.Classe)
}

func TestAdminRepositoryCountMatching(t *testing.T) {
	db := newTestDB(t)
	repo := NewAdminRepository(db)
	ctx := context.Background()

	byID := "u-1"
	byEmail := "Prof@Ecole.fr"
	require.NoError(t, repo.Create(ctx, &model.Admin{UserID: &byID}))
	require.NoError(t, repo.Create(ctx, &model.Admin{Email: &byEmail}))

	tests := []struct {
		name   string
		userID string
		email  string
		want   int64
	}{
		{name: "by id", userID: "u-1", email: "other@ecole.fr", want: 1},
		{name: "by email any case", userID: "u-2", email: "prof@ecole.FR", want: 1},
		{name: "both rows", userID: "u-1", email: "prof@ecole.fr", want: 2},
		{name: "neither", userID: "u-3", email: "eleve@ecole.fr", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := repo.CountMatching(ctx, tt.userID, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestProgressRepositoryApply(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	first, err := repo.Apply(ctx, "u-1", "maths", model.ProgressDelta{Quizzes: 1, Points: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentStreak)
	assert.Equal(t, 1, first.LongestStreak)

	second, err := repo.Apply(ctx, "u-1", "maths", model.ProgressDelta{Lessons: 1, Points: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, second.QuizzesCompleted)
	assert.Equal(t, 1, second.LessonsCompleted)
	assert.Equal(t, 13, second.TotalPoints)
	assert.Equal(t, 2, second.CurrentStreak)
	assert.Equal(t, 2, second.LongestStreak)

	_, err = repo.Apply(ctx, "u-1", "histoire", model.ProgressDelta{Lessons: 1, Points: 5})
	require.NoError(t, err)

	n, err := repo.CountSubjects(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	stats, err := repo.Stats(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SubjectsCount)
	assert.Equal(t, 18, stats.TotalPoints)
	assert.Equal(t, 2, stats.LongestStreak)
	assert.NotNil(t, stats.LastActivityAt)
}

func TestProgressRepositoryApplyNegativePoints(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	row, err := repo.Apply(context.Background(), "u-1", "maths", model.ProgressDelta{Quizzes: 1, Points: -15})
	require.NoError(t, err)
	assert.Equal(t, -15, row.TotalPoints)
}

func TestAchievementRepositoryInsertUnlockIgnoresDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()

	a := &model.Achievement{Code: "premier-pas", Title: "Premier pas", Points: 50, Rarity: model.RarityCommon, IsActive: true,
		Requirements: model.NewRequirementSpec(model.LessonCount{Count: 1})}
	require.NoError(t, db.Create(a).Error)

	inserted, err := repo.InsertUnlock(ctx, &model.UserAchievement{UserID: "u-1", AchievementID: a.ID, UnlockedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertUnlock(ctx, &model.UserAchievement{UserID: "u-1", AchievementID: a.ID, UnlockedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := repo.CountUnlocks(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	unlocked, err := repo.UnlockedAt(ctx, "u-1")
	require.NoError(t, err)
	assert.Contains(t, unlocked, a.ID)

	views, err := repo.UnlockedByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsUnlocked)
	assert.Equal(t, model.RarityCommon, views[0].Rarity)
}

func TestQuizAttemptRepositoryBestPercentage(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuizAttemptRepository(db)
	ctx := context.Background()

	best, err := repo.BestPercentage(ctx, "u-1")
	require.NoError(t, err)
	assert.Zero(t, best)

	require.NoError(t, repo.Create(ctx, &model.QuizAttempt{QuizID: "q", UserID: "u-1", TotalQuestions: 10, CorrectAnswers: 6, CompletedAt: time.Now()}))
	require.NoError(t, repo.Create(ctx, &model.QuizAttempt{QuizID: "q", UserID: "u-1", TotalQuestions: 4, CorrectAnswers: 4, CompletedAt: time.Now()}))

	best, err = repo.BestPercentage(ctx, "u-1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, best, 0.001)

	n, err := repo.CountByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
