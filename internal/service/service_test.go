package service

import (
	"context"
	"testing"
	"time"

	"ecole_backend/internal/config"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	users        *repository.UserRepository
	auth         *AuthService
	admin        *AdminService
	achievements *AchievementService
	gamification *GamificationService
	progress     *ProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret-with-at-least-32-characters", ExpireTime: time.Hour}}

	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	adminSvc := NewAdminService(adminRepo, userRepo, log)
	achievementSvc := NewAchievementService(db, achievementRepo, userRepo, lessonRepo, attemptRepo, progressRepo, log)

	return &testEnv{
		db:           db,
		users:        userRepo,
		auth:         NewAuthService(userRepo, adminSvc, cfg, log),
		admin:        adminSvc,
		achievements: achievementSvc,
		gamification: NewGamificationService(db, userRepo, lessonRepo, attemptRepo, progressRepo, achievementSvc, log),
		progress:     NewProgressService(progressRepo),
	}
}

func (e *testEnv) user(t *testing.T, email string, points int) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email, TotalPoints: points, Level: LevelFor(points).Level}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) subject(t *testing.T, name string) *model.Subject {
	t.Helper()
	s := &model.Subject{Name: name, IsActive: true}
	require.NoError(t, e.db.Create(s).Error)
	return s
}

func (e *testEnv) lesson(t *testing.T, subjectID string, reward int) *model.Lesson {
	t.Helper()
	l := &model.Lesson{SubjectID: subjectID, Title: "Leçon", PointsReward: reward, IsActive: true}
	require.NoError(t, e.db.Create(l).Error)
	return l
}

func (e *testEnv) quiz(t *testing.T, subjectID string) *model.Quiz {
	t.Helper()
	q := &model.Quiz{SubjectID: subjectID, Title: "Quiz", IsActive: true}
	require.NoError(t, e.db.Create(q).Error)
	return q
}

func (e *testEnv) achievement(t *testing.T, code string, points int, req model.Requirement) *model.Achievement {
	t.Helper()
	a := &model.Achievement{
		Code:         code,
		Title:        code,
		Points:       points,
		Rarity:       model.RarityCommon,
		Requirements: model.NewRequirementSpec(req),
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

func (e *testEnv) reload(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := e.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func intPtr(v int) *int {
	return &v
}
