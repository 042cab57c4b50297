package service

import (
	"context"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/logger"
	"ecole_backend/pkg/monitoring"
	"ecole_backend/pkg/tracing"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GamificationService runs the scoring events. Each event commits the
// attempt or completion, the user's points and level and the subject ledger
// together; achievements are checked after the commit.
type GamificationService struct {
	DB           *gorm.DB
	UserRepo     *repository.UserRepository
	LessonRepo   *repository.LessonRepository
	AttemptRepo  *repository.QuizAttemptRepository
	ProgressRepo *repository.ProgressRepository
	Achievements *AchievementService
	Log          *zap.Logger
}

func NewGamificationService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	lessonRepo *repository.LessonRepository,
	attemptRepo *repository.QuizAttemptRepository,
	progressRepo *repository.ProgressRepository,
	achievements *AchievementService,
	log *zap.Logger,
) *GamificationService {
	return &GamificationService{
		DB:           db,
		UserRepo:     userRepo,
		LessonRepo:   lessonRepo,
		AttemptRepo:  attemptRepo,
		ProgressRepo: progressRepo,
		Achievements: achievements,
		Log:          log,
	}
}

type QuizAttemptRequest struct {
	QuizID         string          `json:"quizId" binding:"required"`
	Score          *int            `json:"score" binding:"required"`
	TotalQuestions int             `json:"totalQuestions"`
	CorrectAnswers int             `json:"correctAnswers"`
	TimeSpent      int             `json:"timeSpent"`
	Answers        json.RawMessage `json:"answers"`
}

type ScoreResult struct {
	Points               int                   `json:"points"`
	NewTotalPoints       int                   `json:"newTotalPoints"`
	NewLevel             int                   `json:"newLevel"`
	PointsData           *QuizPoints           `json:"pointsData,omitempty"`
	UnlockedAchievements []UnlockedAchievement `json:"unlockedAchievements"`
}

// credit locks the user row, applies delta and stores the new total and level.
func (s *GamificationService) credit(ctx context.Context, tx *gorm.DB, userID string, delta int) (total, level int, err error) {
	users := s.UserRepo.WithTx(tx)
	user, err := users.LockByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, util.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	total = ApplyDelta(user.TotalPoints, delta)
	level = LevelFor(total).Level
	if err := users.SetPoints(ctx, userID, total, level); err != nil {
		return 0, 0, err
	}
	return total, level, nil
}

// afterCommit runs the unlocker. Its failures never undo the scoring event.
func (s *GamificationService) afterCommit(ctx context.Context, userID string, res *ScoreResult) {
	granted, err := s.Achievements.CheckAndUnlock(ctx, userID)
	if err != nil {
		s.Log.Error("achievement check failed", zap.String("user_id", userID), zap.Error(err))
	}
	res.UnlockedAchievements = granted
	if res.UnlockedAchievements == nil {
		res.UnlockedAchievements = []UnlockedAchievement{}
	}
}

func (s *GamificationService) RecordQuizAttempt(ctx context.Context, userID string, req QuizAttemptRequest) (res *ScoreResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "GamificationService.RecordQuizAttempt", userID)
	defer func() { tracing.EndSpan(span, err) }()

	if req.Score == nil {
		return nil, fmt.Errorf("%w: score manquant", util.ErrValidationFailed)
	}
	points, err := CalculateQuizPoints(req.TotalQuestions, req.CorrectAnswers)
	if err != nil {
		return nil, err
	}

	quiz, err := s.LessonRepo.FindQuizByID(ctx, req.QuizID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !quiz.IsActive) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}

	answers := datatypes.JSON("[]")
	if len(req.Answers) > 0 && string(req.Answers) != "null" {
		if !json.Valid(req.Answers) {
			return nil, fmt.Errorf("%w: answers must be JSON", util.ErrValidationFailed)
		}
		answers = datatypes.JSON(req.Answers)
	}

	net := points.Rounded()
	res = &ScoreResult{Points: net, PointsData: &points}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt := &model.QuizAttempt{
			QuizID:         quiz.ID,
			UserID:         userID,
			Score:          *req.Score,
			TotalQuestions: req.TotalQuestions,
			CorrectAnswers: req.CorrectAnswers,
			TimeSpent:      req.TimeSpent,
			Answers:        answers,
			PointsEarned:   net,
			CompletedAt:    time.Now(),
		}
		if err := s.AttemptRepo.WithTx(tx).Create(ctx, attempt); err != nil {
			return err
		}

		total, level, err := s.credit(ctx, tx, userID, net)
		if err != nil {
			return err
		}
		res.NewTotalPoints, res.NewLevel = total, level

		_, err = s.ProgressRepo.WithTx(tx).Apply(ctx, userID, quiz.SubjectID, model.ProgressDelta{Quizzes: 1, Points: net})
		return err
	})
	if err != nil {
		return nil, dbError(err)
	}

	monitoring.QuizAttempts.Inc()
	logger.Event(s.Log, "quiz_attempt_recorded",
		zap.String("user_id", userID),
		zap.String("quiz_id", quiz.ID),
		zap.Int("score", *req.Score),
		zap.Int("points", net),
	)
	s.afterCommit(ctx, userID, res)
	return res, nil
}

type CompleteLessonRequest struct {
	LessonID string `json:"lessonId" binding:"required"`
	Points   int    `json:"points"`
}

func (s *GamificationService) CompleteLesson(ctx context.Context, userID string, req CompleteLessonRequest) (res *ScoreResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "GamificationService.CompleteLesson", userID)
	defer func() { tracing.EndSpan(span, err) }()

	lessonID := strings.TrimSpace(req.LessonID)
	if lessonID == "" {
		return nil, fmt.Errorf("%w: ID de leçon manquant", util.ErrValidationFailed)
	}
	lesson, err := s.LessonRepo.FindLessonByID(ctx, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !lesson.IsActive) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}

	reward := LessonReward(req.Points, lesson.PointsReward)
	res = &ScoreResult{Points: reward}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.LessonRepo.WithTx(tx).CreateCompletion(ctx, &model.UserLesson{
			UserID:       userID,
			LessonID:     lesson.ID,
			PointsEarned: reward,
			CompletedAt:  time.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return util.ErrAlreadyCompleted
		}

		total, level, err := s.credit(ctx, tx, userID, reward)
		if err != nil {
			return err
		}
		res.NewTotalPoints, res.NewLevel = total, level

		_, err = s.ProgressRepo.WithTx(tx).Apply(ctx, userID, lesson.SubjectID, model.ProgressDelta{Lessons: 1, Points: reward})
		return err
	})
	if err != nil {
		return nil, dbError(err)
	}

	monitoring.LessonsCompleted.Inc()
	logger.Event(s.Log, "lesson_completed",
		zap.String("user_id", userID),
		zap.String("lesson_id", lesson.ID),
		zap.Int("points", reward),
	)
	s.afterCommit(ctx, userID, res)
	return res, nil
}

type AddPointsRequest struct {
	Points  int    `json:"points"`
	Reason  string `json:"reason"`
	Subject string `json:"subject"`
}

// AddPoints credits a positive manual amount. No ledger row is touched.
func (s *GamificationService) AddPoints(ctx context.Context, userID string, req AddPointsRequest) (*ScoreResult, error) {
	if req.Points <= 0 {
		return nil, fmt.Errorf("%w: points invalides", util.ErrValidationFailed)
	}

	res := &ScoreResult{Points: req.Points}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total, level, err := s.credit(ctx, tx, userID, req.Points)
		res.NewTotalPoints, res.NewLevel = total, level
		return err
	})
	if err != nil {
		return nil, dbError(err)
	}

	logger.Event(s.Log, "points_added",
		zap.String("user_id", userID),
		zap.Int("points", req.Points),
		zap.String("reason", req.Reason),
		zap.String("subject", req.Subject),
	)
	s.afterCommit(ctx, userID, res)
	return res, nil
}

type LessonCompletion struct {
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (s *GamificationService) CheckLessonCompletion(ctx context.Context, userID, lessonID string) (*LessonCompletion, error) {
	ul, err := s.LessonRepo.FindCompletion(ctx, userID, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &LessonCompletion{}, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return &LessonCompletion{IsCompleted: true, CompletedAt: &ul.CompletedAt}, nil
}

type GamificationStats struct {
	TotalPoints        int                     `json:"totalPoints"`
	Level              int                     `json:"level"`
	Rank               int64                   `json:"rank"`
	Title              string                  `json:"title"`
	NextLevelPoints    int                     `json:"nextLevelPoints"`
	CurrentLevelPoints int                     `json:"currentLevelPoints"`
	Progress           float64                 `json:"progress"`
	Achievements       []model.AchievementView `json:"achievements"`
}

// GetStats: rank is one plus the number of active users with strictly more points.
func (s *GamificationService) GetStats(ctx context.Context, userID string) (*GamificationStats, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.DeletedAt.Valid) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}

	above, err := s.UserRepo.CountAbove(ctx, user.TotalPoints)
	if err != nil {
		return nil, dbError(err)
	}
	achievements, err := s.Achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	lp := LevelProgress(user.TotalPoints)
	return &GamificationStats{
		TotalPoints:        user.TotalPoints,
		Level:              user.Level,
		Rank:               above + 1,
		Title:              lp.Title,
		NextLevelPoints:    lp.PointsToNext,
		CurrentLevelPoints: lp.CurrentLevelPoints,
		Progress:           lp.Progress,
		Achievements:       achievements,
	}, nil
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	TotalPoints   int    `json:"totalPoints"`
	Level         int    `json:"level"`
	Title         string `json:"title"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

func (s *GamificationService) Leaderboard(ctx context.Context, currentUserID string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = util.LeaderboardDefaultLimit
	}
	if limit > util.MaxPageLimit {
		limit = util.MaxPageLimit
	}
	users, err := s.UserRepo.FindTopByPoints(ctx, limit)
	if err != nil {
		return nil, dbError(err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			Name:          u.Name,
			AvatarURL:     u.AvatarURL,
			TotalPoints:   u.TotalPoints,
			Level:         u.Level,
			Title:         LevelFor(u.TotalPoints).Title,
			IsCurrentUser: u.ID == currentUserID,
		})
	}
	return entries, nil
}
