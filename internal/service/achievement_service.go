package service

import (
	"context"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/logger"
	"ecole_backend/pkg/monitoring"
	"ecole_backend/pkg/tracing"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AchievementService struct {
	DB              *gorm.DB
	AchievementRepo *repository.AchievementRepository
	UserRepo        *repository.UserRepository
	LessonRepo      *repository.LessonRepository
	AttemptRepo     *repository.QuizAttemptRepository
	ProgressRepo    *repository.ProgressRepository
	Log             *zap.Logger
}

func NewAchievementService(
	db *gorm.DB,
	achievementRepo *repository.AchievementRepository,
	userRepo *repository.UserRepository,
	lessonRepo *repository.LessonRepository,
	attemptRepo *repository.QuizAttemptRepository,
	progressRepo *repository.ProgressRepository,
	log *zap.Logger,
) *AchievementService {
	return &AchievementService{
		DB:              db,
		AchievementRepo: achievementRepo,
		UserRepo:        userRepo,
		LessonRepo:      lessonRepo,
		AttemptRepo:     attemptRepo,
		ProgressRepo:    progressRepo,
		Log:             log,
	}
}

// UserStats is the snapshot requirements are evaluated against.
type UserStats struct {
	QuizAttempts        int64   `json:"quizAttempts"`
	LessonsCompleted    int64   `json:"lessonsCompleted"`
	SubjectsExplored    int64   `json:"subjectsExplored"`
	TotalPoints         int     `json:"totalPoints"`
	BestScorePercentage float64 `json:"bestScorePercentage"`
}

// Qualifies decides whether stats satisfy a requirement.
func Qualifies(req model.Requirement, st UserStats) bool {
	switch r := req.(type) {
	case model.FirstQuiz:
		return st.QuizAttempts > 0
	case model.PerfectScore:
		return st.QuizAttempts > 0 && st.BestScorePercentage >= r.Percentage
	case model.LessonCount:
		return st.LessonsCompleted >= int64(r.Count)
	case model.SubjectsExplored:
		return st.SubjectsExplored >= int64(r.Count)
	case model.TotalPoints:
		return st.TotalPoints >= r.Points
	default:
		return false
	}
}

func (s *AchievementService) Snapshot(ctx context.Context, userID string) (*UserStats, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}

	st := &UserStats{TotalPoints: user.TotalPoints}
	if st.QuizAttempts, err = s.AttemptRepo.CountByUser(ctx, userID); err != nil {
		return nil, dbError(err)
	}
	if st.LessonsCompleted, err = s.LessonRepo.CountCompletions(ctx, userID); err != nil {
		return nil, dbError(err)
	}
	if st.SubjectsExplored, err = s.ProgressRepo.CountSubjects(ctx, userID); err != nil {
		return nil, dbError(err)
	}
	if st.BestScorePercentage, err = s.AttemptRepo.BestPercentage(ctx, userID); err != nil {
		return nil, dbError(err)
	}
	return st, nil
}

type UnlockedAchievement struct {
	ID             string       `json:"id"`
	Code           string       `json:"code"`
	Title          string       `json:"title"`
	Points         int          `json:"points"`
	Rarity         model.Rarity `json:"rarity"`
	NewTotalPoints int          `json:"newTotalPoints"`
	NewLevel       int          `json:"newLevel"`
}

// CheckAndUnlock grants every active achievement the user now qualifies for.
// Achievements are visited by ascending reward and the running point total
// includes rewards granted earlier in the same pass. A failing achievement is
// logged and skipped.
func (s *AchievementService) CheckAndUnlock(ctx context.Context, userID string) (granted []UnlockedAchievement, err error) {
	ctx, span := tracing.StartSpan(ctx, "AchievementService.CheckAndUnlock", userID)
	defer func() { tracing.EndSpan(span, err) }()

	stats, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.AchievementRepo.UnlockedAt(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	achievements, err := s.AchievementRepo.ListActive(ctx)
	if err != nil {
		return nil, dbError(err)
	}

	for i := range achievements {
		a := &achievements[i]
		if _, ok := unlocked[a.ID]; ok {
			continue
		}

		req, perr := a.Requirements.Parse()
		if perr != nil {
			s.Log.Warn("skipping achievement with unusable requirement",
				zap.String("achievement_id", a.ID),
				zap.String("code", a.Code),
				zap.Error(perr),
			)
			continue
		}
		if !Qualifies(req, *stats) {
			continue
		}

		total, level, gerr := s.grant(ctx, userID, a)
		if errors.Is(gerr, util.ErrDuplicateUnlock) {
			continue
		}
		if gerr != nil {
			s.Log.Error("achievement grant failed",
				zap.String("user_id", userID),
				zap.String("achievement_id", a.ID),
				zap.Error(gerr),
			)
			continue
		}

		stats.TotalPoints = total
		granted = append(granted, UnlockedAchievement{
			ID:             a.ID,
			Code:           a.Code,
			Title:          a.Title,
			Points:         a.Points,
			Rarity:         a.Rarity,
			NewTotalPoints: total,
			NewLevel:       level,
		})
		logger.Event(s.Log, "achievement_unlocked",
			zap.String("user_id", userID),
			zap.String("achievement_id", a.ID),
			zap.Int("points", a.Points),
			zap.Bool("automatic", true),
		)
	}
	return granted, nil
}

// grant inserts the unlock and credits its reward in one transaction.
// A pre-existing unlock yields ErrDuplicateUnlock and changes nothing.
func (s *AchievementService) grant(ctx context.Context, userID string, a *model.Achievement) (total, level int, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.AchievementRepo.WithTx(tx).InsertUnlock(ctx, &model.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			UnlockedAt:    time.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return util.ErrDuplicateUnlock
		}

		users := s.UserRepo.WithTx(tx)
		user, err := users.LockByID(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		total = ApplyDelta(user.TotalPoints, a.Points)
		level = LevelFor(total).Level
		return users.SetPoints(ctx, userID, total, level)
	})
	if err != nil {
		return 0, 0, dbError(err)
	}
	monitoring.AchievementsUnlocked.WithLabelValues(string(a.Rarity)).Inc()
	return total, level, nil
}

// Unlock grants one achievement on request, without checking its requirement.
func (s *AchievementService) Unlock(ctx context.Context, userID, achievementID string) (*UnlockedAchievement, error) {
	a, err := s.AchievementRepo.FindByID(ctx, achievementID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !a.IsActive) {
		return nil, util.ErrAchievementNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}

	total, level, err := s.grant(ctx, userID, a)
	if err != nil {
		return nil, err
	}
	logger.Event(s.Log, "achievement_unlocked",
		zap.String("user_id", userID),
		zap.String("achievement_id", a.ID),
		zap.Int("points", a.Points),
		zap.Bool("automatic", false),
	)
	return &UnlockedAchievement{
		ID:             a.ID,
		Code:           a.Code,
		Title:          a.Title,
		Points:         a.Points,
		Rarity:         a.Rarity,
		NewTotalPoints: total,
		NewLevel:       level,
	}, nil
}

func toView(a *model.Achievement, unlocked map[string]time.Time) model.AchievementView {
	v := model.AchievementView{
		ID:          a.ID,
		Code:        a.Code,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Points:      a.Points,
		Rarity:      a.Rarity,
	}
	if at, ok := unlocked[a.ID]; ok {
		v.IsUnlocked = true
		v.UnlockedAt = &at
	}
	return v
}

// ListForUser returns every active achievement with the user's unlock flags.
func (s *AchievementService) ListForUser(ctx context.Context, userID string) ([]model.AchievementView, error) {
	achievements, err := s.AchievementRepo.ListActive(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	unlocked, err := s.AchievementRepo.UnlockedAt(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}

	views := make([]model.AchievementView, 0, len(achievements))
	for i := range achievements {
		views = append(views, toView(&achievements[i], unlocked))
	}
	return views, nil
}

type AchievementPage struct {
	Achievements []model.AchievementView `json:"achievements"`
	Pagination   Pagination              `json:"pagination"`
}

func (s *AchievementService) Page(ctx context.Context, userID string, rarity model.Rarity, page, limit int) (*AchievementPage, error) {
	if rarity != "" && !rarity.Valid() {
		return nil, util.ErrValidationFailed
	}
	achievements, total, err := s.AchievementRepo.Page(ctx, rarity, page, limit)
	if err != nil {
		return nil, dbError(err)
	}
	unlocked, err := s.AchievementRepo.UnlockedAt(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}

	views := make([]model.AchievementView, 0, len(achievements))
	for i := range achievements {
		views = append(views, toView(&achievements[i], unlocked))
	}
	return &AchievementPage{Achievements: views, Pagination: NewPagination(page, limit, total)}, nil
}

type AchievementDetail struct {
	model.AchievementView
	UnlockCount int64 `json:"unlockCount"`
}

func (s *AchievementService) Detail(ctx context.Context, userID, id string) (*AchievementDetail, error) {
	a, err := s.AchievementRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !a.IsActive) {
		return nil, util.ErrAchievementNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}
	unlocked, err := s.AchievementRepo.UnlockedAt(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	count, err := s.AchievementRepo.CountUnlocks(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}
	return &AchievementDetail{AchievementView: toView(a, unlocked), UnlockCount: count}, nil
}

func (s *AchievementService) Unlocked(ctx context.Context, userID string) ([]model.AchievementView, error) {
	views, err := s.AchievementRepo.UnlockedByUser(ctx, userID)
	return views, dbError(err)
}

type RarityStat struct {
	Rarity   model.Rarity `json:"rarity"`
	Total    int64        `json:"total"`
	Unlocked int64        `json:"unlocked"`
}

type UserAchievementStats struct {
	Total      int64        `json:"total"`
	Unlocked   int64        `json:"unlocked"`
	Percentage float64      `json:"percentage"`
	ByRarity   []RarityStat `json:"byRarity"`
}

// UserAchievementStats counts unlocked versus available achievements per rarity tier.
func (s *AchievementService) UserAchievementStats(ctx context.Context, userID string) (*UserAchievementStats, error) {
	totals, err := s.AchievementRepo.CountActiveByRarity(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	unlocked, err := s.AchievementRepo.CountUnlockedByRarity(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}

	byRarity := make(map[model.Rarity]*RarityStat)
	for _, r := range model.Rarities() {
		byRarity[r] = &RarityStat{Rarity: r}
	}
	for _, t := range totals {
		if rs, ok := byRarity[t.Rarity]; ok {
			rs.Total = t.Count
		}
	}
	for _, u := range unlocked {
		if rs, ok := byRarity[u.Rarity]; ok {
			rs.Unlocked = u.Count
		}
	}

	out := &UserAchievementStats{}
	for _, r := range model.Rarities() {
		rs := byRarity[r]
		out.Total += rs.Total
		out.Unlocked += rs.Unlocked
		out.ByRarity = append(out.ByRarity, *rs)
	}
	if out.Total > 0 {
		out.Percentage = float64(out.Unlocked) * 100 / float64(out.Total)
	}
	return out, nil
}
