package repository

import (
	"context"
	"ecole_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

// ListActive returns active achievements, cheapest reward first.
func (r *AchievementRepository) ListActive(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("points ASC").
		Order("created_at ASC").
		Find(&achievements).Error
	return achievements, err
}

func (r *AchievementRepository) FindByID(ctx context.Context, id string) (*model.Achievement, error) {
	var a model.Achievement
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Page returns active achievements filtered by rarity when one is given.
func (r *AchievementRepository) Page(ctx context.Context, rarity model.Rarity, page, limit int) ([]model.Achievement, int64, error) {
	var (
		achievements []model.Achievement
		total        int64
	)
	db := r.DB.WithContext(ctx).Model(&model.Achievement{}).Where("is_active = ?", true)
	if rarity != "" {
		db = db.Where("rarity = ?", rarity)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("points ASC").
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&achievements).Error
	return achievements, total, err
}

// UnlockedAt maps achievement id to unlock time for one user.
func (r *AchievementRepository) UnlockedAt(ctx context.Context, userID string) (map[string]time.Time, error) {
	var rows []model.UserAchievement
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	unlocked := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		unlocked[row.AchievementID] = row.UnlockedAt
	}
	return unlocked, nil
}

// InsertUnlock inserts or ignores. It reports false when the pair already existed.
func (r *AchievementRepository) InsertUnlock(ctx context.Context, ua *model.UserAchievement) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ua)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *AchievementRepository) CountUnlocks(ctx context.Context, achievementID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("achievement_id = ?", achievementID).
		Count(&count).Error
	return count, err
}

// UnlockedByUser lists a user's unlocked achievements, most recent first.
func (r *AchievementRepository) UnlockedByUser(ctx context.Context, userID string) ([]model.AchievementView, error) {
	var views []model.AchievementView
	err := r.DB.WithContext(ctx).Table("user_achievements").
		Select("achievements.id, achievements.code, achievements.title, achievements.description, achievements.icon, "+
			"achievements.points, achievements.rarity, user_achievements.unlocked_at").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.unlocked_at DESC").
		Scan(&views).Error
	for i := range views {
		views[i].IsUnlocked = true
	}
	return views, err
}

type RarityCount struct {
	Rarity model.Rarity
	Count  int64
}

func (r *AchievementRepository) CountActiveByRarity(ctx context.Context) ([]RarityCount, error) {
	var rows []RarityCount
	err := r.DB.WithContext(ctx).Model(&model.Achievement{}).
		Select("rarity, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("rarity").
		Scan(&rows).Error
	return rows, err
}

func (r *AchievementRepository) CountUnlockedByRarity(ctx context.Context, userID string) ([]RarityCount, error) {
	var rows []RarityCount
	err := r.DB.WithContext(ctx).Table("user_achievements").
		Select("achievements.rarity AS rarity, COUNT(*) AS count").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Group("achievements.rarity").
		Scan(&rows).Error
	return rows, err
}
