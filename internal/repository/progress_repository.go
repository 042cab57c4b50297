package repository

import (
	"context"
	"ecole_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// Apply upserts the (user, subject) row: counters and points add up, the
// streak grows by one and the longest streak follows it.
// Callers run it inside the scoring transaction, after locking the user row.
func (r *ProgressRepository) Apply(ctx context.Context, userID, subjectID string, delta model.ProgressDelta) (*model.Progress, error) {
	db := r.DB.WithContext(ctx)
	now := time.Now()

	var row model.Progress
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND subject_id = ?", userID, subjectID).
		First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = model.Progress{
			UserID:           userID,
			SubjectID:        subjectID,
			LessonsCompleted: delta.Lessons,
			QuizzesCompleted: delta.Quizzes,
			TotalPoints:      delta.Points,
			CurrentStreak:    1,
			LongestStreak:    1,
			LastActivityAt:   &now,
		}
		if err := db.Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	case err != nil:
		return nil, err
	}

	row.LessonsCompleted += delta.Lessons
	row.QuizzesCompleted += delta.Quizzes
	row.TotalPoints += delta.Points
	row.CurrentStreak++
	if row.CurrentStreak > row.LongestStreak {
		row.LongestStreak = row.CurrentStreak
	}
	row.LastActivityAt = &now

	err = db.Model(&model.Progress{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"lessons_completed": row.LessonsCompleted,
			"quizzes_completed": row.QuizzesCompleted,
			"total_points":      row.TotalPoints,
			"current_streak":    row.CurrentStreak,
			"longest_streak":    row.LongestStreak,
			"last_activity_at":  now,
		}).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ProgressRepository) FindBySubject(ctx context.Context, userID, subjectID string) (*model.Progress, error) {
	var row model.Progress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND subject_id = ?", userID, subjectID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ProgressRepository) CountSubjects(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Progress{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) Stats(ctx context.Context, userID string) (*model.ProgressStats, error) {
	var rows []model.Progress
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	stats := &model.ProgressStats{SubjectsCount: len(rows)}
	for i := range rows {
		p := rows[i]
		stats.LessonsCompleted += p.LessonsCompleted
		stats.QuizzesCompleted += p.QuizzesCompleted
		stats.TotalPoints += p.TotalPoints
		if p.LongestStreak > stats.LongestStreak {
			stats.LongestStreak = p.LongestStreak
		}
		if p.LastActivityAt != nil && (stats.LastActivityAt == nil || p.LastActivityAt.After(*stats.LastActivityAt)) {
			stats.LastActivityAt = p.LastActivityAt
		}
	}
	return stats, nil
}
