package repository

import (
	"context"
	"database/sql"
	"ecole_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) WithTx(tx *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: tx}
}

func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *QuizAttemptRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// BestPercentage returns the highest correct/total ratio in percent, 0 without attempts.
func (r *QuizAttemptRepository) BestPercentage(ctx context.Context, userID string) (float64, error) {
	var best sql.NullFloat64
	row := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).
		Select("MAX(correct_answers * 100.0 / total_questions)").
		Where("user_id = ? AND total_questions > 0", userID).
		Row()
	if err := row.Scan(&best); err != nil {
		return 0, err
	}
	return best.Float64, nil
}
