package repository

import (
	"context"
	"ecole_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LessonRepository serves the read-only course lookups scoring depends on.
type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) WithTx(tx *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: tx}
}

func (r *LessonRepository) FindLessonByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) FindQuizByID(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// UserLesson

// CreateCompletion inserts or ignores; false means the lesson was already completed.
func (r *LessonRepository) CreateCompletion(ctx context.Context, ul *model.UserLesson) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ul)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *LessonRepository) FindCompletion(ctx context.Context, userID, lessonID string) (*model.UserLesson, error) {
	var ul model.UserLesson
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&ul).Error
	if err != nil {
		return nil, err
	}
	return &ul, nil
}

func (r *LessonRepository) CountCompletions(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserLesson{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
