package model

import (
	"time"

	"gorm.io/gorm"
)

// UserLesson marks a lesson as completed; one row per (user, lesson).
type UserLesson struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_lesson" json:"userId"`
	LessonID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_lesson;index" json:"lessonId"`
	PointsEarned int       `json:"pointsEarned"`
	CompletedAt  time.Time `json:"completedAt"`
}

func (UserLesson) TableName() string {
	return "user_lessons"
}

func (l *UserLesson) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = GenerateUUID()
	}
	return
}
