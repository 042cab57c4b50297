package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizAttempt is immutable once recorded.
type QuizAttempt struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	QuizID         string         `gorm:"type:varchar(36);not null;index" json:"quizId"`
	UserID         string         `gorm:"type:varchar(36);not null;index" json:"userId"`
	Score          int            `gorm:"not null" json:"score"`
	TotalQuestions int            `gorm:"not null" json:"totalQuestions"`
	CorrectAnswers int            `gorm:"not null" json:"correctAnswers"`
	TimeSpent      int            `json:"timeSpent"`
	Answers        datatypes.JSON `json:"answers,omitempty"`
	PointsEarned   int            `json:"pointsEarned"`
	CompletedAt    time.Time      `json:"completedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = GenerateUUID()
	}
	return
}
