package model

import (
	"time"

	"gorm.io/gorm"
)

// Progress is the per (user, subject) ledger row.
type Progress struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_subject" json:"userId"`
	SubjectID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_subject" json:"subjectId"`
	LessonsCompleted int        `gorm:"not null;default:0" json:"lessonsCompleted"`
	QuizzesCompleted int        `gorm:"not null;default:0" json:"quizzesCompleted"`
	TotalPoints      int        `gorm:"not null;default:0" json:"totalPoints"`
	CurrentStreak    int        `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak    int        `gorm:"not null;default:0" json:"longestStreak"`
	LastActivityAt   *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (Progress) TableName() string {
	return "user_progress"
}

// ProgressDelta is what one scoring event adds to a ledger row.
type ProgressDelta struct {
	Lessons int
	Quizzes int
	Points  int
}

// ProgressStats aggregates every ledger row of a user.
type ProgressStats struct {
	SubjectsCount    int        `json:"subjectsCount"`
	LessonsCompleted int        `json:"lessonsCompleted"`
	QuizzesCompleted int        `json:"quizzesCompleted"`
	TotalPoints      int        `json:"totalPoints"`
	LongestStreak    int        `json:"longestStreak"`
	LastActivityAt   *time.Time `json:"lastActivityAt,omitempty"`
}

func (p *Progress) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = GenerateUUID()
	}
	return
}
