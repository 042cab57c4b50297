package model

type Subject struct {
	UUIDBase
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Icon        string `gorm:"size:100" json:"icon,omitempty"`
	Color       string `gorm:"size:50" json:"color,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

func (Subject) TableName() string {
	return "subjects"
}

// DefaultLessonReward applies when neither the request nor the lesson carries a reward.
const DefaultLessonReward = 50

type Lesson struct {
	UUIDBase
	SubjectID    string `gorm:"type:varchar(36);index;not null" json:"subjectId"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
	Difficulty   string `gorm:"size:16" json:"difficulty,omitempty"`
	PointsReward int    `gorm:"default:25" json:"pointsReward"`
	OrderIndex   int    `json:"orderIndex"`
	IsActive     bool   `gorm:"default:true" json:"isActive"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type Quiz struct {
	UUIDBase
	SubjectID string  `gorm:"type:varchar(36);index;not null" json:"subjectId"`
	LessonID  *string `gorm:"type:varchar(36);index" json:"lessonId,omitempty"`
	Title     string  `gorm:"size:255;not null" json:"title"`
	TimeLimit int     `json:"timeLimit,omitempty"`
	IsActive  bool    `gorm:"default:true" json:"isActive"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
