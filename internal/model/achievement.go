package model

import (
	"time"

	"gorm.io/gorm"
)

// Rarity tiers are ordered: common < rare < epic < legendary.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
}

// Rank returns the tier position, 0 for an unknown rarity.
func (r Rarity) Rank() int {
	return rarityRank[r]
}

func (r Rarity) Valid() bool {
	return r.Rank() > 0
}

// Rarities lists every tier in ascending order.
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// swagger:model Achievement
type Achievement struct {
	UUIDBase
	Code         string          `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description"`
	Icon         string          `gorm:"size:100" json:"icon,omitempty"`
	Points       int             `gorm:"not null;default:0" json:"points"`
	Rarity       Rarity          `gorm:"size:16;default:'common';index" json:"rarity"`
	Requirements RequirementSpec `gorm:"type:text" json:"requirements"`
	IsActive     bool            `gorm:"default:true;index" json:"isActive"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement is unique per (user, achievement).
type UserAchievement struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_achievement" json:"userId"`
	AchievementID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_achievement;index" json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

// AchievementView is an achievement joined with the viewer's unlock state.
type AchievementView struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon,omitempty"`
	Points      int        `json:"points"`
	Rarity      Rarity     `json:"rarity"`
	IsUnlocked  bool       `json:"isUnlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) (err error) {
	if ua.ID == "" {
		ua.ID = GenerateUUID()
	}
	return
}
