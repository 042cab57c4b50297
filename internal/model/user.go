package model

import (
	"time"

	"gorm.io/gorm"
)

// swagger:model User
type User struct {
	UUIDBase
	Name         string         `gorm:"size:255;not null" json:"name"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	AvatarURL    string         `gorm:"size:500" json:"avatarUrl,omitempty"`
	GoogleID     string         `gorm:"size:255;index" json:"-"`
	Classe       string         `gorm:"size:32" json:"classe,omitempty"`
	Matieres     []string       `gorm:"type:text;serializer:json" json:"matieres"`
	TotalPoints  int            `gorm:"default:0;index" json:"totalPoints"`
	Level        int            `gorm:"default:1" json:"level"`
	LastLoginAt  *time.Time     `json:"lastLoginAt,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// HasSelectedClass reports whether the class selection step is done.
func (u *User) HasSelectedClass() bool {
	return u.Classe != ""
}

// Admin grants administrator capability by membership, matched on user id or email.
// swagger:model Admin
type Admin struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    *string   `gorm:"type:varchar(36);index" json:"userId,omitempty"`
	Email     *string   `gorm:"size:255;index" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Admin) TableName() string {
	return "admins"
}

func (a *Admin) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = GenerateUUID()
	}
	return
}
