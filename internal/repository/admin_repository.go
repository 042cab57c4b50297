package repository

import (
	"context"
	"ecole_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AdminRepository struct {
	DB *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

// CountMatching counts admin rows that name the user by id or by email.
func (r *AdminRepository) CountMatching(ctx context.Context, userID, email string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Admin{}).
		Where("user_id = ? OR LOWER(email) = LOWER(?)", userID, email).
		Count(&count).Error
	return count, err
}

func (r *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.DB.WithContext(ctx).Create(admin).Error
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Admin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdminView is an admin row with the linked user's name when one exists.
type AdminView struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *AdminRepository) List(ctx context.Context) ([]AdminView, error) {
	var admins []AdminView
	err := r.DB.WithContext(ctx).Table("admins").
		Select("admins.id, admins.user_id, COALESCE(admins.email, users.email) AS email, users.name, admins.created_at").
		Joins("LEFT JOIN users ON users.id = admins.user_id").
		Order("admins.created_at DESC").
		Scan(&admins).Error
	return admins, err
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Admin{}).Count(&count).Error
	return count, err
}
