package repository

import (
	"context"
	"ecole_backend/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx binds the repository to a running transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindByID includes soft-deleted rows so callers can tell "disabled" from "missing".
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Unscoped().Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail matches case-insensitively, soft-deleted rows included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Unscoped().Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LockByID reads the row with SELECT ... FOR UPDATE. Only meaningful inside a transaction.
func (r *UserRepository) LockByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SetPoints(ctx context.Context, id string, totalPoints, level int) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"total_points": totalPoints, "level": level}).
		Error
}

// SetLevelIf writes level only while total_points still equals totalPoints,
// so a credit committed after the caller's read is never overwritten.
func (r *UserRepository) SetLevelIf(ctx context.Context, id string, level, totalPoints int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND total_points = ?", id, totalPoints).
		Update("level", level)
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).
		Error
}

func (r *UserRepository) UpdateClass(ctx context.Context, id, classe string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("classe", classe).
		Error
}

func (r *UserRepository) UpdateSubjects(ctx context.Context, id string, subjects []string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Select("Matieres").
		Updates(&model.User{Matieres: subjects}).
		Error
}

// CountAbove counts active users with strictly more points.
func (r *UserRepository) CountAbove(ctx context.Context, points int) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("total_points > ?", points).
		Count(&count).Error
	return count, err
}

func (r *UserRepository) FindTopByPoints(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).
		Order("total_points DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// UserFilter narrows the student listing; empty fields match everything.
type UserFilter struct {
	Search string
	Classe string
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter, page, limit int) ([]model.User, int64, error) {
	var (
		users []model.User
		total int64
	)
	db := r.DB.WithContext(ctx).Model(&model.User{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.Classe != "" {
		db = db.Where("classe = ?", filter.Classe)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

type ClassCount struct {
	Classe string `json:"classe"`
	Count  int64  `json:"count"`
}

func (r *UserRepository) CountByClass(ctx context.Context) ([]ClassCount, error) {
	var rows []ClassCount
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("classe, COUNT(*) AS count").
		Where("classe <> ''").
		Group("classe").
		Order("classe").
		Scan(&rows).Error
	return rows, err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Count(&count).Error
	return count, err
}

// SoftDelete sets deleted_at; gorm.ErrRecordNotFound when no active row matched.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EachPointsBatch walks active users in batches, loading only the scoring columns.
func (r *UserRepository) EachPointsBatch(ctx context.Context, size int, fn func([]model.User) error) error {
	var batch []model.User
	return r.DB.WithContext(ctx).
		Select("id", "total_points", "level").
		FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
