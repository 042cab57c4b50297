package service

import (
	"context"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/logger"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminService struct {
	AdminRepo *repository.AdminRepository
	UserRepo  *repository.UserRepository
	Log       *zap.Logger
}

func NewAdminService(adminRepo *repository.AdminRepository, userRepo *repository.UserRepository, log *zap.Logger) *AdminService {
	return &AdminService{
		AdminRepo: adminRepo,
		UserRepo:  userRepo,
		Log:       log,
	}
}

// IsAdmin is the role resolver: one query, no caching, so a revoked admin
// loses access on the next request.
func (s *AdminService) IsAdmin(ctx context.Context, user *model.User) (bool, error) {
	n, err := s.AdminRepo.CountMatching(ctx, user.ID, user.Email)
	if err != nil {
		return false, dbError(err)
	}
	return n > 0, nil
}

type AddAdminRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// AddAdmin grants admin rights to an existing user found by id, else by email.
func (s *AdminService) AddAdmin(ctx context.Context, by *model.User, req AddAdminRequest) (*model.Admin, error) {
	userID := strings.TrimSpace(req.UserID)
	email := strings.TrimSpace(req.Email)
	if userID == "" && email == "" {
		return nil, fmt.Errorf("%w: email ou ID utilisateur requis", util.ErrValidationFailed)
	}

	var (
		target *model.User
		err    error
	)
	if userID != "" {
		target, err = s.UserRepo.FindByID(ctx, userID)
	} else {
		target, err = s.UserRepo.FindByEmail(ctx, email)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && target.DeletedAt.Valid) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}

	already, err := s.IsAdmin(ctx, target)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, util.ErrAlreadyAdmin
	}

	admin := &model.Admin{UserID: &target.ID, Email: &target.Email}
	if err := s.AdminRepo.Create(ctx, admin); err != nil {
		return nil, dbError(err)
	}

	logger.Event(s.Log, "admin_added",
		zap.String("admin_id", admin.ID),
		zap.String("target_user_id", target.ID),
		zap.String("by_user_id", by.ID),
	)
	return admin, nil
}

func (s *AdminService) RemoveAdmin(ctx context.Context, by *model.User, adminID string) error {
	err := s.AdminRepo.Delete(ctx, adminID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrAdminNotFound
	}
	if err != nil {
		return dbError(err)
	}
	logger.Event(s.Log, "admin_removed", zap.String("admin_id", adminID), zap.String("by_user_id", by.ID))
	return nil
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]repository.AdminView, error) {
	admins, err := s.AdminRepo.List(ctx)
	return admins, dbError(err)
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

type StudentList struct {
	Students   []model.User `json:"students"`
	Pagination Pagination   `json:"pagination"`
}

func (s *AdminService) ListStudents(ctx context.Context, filter repository.UserFilter, page, limit int) (*StudentList, error) {
	users, total, err := s.UserRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, dbError(err)
	}
	return &StudentList{Students: users, Pagination: NewPagination(page, limit, total)}, nil
}

// DeleteStudent soft-deletes; the account can no longer authenticate.
func (s *AdminService) DeleteStudent(ctx context.Context, by *model.User, id string) error {
	err := s.UserRepo.SoftDelete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrUserNotFound
	}
	if err != nil {
		return dbError(err)
	}
	logger.Event(s.Log, "student_deleted", zap.String("user_id", id), zap.String("by_user_id", by.ID))
	return nil
}

type AdminStats struct {
	TotalStudents int64                   `json:"totalStudents"`
	TotalAdmins   int64                   `json:"totalAdmins"`
	ByClass       []repository.ClassCount `json:"byClass"`
}

func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	students, err := s.UserRepo.Count(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	admins, err := s.AdminRepo.Count(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	byClass, err := s.UserRepo.CountByClass(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return &AdminStats{TotalStudents: students, TotalAdmins: admins, ByClass: byClass}, nil
}
