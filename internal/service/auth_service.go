package service

import (
	"context"
	"ecole_backend/internal/config"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/logger"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	AdminSvc *AdminService
	Cfg      *config.Config
	Log      *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, adminSvc *AdminService, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		AdminSvc: adminSvc,
		Cfg:      cfg,
		Log:      log,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	User         *model.User `json:"user"`
	Token        string      `json:"token"`
	RedirectPath string      `json:"redirectPath,omitempty"`
	IsAdmin      bool        `json:"isAdmin"`
}

// LoadUser is the user loader of the auth chain.
func (s *AuthService) LoadUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, dbError(err)
	}
	if user.DeletedAt.Valid {
		return nil, util.ErrAccountDisabled
	}
	return user, nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dbError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Matieres:     []string{},
		Level:        1,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, dbError(err)
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	logger.Event(s.Log, "user_registered", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token, RedirectPath: util.RedirectChooseClass}, nil
}

// Login checks credentials and picks where the front end lands next.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, dbError(err)
	}
	if user.DeletedAt.Valid {
		return nil, util.ErrAccountDisabled
	}
	if user.PasswordHash == "" {
		// OAuth-only account
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	isAdmin, err := s.AdminSvc.IsAdmin(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.Log.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	logger.Event(s.Log, "user_login", zap.String("user_id", user.ID), zap.Bool("is_admin", isAdmin))
	return &AuthResult{
		User:         user,
		Token:        token,
		RedirectPath: RedirectPathFor(user, isAdmin),
		IsAdmin:      isAdmin,
	}, nil
}

// RedirectPathFor: admins go to the admin dashboard, users without a class to
// class selection, everyone else to the dashboard.
func RedirectPathFor(user *model.User, isAdmin bool) string {
	switch {
	case isAdmin:
		return util.RedirectAdminDashboard
	case !user.HasSelectedClass():
		return util.RedirectChooseClass
	default:
		return util.RedirectDashboard
	}
}

// Refresh issues a new token for an already authenticated user.
func (s *AuthService) Refresh(user *model.User) (string, error) {
	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) SelectClass(ctx context.Context, user *model.User, classe string) error {
	classe = strings.TrimSpace(classe)
	if classe == "" {
		return fmt.Errorf("%w: classe requise", util.ErrValidationFailed)
	}
	if err := s.UserRepo.UpdateClass(ctx, user.ID, classe); err != nil {
		return dbError(err)
	}
	user.Classe = classe
	return nil
}

func (s *AuthService) SelectSubjects(ctx context.Context, user *model.User, subjects []string) error {
	if len(subjects) == 0 {
		return fmt.Errorf("%w: au moins une matière est requise", util.ErrValidationFailed)
	}
	if err := s.UserRepo.UpdateSubjects(ctx, user.ID, subjects); err != nil {
		return dbError(err)
	}
	user.Matieres = subjects
	return nil
}
