package service

import (
	"context"
	"sync"
	"testing"

	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestLoadUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)

	got, err := env.auth.LoadUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = env.auth.LoadUser(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	require.NoError(t, env.users.SoftDelete(ctx, u.ID))
	_, err = env.auth.LoadUser(ctx, u.ID)
	assert.ErrorIs(t, err, util.ErrAccountDisabled)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Name: "Awa", Email: "awa@ecole.fr", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.NotEmpty(t, reg.User.PasswordHash)

	_, err = env.auth.Register(ctx, RegisterRequest{Name: "Awa", Email: "AWA@ecole.fr", Password: "secret123"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "awa@ecole.fr", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@ecole.fr", Password: "secret123"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	res, err := env.auth.Login(ctx, LoginRequest{Email: "Awa@Ecole.fr", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, util.RedirectChooseClass, res.RedirectPath)
	assert.False(t, res.IsAdmin)
	assert.NotNil(t, res.User.LastLoginAt)

	claims, err := util.ParseJWT(res.Token, env.auth.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	require.NoError(t, env.auth.SelectClass(ctx, res.User, "5eme"))
	res, err = env.auth.Login(ctx, LoginRequest{Email: "awa@ecole.fr", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, util.RedirectDashboard, res.RedirectPath)

	_, err = env.admin.AddAdmin(ctx, res.User, AddAdminRequest{Email: "awa@ecole.fr"})
	require.NoError(t, err)
	res, err = env.auth.Login(ctx, LoginRequest{Email: "awa@ecole.fr", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, util.RedirectAdminDashboard, res.RedirectPath)
	assert.True(t, res.IsAdmin)
}

func TestLoginDisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{Name: "Awa", Email: "awa@ecole.fr", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, env.users.SoftDelete(ctx, reg.User.ID))

	_, err = env.auth.Login(ctx, LoginRequest{Email: "awa@ecole.fr", Password: "secret123"})
	assert.ErrorIs(t, err, util.ErrAccountDisabled)
}

func TestRedirectPathFor(t *testing.T) {
	noClass := &model.User{}
	withClass := &model.User{Classe: "3eme"}

	assert.Equal(t, util.RedirectAdminDashboard, RedirectPathFor(noClass, true))
	assert.Equal(t, util.RedirectAdminDashboard, RedirectPathFor(withClass, true))
	assert.Equal(t, util.RedirectChooseClass, RedirectPathFor(noClass, false))
	assert.Equal(t, util.RedirectDashboard, RedirectPathFor(withClass, false))
}

func TestSelectSubjectsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "eleve@ecole.fr", 0)

	assert.ErrorIs(t, env.auth.SelectSubjects(ctx, u, nil), util.ErrValidationFailed)
	assert.ErrorIs(t, env.auth.SelectClass(ctx, u, "  "), util.ErrValidationFailed)

	require.NoError(t, env.auth.SelectSubjects(ctx, u, []string{"maths"}))
	assert.Equal(t, []string{"maths"}, env.reload(t, u.ID).Matieres)
}

func TestIsAdminMatchesIDOrEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	byID := env.user(t, "a@ecole.fr", 0)
	byEmail := env.user(t, "Prof@Ecole.fr", 0)
	both := env.user(t, "dir@ecole.fr", 0)
	plain := env.user(t, "c@ecole.fr", 0)

	require.NoError(t, env.db.Create(&model.Admin{UserID: &byID.ID}).Error)
	email := "prof@ecole.fr"
	require.NoError(t, env.db.Create(&model.Admin{Email: &email}).Error)
	require.NoError(t, env.db.Create(&model.Admin{UserID: &both.ID}).Error)
	bothEmail := "DIR@ecole.fr"
	require.NoError(t, env.db.Create(&model.Admin{Email: &bothEmail}).Error)

	for _, tc := range []struct {
		user *model.User
		want bool
	}{{byID, true}, {byEmail, true}, {both, true}, {plain, false}} {
		got, err := env.admin.IsAdmin(ctx, tc.user)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.user.Email)
	}

	// two membership rows, one admin
	n, err := repository.NewAdminRepository(env.db).CountMatching(ctx, both.ID, both.Email)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestAdminManagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	boss := env.user(t, "boss@ecole.fr", 0)
	target := env.user(t, "prof@ecole.fr", 0)
	env.user(t, "eleve@ecole.fr", 0)

	_, err := env.admin.AddAdmin(ctx, boss, AddAdminRequest{})
	assert.ErrorIs(t, err, util.ErrValidationFailed)

	_, err = env.admin.AddAdmin(ctx, boss, AddAdminRequest{UserID: "missing"})
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	admin, err := env.admin.AddAdmin(ctx, boss, AddAdminRequest{UserID: target.ID})
	require.NoError(t, err)

	_, err = env.admin.AddAdmin(ctx, boss, AddAdminRequest{Email: "PROF@ecole.fr"})
	assert.ErrorIs(t, err, util.ErrAlreadyAdmin)

	admins, err := env.admin.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.NotNil(t, admins[0].Name)
	assert.Equal(t, "prof@ecole.fr", *admins[0].Name)

	stats, err := env.admin.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalStudents)
	assert.EqualValues(t, 1, stats.TotalAdmins)

	require.NoError(t, env.admin.RemoveAdmin(ctx, boss, admin.ID))
	assert.ErrorIs(t, env.admin.RemoveAdmin(ctx, boss, admin.ID), util.ErrAdminNotFound)

	ok, err := env.admin.IsAdmin(ctx, target)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStudentsListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	boss := env.user(t, "boss@ecole.fr", 0)
	awa := env.user(t, "awa@ecole.fr", 0)
	env.user(t, "ben@ecole.fr", 0)

	list, err := env.admin.ListStudents(ctx, repository.UserFilter{Search: "AWA"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Students, 1)
	assert.EqualValues(t, 1, list.Pagination.Total)

	require.NoError(t, env.admin.DeleteStudent(ctx, boss, awa.ID))
	assert.ErrorIs(t, env.admin.DeleteStudent(ctx, boss, awa.ID), util.ErrUserNotFound)

	list, err = env.admin.ListStudents(ctx, repository.UserFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.Pages)
}

func TestLevelReconciler(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	drifted := env.user(t, "a@ecole.fr", 600)
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", drifted.ID).Update("level", 1).Error)
	env.user(t, "b@ecole.fr", 50)

	job := NewLevelReconciler(env.users, zap.NewNop())
	fixed, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	assert.Equal(t, 4, env.reload(t, drifted.ID).Level)

	fixed, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestLevelReconcilerKeepsConcurrentCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "a@ecole.fr", 95)
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", u.ID).Update("level", 3).Error)

	// a lesson worth 10 points commits right after the batch read
	var once sync.Once
	require.NoError(t, env.db.Callback().Query().After("gorm:query").Register("test:concurrent_credit", func(tx *gorm.DB) {
		once.Do(func() {
			env.db.Exec("UPDATE users SET total_points = ?, level = ? WHERE id = ?", 105, LevelFor(105).Level, u.ID)
		})
	}))

	fixed, err := NewLevelReconciler(env.users, zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)

	got := env.reload(t, u.ID)
	assert.Equal(t, 105, got.TotalPoints)
	assert.Equal(t, 2, got.Level)
}
