package database

import (
	"context"
	"testing"

	"ecole_backend/internal/config"
	"ecole_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAchievementsIsIdempotent(t *testing.T) {
	db, err := OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	ctx := context.Background()
	created, err := SeedAchievements(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, len(defaultAchievements), created)

	created, err = SeedAchievements(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, created)

	var a model.Achievement
	require.NoError(t, db.Where("code = ?", "etudiant-assidu").First(&a).Error)
	req, err := a.Requirements.Parse()
	require.NoError(t, err)
	assert.Equal(t, model.LessonCount{Count: 10}, req)
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DatabaseConfig{Driver: "oracle"}, false)
	assert.Error(t, err)
}
