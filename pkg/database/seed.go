package database

import (
	"context"
	"ecole_backend/internal/model"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type seedAchievement struct {
	Title       string
	Description string
	Icon        string
	Points      int
	Rarity      model.Rarity
	Requirement string
}

// 默认成就，与前端展示保持一致
var defaultAchievements = []seedAchievement{
	{"Premier pas", "Terminez votre première leçon", "👶", 50, model.RarityCommon, `{"type":"lesson_completed","count":1}`},
	{"Premier quiz", "Terminez votre premier quiz", "📝", 30, model.RarityCommon, `{"type":"first_quiz"}`},
	{"Étudiant assidu", "Terminez 10 leçons", "📖", 200, model.RarityRare, `{"type":"lesson_completed","count":10}`},
	{"Explorateur", "Découvrez 3 matières différentes", "🗺️", 150, model.RarityRare, `{"type":"subjects_explored","count":3}`},
	{"Série de victoires", "Terminez 5 leçons consécutives", "🔥", 300, model.RarityEpic, `{"type":"consecutive_lessons","count":5}`},
	{"Maître des quiz", "Obtenez un score parfait à un quiz", "🏆", 500, model.RarityLegendary, `{"type":"perfect_quiz_score"}`},
	{"Champion", "Atteignez 1000 points", "👑", 250, model.RarityEpic, `{"type":"total_points","points":1000}`},
}

// SeedAchievements inserts the default catalogue. Codes are slugs of the
// titles, so reruns never duplicate rows.
func SeedAchievements(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	for _, s := range defaultAchievements {
		code := slug.Make(s.Title)

		var count int64
		if err := db.WithContext(ctx).Model(&model.Achievement{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}

		a := &model.Achievement{
			Code:         code,
			Title:        s.Title,
			Description:  s.Description,
			Icon:         s.Icon,
			Points:       s.Points,
			Rarity:       s.Rarity,
			Requirements: model.RequirementSpec{Raw: []byte(s.Requirement)},
			IsActive:     true,
		}
		if err := db.WithContext(ctx).Create(a).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
