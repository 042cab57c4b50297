package service

import (
	"context"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"ecole_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const reconcileBatchSize = 200

// LevelReconciler keeps the stored level column equal to LevelFor(total_points).
type LevelReconciler struct {
	UserRepo *repository.UserRepository
	Log      *zap.Logger
}

func NewLevelReconciler(userRepo *repository.UserRepository, log *zap.Logger) *LevelReconciler {
	return &LevelReconciler{UserRepo: userRepo, Log: log}
}

// Run fixes every drifted user and returns how many rows changed.
func (j *LevelReconciler) Run(ctx context.Context) (int, error) {
	fixed := 0
	err := j.UserRepo.EachPointsBatch(ctx, reconcileBatchSize, func(users []model.User) error {
		for _, u := range users {
			want := LevelFor(u.TotalPoints).Level
			if u.Level == want {
				continue
			}
			updated, err := j.UserRepo.SetLevelIf(ctx, u.ID, want, u.TotalPoints)
			if err != nil {
				return err
			}
			if !updated {
				// points moved since the read; that write already set the level
				continue
			}
			j.Log.Info("level reconciled",
				zap.String("user_id", u.ID),
				zap.Int("from", u.Level),
				zap.Int("to", want),
			)
			fixed++
		}
		return nil
	})
	if err != nil {
		return fixed, dbError(err)
	}
	monitoring.LevelsReconciled.Add(float64(fixed))
	return fixed, nil
}
