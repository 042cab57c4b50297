package service

import (
	"context"
	"ecole_backend/internal/model"
	"ecole_backend/internal/repository"
	"errors"

	"gorm.io/gorm"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
}

func NewProgressService(progressRepo *repository.ProgressRepository) *ProgressService {
	return &ProgressService{ProgressRepo: progressRepo}
}

// Subject returns the ledger row, or a zero row when the user never touched the subject.
func (s *ProgressService) Subject(ctx context.Context, userID, subjectID string) (*model.Progress, error) {
	row, err := s.ProgressRepo.FindBySubject(ctx, userID, subjectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Progress{UserID: userID, SubjectID: subjectID}, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return row, nil
}

func (s *ProgressService) Stats(ctx context.Context, userID string) (*model.ProgressStats, error) {
	stats, err := s.ProgressRepo.Stats(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	return stats, nil
}
