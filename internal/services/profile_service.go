package services

import (
	"context"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
)

type ParentProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateParentProfileInput) (*models.ParentProfile, error)
}

type TherapistProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateTherapistProfileInput) (*models.TherapistProfile, error)
}

type ProfileService struct {
	parentProfileRepo    ParentProfileUpdater
	therapistProfileRepo TherapistProfileUpdater
}

func NewProfileService(parentProfileRepo ParentProfileUpdater, therapistProfileRepo TherapistProfileUpdater) *ProfileService {
	return &ProfileService{
		parentProfileRepo:    parentProfileRepo,
		therapistProfileRepo: therapistProfileRepo,
	}
}

func (s *ProfileService) UpdateParentProfile(ctx context.Context, userID int64, req repository.UpdateParentProfileInput) (*models.ParentProfile, error) {
	return s.parentProfileRepo.UpdatePartial(ctx, userID, req)
}

func (s *ProfileService) UpdateTherapistProfile(ctx context.Context, userID int64, req repository.UpdateTherapistProfileInput) (*models.TherapistProfile, error) {
	return s.therapistProfileRepo.UpdatePartial(ctx, userID, req)
}
