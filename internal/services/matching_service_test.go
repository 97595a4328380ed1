package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type stubTherapistMatcher struct {
	therapists []models.TherapistProfile
}

func (s *stubTherapistMatcher) ListAll(_ context.Context) ([]models.TherapistProfile, error) {
	return s.therapists, nil
}

func TestGetMatchedTherapistsSortsByScoreThenRating(t *testing.T) {
	concerns := []string{"adhd", "behavior"}
	service := NewMatchingService(&stubTherapistMatcher{
		therapists: []models.TherapistProfile{
			buildTherapistProfile(11, []string{"adhd", "behavior_therapy"}, 4.8, 6, 100, []string{"BCBA"}),
			buildTherapistProfile(12, []string{"adhd"}, 4.9, 2, 110, nil),
			buildTherapistProfile(13, []string{"anxiety"}, 5.0, 10, 90, []string{"CBT-C"}),
		},
	})

	matched, err := service.GetMatchedTherapists(
		context.Background(),
		buildParentProfile(120),
		buildChild(&concerns),
		3,
	)
	if err != nil {
		t.Fatalf("GetMatchedTherapists: %v", err)
	}

	if got := len(matched); got != 3 {
		t.Fatalf("expected 3 therapists, got %d", got)
	}
	if matched[0].UserID != 11 || matched[0].MatchScore != 140 {
		t.Fatalf("expected therapist 11 with score 140 first, got therapist %d with score %d", matched[0].UserID, matched[0].MatchScore)
	}
	if matched[1].UserID != 12 || matched[1].MatchScore != 75 {
		t.Fatalf("expected therapist 12 with score 75 second, got therapist %d with score %d", matched[1].UserID, matched[1].MatchScore)
	}
	if matched[2].UserID != 13 || matched[2].MatchScore != 60 {
		t.Fatalf("expected therapist 13 with score 60 third, got therapist %d with score %d", matched[2].UserID, matched[2].MatchScore)
	}
}

func TestGetMatchedTherapistsAppliesLimit(t *testing.T) {
	concerns := []string{"adhd"}
	service := NewMatchingService(&stubTherapistMatcher{
		therapists: []models.TherapistProfile{
			buildTherapistProfile(1, []string{"adhd"}, 4.5, 5, 130, nil),
			buildTherapistProfile(2, []string{"anxiety"}, 4.9, 7, 100, nil),
		},
	})

	matched, err := service.GetMatchedTherapists(context.Background(), nil, buildChild(&concerns), 1)
	if err != nil {
		t.Fatalf("GetMatchedTherapists: %v", err)
	}
	if got := len(matched); got != 1 {
		t.Fatalf("expected 1 therapist, got %d", got)
	}
	if matched[0].UserID != 1 {
		t.Fatalf("expected top therapist to be 1, got %d", matched[0].UserID)
	}
}

func TestGetMatchedTherapistsBudgetBonusRequiresPreference(t *testing.T) {
	concerns := []string{"adhd"}
	service := NewMatchingService(&stubTherapistMatcher{
		therapists: []models.TherapistProfile{
			buildTherapistProfile(1, []string{"adhd"}, 4.2, 4, 100, nil),
			buildTherapistProfile(2, []string{"adhd"}, 4.2, 4, 200, nil),
		},
	})

	matched, err := service.GetMatchedTherapists(
		context.Background(),
		buildParentProfile(120),
		buildChild(&concerns),
		2,
	)
	if err != nil {
		t.Fatalf("GetMatchedTherapists: %v", err)
	}

	if matched[0].MatchScore != matched[1].MatchScore+15 {
		t.Fatalf("expected budget bonus gap of 15, got %d vs %d", matched[0].MatchScore, matched[1].MatchScore)
	}
}

func TestConcernAliasesHandleDocumentedSynonyms(t *testing.T) {
	concerns := []string{"attention", "organization"}
	service := NewMatchingService(&stubTherapistMatcher{
		therapists: []models.TherapistProfile{
			buildTherapistProfile(1, []string{"attention_deficit", "coaching"}, 0, 0, 999, nil),
		},
	})

	matched, err := service.GetMatchedTherapists(context.Background(), nil, buildChild(&concerns), 1)
	if err != nil {
		t.Fatalf("GetMatchedTherapists: %v", err)
	}

	if got := matched[0].MatchScore; got != 80 {
		t.Fatalf("expected synonym concern match score 80, got %d", got)
	}
}

func buildTherapistProfile(userID int64, specs []string, rating float64, experience int, rate float64, certs []string) models.TherapistProfile {
	profile := models.TherapistProfile{
		UserID:             userID,
		Specializations:    &specs,
		Rating:             &rating,
		ExperienceYears:    &experience,
		HourlyRate:         decimal.NewNullDecimal(decimal.NewFromFloat(rate)),
		OnboardingComplete: true,
	}
	if certs != nil {
		profile.Certifications = &certs
	}
	return profile
}

func buildParentProfile(budget float64) *models.ParentProfile {
	return &models.ParentProfile{
		MaxHourlyRate: decimal.NewNullDecimal(decimal.NewFromFloat(budget)),
	}
}

func buildChild(concerns *[]string) *models.Child {
	return &models.Child{Concerns: concerns}
}
