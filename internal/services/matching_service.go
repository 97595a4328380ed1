package services

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/arman-rs/ClinicAppBack/internal/models"
)

type TherapistMatcher interface {
	ListAll(ctx context.Context) ([]models.TherapistProfile, error)
}

// MatchingService ranks onboarded therapists against a child's concerns and
// the parent's budget. Scoring is additive; ties break on rating.
type MatchingService struct {
	therapistRepo TherapistMatcher
}

func NewMatchingService(therapistRepo TherapistMatcher) *MatchingService {
	return &MatchingService{therapistRepo: therapistRepo}
}

func (s *MatchingService) GetMatchedTherapists(
	ctx context.Context,
	parentProfile *models.ParentProfile,
	child *models.Child,
	limit int,
) ([]models.TherapistWithScore, error) {
	therapists, err := s.therapistRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.TherapistWithScore, 0, len(therapists))
	for _, therapist := range therapists {
		matched = append(matched, models.TherapistWithScore{
			TherapistProfile: therapist,
			MatchScore:       calculateMatchScore(parentProfile, child, &therapist),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchScore == matched[j].MatchScore {
			return floatValue(matched[i].Rating) > floatValue(matched[j].Rating)
		}
		return matched[i].MatchScore > matched[j].MatchScore
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func calculateMatchScore(
	parentProfile *models.ParentProfile,
	child *models.Child,
	therapist *models.TherapistProfile,
) int {
	score := 0
	concernTags := concernAliases(child)
	therapistSpecs := normalizeValues(therapist.Specializations)

	for _, aliases := range concernTags {
		for _, alias := range aliases {
			if _, ok := therapistSpecs[alias]; ok {
				score += 40
				break
			}
		}
	}

	if floatValue(therapist.Rating) > 4.0 {
		score += 20
	}
	if intValue(therapist.ExperienceYears) > 3 {
		score += 15
	}
	if len(sliceValue(therapist.Certifications)) > 0 {
		score += 10
	}
	if withinBudget(parentProfile, therapist) {
		score += 15
	}

	return score
}

func withinBudget(parentProfile *models.ParentProfile, therapist *models.TherapistProfile) bool {
	if parentProfile == nil || !parentProfile.MaxHourlyRate.Valid {
		return false
	}
	if !therapist.HourlyRate.Valid {
		return false
	}
	budget := parentProfile.MaxHourlyRate.Decimal
	return budget.GreaterThan(decimal.Zero) &&
		therapist.HourlyRate.Decimal.LessThanOrEqual(budget)
}

func concernAliases(child *models.Child) map[string][]string {
	concerns := sliceValue(nil)
	if child != nil {
		concerns = sliceValue(child.Concerns)
	}

	mapped := make(map[string][]string, len(concerns))
	for _, concern := range concerns {
		switch normalize(concern) {
		case "adhd", "add", "attention":
			mapped["adhd"] = []string{"adhd", "add", "attention_deficit"}
		case "hyperactivity", "impulsivity":
			mapped["hyperactivity"] = []string{"hyperactivity", "impulsivity", "adhd"}
		case "executive_function", "organization", "planning":
			mapped["executive_function"] = []string{"executive_function", "organization_skills", "coaching"}
		case "behavior", "behaviour", "oppositional":
			mapped["behavior"] = []string{"behavior_therapy", "behavioral", "parent_training"}
		case "anxiety", "worry":
			mapped["anxiety"] = []string{"anxiety", "cbt"}
		case "school", "learning", "academic":
			mapped["school"] = []string{"school_support", "learning_support", "academic_coaching"}
		default:
			if key := normalize(concern); key != "" {
				mapped[key] = []string{key}
			}
		}
	}

	return mapped
}

func normalizeValues(values *[]string) map[string]struct{} {
	normalized := make(map[string]struct{})
	for _, value := range sliceValue(values) {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

func sliceValue(values *[]string) []string {
	if values == nil {
		return nil
	}
	return *values
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValue(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
