package usecase

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/uslugar/lead-exchange/internal/config"
	"github.com/uslugar/lead-exchange/internal/entity"
)

const earthRadiusKm = 6371.0

// RankProvidersUseCase scores and orders eligible providers for a lead.
// The output order is used verbatim as queue positions 1..N.
type RankProvidersUseCase struct {
	Candidates entity.CandidateRepositoryInterface
	Weights    config.ScoringWeights
}

func NewRankProvidersUseCase(candidates entity.CandidateRepositoryInterface, weights config.ScoringWeights) *RankProvidersUseCase {
	return &RankProvidersUseCase{
		Candidates: candidates,
		Weights:    weights,
	}
}

type scoredCandidate struct {
	candidate entity.Candidate
	score     float64
}

func (uc *RankProvidersUseCase) Execute(ctx context.Context, lead *entity.Lead, limit int) ([]entity.Candidate, error) {
	category, err := uc.Candidates.FindCategory(ctx, lead.CategoryID)
	if err != nil {
		return nil, err
	}

	owner, err := uc.Candidates.FindOwnerIdentity(ctx, lead.OwnerID)
	if err != nil {
		return nil, err
	}

	candidates, err := uc.Candidates.FindEligible(ctx, lead)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	scored := make([]scoredCandidate, 0, len(candidates))

	for _, c := range candidates {
		if !c.IsAvailable || !c.HasCategory(lead.CategoryID) {
			continue
		}
		if !servesLocation(lead, c) {
			continue
		}
		if category != nil && category.RequiresLicense && !hasValidLicense(c, category.LicenseType, now) {
			continue
		}
		if isSelfAssignment(owner, c) {
			log.Printf("🚫 [RANKING] excluding provider %s from lead %s: matches the owner", c.ProviderID, lead.ID)
			continue
		}
		scored = append(scored, scoredCandidate{
			candidate: c,
			score:     finalScore(lead, c, uc.Weights),
		})
	}

	eps := uc.Weights.TieEpsilon
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if math.Abs(a.score-b.score) > eps {
			return a.score > b.score
		}
		if a.candidate.RatingCount != b.candidate.RatingCount {
			return a.candidate.RatingCount > b.candidate.RatingCount
		}
		return a.candidate.ProviderID < b.candidate.ProviderID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	result := make([]entity.Candidate, len(scored))
	for i, s := range scored {
		result[i] = s.candidate
	}
	return result, nil
}

// servesLocation accepts same-city providers, or ones whose configured
// service radius covers the lead when both sides carry coordinates.
func servesLocation(lead *entity.Lead, c entity.Candidate) bool {
	if c.City == lead.City {
		return true
	}
	if lead.Latitude == nil || lead.Longitude == nil || c.Latitude == nil || c.Longitude == nil {
		return false
	}
	if c.ServiceRadiusKm <= 0 {
		return false
	}
	dist := haversineKm(*lead.Latitude, *lead.Longitude, *c.Latitude, *c.Longitude)
	return dist <= c.ServiceRadiusKm
}

func hasValidLicense(c entity.Candidate, licenseType string, now time.Time) bool {
	for _, l := range c.Licenses {
		if l.Type == licenseType && l.ValidAt(now) {
			return true
		}
	}
	return false
}

// isSelfAssignment blocks candidates that are economically the same actor
// as the lead owner: same user id, same tax id or same email.
func isSelfAssignment(owner *entity.OwnerIdentity, c entity.Candidate) bool {
	if owner == nil {
		return false
	}
	if c.ProviderID == owner.UserID {
		return true
	}
	if owner.TaxID != "" && c.TaxID != "" && owner.TaxID == c.TaxID {
		return true
	}
	if owner.Email != "" && c.Email != "" && strings.EqualFold(owner.Email, c.Email) {
		return true
	}
	return false
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
