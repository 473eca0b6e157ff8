package usecase

import (
	"github.com/uslugar/lead-exchange/internal/config"
	"github.com/uslugar/lead-exchange/internal/entity"
)

// categoryMatchScore is 1.0 on an exact category match, 0 otherwise.
// Could be extended with a category hierarchy or fuzzy matching.
func categoryMatchScore(categoryID string, categories []string) float64 {
	for _, id := range categories {
		if id == categoryID {
			return 1.0
		}
	}
	return 0
}

// reputationScore blends rating, response time and conversion rate into
// a single 0-1 figure: 40% rating, 30% response time, 30% conversion.
func reputationScore(c entity.Candidate) float64 {
	ratingScore := c.Rating / 5.0

	var responseTimeScore float64
	switch {
	case c.AvgResponseTimeMinutes <= 0:
		responseTimeScore = 0.5 // no data yet, assume middling
	case c.AvgResponseTimeMinutes <= 60:
		responseTimeScore = 1.0
	case c.AvgResponseTimeMinutes <= 240:
		responseTimeScore = 0.5
	default:
		responseTimeScore = 0.1
	}

	conversionScore := c.ConversionRate / 100

	return ratingScore*0.4 + responseTimeScore*0.3 + conversionScore*0.3
}

// combinedMatchScore picks the reputation source once per candidate:
// a plain provider is scored on its own category fit, a director with a
// matching team blends the team's fit with the company's before meeting
// reputation halfway.
func combinedMatchScore(lead *entity.Lead, c entity.Candidate, w config.ScoringWeights) float64 {
	rep := reputationScore(c)
	companyMatch := categoryMatchScore(lead.CategoryID, c.CategoryIDs)

	if c.IsDirector {
		teamMatch := categoryMatchScore(lead.CategoryID, c.TeamCategoryIDs)
		if teamMatch > 0 {
			blend := teamMatch*w.TeamWeight + companyMatch*w.CompanyWeight
			return blend*w.FinalMatchShare + rep*w.FinalRepShare
		}
	}

	return companyMatch*w.CategoryWeight + rep*w.ReputationWeight
}

// finalScore is the ranking key: half combined match, half reputation.
func finalScore(lead *entity.Lead, c entity.Candidate, w config.ScoringWeights) float64 {
	return combinedMatchScore(lead, c, w)*w.FinalMatchShare + reputationScore(c)*w.FinalRepShare
}
