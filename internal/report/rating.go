package report

import "github.com/avelines/a11yscan/internal/model"

// ComplianceRating grades how compliant a page is. Low compliance is the
// worst outcome (many or severe violations) and High the best. Earlier
// iterations of this product labeled the same thresholds as "risk", where
// "Low" confusingly meant highest risk; the thresholds are unchanged,
// only the axis is named for what it measures.
type ComplianceRating string

const (
	RatingLow    ComplianceRating = "Low"
	RatingMedium ComplianceRating = "Medium"
	RatingHigh   ComplianceRating = "High"
)

// ComputeRating classifies a violation set. It is a pure function of the
// violation counts:
//
//	Low:    any critical or serious violation, or more than 10 total
//	Medium: more than 5 moderate violations, or more than 5 total
//	High:   everything else
func ComputeRating(violations []model.Violation) ComplianceRating {
	total := len(violations)
	var criticalOrSerious, moderate int
	for _, v := range violations {
		switch v.Impact.Normalize() {
		case model.ImpactCritical, model.ImpactSerious:
			criticalOrSerious++
		case model.ImpactModerate:
			moderate++
		}
	}

	if criticalOrSerious > 0 || total > 10 {
		return RatingLow
	}
	if moderate > 5 || total > 5 {
		return RatingMedium
	}
	return RatingHigh
}

// countByImpact tallies violations per normalized impact class.
func countByImpact(violations []model.Violation) map[model.Impact]int {
	counts := make(map[model.Impact]int, len(model.ImpactOrder))
	for _, v := range violations {
		counts[v.Impact.Normalize()]++
	}
	return counts
}

// groupByImpact splits violations into presentation groups. Within one
// group the stable input order is preserved.
func groupByImpact(violations []model.Violation) map[model.Impact][]model.Violation {
	groups := make(map[model.Impact][]model.Violation)
	for _, v := range violations {
		impact := v.Impact.Normalize()
		groups[impact] = append(groups[impact], v)
	}
	return groups
}

// capNodes bounds an example list for presentation, returning the shown
// prefix and how many were omitted.
func capNodes(nodes []model.NodeRef, max int) (shown []model.NodeRef, more int) {
	if len(nodes) <= max {
		return nodes, 0
	}
	return nodes[:max], len(nodes) - max
}
