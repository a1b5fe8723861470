package wordpress

var (
	unitTestsRecommendation = Recommendation{
		Type:        "unit_tests",
		Description: "Create unit tests for individual functions and methods",
		Priority:    PriorityHigh,
	}
	integrationTestsRecommendation = Recommendation{
		Type:        "integration_tests",
		Description: "Test WordPress hooks and filters integration",
		Priority:    PriorityMedium,
	}
	ajaxTestsRecommendation = Recommendation{
		Type:        "ajax_tests",
		Description: "Test AJAX handlers for authenticated and unauthenticated requests",
		Priority:    PriorityHigh,
	}
	restTestsRecommendation = Recommendation{
		Type:        "rest_api_tests",
		Description: "Test REST API endpoints, their permissions and responses",
		Priority:    PriorityHigh,
	}
	databaseTestsRecommendation = Recommendation{
		Type:        "database_tests",
		Description: "Test database operations and data persistence",
		Priority:    PriorityMedium,
	}
)

// baselineRecommendations are emitted for every analyzed unit
func baselineRecommendations() []Recommendation {
	return []Recommendation{unitTestsRecommendation, integrationTestsRecommendation}
}

// recommendationsFor adds the targeted recommendations to the baseline
func recommendationsFor(hasAjax, hasRest, hasDatabase bool) []Recommendation {
	recs := baselineRecommendations()
	if hasAjax {
		recs = append(recs, ajaxTestsRecommendation)
	}
	if hasRest {
		recs = append(recs, restTestsRecommendation)
	}
	if hasDatabase {
		recs = append(recs, databaseTestsRecommendation)
	}
	return recs
}

// mergeRecommendations appends the recommendations of src whose type is not
// in dst yet, keeping first-seen order.
func mergeRecommendations(dst, src []Recommendation) []Recommendation {
	seen := make(map[string]struct{}, len(dst))
	for _, rec := range dst {
		seen[rec.Type] = struct{}{}
	}
	for _, rec := range src {
		if _, ok := seen[rec.Type]; ok {
			continue
		}
		seen[rec.Type] = struct{}{}
		dst = append(dst, rec)
	}
	return dst
}
