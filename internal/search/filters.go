package search

// FilterFunc checks if a search result matches filter criteria.
type FilterFunc func(result Result) bool

// ApplyFilters filters results based on search options.
// Filters use AND logic - results must match all specified criteria.
func ApplyFilters(results []Result, opts Options) []Result {
	filters := buildFilters(opts)
	if len(filters) == 0 {
		return results
	}

	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if matchesAllFilters(r, filters) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func buildFilters(opts Options) []FilterFunc {
	var filters []FilterFunc

	if len(opts.Domains) > 0 {
		filters = append(filters, domainFilter(opts.Domains))
	}
	if len(opts.MatchTypes) > 0 {
		filters = append(filters, matchTypeFilter(opts.MatchTypes))
	}
	if opts.MinScore > 0 {
		minScore := opts.MinScore
		filters = append(filters, func(r Result) bool { return r.Score >= minScore })
	}

	return filters
}

func matchesAllFilters(result Result, filters []FilterFunc) bool {
	for _, f := range filters {
		if !f(result) {
			return false
		}
	}
	return true
}

func domainFilter(domains []string) FilterFunc {
	allowed := make(map[string]bool, len(domains))
	for _, d := range domains {
		allowed[d] = true
	}
	return func(r Result) bool {
		return allowed[r.Domain]
	}
}

func matchTypeFilter(types []MatchType) FilterFunc {
	allowed := make(map[MatchType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(r Result) bool {
		return allowed[r.MatchType]
	}
}
