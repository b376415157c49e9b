package domain

// RelevanceLevel is a coarse bucketing of the best retrieval similarity.
type RelevanceLevel string

const (
	// RelevanceNone means nothing meaningfully related was found.
	RelevanceNone RelevanceLevel = "none"
	// RelevanceLow means weakly related material was found.
	RelevanceLow RelevanceLevel = "low"
	// RelevanceMedium means related material was found.
	RelevanceMedium RelevanceLevel = "medium"
	// RelevanceHigh means closely related material was found.
	RelevanceHigh RelevanceLevel = "high"
)

// RetrievalResult is a single retrieved document scored against a query.
// Similarity lies in (0,1], computed as 1/(1+distance).
type RetrievalResult struct {
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Similarity float64  `json:"similarity"`
}

// RetrievalReport is the classified outcome of one retrieval.
// ResultsCount == len(Results); MaxSimilarity is 0 when Results is empty.
type RetrievalReport struct {
	Query          string            `json:"query"`
	Results        []RetrievalResult `json:"results"`
	MaxSimilarity  float64           `json:"max_similarity"`
	ResultsCount   int               `json:"results_count"`
	IsRelevant     bool              `json:"is_relevant"`
	RelevanceLevel RelevanceLevel    `json:"relevance_level"`
	Error          string            `json:"error,omitempty"`
}

// Best returns the highest-similarity result, if any.
func (r RetrievalReport) Best() (RetrievalResult, bool) {
	if len(r.Results) == 0 {
		return RetrievalResult{}, false
	}
	return r.Results[0], true
}

// Failed reports whether the retrieval degraded because of an index failure.
func (r RetrievalReport) Failed() bool { return r.Error != "" }

// EmptyReport returns the degraded report used when the index is unavailable.
func EmptyReport(query string, err error) RetrievalReport {
	rep := RetrievalReport{
		Query:          query,
		Results:        []RetrievalResult{},
		RelevanceLevel: RelevanceNone,
	}
	if err != nil {
		rep.Error = err.Error()
	}
	return rep
}
