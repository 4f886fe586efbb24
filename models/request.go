package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page. Required. A bare "www." host is rewritten
	// to an https:// URL before dispatch.
	URL string `json:"url"`

	// Strategy selects the backend: "plain", "parsed" or "browser".
	// The legacy names "requests", "bs4" and "selenium" are also accepted.
	Strategy string `json:"strategy,omitempty"`

	// ScrapingMethod is the legacy field name for Strategy.
	ScrapingMethod string `json:"scraping_method,omitempty"`

	// Clean returns the readable outline instead of prettified markup.
	// Ignored by the "plain" strategy.
	Clean bool `json:"clean,omitempty"`

	// TargetLabel is the search term typed into the page by the "browser"
	// strategy. Required (and only used) for that strategy.
	TargetLabel string `json:"target_label,omitempty"`
}

// StrategyName returns the requested strategy, falling back to the
// legacy field when the new one is empty.
func (r *ScrapeRequest) StrategyName() string {
	if r.Strategy != "" {
		return r.Strategy
	}
	return r.ScrapingMethod
}

// Job is the validated, normalized form of a ScrapeRequest handed to a
// backend. It never leaves the process.
type Job struct {
	URL         string
	Strategy    Strategy
	Clean       bool
	TargetLabel string
}
