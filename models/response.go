package models

// ScrapeResult is the successful outcome of a dispatch.
type ScrapeResult struct {
	// Content is exactly one representation: raw markup, prettified
	// markup, or cleaned outline text. It may be empty when the upstream
	// body was empty.
	Content string

	// Strategy is the backend that produced Content.
	Strategy Strategy

	// URL is the normalized URL that was dispatched.
	URL string

	// Metadata is best-effort page information; zero when unavailable.
	Metadata Metadata
}

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success indicates whether the scrape completed without errors.
	Success bool `json:"success"`

	// URL is the normalized URL that was scraped.
	URL string `json:"url,omitempty"`

	// Strategy is the backend that handled the request.
	Strategy string `json:"strategy,omitempty"`

	// Content is the scraped representation.
	Content string `json:"content"`

	// Metadata contains extracted page metadata.
	Metadata Metadata `json:"metadata"`

	// Recorded reports whether the result was stored in the caller's history.
	Recorded bool `json:"recorded"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Metadata holds page-level information extracted during scraping.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Language    string `json:"language,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// DispatchMs is the time spent inside the dispatcher.
	DispatchMs int64 `json:"dispatch_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy"
	Uptime   string `json:"uptime"`
	Sessions int    `json:"browser_sessions"`
	Version  string `json:"version"`
}

// AuthResponse is the response for GET /api/v1/auth.
type AuthResponse struct {
	Success bool         `json:"success"`
	UserID  string       `json:"user_id,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}
