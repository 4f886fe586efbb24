package models

import "time"

// HistoryDateLayout is the wire format of HistoryRecord.Date.
const HistoryDateLayout = "2006-01-02 15:04:05"

// HistoryEntry is one stored scrape result of an authenticated user.
type HistoryEntry struct {
	ID        string
	UserID    string
	URL       string
	Strategy  Strategy
	Content   string
	CreatedAt time.Time
}

// HistoryRecord is the API view of a HistoryEntry.
type HistoryRecord struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Strategy string `json:"strategy"`
	Content  string `json:"content"`
	Date     string `json:"date"`
}

// Record converts the entry to its API view.
func (e *HistoryEntry) Record() HistoryRecord {
	return HistoryRecord{
		ID:       e.ID,
		URL:      e.URL,
		Strategy: e.Strategy.String(),
		Content:  e.Content,
		Date:     e.CreatedAt.UTC().Format(HistoryDateLayout),
	}
}

// HistoryResponse is the response for GET /api/v1/history.
type HistoryResponse struct {
	Success bool            `json:"success"`
	Records []HistoryRecord `json:"records"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}
