package model

// FetchedPage represents a page retrieved while collecting evidence.
type FetchedPage struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	StatusCode int    `json:"status_code"`
}
