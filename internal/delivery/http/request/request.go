package request

// ScrapeRequest is the body of POST /api/scrape. GET takes the same fields as query parameters.
type ScrapeRequest struct {
	URL      string `json:"url"`
	Selector string `json:"selector"`
	Type     string `json:"type"` // "selector", "script-data" or "auto"
}

// SaveRequest is the body of POST /api/save/{channel}.
type SaveRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	TargetAccountID string `json:"targetAccountId"`
	ToUser          string `json:"to_user"` // older clients of the 96 editor send this
}

// CheckSessionRequest optionally supplies the cookie to check instead of the cached one.
type CheckSessionRequest struct {
	Cookie string `json:"cookie"`
}

// TransferRequest is the body of POST /api/template/transfer.
type TransferRequest struct {
	ID      string `json:"id"`
	Creator string `json:"creator"`
}
