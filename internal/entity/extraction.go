package entity

import "fmt"

// DefaultSelector is the container most editor preview pages render the article into.
const DefaultSelector = "#fullpage"

// Mode selects which strategies the extractor may try.
type Mode string

const (
	ModeSelector   Mode = "selector"
	ModeScriptData Mode = "script-data"
	ModeAuto       Mode = "auto"
)

// ParseMode maps the wire value to a Mode. An empty value means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeAuto, nil
	case ModeSelector, ModeScriptData, ModeAuto:
		return Mode(s), nil
	}
	return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unsupported extraction type %q", s)}
}

// Strategy records which strategy produced an ExtractionResult.
type Strategy string

const (
	StrategyScriptData Strategy = "script-data"
	StrategySelector   Strategy = "selector"
)

// NoSelector is reported as the used selector when the whole script-data fragment was returned.
const NoSelector = "none"

// ExtractionRequest is the input of a single extraction call.
type ExtractionRequest struct {
	URL      string `json:"url"`
	Selector string `json:"selector"`
	Mode     Mode   `json:"type"`
}

// ExtractionResult holds the best fragment recovered from a page.
// Content is never empty for a successful extraction.
type ExtractionResult struct {
	Content      string   `json:"content"`
	SourceURL    string   `json:"source"`
	UsedStrategy Strategy `json:"usedSource"`
	UsedSelector string   `json:"usedSelector"`
}

// FetchedPage is the raw response of the fetcher.
type FetchedPage struct {
	URL           string
	Body          string
	StatusCode    int
	ContentLength int64
}
