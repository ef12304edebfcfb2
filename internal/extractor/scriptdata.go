package extractor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/relay-service/internal/entity"
)

const scriptDataPrefix = "var data"

// scriptDataPattern captures the object body of `var data = {...};`.
// Non-greedy: the first "};" ends the match.
var scriptDataPattern = regexp.MustCompile(`(?is)var\s+data\s*=\s*\{(.+?)\};`)

// fromScriptData extracts the `content` field of the first inline script that
// starts with `var data`. When selector is set and matches inside that content,
// only the match is returned. Every failure to find content is a *entity.ParseError.
func fromScriptData(doc *goquery.Document, selector string) (*entity.ExtractionResult, error) {
	script, ok := findDataScript(doc)
	if !ok {
		return nil, &entity.ParseError{Reason: "no inline script starting with `var data`"}
	}

	content, err := parseScriptContent(script)
	if err != nil {
		return nil, err
	}

	if selector != "" {
		root, err := parseFragment(content)
		if err == nil {
			if selected, ok := innerHTML(root.Selection, selector); ok {
				return &entity.ExtractionResult{
					Content:      selected,
					UsedStrategy: entity.StrategyScriptData,
					UsedSelector: selector,
				}, nil
			}
		}
	}

	return &entity.ExtractionResult{
		Content:      content,
		UsedStrategy: entity.StrategyScriptData,
		UsedSelector: entity.NoSelector,
	}, nil
}

func findDataScript(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.HasPrefix(strings.TrimSpace(text), scriptDataPrefix) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

// parseScriptContent rebuilds the JSON object assigned to `data` and returns its content field.
func parseScriptContent(script string) (string, error) {
	m := scriptDataPattern.FindStringSubmatchIndex(script)
	if m == nil {
		return "", &entity.ParseError{Reason: "`var data` assignment not found"}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte("{"+script[m[2]:m[3]]+"}"), &obj); err != nil {
		// The lazy match stops at the first "};", which may sit inside a string
		// value. Decode from the opening brace instead and let the JSON grammar
		// find the end of the object.
		brace := strings.LastIndex(script[:m[2]], "{")
		dec := json.NewDecoder(strings.NewReader(script[brace:]))
		obj = nil
		if derr := dec.Decode(&obj); derr != nil {
			return "", &entity.ParseError{Reason: "script data is not valid JSON", Err: err}
		}
	}

	raw, ok := obj["content"]
	if !ok {
		return "", &entity.ParseError{Reason: "script data has no content field"}
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", &entity.ParseError{Reason: "script data content is not a string", Err: err}
	}
	if content == "" {
		return "", &entity.ParseError{Reason: "script data content is empty"}
	}
	return content, nil
}
