// Package extractor recovers an article fragment from raw page HTML.
//
// Pages built with the supported editors usually embed the canonical article
// as a JSON literal assigned to a global `data` variable. That source is tried
// first; the CSS selector is the fallback.
package extractor

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/user/relay-service/internal/entity"
)

// Extract runs the fallback chain selected by mode over a full HTML document.
// The returned result has no SourceURL; callers fill it in.
func Extract(html, selector string, mode entity.Mode) (*entity.ExtractionResult, error) {
	if selector != "" {
		if _, err := cascadia.Compile(selector); err != nil {
			return nil, &entity.ValidationError{Field: "selector", Message: "invalid selector: " + err.Error()}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &entity.ParseError{Reason: "failed to parse HTML", Err: err}
	}

	switch mode {
	case entity.ModeSelector:
		if selector == "" {
			return nil, &entity.ValidationError{Field: "selector", Message: "selector is required in selector mode"}
		}
		return fromSelector(doc, selector, mode)

	case entity.ModeScriptData:
		res, err := fromScriptData(doc, selector)
		if err != nil {
			var parseErr *entity.ParseError
			if errors.As(err, &parseErr) {
				return nil, &entity.NotFoundError{
					Selector: selector,
					Mode:     mode,
					Message:  "no `var data` script found, or its content could not be extracted: " + parseErr.Error(),
				}
			}
			return nil, err
		}
		return res, nil

	case entity.ModeAuto, "":
		res, err := fromScriptData(doc, selector)
		if err == nil {
			return res, nil
		}
		var parseErr *entity.ParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}
		if selector == "" {
			return nil, &entity.NotFoundError{Mode: entity.ModeAuto, Message: "no script data found and no selector given"}
		}
		if res, err := fromSelector(doc, selector, entity.ModeAuto); err == nil {
			return res, nil
		}
		return nil, &entity.NotFoundError{
			Selector: selector,
			Mode:     entity.ModeAuto,
			Message:  "content could not be extracted from script data or selector " + selector,
		}
	}

	return nil, &entity.ValidationError{Field: "type", Message: "unsupported extraction type " + string(mode)}
}

func fromSelector(doc *goquery.Document, selector string, mode entity.Mode) (*entity.ExtractionResult, error) {
	content, ok := innerHTML(doc.Selection, selector)
	if !ok {
		return nil, &entity.NotFoundError{
			Selector: selector,
			Mode:     mode,
			Message:  "selector " + selector + " matched no content",
		}
	}
	return &entity.ExtractionResult{
		Content:      content,
		UsedStrategy: entity.StrategySelector,
		UsedSelector: selector,
	}, nil
}

// innerHTML returns the inner HTML of the first match of selector under sel.
func innerHTML(sel *goquery.Selection, selector string) (string, bool) {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return "", false
	}
	content, err := match.Html()
	if err != nil || strings.TrimSpace(content) == "" {
		return "", false
	}
	return content, true
}
