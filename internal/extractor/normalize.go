package extractor

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Normalize promotes lazy-loaded image sources: every <img> with a non-empty
// data-src gets that value as its src.
//
// Only the affected <img> tags are rewritten. Every other token is copied
// byte for byte, so misnested markup is never rebalanced and a second pass
// finds nothing left to change.
func Normalize(fragment string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var out bytes.Buffer
	out.Grow(len(fragment))

	changed := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			// A tag cut off by the end of input.
			out.Write(z.Raw())
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(z.Raw())
			continue
		}
		// Token lowercases names in the tokenizer's buffer, so keep the raw bytes first.
		raw := append([]byte(nil), z.Raw()...)
		tok := z.Token()
		if tok.DataAtom == atom.Img && promoteDataSrc(&tok) {
			out.WriteString(tok.String())
			changed = true
			continue
		}
		out.Write(raw)
	}

	if !changed {
		return fragment, nil
	}
	return out.String(), nil
}

// promoteDataSrc copies data-src into src and reports whether the tag changed.
func promoteDataSrc(tok *html.Token) bool {
	dataSrc := ""
	for _, a := range tok.Attr {
		if a.Key == "data-src" {
			dataSrc = a.Val
			break
		}
	}
	if dataSrc == "" {
		return false
	}

	changed, hasSrc := false, false
	for i := range tok.Attr {
		if tok.Attr[i].Key != "src" {
			continue
		}
		hasSrc = true
		if tok.Attr[i].Val != dataSrc {
			tok.Attr[i].Val = dataSrc
			changed = true
		}
	}
	if !hasSrc {
		tok.Attr = append(tok.Attr, html.Attribute{Key: "src", Val: dataSrc})
		changed = true
	}
	return changed
}

// parseFragment parses HTML in a <body> context and hangs the resulting nodes
// off a detached container, so head-only elements like <style> stay in place.
func parseFragment(fragment string) (*goquery.Document, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, err
	}
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(container), nil
}
