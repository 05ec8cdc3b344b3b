package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/scorecard/models"
	"golang.org/x/net/html"
)

var markerSelector = cascadia.MustCompile(models.MarkerSelector)

// Extract locates the embedded-data script in doc and decodes its text as
// JSON. Numbers are kept as json.Number so the normalizer can read them
// as either integers or decimal text.
func Extract(doc models.RawDocument) (any, error) {
	root, err := html.Parse(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, &models.ExtractionError{Reason: models.ExtractionMarkerNotFound, Err: err}
	}

	node := cascadia.Query(root, markerSelector)
	if node == nil {
		return nil, &models.ExtractionError{
			Reason:    models.ExtractionMarkerNotFound,
			Diagnosis: string(diagnoseNode(root)),
		}
	}

	payload, err := decode(textContent(node))
	if err != nil {
		return nil, &models.ExtractionError{Reason: models.ExtractionMalformedJSON, Err: err}
	}
	return payload, nil
}

func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", models.MarkerID, err)
	}
	if dec.More() {
		return nil, errors.New("decode " + models.MarkerID + ": trailing data after JSON value")
	}
	return v, nil
}

// textContent concatenates the text children of n. Script bodies parse as
// a single raw text node, but be tolerant of more.
func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// visibleText returns the body text with script, style and noscript
// content removed, lowercased and whitespace-collapsed.
func visibleText(root *html.Node) string {
	doc := goquery.NewDocumentFromNode(root)
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.ToLower(strings.Join(strings.Fields(body.Text()), " "))
}
