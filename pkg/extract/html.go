package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/dtnitsch/imagesync/internal/common"
	"github.com/dtnitsch/imagesync/models"
)

// HTML scans an HTML document for img tags with remote sources.
//
// The document is first run through readability to narrow the scan to the
// article body, which keeps navigation chrome and tracking pixels out of
// the reference set. When readability finds no article, or the article
// contains no usable images, the whole document is scanned instead.
// Reference names come from the img alt attribute (sanitized), falling
// back to a positional img-N name.
func HTML(docPath string, html string) ([]models.Reference, error) {
	parser := readability.NewParser()
	if article, err := parser.Parse(strings.NewReader(html), &url.URL{Scheme: "file", Path: docPath}); err == nil && article.Content != "" {
		refs, err := scanImgs(article.Content)
		if err == nil && len(refs) > 0 {
			return refs, nil
		}
	}
	return scanImgs(html)
}

// scanImgs collects remote img references from an HTML fragment in
// document order.
func scanImgs(html string) ([]models.Reference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var refs []models.Reference
	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || !common.IsHTTPURL(src) {
			return
		}

		name := common.SanitizeName(sel.AttrOr("alt", ""))
		if name == "" {
			name = fmt.Sprintf("img-%d", i+1)
		}
		refs = append(refs, models.Reference{Name: name, URL: src})
	})
	return refs, nil
}
