package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Attachment is one annex download link discovered on the tender sheet.
type Attachment struct {
	Name string
	URL  string
}

// Extraction holds the raw fields read from a rendered tender page. Every
// field is optional at this level; the ingestor decides what is required.
// Values keep the source formatting verbatim (amounts stay "$ 1.234.567",
// dates stay however the portal prints them).
type Extraction struct {
	Number      string
	Name        string
	Status      string
	ClosingDate string
	Entity      string
	Amount      string
	Documents   []Attachment
}

// Mercado Publico has shipped two sheet layouts since 2024 and pages can mix
// markup from both. Each field carries its own ordered candidate list, newest
// layout first, so a third generation is a data change here rather than new
// code.
var (
	numberSelectors      = []string{"p.licitacion-id", "#lblNumLicitacion"}
	nameSelectors        = []string{"h1.nombre-licitacion", "#lblNombreLicitacion"}
	statusSelectors      = []string{"span.estado-licitacion", "#lblEstado"}
	closingDateSelectors = []string{"span.fecha-cierre", "#lblFechaCierre"}
	entitySelectors      = []string{"a.nombre-organismo", "a#ctl00_lblEntidad"}
)

// annexMarker identifies hrefs that are annex downloads; everything else on
// the listing rows (sort links, pagination) is discarded.
const annexMarker = "idAnexo"

var documentSelector = strings.Join([]string{
	"#grvAnexos tbody tr",    // legacy annex table
	"#adjuntos-licitacion a", // current layout
	".adjuntos-wrap a",       // current layout, modal variant
}, ", ")

// amountLabelPrefix is the portal's label for the estimated amount. The
// comparison is against lowercased text so casing drift doesn't matter.
const amountLabelPrefix = "monto estimado"

// Extract reads the tender fields and annex links out of rendered HTML. It is
// a pure function of the document: no network, no browser. A page matching
// none of the selectors yields a zero-value extraction and no error.
func Extract(pageHTML, pageURL string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	return &Extraction{
		Number:      firstMatch(doc, numberSelectors),
		Name:        firstMatch(doc, nameSelectors),
		Status:      firstMatch(doc, statusSelectors),
		ClosingDate: firstMatch(doc, closingDateSelectors),
		Entity:      firstMatch(doc, entitySelectors),
		Amount:      extractAmount(doc),
		Documents:   extractDocuments(doc, base),
	}, nil
}

// firstMatch returns the first candidate selector's non-empty trimmed text.
func firstMatch(doc *goquery.Document, candidates []string) string {
	for _, sel := range candidates {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractAmount looks for a bold label starting with "monto estimado" and
// reads the nearest following text sibling. The amount never appears in its
// own selectable element, hence the heuristic. Missing label or value is not
// an error, the amount is simply absent.
func extractAmount(doc *goquery.Document) string {
	var amount string
	doc.Find("strong, b").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(s.Text()))
		if !strings.HasPrefix(label, amountLabelPrefix) {
			return true
		}
		for node := s.Nodes[0].NextSibling; node != nil; node = node.NextSibling {
			if node.Type == html.TextNode {
				amount = strings.TrimSpace(node.Data)
				break
			}
		}
		return false
	})
	return amount
}

// extractDocuments scans the annex listing patterns of both layouts. Table
// rows resolve to their first anchor; bare anchors are used directly. Only
// links carrying the annex marker survive. Relative hrefs are resolved
// against the page URL since a parsed document, unlike a live DOM, does not
// absolutize them.
func extractDocuments(doc *goquery.Document, base *url.URL) []Attachment {
	var docs []Attachment

	doc.Find(documentSelector).Each(func(_ int, s *goquery.Selection) {
		link := s
		if goquery.NodeName(s) != "a" {
			link = s.Find("a").First()
		}

		href, ok := link.Attr("href")
		if !ok || !strings.Contains(href, annexMarker) {
			return
		}

		absolute := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				absolute = base.ResolveReference(ref).String()
			}
		}

		docs = append(docs, Attachment{
			Name: strings.TrimSpace(link.Text()),
			URL:  absolute,
		})
	})

	return docs
}
