package grid

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Header selectors for the results grid. The header row carries a marker
// class and sticks to the top of the scroll region while the body
// re-renders underneath it.
var (
	selHeaderCell  = cascadia.MustCompile("thead.mtx-sticky-top tr.singleLineTableHeader th")
	selHeaderLabel = cascadia.MustCompile("span")
)

// parseHeaders extracts the ordered column names from the table's header
// row. An inner label element's text is preferred over the cell's full text
// (the cell also contains sort arrows and filter glyphs).
func parseHeaders(tableHTML string) []string {
	doc, err := html.Parse(strings.NewReader(tableHTML))
	if err != nil {
		return nil
	}

	var headers []string
	for _, th := range cascadia.QueryAll(doc, selHeaderCell) {
		if label := cascadia.Query(th, selHeaderLabel); label != nil {
			headers = append(headers, nodeText(label))
		} else {
			headers = append(headers, nodeText(th))
		}
	}
	return headers
}

// nodeText returns the trimmed concatenated text content of n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
