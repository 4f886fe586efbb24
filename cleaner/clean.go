package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// UntitledPlaceholder is the heading used when the document has no title.
const UntitledPlaceholder = "Untitled"

// nonContent matches the nodes stripped before text extraction.
var nonContent = cascadia.MustCompile("script, style, meta, noscript, iframe, svg, form, a")

// Clean strips non-content nodes from rawMarkup and renders the remaining
// visible text as an outline:
//
//	# <title>
//
//	- <text>
//
// The bullet is omitted when no text remains. Input that is not HTML at
// all degrades to the placeholder heading; Clean never fails.
func Clean(rawMarkup string) string {
	title, segments := extract(rawMarkup)

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n")
	for _, seg := range segments {
		b.WriteString("- ")
		b.WriteString(seg)
		b.WriteByte('\n')
	}
	return b.String()
}

// extract returns the document title and its non-empty text segments.
func extract(rawMarkup string) (string, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		return UntitledPlaceholder, nil
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = UntitledPlaceholder
	}

	// The document is private to this call, so removal is safe.
	doc.FindMatcher(nonContent).Remove()

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	text := collapseWhitespace(strings.Join(parts, " "))
	if text == "" {
		return title, nil
	}
	return title, []string{text}
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// collapseWhitespace replaces every whitespace run with one space and trims
// both ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
