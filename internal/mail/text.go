package mail

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText derives a plain-text alternative from an HTML body so every
// templated message carries both parts. Styling and head content are
// skipped; block boundaries become newlines.
func HTMLToText(htmlBody string) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	collectText(doc, &sb)

	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "style", "script", "head":
			return
		}
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "h1", "h2", "h3", "td", "tr", "div", "br":
			sb.WriteString("\n")
		}
	}
}
