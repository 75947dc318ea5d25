package funda

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ListingMeta is a best-effort summary of the listing for display next to
// the floor plan. Either field may be empty.
type ListingMeta struct {
	Address string `json:"address,omitempty"`
	Image   string `json:"image,omitempty"`
}

func (m ListingMeta) IsEmpty() bool {
	return m.Address == "" && m.Image == ""
}

// ExtractListingMeta reads the OpenGraph tags from page HTML. Funda titles
// look like "Prinsengracht 263 1016 GZ Amsterdam | Appartement te koop";
// the address is the segment before the first separator.
func ExtractListingMeta(html string) ListingMeta {
	var meta ListingMeta
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return meta
	}
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		address, _, _ := strings.Cut(title, "|")
		meta.Address = strings.TrimSpace(address)
	}
	if image, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		meta.Image = strings.TrimSpace(image)
	}
	return meta
}

// AddressFromURL recovers a readable address from the street slug in a
// detail URL, for listings whose pages carried no OpenGraph title. Trailing
// numeric identifiers and media segments are skipped.
func AddressFromURL(rawURL string) string {
	parts := strings.Split(strings.TrimSpace(rawURL), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.TrimSpace(parts[i])
		if p == "" || isDigits(p) {
			continue
		}
		if p == "media" || p == "plattegrond" {
			continue
		}
		if strings.Contains(p, ".") || strings.Contains(p, ":") {
			// Reached the host or scheme without finding a slug.
			return ""
		}
		p = strings.ReplaceAll(p, "-", " ")
		p = strings.ReplaceAll(p, "_", " ")
		return cases.Title(language.Und).String(p)
	}
	return ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
