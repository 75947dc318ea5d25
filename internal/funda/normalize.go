// Package funda extracts floor-plan and listing data from funda.nl pages.
// Everything in this package operates on raw page text and performs no I/O.
package funda

import (
	"regexp"
	"strings"
)

// floorplanPath marks the media sub-page that embeds the floor-plan viewer.
const floorplanPath = "/media/plattegrond/"

// detailRootPattern matches the root of a listing detail page, e.g.
// https://www.funda.nl/detail/koop/amsterdam/appartement-prinsengracht-263/43210987
var detailRootPattern = regexp.MustCompile(`(?i)^https?://(www\.)?funda\.nl/detail/.+/(\d+)/?`)

// NormalizeListingURL rewrites a listing URL to its floor-plan media page.
// URLs that already point at a floor-plan page pass through unchanged, detail
// page roots get the first media page appended, and anything else is returned
// as-is. The result is stable under repeated normalization.
func NormalizeListingURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.Contains(u, floorplanPath) {
		return u
	}
	if detailRootPattern.MatchString(u) {
		return u + floorplanPath + "1"
	}
	return u
}
