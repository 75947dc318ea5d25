package funda

import (
	"regexp"
	"strings"
)

var titlePattern = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

// captchaMarker appears on the interstitial funda serves instead of the
// listing when it suspects automated traffic.
const captchaMarker = "Je bent bijna op de pagina die je zoekt"

// ExtractSaleStatus reads the sale status from the page <title>. The checks
// run longest phrase first: "verkocht onder voorbehoud" contains "verkocht",
// so reordering them would misreport conditional sales.
func ExtractSaleStatus(html string) (string, bool) {
	m := titlePattern.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	title := strings.ToLower(m[1])
	switch {
	case strings.Contains(title, "verkocht onder voorbehoud"):
		return "Verkocht onder voorbehoud", true
	case strings.Contains(title, "verkocht"):
		return "Verkocht", true
	case strings.Contains(title, "te koop"):
		return "Te koop", true
	case strings.Contains(title, "te huur"):
		return "Te huur", true
	}
	return "", false
}

// IsCaptcha reports whether the fetched page is the anti-bot interstitial
// rather than listing content.
func IsCaptcha(html string) bool {
	return strings.Contains(html, captchaMarker)
}
