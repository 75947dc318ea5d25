package funda

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// minIDDigits is the shortest digit run accepted as a floor-plan project
// identifier. Shorter runs are index values or other page noise.
const minIDDigits = 6

var (
	projectIDIndexPattern = regexp.MustCompile(`"projectId"\s*:\s*(\d+)`)
	nuxtDataPattern       = regexp.MustCompile(`(?s)id="__NUXT_DATA__"[^>]*>\s*(\[.+?\])\s*</script>`)
	inlineParamPattern    = regexp.MustCompile(fmt.Sprintf(`projectId[=:](\d{%d,})`, minIDDigits))
	assetURLPattern       = regexp.MustCompile(fmt.Sprintf(`fmlpub\.s3[^"]*?/(\d{%d,})\.fml`, minIDDigits))
)

// A projectIDMatcher tries one known page variant. Matchers never fail: a
// page that does not carry the variant simply yields no match.
type projectIDMatcher struct {
	name  string
	match func(html string) (string, bool)
}

// projectIDMatchers are tried in order; the first hit wins. New page variants
// slot in here without touching the existing matchers.
var projectIDMatchers = []projectIDMatcher{
	{"nuxt-data", matchNuxtData},
	{"inline-param", matchInlineParam},
	{"asset-url", matchAssetURL},
}

// ExtractProjectID recovers the numeric floor-plan project identifier from
// raw page HTML. The returned matcher name identifies which page variant
// produced the hit. A page without any identifier returns ok == false; that
// is an expected outcome for listings without a published floor plan.
func ExtractProjectID(html string) (id, matcher string, ok bool) {
	for _, m := range projectIDMatchers {
		if id, ok := m.match(html); ok {
			return id, m.name, true
		}
	}
	return "", "", false
}

// matchNuxtData resolves the two-step indirection in server-rendered pages:
// a "projectId" entry holds an index into the embedded __NUXT_DATA__ array,
// and the element at that index holds the identifier itself.
func matchNuxtData(html string) (string, bool) {
	im := projectIDIndexPattern.FindStringSubmatch(html)
	if im == nil {
		return "", false
	}
	idx, err := strconv.Atoi(im[1])
	if err != nil {
		return "", false
	}

	nm := nuxtDataPattern.FindStringSubmatch(html)
	if nm == nil {
		return "", false
	}

	dec := json.NewDecoder(strings.NewReader(nm[1]))
	dec.UseNumber()
	var data []any
	if err := dec.Decode(&data); err != nil {
		return "", false
	}
	if idx >= len(data) {
		return "", false
	}

	// Only strings and whole numbers qualify; fractional values are layout
	// data that happens to share the slot shape.
	switch v := data[idx].(type) {
	case string:
		if isProjectID(v) {
			return v, true
		}
	case json.Number:
		if isProjectID(v.String()) {
			return v.String(), true
		}
	}
	return "", false
}

func matchInlineParam(html string) (string, bool) {
	if m := inlineParamPattern.FindStringSubmatch(html); m != nil {
		return m[1], true
	}
	return "", false
}

func matchAssetURL(html string) (string, bool) {
	if m := assetURLPattern.FindStringSubmatch(html); m != nil {
		return m[1], true
	}
	return "", false
}

func isProjectID(s string) bool {
	if len(s) < minIDDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
