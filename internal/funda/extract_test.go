package funda_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattori/backend/internal/funda"
)

func nuxtPage(array string) string {
	return `<!DOCTYPE html><html><head><title>Woning te koop | funda</title></head><body>
<div id="app"></div>
<script type="application/json" id="__NUXT_DATA__" data-ssr="true">` + array + `</script>
</body></html>`
}

func TestExtractProjectIDNuxtData(t *testing.T) {
	testCases := []struct {
		name   string
		array  string
		wantID string
		wantOK bool
	}{
		{
			name:   "string identifier at index",
			array:  `[{"projectId":3},"noise",42,"7352881"]`,
			wantID: "7352881",
			wantOK: true,
		},
		{
			name:   "integer identifier at index",
			array:  `[{"projectId":2},0,7352881]`,
			wantID: "7352881",
			wantOK: true,
		},
		{
			name:   "six digit minimum accepted",
			array:  `[{"projectId":1},"123456"]`,
			wantID: "123456",
			wantOK: true,
		},
		{
			name:   "five digits rejected",
			array:  `[{"projectId":1},"12345"]`,
			wantOK: false,
		},
		{
			name:   "fractional number rejected",
			array:  `[{"projectId":1},7352881.0]`,
			wantOK: false,
		},
		{
			name:   "index out of bounds",
			array:  `[{"projectId":99},1,2]`,
			wantOK: false,
		},
		{
			name:   "object at index rejected",
			array:  `[{"projectId":0}]`,
			wantOK: false,
		},
		{
			name:   "non numeric string rejected",
			array:  `[{"projectId":1},"abc7352881"]`,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, matcher, ok := funda.ExtractProjectID(nuxtPage(tc.array))
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantID, id)
				assert.Equal(t, "nuxt-data", matcher)
			}
		})
	}
}

func TestExtractProjectIDInlineParam(t *testing.T) {
	testCases := []struct {
		name   string
		html   string
		wantID string
		wantOK bool
	}{
		{
			name:   "query parameter form",
			html:   `<iframe src="https://embed.example.com/viewer?projectId=9876543&mode=2d"></iframe>`,
			wantID: "9876543",
			wantOK: true,
		},
		{
			name:   "javascript object form",
			html:   `<script>var cfg = {projectId:7352881, units: "metric"};</script>`,
			wantID: "7352881",
			wantOK: true,
		},
		{
			name:   "five digits rejected",
			html:   `<script>var cfg = {projectId:73528};</script>`,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, matcher, ok := funda.ExtractProjectID(tc.html)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantID, id)
				assert.Equal(t, "inline-param", matcher)
			}
		})
	}
}

func TestExtractProjectIDAssetURL(t *testing.T) {
	html := `<a href="https://fmlpub.s3-eu-west-1.amazonaws.com/floorplans/7352881.fml">download</a>`

	id, matcher, ok := funda.ExtractProjectID(html)
	require.True(t, ok)
	assert.Equal(t, "7352881", id)
	assert.Equal(t, "asset-url", matcher)
}

func TestExtractProjectIDMatcherOrder(t *testing.T) {
	// All three variants on one page: the embedded data wins.
	html := nuxtPage(`[{"projectId":1},"1111111"]`) +
		`<script>var cfg = {projectId:2222222};</script>` +
		`<a href="https://fmlpub.s3-eu-west-1.amazonaws.com/3333333.fml">x</a>`

	id, matcher, ok := funda.ExtractProjectID(html)
	require.True(t, ok)
	assert.Equal(t, "1111111", id)
	assert.Equal(t, "nuxt-data", matcher)
}

func TestExtractProjectIDFallsThroughBrokenEmbeddedData(t *testing.T) {
	// The embedded array is unparseable; later matchers still get a chance.
	html := nuxtPage(`[{"projectId":1},,]`) +
		`<img src="https://fmlpub.s3-eu-west-1.amazonaws.com/a/b/7352881.fml">`

	id, matcher, ok := funda.ExtractProjectID(html)
	require.True(t, ok)
	assert.Equal(t, "7352881", id)
	assert.Equal(t, "asset-url", matcher)
}

func TestExtractProjectIDNoMatch(t *testing.T) {
	testCases := []struct {
		name string
		html string
	}{
		{"empty page", ""},
		{"page without identifiers", `<html><body><p>Geen plattegrond hier</p></body></html>`},
		{"short digits everywhere", `<script>projectId=12345</script><a href="https://fmlpub.s3.amazonaws.com/12345.fml">x</a>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ok := funda.ExtractProjectID(tc.html)
			assert.False(t, ok)
		})
	}
}
