package mail_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattori/backend/internal/mail"
)

func TestTemplateRegistryNames(t *testing.T) {
	for _, name := range []string{"sample", "contact", "verzending"} {
		_, ok := mail.Templates[name]
		assert.True(t, ok, "missing template %q", name)
	}
	assert.Len(t, mail.Templates, 3)
}

func TestSampleTemplateIncludesRequestDetails(t *testing.T) {
	tpl := mail.Templates["sample"]
	d := mail.TemplateData{
		"naam":       "Vince",
		"bedrijf":    "Makelaardij Noord",
		"email":      "klant@example.com",
		"funda_link": "https://www.funda.nl/detail/koop/amsterdam/huis-1/12345678",
		"adres":      "Prinsengracht 263, Amsterdam",
	}

	body := tpl.HTML(d)
	assert.Contains(t, body, "Goed nieuws, Vince")
	assert.Contains(t, body, "Makelaardij Noord")
	assert.Contains(t, body, "Prinsengracht 263, Amsterdam")
	// Absent optional fields fall back to a dash.
	assert.Contains(t, body, ">-</td>")

	assert.Equal(t, "Je Mattori Frame³ sample aanvraag is ontvangen", tpl.Subject(d))
}

func TestContactSubjectInterpolatesName(t *testing.T) {
	tpl := mail.Templates["contact"]
	subject := tpl.Subject(mail.TemplateData{"naam": "Sanne"})
	assert.Equal(t, "Fijn dat je contact opneemt, Sanne", subject)
}

func TestVerzendingTemplateIncludesTrackingLink(t *testing.T) {
	tpl := mail.Templates["verzending"]
	body := tpl.HTML(mail.TemplateData{
		"naam":          "Vince",
		"adres":         "Keizersgracht 1",
		"tracking_link": "https://postnl.nl/tracktrace/3SXYZ",
	})
	assert.Contains(t, body, `href="https://postnl.nl/tracktrace/3SXYZ"`)
	assert.Equal(t, "Je Mattori Frame³ sample is onderweg!", tpl.Subject(nil))
}

func TestTemplatesEscapeCallerData(t *testing.T) {
	tpl := mail.Templates["sample"]
	body := tpl.HTML(mail.TemplateData{
		"naam":  `<script>alert("x")</script>`,
		"adres": `Straat & Co "huis"`,
	})
	assert.NotContains(t, body, "<script>alert")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "Straat &amp; Co")
}

func TestBuildFeedback(t *testing.T) {
	subject, body := mail.BuildFeedback("De muur <b>klopt niet</b>", "3", "https://mattori.nl/configurator", "Mozilla/5.0")
	assert.Equal(t, "Frame³ feedback — stap 3", subject)
	assert.Contains(t, body, "De muur &lt;b&gt;klopt niet&lt;/b&gt;")
	assert.Contains(t, body, "Stap: 3")
	assert.Contains(t, body, "https://mattori.nl/configurator")

	subject, body = mail.BuildFeedback("Top product", "", "", "")
	assert.Equal(t, "Frame³ feedback", subject)
	assert.NotContains(t, body, "Stap:")
}

func TestHTMLToText(t *testing.T) {
	tpl := mail.Templates["sample"]
	body := tpl.HTML(mail.TemplateData{"naam": "Vince"})

	text := mail.HTMLToText(body)
	require.NotEmpty(t, text)
	assert.Contains(t, text, "Goed nieuws, Vince")
	// Markup and styling never leak into the plain-text part.
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "border-radius")
}

func TestHTMLToTextCollapsesWhitespace(t *testing.T) {
	text := mail.HTMLToText("<p>  een   twee  </p><p>drie</p>")
	assert.Equal(t, "een twee\ndrie", text)
}
