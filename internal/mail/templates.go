package mail

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// TemplateData carries the caller-supplied fields a template interpolates.
// Every value is HTML-escaped before it reaches the message body.
type TemplateData map[string]any

// get returns the field as a string, or fallback when the key is absent.
func (d TemplateData) get(key, fallback string) string {
	if v, ok := d[key]; ok {
		return fmt.Sprint(v)
	}
	return fallback
}

// esc returns the field HTML-escaped.
func (d TemplateData) esc(key, fallback string) string {
	return html.EscapeString(d.get(key, fallback))
}

// Template renders one of the storefront's transactional emails.
type Template struct {
	Subject func(d TemplateData) string
	HTML    func(d TemplateData) string
}

// Templates is the registry keyed by the "type" field of /api/mail.
var Templates = map[string]Template{
	"sample": {
		Subject: func(TemplateData) string { return "Je Mattori Frame³ sample aanvraag is ontvangen" },
		HTML:    sampleBevestiging,
	},
	"contact": {
		Subject: func(d TemplateData) string {
			return "Fijn dat je contact opneemt, " + d.get("naam", "")
		},
		HTML: contactOpvolging,
	},
	"verzending": {
		Subject: func(TemplateData) string { return "Je Mattori Frame³ sample is onderweg!" },
		HTML:    verzendBevestiging,
	},
}

// Shared layout blocks. The markup targets email clients, hence the
// table-based layout and inline styles.

func headBlock(title string) string {
	return `<!DOCTYPE html>
<html lang="nl"><head><meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1.0">
<title>` + title + `</title>
<style>@media only screen and (max-width:600px){.email-body,.email-wrapper,.email-wrapper-td{background-color:#f0f0ec !important;}.email-wrapper-td{padding:20px 0 !important;}.email-container{border-radius:0 !important;}}</style>
</head><body class="email-body" style="margin:0;padding:0;background:#fafaf8;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
<table class="email-wrapper" role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#fafaf8;"><tr>
<td class="email-wrapper-td" align="center" style="padding:40px 20px;">
<table class="email-container" role="presentation" width="520" cellpadding="0" cellspacing="0" style="max-width:100%;background:#f0f0ec;border-radius:14px;overflow:hidden;table-layout:fixed;">`
}

const logoBlock = `<tr><td style="padding:40px 40px 0 40px;text-align:center;">
<img src="https://cdn.shopify.com/s/files/1/0958/8614/7958/files/TT_dik.png?v=1770208484" alt="Mattori" width="48" style="display:block;width:48px;height:auto;margin:0 auto 32px auto;">`

const dividerBlock = `<tr><td style="padding:28px 40px;"><div style="height:1px;background:#e8e8e4;"></div></td></tr>`

const contactBlock = `<tr><td style="padding:0 40px;text-align:center;"><p style="font-size:13px;color:#aaa;margin:0;">
Vragen? Stuur een berichtje via <a href="https://wa.me/31683807190" style="color:#1a1a1a;text-decoration:underline;font-weight:600;">WhatsApp</a><br>of mail naar <a href="mailto:vince@mattori.nl" style="color:#1a1a1a;text-decoration:underline;font-weight:600;">vince@mattori.nl</a></p></td></tr>`

const footerBlock = `<tr><td style="padding:32px 40px 40px 40px;text-align:center;"><p style="font-size:12px;color:#ccc;margin:0;">
Mattori Frame³ · mattori.nl</p></td></tr>
</table></td></tr></table></body></html>`

func sectionLabel(text string) string {
	return `<p style="font-size:13px;font-weight:600;color:#aaa;letter-spacing:0.5px;margin:0 0 20px 0;text-transform:uppercase;">` + text + `</p>`
}

func step(num, title, desc string) string {
	return `<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="margin-bottom:20px;"><tr>
<td width="36" valign="top"><div style="width:28px;height:28px;background:#1a1a1a;color:#fff;border-radius:50%;font-size:13px;font-weight:700;line-height:28px;text-align:center;">` + num + `</div></td>
<td style="padding-left:12px;"><p style="font-size:14px;font-weight:700;color:#1a1a1a;margin:0 0 2px 0;">` + title + `</p>
<p style="font-size:13px;color:#777;line-height:1.5;margin:0;">` + desc + `</p></td></tr></table>`
}

func detailRow(label, value string, last bool) string {
	pb := "padding-bottom:8px;"
	if last {
		pb = ""
	}
	return `<tr><td style="font-size:13px;color:#888;` + pb + `">` + label + `</td>
<td style="font-size:13px;color:#1a1a1a;font-weight:600;` + pb + `text-align:right;word-break:break-all;">` + value + `</td></tr>`
}

func detailCard(rows string) string {
	return `<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#fafaf8;border-radius:10px;">
<tr><td style="padding:20px;"><table role="presentation" width="100%" cellpadding="0" cellspacing="0">
` + rows + `</table></td></tr></table>`
}

func numberedItem(num, title, desc string) string {
	return `<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#fafaf8;border-radius:10px;margin-bottom:10px;">
<tr><td style="padding:16px 20px;"><table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr>
<td width="28" valign="top"><div style="width:24px;height:24px;background:#1a1a1a;color:#fff;border-radius:50%;font-size:12px;font-weight:700;line-height:24px;text-align:center;">` + num + `</div></td>
<td style="padding-left:12px;"><p style="font-size:14px;font-weight:700;color:#1a1a1a;margin:0 0 2px 0;">` + title + `</p>
<p style="font-size:13px;color:#777;line-height:1.5;margin:0;">` + desc + `</p></td></tr></table></td></tr></table>`
}

// sampleBevestiging confirms a sample request and recaps the submitted data.
func sampleBevestiging(d TemplateData) string {
	naam := d.esc("naam", "")
	var b strings.Builder
	b.WriteString(headBlock("Je sample aanvraag is ontvangen"))
	b.WriteString(logoBlock)
	b.WriteString(`<h1 style="font-size:24px;font-weight:800;color:#1a1a1a;margin:0 0 12px 0;letter-spacing:-0.8px;line-height:1.2;">Je sample aanvraag is ontvangen</h1>`)
	b.WriteString(`<p style="font-size:15px;color:#777;line-height:1.6;margin:0;">Goed nieuws, ` + naam + `. We zijn begonnen met het maken van je Mattori Frame³. Zodra het wordt verzonden ontvang je een mail met track &amp; trace. Ondertussen benieuwd naar meer, zoals <a href="https://mattori.nl/pages/over-ons" style="color:#777;text-decoration:underline;">wie dit maakt</a>?</p>`)
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;">`)
	b.WriteString(sectionLabel("Wat gebeurt er nu?"))
	b.WriteString(step("1", "We maken je sample", "Op basis van jouw Funda-link maken we een uniek 3D-kunstwerk voor jou of je klant. Dit doen we met de hand, dit duurt gemiddeld 2 werkdagen."))
	b.WriteString(step("2", "We versturen je sample", "Zodra je sample klaar is en wordt verzonden, ontvang je een mail met track &amp; trace."))
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;">`)
	b.WriteString(sectionLabel("Je aanvraag"))
	b.WriteString(detailCard(
		detailRow("Naam", naam, false) +
			detailRow("Bedrijf", d.esc("bedrijf", ""), false) +
			detailRow("E-mail", d.esc("email", ""), false) +
			detailRow("Telefoon", d.esc("telefoon", "-"), false) +
			detailRow("Funda-link", d.esc("funda_link", ""), false) +
			detailRow("Afleveradres", d.esc("adres", ""), false) +
			detailRow("Logo", d.esc("logo", "-"), true),
	))
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(contactBlock)
	b.WriteString(footerBlock)
	return b.String()
}

// contactOpvolging follows up on an interest inquiry with the three things
// needed to produce a sample.
func contactOpvolging(d TemplateData) string {
	naam := d.esc("naam", "")
	bedrijf := d.esc("bedrijf", "")
	var b strings.Builder
	b.WriteString(headBlock("Leuk dat je interesse hebt"))
	b.WriteString(logoBlock)
	b.WriteString(`<h1 style="font-size:24px;font-weight:800;color:#1a1a1a;margin:0 0 12px 0;letter-spacing:-0.8px;line-height:1.2;">Leuk dat je interesse hebt, ` + naam + `</h1>`)
	b.WriteString(`<p style="font-size:15px;color:#777;line-height:1.6;margin:0;">We maken graag een gratis Mattori Frame³ sample voor je. Stuur onderstaande gegevens als reactie op deze mail, dan gaan we direct aan de slag.</p>`)
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;">`)
	b.WriteString(sectionLabel("Wat hebben we nodig?"))
	b.WriteString(numberedItem("1", "Een Funda-link", "De link naar de woning waarvan je een Frame³ wilt. Ga naar funda.nl, zoek de woning op en kopieer de link uit je adresbalk."))
	b.WriteString(numberedItem("2", "Je afleveradres", "Waar mogen we de sample naartoe sturen?"))
	b.WriteString(numberedItem("3", `Je logo <span style="font-weight:500;color:#aaa;font-size:12px;">(optioneel)</span>`, "Wil je jouw logo op het frame? Stuur het mee als bijlage of link. PNG of SVG werkt het best."))
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;text-align:center;"><p style="font-size:13px;color:#aaa;margin:0;">Reply op deze mail, stuur een berichtje via <a href="https://wa.me/31683807190" style="color:#1a1a1a;text-decoration:underline;font-weight:600;">WhatsApp</a><br>of mail naar <a href="mailto:vince@mattori.nl?subject=Sample%20aanvraag%20` + url.PathEscape(bedrijf) + `" style="color:#1a1a1a;text-decoration:underline;font-weight:600;">vince@mattori.nl</a></p></td></tr>`)
	b.WriteString(footerBlock)
	return b.String()
}

// verzendBevestiging announces shipment with the track & trace link.
func verzendBevestiging(d TemplateData) string {
	naam := d.esc("naam", "")
	trackingLink := d.get("tracking_link", "#")
	var b strings.Builder
	b.WriteString(headBlock("Je sample is onderweg"))
	b.WriteString(logoBlock)
	b.WriteString(`<h1 style="font-size:24px;font-weight:800;color:#1a1a1a;margin:0 0 12px 0;letter-spacing:-0.8px;line-height:1.2;">Je sample is onderweg!</h1>`)
	b.WriteString(`<p style="font-size:15px;color:#777;line-height:1.6;margin:0;">Goed nieuws, ` + naam + `. Je Mattori Frame³ is met de hand gemaakt en onderweg naar je. Hieronder vind je alle details over de bezorging.</p>`)
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;">`)
	b.WriteString(`<p style="font-size:13px;font-weight:600;color:#aaa;letter-spacing:0.5px;margin:0 0 16px 0;text-transform:uppercase;">Track &amp; Trace</p>`)
	b.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#fafaf8;border-radius:10px;">`)
	b.WriteString(`<tr><td style="padding:24px 20px;text-align:center;">`)
	b.WriteString(`<a href="` + html.EscapeString(trackingLink) + `" style="display:inline-block;background:#1a1a1a;color:#ffffff;padding:14px 28px;border-radius:10px;font-size:14px;font-weight:600;text-decoration:none;">Volg je pakket →</a>`)
	b.WriteString(`</td></tr></table></td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;">`)
	b.WriteString(sectionLabel("Wat gebeurt er nu?"))
	b.WriteString(step("1", "Pakket onderweg", "Je Mattori Frame³ sample is zojuist overgedragen aan PostNL. Gebruik de track &amp; trace link hierboven om de status te volgen."))
	b.WriteString(step("2", "Bezorging", "Doorgaans de volgende werkdag wordt je sample bezorgd. PostNL levert het pakket bij je aan de deur of bij een afhaalpunt in de buurt."))
	b.WriteString(step("3", "Bekijk en ervaar", "Pak je Frame³ sample uit en ontdek de kwaliteit. We nemen binnenkort contact met je op om te horen wat je ervan vindt."))
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(`<tr><td style="padding:0 40px;">`)
	b.WriteString(`<p style="font-size:13px;font-weight:600;color:#aaa;letter-spacing:0.5px;margin:0 0 16px 0;text-transform:uppercase;">Wat zit er in je pakket?</p>`)
	b.WriteString(detailCard(
		detailRow("Product", "Mattori Frame³ sample", false) +
			detailRow("Adres", d.esc("adres", ""), false) +
			detailRow("Op maat gemaakt voor", naam, true),
	))
	b.WriteString(`</td></tr>`)
	b.WriteString(dividerBlock)
	b.WriteString(contactBlock)
	b.WriteString(footerBlock)
	return b.String()
}

// BuildFeedback renders the configurator feedback notification. Returns the
// subject and HTML body.
func BuildFeedback(message, stepName, page, ua string) (string, string) {
	subject := "Frame³ feedback"
	if stepName != "" {
		subject = "Frame³ feedback — stap " + stepName
	}

	stepLine := ""
	if stepName != "" {
		stepLine = `<p style='color:#999;font-size:12px;margin:0 0 8px'>Stap: ` + html.EscapeString(stepName) + `</p>`
	}

	body := `<div style='font-family:sans-serif;max-width:600px'>` +
		`<h2 style='margin:0 0 12px'>Maak je eigen Frame³ feedback</h2>` +
		`<p style='white-space:pre-wrap;margin:0 0 16px'>` + html.EscapeString(message) + `</p>` +
		`<hr style='border:none;border-top:1px solid #eee;margin:16px 0'>` +
		stepLine +
		`<p style='color:#999;font-size:12px;margin:0'>Pagina: ` + html.EscapeString(page) + `<br>UA: ` + html.EscapeString(ua) + `</p>` +
		`</div>`

	return subject, body
}
