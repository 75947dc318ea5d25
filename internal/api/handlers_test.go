package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattori/backend/internal/api"
	"github.com/mattori/backend/internal/config"
	"github.com/mattori/backend/internal/core"
	"github.com/mattori/backend/internal/fml"
	"github.com/mattori/backend/internal/mail"
	"github.com/mattori/backend/internal/uploads"
)

type fakeResolver struct {
	doc    map[string]any
	err    error
	gotURL string
}

func (f *fakeResolver) Resolve(_ context.Context, rawURL string) (map[string]any, error) {
	f.gotURL = rawURL
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-123", nil
}

type testServer struct {
	handler  http.Handler
	resolver *fakeResolver
	sender   *fakeSender
}

func newTestServer(t *testing.T, opts ...func(*testServer)) *testServer {
	t.Helper()

	ts := &testServer{
		resolver: &fakeResolver{doc: map[string]any{"floors": []any{}}},
		sender:   &fakeSender{},
	}
	for _, opt := range opts {
		opt(ts)
	}

	cfg := &config.Config{
		MailFrom:       "Vince van Mattori <vince@mattori.nl>",
		MailBcc:        "vincekramers@icloud.com",
		MailOwner:      "vince@mattori.nl",
		FeedbackFrom:   "Mattori Configurator <vince@mattori.nl>",
		FeedbackTo:     "vince@mattori.nl",
		PublicDomain:   "api.mattori.nl",
		AllowedOrigins: []string{"https://mattori.nl"},
		CacheTTL:       time.Hour,
	}

	previews, err := uploads.NewPreviewStore(t.TempDir())
	require.NoError(t, err)
	fmlStore, err := uploads.NewFMLStore(t.TempDir())
	require.NoError(t, err)

	var sender mail.Sender
	if ts.sender != nil {
		sender = ts.sender
	}
	srv := api.NewServer(cfg, ts.resolver, sender, previews, fmlStore, nil)
	ts.handler = srv.Router()
	return ts
}

func withoutSender() func(*testServer) {
	return func(ts *testServer) { ts.sender = nil }
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestFundaFMLValidation(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/funda-fml", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing URL", body["error"])

	rec, body = doJSON(t, ts.handler, http.MethodPost, "/funda-fml", map[string]string{"url": "ftp://funda.nl/x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "URL must start with http:// or https://", body["error"])
}

func TestFundaFMLSuccess(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.doc = map[string]any{"floors": []any{}, "sale_status": "Te koop"}

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/funda-fml",
		map[string]string{"url": "https://www.funda.nl/detail/koop/a/b/12345678"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Te koop", body["sale_status"])
	assert.Equal(t, "https://www.funda.nl/detail/koop/a/b/12345678", ts.resolver.gotURL)
}

func TestFundaFMLSoftFailures(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		message string
	}{
		{"captcha", core.ErrCaptcha, "Funda captcha — probeer het later opnieuw"},
		{"no floor plan", core.ErrNoFloorplan, "Geen plattegrond (FML) gevonden voor deze woning"},
		{"fml missing", &fml.StatusError{Status: 403}, "FML bestand niet gevonden (status 403)"},
		{"fml invalid", fml.ErrInvalidDocument, "Ongeldig FML bestand"},
		{"transport", errors.New("connection reset"), "connection reset"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.resolver.err = tc.err

			rec, body := doJSON(t, ts.handler, http.MethodPost, "/funda-fml",
				map[string]string{"url": "https://www.funda.nl/detail/koop/a/b/12345678"})
			// Soft failures are 200s the widget renders as user messages.
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.message, body["error"])
		})
	}
}

func TestSendRequiresConfiguredProvider(t *testing.T) {
	ts := newTestServer(t, withoutSender())

	for _, path := range []string{"/api/send", "/api/mail", "/api/feedback"} {
		rec, body := doJSON(t, ts.handler, http.MethodPost, path, map[string]string{})
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "RESEND_API_KEY not configured", body["error"], path)
	}
}

func TestSendValidatesRequiredFields(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/send", map[string]any{
		"from": "a@example.com",
		"to":   "b@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: from, to, html", body["error"])
}

func TestSendAcceptsStringOrArrayRecipients(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/send", map[string]any{
		"from":    "a@example.com",
		"to":      []string{"b@example.com", "c@example.com"},
		"subject": "Hallo",
		"html":    "<p>Hoi</p>",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "msg-123", body["id"])

	require.Len(t, ts.sender.sent, 1)
	assert.Equal(t, []string{"b@example.com", "c@example.com"}, ts.sender.sent[0].To)

	rec, _ = doJSON(t, ts.handler, http.MethodPost, "/api/send", map[string]any{
		"from": "a@example.com",
		"to":   "solo@example.com",
		"html": "<p>Hoi</p>",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"solo@example.com"}, ts.sender.sent[1].To)
}

func TestSendProviderFailureIsBadGateway(t *testing.T) {
	ts := newTestServer(t)
	ts.sender.err = errors.New("resend: invalid api key")

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/send", map[string]any{
		"from": "a@example.com",
		"to":   "b@example.com",
		"html": "<p>Hoi</p>",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body["error"], "invalid api key")
}

func TestMailUnknownTemplate(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/mail", map[string]any{
		"type": "nieuwsbrief",
		"to":   "klant@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown template type: nieuwsbrief. Use: sample, contact, verzending", body["error"])
}

func TestMailMissingRecipient(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/mail", map[string]any{"type": "sample"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing 'to' field", body["error"])
}

func TestMailSendsTemplateWithReplyTo(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/mail", map[string]any{
		"type": "sample",
		"to":   "klant@example.com",
		"data": map[string]string{"naam": "Sanne", "adres": "Straat 1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "msg-123", body["id"])

	require.Len(t, ts.sender.sent, 1)
	msg := ts.sender.sent[0]
	assert.Equal(t, "Vince van Mattori <vince@mattori.nl>", msg.From)
	assert.Equal(t, []string{"klant@example.com"}, msg.To)
	assert.Equal(t, []string{"vincekramers@icloud.com"}, msg.Bcc)
	assert.Equal(t, "klant@example.com", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "Goed nieuws, Sanne")
	assert.NotEmpty(t, msg.Text)
}

func TestMailToOwnerOmitsReplyTo(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := doJSON(t, ts.handler, http.MethodPost, "/api/mail", map[string]any{
		"type": "contact",
		"to":   "vince@mattori.nl",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.sender.sent, 1)
	assert.Empty(t, ts.sender.sent[0].ReplyTo)
}

func TestFeedback(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/api/feedback", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing message", body["error"])

	rec, _ = doJSON(t, ts.handler, http.MethodPost, "/api/feedback", map[string]string{
		"message": "De kleuren kloppen niet",
		"step":    "2",
		"page":    "https://mattori.nl/configurator",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.sender.sent, 1)
	msg := ts.sender.sent[0]
	assert.Equal(t, "Frame³ feedback — stap 2", msg.Subject)
	assert.Equal(t, []string{"vince@mattori.nl"}, msg.To)
}

func TestUploadPreviewRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	image := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	rec, body := doJSON(t, ts.handler, http.MethodPost, "/upload-preview", map[string]string{"image": image})
	require.Equal(t, http.StatusOK, rec.Code)

	url, ok := body["url"].(string)
	require.True(t, ok)
	assert.Contains(t, url, "https://api.mattori.nl/preview/")

	filename := url[strings.LastIndex(url, "/")+1:]
	req := httptest.NewRequest(http.MethodGet, "/preview/"+filename, nil)
	out := httptest.NewRecorder()
	ts.handler.ServeHTTP(out, req)

	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "image/jpeg", out.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", out.Header().Get("Cache-Control"))
	assert.Equal(t, "jpeg-bytes", out.Body.String())
}

func TestUploadPreviewValidation(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/upload-preview", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing 'image' field", body["error"])

	rec, body = doJSON(t, ts.handler, http.MethodPost, "/upload-preview", map[string]string{"image": "not base64!!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid base64 data", body["error"])
}

func TestServePreviewErrors(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodGet, "/preview/not-a-hash.jpg", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid filename", body["error"])

	rec, body = doJSON(t, ts.handler, http.MethodGet, "/preview/deadbeefdeadbeef.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Preview not found", body["error"])
}

func TestUploadFMLRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/upload-fml", map[string]any{
		"fml": map[string]any{"floors": []any{}, "version": "2.0"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	url, ok := body["url"].(string)
	require.True(t, ok)
	assert.Contains(t, url, "https://api.mattori.nl/fml-file/")

	filename := url[strings.LastIndex(url, "/")+1:]
	req := httptest.NewRequest(http.MethodGet, "/fml-file/"+filename, nil)
	out := httptest.NewRecorder()
	ts.handler.ServeHTTP(out, req)

	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "application/json", out.Header().Get("Content-Type"))
	assert.Contains(t, out.Header().Get("Content-Disposition"), "attachment")

	var stored map[string]any
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &stored))
	assert.Equal(t, "2.0", stored["version"])
}

func TestUploadFMLMissingField(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodPost, "/upload-fml", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing 'fml' field", body["error"])
}

func TestRootDescriptor(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mattori-api", body["service"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestStatsSnapshot(t *testing.T) {
	ts := newTestServer(t)

	rec, body := doJSON(t, ts.handler, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "pages_fetched")
	assert.Contains(t, body, "errors_total")
}
