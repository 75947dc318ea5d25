package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mattori/backend/internal/core"
	"github.com/mattori/backend/internal/fml"
	"github.com/mattori/backend/internal/mail"
	"github.com/mattori/backend/internal/observability"
	"github.com/mattori/backend/internal/uploads"
)

// handleFundaFML resolves a listing URL to its floor-plan document. Only
// malformed requests are HTTP errors; every failure after URL validation is
// a 200 with an error message the storefront widget shows to the user.
func (s *Server) handleFundaFML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	url := strings.TrimSpace(req.URL)
	if url == "" {
		respondError(w, http.StatusBadRequest, "Missing URL")
		return
	}
	if !strings.HasPrefix(url, "http") {
		respondError(w, http.StatusBadRequest, "URL must start with http:// or https://")
		return
	}

	doc, err := s.resolver.Resolve(r.Context(), url)
	if err != nil {
		slog.Info("floor plan resolution failed", "url", url, "error", err)
		respondJSON(w, http.StatusOK, map[string]string{"error": softErrorMessage(err)})
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// softErrorMessage maps resolution failures to the Dutch messages the
// storefront shows.
func softErrorMessage(err error) string {
	var statusErr *fml.StatusError
	switch {
	case errors.Is(err, core.ErrCaptcha):
		return "Funda captcha — probeer het later opnieuw"
	case errors.Is(err, core.ErrNoFloorplan):
		return "Geen plattegrond (FML) gevonden voor deze woning"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("FML bestand niet gevonden (status %d)", statusErr.Status)
	case errors.Is(err, fml.ErrInvalidDocument):
		return "Ongeldig FML bestand"
	default:
		return err.Error()
	}
}

// handleSend proxies a caller-built message straight to the provider.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		respondError(w, http.StatusInternalServerError, "RESEND_API_KEY not configured")
		return
	}

	var req struct {
		From    string `json:"from"`
		To      any    `json:"to"`
		Cc      any    `json:"cc"`
		Bcc     any    `json:"bcc"`
		ReplyTo string `json:"reply_to"`
		Subject string `json:"subject"`
		HTML    string `json:"html"`
		Text    string `json:"text"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	to := addressList(req.To)
	if req.From == "" || len(to) == 0 || req.HTML == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: from, to, html")
		return
	}

	id, err := s.sender.Send(r.Context(), mail.Message{
		From:    req.From,
		To:      to,
		Cc:      addressList(req.Cc),
		Bcc:     addressList(req.Bcc),
		ReplyTo: req.ReplyTo,
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
	})
	if err != nil {
		observability.IncError(observability.ErrorMail, "send")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	observability.IncMailSent("raw")
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// addressList accepts the "to"/"cc"/"bcc" fields as either a single string
// or an array of strings.
func addressList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// handleMail renders one of the server-side templates and sends it.
func (s *Server) handleMail(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		respondError(w, http.StatusInternalServerError, "RESEND_API_KEY not configured")
		return
	}

	var req struct {
		Type string            `json:"type"`
		To   string            `json:"to"`
		Data mail.TemplateData `json:"data"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	tpl, ok := mail.Templates[req.Type]
	if !ok {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown template type: %s. Use: sample, contact, verzending", req.Type))
		return
	}
	if req.To == "" {
		respondError(w, http.StatusBadRequest, "Missing 'to' field")
		return
	}

	html := tpl.HTML(req.Data)
	msg := mail.Message{
		From:    s.cfg.MailFrom,
		To:      []string{req.To},
		Bcc:     []string{s.cfg.MailBcc},
		Subject: tpl.Subject(req.Data),
		HTML:    html,
		Text:    mail.HTMLToText(html),
	}
	// Replies should reach the customer, unless the mail goes to the owner.
	if !strings.EqualFold(req.To, s.cfg.MailOwner) {
		msg.ReplyTo = req.To
	}

	id, err := s.sender.Send(r.Context(), msg)
	if err != nil {
		observability.IncError(observability.ErrorMail, "mail")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	observability.IncMailSent(req.Type)
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handleFeedback mails configurator feedback to the team.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		respondError(w, http.StatusInternalServerError, "RESEND_API_KEY not configured")
		return
	}

	var req struct {
		Message string `json:"message"`
		Step    string `json:"step"`
		Page    string `json:"page"`
		UA      string `json:"ua"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(w, http.StatusBadRequest, "Missing message")
		return
	}

	subject, html := mail.BuildFeedback(message, req.Step, req.Page, req.UA)
	id, err := s.sender.Send(r.Context(), mail.Message{
		From:    s.cfg.FeedbackFrom,
		To:      []string{s.cfg.FeedbackTo},
		Subject: subject,
		HTML:    html,
		Text:    mail.HTMLToText(html),
	})
	if err != nil {
		observability.IncError(observability.ErrorMail, "feedback")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	observability.IncMailSent("feedback")
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handleUploadPreview stores a base64 JPEG screenshot and returns its URL.
func (s *Server) handleUploadPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	imageData := req.Image
	if imageData == "" {
		respondError(w, http.StatusBadRequest, "Missing 'image' field")
		return
	}

	// Strip a data-URL prefix ("data:image/jpeg;base64,...") when present.
	if i := strings.IndexByte(imageData, ','); i >= 0 {
		imageData = imageData[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid base64 data")
		return
	}

	filename, err := s.previews.Save(raw)
	if errors.Is(err, uploads.ErrTooLarge) {
		respondError(w, http.StatusBadRequest, "Image too large (max 5 MB)")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store preview")
		return
	}

	s.recordUpload(r, filename, s.previews.Kind(), int64(len(raw)))
	respondJSON(w, http.StatusOK, map[string]string{
		"url": fmt.Sprintf("https://%s/preview/%s", s.cfg.PublicDomain, filename),
	})
}

func (s *Server) handleServePreview(w http.ResponseWriter, r *http.Request) {
	path, ok := s.uploadPath(w, s.previews, chi.URLParam(r, "filename"), "Preview not found")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeFile(w, r, path)
}

// handleUploadFML stores an edited floor-plan document and returns its URL.
func (s *Server) handleUploadFML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FML json.RawMessage `json:"fml"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if len(req.FML) == 0 || string(req.FML) == "null" {
		respondError(w, http.StatusBadRequest, "Missing 'fml' field")
		return
	}

	// Round-trip through the decoder to validate and canonicalize.
	var payload any
	if err := json.Unmarshal(req.FML, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	filename, err := s.fmlStore.Save(raw)
	if errors.Is(err, uploads.ErrTooLarge) {
		respondError(w, http.StatusBadRequest, "FML too large (max 1 MB)")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store FML")
		return
	}

	s.recordUpload(r, filename, s.fmlStore.Kind(), int64(len(raw)))
	respondJSON(w, http.StatusOK, map[string]string{
		"url": fmt.Sprintf("https://%s/fml-file/%s", s.cfg.PublicDomain, filename),
	})
}

func (s *Server) handleServeFML(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	path, ok := s.uploadPath(w, s.fmlStore, filename, "FML not found")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeFile(w, r, path)
}

// uploadPath resolves a stored file, writing the error response itself when
// the name is invalid or the file is gone.
func (s *Server) uploadPath(w http.ResponseWriter, store *uploads.Store, filename, missingMsg string) (string, bool) {
	path, err := store.Path(filename)
	switch {
	case errors.Is(err, uploads.ErrInvalidName):
		respondError(w, http.StatusBadRequest, "Invalid filename")
		return "", false
	case errors.Is(err, uploads.ErrNotFound):
		respondError(w, http.StatusNotFound, missingMsg)
		return "", false
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Failed to read upload")
		return "", false
	}
	return path, true
}

// recordUpload indexes the stored file. Indexing failures only cost the
// retention sweep, so they are logged and the upload still succeeds.
func (s *Server) recordUpload(r *http.Request, filename, kind string, size int64) {
	observability.IncUploadStored()
	if s.index == nil {
		return
	}
	if err := s.index.RecordUpload(r.Context(), filename, kind, size); err != nil {
		observability.IncError(observability.ErrorStore, "uploads")
		slog.Warn("upload index write failed", "filename", filename, "error", err)
	}
}
