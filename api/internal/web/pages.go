package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"jewelry-identifier/api/internal/jewel"
	"jewelry-identifier/api/internal/session"
)

type pageData struct {
	Title      string
	Tagline    string
	Disclaimer string
	Features   []string
	Accept     string
	Snap       session.Snapshot
}

func parsePages() (map[string]*template.Template, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{"index.html", "about.html"} {
		t, err := template.ParseFS(assets, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	data.Title = jewel.Title
	data.Tagline = jewel.Tagline
	data.Disclaimer = jewel.Disclaimer

	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// Index shows the current image, error and formatted analysis.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	h.render(w, "index.html", pageData{
		Accept: strings.Join(jewel.AcceptedTypes, ","),
		Snap:   sess.Snapshot(),
	})
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about.html", pageData{Features: jewel.Features})
}

// Upload handles the form post and always answers with a redirect so the file input starts empty.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	f, cleanup, err := h.readUpload(w, r)
	defer cleanup()

	switch {
	case err != nil:
		_ = sess.Reject(err)
	case f != nil:
		ctx, cancel := analysisContext(r)
		defer cancel()
		if err := sess.Upload(ctx, *f); err != nil {
			h.log.Debug("upload", zap.String("session", sess.ID), zap.Error(err))
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	ctx, cancel := analysisContext(r)
	defer cancel()
	if err := sess.Analyze(ctx); err != nil {
		h.log.Debug("analyze", zap.String("session", sess.ID), zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Image streams the session's current image bytes.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	snap := h.session(w, r).Snapshot()
	if snap.Image.IsZero() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", snap.Image.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.Image.Data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(snap.Image.Data)
}

func (h *Handler) ServeDefaultImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(h.image)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(h.image)
}
