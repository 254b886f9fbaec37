// Package web serves the browser frontend and its JSON API on top of session.Store.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jewelry-identifier/api/internal/analyze"
	"jewelry-identifier/api/internal/jewel"
	"jewelry-identifier/api/internal/session"
)

//go:embed static templates
var assets embed.FS

const (
	cookieName = "jewelry_session"

	// maxBody leaves room for multipart framing around a MaxImageSize file.
	maxBody    = jewel.MaxImageSize + 1<<20
	formMemory = 1 << 20
)

type Handler struct {
	store *session.Store
	engs  *analyze.Engines
	mgr   *analyze.Manager
	log   *zap.Logger
	pages map[string]*template.Template
	image []byte
}

// New builds the handler. engs and mgr may be nil; engine switching is then disabled.
func New(store *session.Store, engs *analyze.Engines, mgr *analyze.Manager, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	img, err := DefaultImage()
	if err != nil {
		return nil, err
	}
	return &Handler{
		store: store,
		engs:  engs,
		mgr:   mgr,
		log:   log,
		pages: pages,
		image: img,
	}, nil
}

// DefaultImage returns the bundled sample photo.
func DefaultImage() ([]byte, error) {
	return fs.ReadFile(assets, "static/default-jewelry.jpg")
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("POST /analyze", h.Analyze)
	mux.HandleFunc("GET /about", h.About)
	mux.HandleFunc("GET /image", h.Image)
	mux.HandleFunc("GET "+jewel.DefaultImagePath, h.ServeDefaultImage)

	mux.HandleFunc("GET /api/state", h.APIState)
	mux.HandleFunc("POST /api/upload", h.APIUpload)
	mux.HandleFunc("POST /api/analyze", h.APIAnalyze)
	mux.HandleFunc("GET /api/engines", h.APIEngines)
	mux.HandleFunc("POST /api/engine", h.APISetEngine)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return h.logRequests(mux)
}

// session returns the visitor's session, starting a new one when the cookie is missing or stale.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(cookieName); err == nil {
		if sess, ok := h.store.Get(c.Value); ok {
			return sess
		}
	}
	sess := h.store.Create(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.log.Debug("session started", zap.String("session", sess.ID))
	return sess
}

// readUpload parses the multipart "image" field. A nil File with a nil error means no file was chosen.
// The returned cleanup removes temporary files and is never nil.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*session.File, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, noop, jewel.ValidationError(jewel.MsgTooLarge)
		}
		return nil, noop, jewel.ReadError(err)
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }
	fhs := r.MultipartForm.File["image"]
	if len(fhs) == 0 {
		return nil, cleanup, nil
	}
	f := session.FromMultipart(fhs[0])
	return &f, cleanup, nil
}

// analysisContext keeps the model call alive after the client goes away.
// X-Request-Timeout (seconds) or ?timeoutSec= opt into a deadline.
func analysisContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	if d := requestDeadline(r); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

func requestDeadline(r *http.Request) time.Duration {
	ts := r.Header.Get("X-Request-Timeout")
	if ts == "" {
		ts = r.URL.Query().Get("timeoutSec")
	}
	if v, _ := strconv.Atoi(ts); v > 0 {
		return time.Duration(v) * time.Second
	}
	return 0
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, jewel.ErrValidation):
		if jewel.UserMessage(err) == jewel.MsgTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.Is(err, jewel.ErrRead):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (s *statusWriter) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		if r.URL.Path == "/healthz" {
			return
		}
		h.log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.code),
			zap.Duration("took", time.Since(start)))
	})
}
