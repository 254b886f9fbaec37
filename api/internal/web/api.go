package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

func (h *Handler) APIState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(w, r).Snapshot())
}

func (h *Handler) APIUpload(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	f, cleanup, err := h.readUpload(w, r)
	defer cleanup()
	if err != nil {
		err = sess.Reject(err)
		writeJSON(w, statusFor(err), map[string]string{"error": sess.Snapshot().State.Error})
		return
	}
	if f == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image field is required"})
		return
	}

	ctx, cancel := analysisContext(r)
	defer cancel()
	if err := sess.Upload(ctx, *f); err != nil {
		h.log.Debug("api upload", zap.String("session", sess.ID), zap.Error(err))
		writeJSON(w, statusFor(err), map[string]string{"error": sess.Snapshot().State.Error})
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *Handler) APIAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	ctx, cancel := analysisContext(r)
	defer cancel()
	if err := sess.Analyze(ctx); err != nil {
		h.log.Debug("api analyze", zap.String("session", sess.ID), zap.Error(err))
		writeJSON(w, statusFor(err), map[string]string{"error": sess.Snapshot().State.Error})
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *Handler) APIEngines(w http.ResponseWriter, r *http.Request) {
	if h.engs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"engines": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"engines": h.engs.Names()})
}

type engineReq struct {
	LLMName string `json:"llm_name"`
}

// APISetEngine switches the analysis engine for the caller's session only.
func (h *Handler) APISetEngine(w http.ResponseWriter, r *http.Request) {
	if h.engs == nil || h.mgr == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "engine switching is disabled"})
		return
	}
	var req engineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json: " + err.Error()})
		return
	}
	engine, err := h.engs.GetEngine(strings.TrimSpace(req.LLMName))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sess := h.session(w, r)
	h.mgr.Set(sess.ID, engine)
	h.log.Info("engine switched", zap.String("session", sess.ID), zap.String("engine", engine.Name()))
	writeJSON(w, http.StatusOK, map[string]string{"engine": engine.Name(), "model": engine.GetModel()})
}
