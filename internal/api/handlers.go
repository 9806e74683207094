package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pdfrag/internal/domain"
	"pdfrag/internal/service"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Pages     int    `json:"pages"`
	Chunks    int    `json:"chunks"`
	Preview   string `json:"preview,omitempty"`
}

func newSessionResponse(sess *service.Session) sessionResponse {
	return sessionResponse{
		SessionID: sess.ID,
		Name:      sess.Name,
		Pages:     sess.Pages,
		Chunks:    sess.Chunks,
		Preview:   sess.Preview,
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

// handleUpload is the upload trigger. A failed upload yields 422 and no
// session id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1024*1024)

	reqLog := s.log.With("request_id", middleware.GetReqID(r.Context()))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		reqLog.Warn("invalid multipart form", "error", err)
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		reqLog.Warn("upload without file", "error", err)
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)), http.StatusBadRequest)
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	log := reqLog.With("document", name)
	doc, err := s.open(file)
	if err != nil {
		log.Error("upload rejected", "stage", "extract", "error", err)
		jsonError(w, service.CreationFailedMessage, http.StatusUnprocessableEntity)
		return
	}
	defer doc.Close()

	sess, err := s.backend.CreateSession(r.Context(), doc, name)
	if err != nil {
		log.Error("session creation failed", "error", err)
		msg := service.CreationFailedMessage
		if errors.Is(err, domain.ErrEmptyContent) {
			msg += " " + domain.ErrEmptyContent.Error()
		}
		jsonError(w, msg, http.StatusUnprocessableEntity)
		return
	}
	s.putSession(sess)
	log.Info("session created", "session", sess.ID, "chunks", sess.Chunks)
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, service.NoSessionMessage, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleQuery is the query trigger. The answer is streamed as chunked
// text/plain, one write and flush per fragment; the routed tool is reported
// in the X-Route-Choice header.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	sess := s.session(chi.URLParam(r, "sessionID"))
	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	started, wrote := false, false
	err := s.backend.Ask(r.Context(), sess, req.Query, func(u service.Update) error {
		if !started {
			switch {
			case u.Text != "" && sess == nil:
				w.WriteHeader(http.StatusNotFound)
			case u.Err:
				w.WriteHeader(http.StatusInternalServerError)
			default:
				if u.Choice != "" {
					w.Header().Set("X-Route-Choice", u.Choice)
				}
				w.WriteHeader(http.StatusOK)
			}
			started = true
		}
		text := u.Fragment
		if u.Text != "" {
			text = u.Text
			if wrote {
				text = "\n" + text
			}
		}
		if text == "" {
			return nil
		}
		if _, err := w.Write([]byte(text)); err != nil {
			return err
		}
		wrote = true
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrNoSession) {
		s.log.Warn("query ended with error", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
}

// handleClear is the clear trigger.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := s.removeSession(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, service.NoSessionMessage, http.StatusNotFound)
		return
	}
	if err := sess.Close(r.Context()); err != nil {
		s.log.Warn("session close failed", "session", sess.ID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
