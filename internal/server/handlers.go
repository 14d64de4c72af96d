package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
	"github.com/KaramelBytes/redraft-cli/internal/document"
	"github.com/KaramelBytes/redraft-cli/internal/rewrite"
	"github.com/KaramelBytes/redraft-cli/internal/session"
	"github.com/KaramelBytes/redraft-cli/internal/splice"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
)

type chapterSummary struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Chars int    `json:"chars"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id, pending := s.session.Pending()
	writeJSON(w, http.StatusOK, map[string]any{
		"path":       s.session.Path(),
		"chapters":   s.session.Book().Len(),
		"pending":    pending,
		"request_id": id,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reload(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": s.session.Path(), "chapters": s.session.Book().Len()})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	out := []chapterSummary{}
	for i, ch := range s.session.Book().Chapters() {
		out = append(out, chapterSummary{Index: i, Title: ch.Title, Chars: utils.CountChars(ch.Body)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": out})
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "chapter index must be an integer", http.StatusBadRequest)
		return
	}
	ch, ok := s.session.Book().At(i)
	if !ok {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":   i,
		"title":   ch.Title,
		"body":    ch.Body,
		"display": chapter.Indent(ch.Body),
	})
}

type locateRequest struct {
	Excerpt string  `json:"excerpt"`
	Chapter int     `json:"chapter"`
	Scroll  float64 `json:"scroll"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if !decode(w, r, &req) {
		return
	}
	pos := s.session.Locate(req.Excerpt, chapter.Position{Chapter: req.Chapter, Scroll: req.Scroll})
	writeJSON(w, http.StatusOK, pos)
}

type deleteRequest struct {
	Excerpt string `json:"excerpt"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.session.Delete(req.Excerpt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": s.session.Path(), "chapters": s.session.Book().Len()})
}

type rewriteRequest struct {
	Chapter        int    `json:"chapter"`
	Excerpt        string `json:"excerpt"`
	Direction      string `json:"direction"`
	DirectionIndex int    `json:"direction_index"`
	Profile        string `json:"profile"`
	// Wait blocks until the model replies instead of returning a job.
	Wait bool `json:"wait"`
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if !decode(w, r, &req) {
		return
	}
	direction := req.Direction
	if direction == "" && req.DirectionIndex > 0 {
		if s.directions == nil {
			jsonError(w, "no saved directions", http.StatusBadRequest)
			return
		}
		d, err := s.directions(req.DirectionIndex)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		direction = d
	}
	rw, profile, err := s.rewriters(req.Profile)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sreq := session.Request{Chapter: req.Chapter, Excerpt: req.Excerpt, Direction: direction, Rewriter: rw}
	if req.Wait {
		res, err := s.session.Rewrite(r.Context(), sreq, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobView{ID: res.ID, Status: statusDone, Profile: profile, Excerpt: res.Excerpt, Text: res.Text})
		return
	}

	j := newJob(profile)
	// The request context ends with this handler; the job outlives it.
	id, err := s.session.Start(context.WithoutCancel(r.Context()), sreq, j.appendPartial, func(res session.Result) {
		j.finish(res)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	j.id = id
	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":         id,
		"status":     statusPending,
		"poll_url":   "/api/rewrite/" + id,
		"stream_url": "/api/rewrite/" + id + "/stream",
	})
}

func (s *Server) job(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *Server) handleRewriteStatus(w http.ResponseWriter, r *http.Request) {
	j, ok := s.job(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "rewrite not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, j.view())
}

type applyRequest struct {
	Excerpt   string `json:"excerpt"`
	Rewritten string `json:"rewritten"`
	Mode      string `json:"mode"`
	Profile   string `json:"profile"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := splice.ParseMode(req.Mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	profile := req.Profile
	if profile == "" && mode == splice.ModeVersion {
		if _, name, err := s.rewriters(""); err == nil {
			profile = name
		}
	}
	path, err := s.session.Apply(req.Excerpt, req.Rewritten, mode, profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "mode": mode})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<20))
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		ioErr     *document.IOError
		remoteErr *rewrite.RemoteError
	)
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, splice.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, splice.ErrEmptySegment),
		errors.Is(err, session.ErrNoDocument),
		errors.Is(err, session.ErrNoChapter):
		code = http.StatusBadRequest
	case errors.As(err, &remoteErr):
		code = http.StatusBadGateway
	case errors.As(err, &ioErr):
		code = http.StatusInternalServerError
	}
	jsonError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
