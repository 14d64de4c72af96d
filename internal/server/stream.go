package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const streamWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// streamEvent is one websocket message: a "delta" with new text, then a
// final "done" or "failed" carrying the job.
type streamEvent struct {
	Type string   `json:"type"`
	Text string   `json:"text,omitempty"`
	Job  *jobView `json:"job,omitempty"`
}

// handleRewriteStream pushes partial output of a rewrite job over a
// websocket until the job settles. Text already produced is sent first.
func (s *Server) handleRewriteStream(w http.ResponseWriter, r *http.Request) {
	j, ok := s.job(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "rewrite not found", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	write := func(ev streamEvent) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(ev)
	}

	sent := 0
	for {
		delta, v, wait := j.since(sent)
		if delta != "" {
			if err := write(streamEvent{Type: "delta", Text: delta}); err != nil {
				return
			}
			sent += len(delta)
		}
		if v.Status != statusPending {
			if err := write(streamEvent{Type: v.Status, Job: &v}); err != nil {
				return
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		}
		select {
		case <-wait:
		case <-r.Context().Done():
			return
		}
	}
}
