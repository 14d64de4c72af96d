package server

import (
	"strings"
	"sync"

	"github.com/KaramelBytes/redraft-cli/internal/session"
)

const (
	statusPending = "pending"
	statusDone    = "done"
	statusFailed  = "failed"
)

// job tracks an asynchronous rewrite for polling.
type job struct {
	mu      sync.Mutex
	id      string
	profile string
	status  string
	partial strings.Builder
	result  session.Result
	// changed is closed and replaced on every update.
	changed chan struct{}
}

func newJob(profile string) *job {
	return &job{profile: profile, status: statusPending, changed: make(chan struct{})}
}

type jobView struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Profile string `json:"profile,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	Text    string `json:"text,omitempty"`
	Partial string `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (j *job) appendPartial(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.partial.WriteString(s)
	j.notify()
}

func (j *job) finish(r session.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	if r.Err != nil {
		j.status = statusFailed
	} else {
		j.status = statusDone
	}
	j.notify()
}

// notify wakes stream readers. Callers hold j.mu.
func (j *job) notify() {
	close(j.changed)
	j.changed = make(chan struct{})
}

// since returns the partial text after byte offset off, the current view
// and a channel closed on the next update.
func (j *job) since(off int) (string, jobView, <-chan struct{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := j.viewLocked()
	var delta string
	if p := j.partial.String(); off < len(p) {
		delta = p[off:]
	}
	return delta, v, j.changed
}

func (j *job) view() jobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.viewLocked()
}

func (j *job) viewLocked() jobView {
	v := jobView{ID: j.id, Status: j.status, Profile: j.profile}
	switch j.status {
	case statusPending:
		v.Partial = j.partial.String()
	case statusDone:
		v.Excerpt = j.result.Excerpt
		v.Text = j.result.Text
	case statusFailed:
		v.Excerpt = j.result.Excerpt
		v.Error = j.result.Err.Error()
	}
	if v.ID == "" {
		v.ID = j.result.ID
	}
	return v
}
