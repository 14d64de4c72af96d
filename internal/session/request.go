package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/KaramelBytes/redraft-cli/internal/rewrite"
	"github.com/KaramelBytes/redraft-cli/internal/splice"
)

// Request describes one rewrite of a passage in a chapter.
type Request struct {
	Chapter   int
	Excerpt   string
	Direction string
	Rewriter  rewrite.Rewriter
}

// Result is the outcome of a rewrite request.
type Result struct {
	ID      string
	Excerpt string
	Text    string
	Err     error
}

// Start issues req on a new goroutine and returns its request ID. onPartial
// receives streamed chunks; onDone is called exactly once with the result,
// after the session has been released.
func (s *Session) Start(ctx context.Context, req Request, onPartial func(string), onDone func(Result)) (string, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if req.Rewriter == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("no rewriter configured")
	}
	ch, ok := s.book.At(req.Chapter)
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %d (have %d)", ErrNoChapter, req.Chapter, s.book.Len())
	}
	excerpt := splice.Clean(req.Excerpt)
	if strings.TrimSpace(excerpt) == "" {
		s.mu.Unlock()
		return "", splice.ErrEmptySegment
	}
	id := uuid.NewString()
	s.pending = id
	s.mu.Unlock()

	prompt, tokens := rewrite.BuildPrompt(ch.Body, req.Direction, excerpt)
	logger := s.logger.With("request_id", id)
	logger.Info("rewrite started", "chapter", ch.Title, "prompt_tokens", tokens)

	go func() {
		var (
			text string
			err  error
		)
		// The slot is released and onDone called even if the rewriter panics.
		defer func() {
			if p := recover(); p != nil {
				text, err = "", fmt.Errorf("rewriter panicked: %v", p)
			}

			s.mu.Lock()
			s.pending = ""
			s.mu.Unlock()

			if err != nil {
				logger.Warn("rewrite failed", "error", err)
			}
			if onDone != nil {
				onDone(Result{ID: id, Excerpt: excerpt, Text: text, Err: err})
			}
		}()
		text, err = req.Rewriter.Rewrite(ctx, prompt, onPartial)
	}()
	return id, nil
}

// Rewrite is the synchronous form of Start.
func (s *Session) Rewrite(ctx context.Context, req Request, onPartial func(string)) (Result, error) {
	done := make(chan Result, 1)
	if _, err := s.Start(ctx, req, onPartial, func(r Result) { done <- r }); err != nil {
		return Result{}, err
	}
	r := <-done
	return r, r.Err
}
