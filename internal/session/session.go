// Package session holds the single open document and serializes edits
// against it. At most one rewrite may be outstanding; while it is, the
// document file is neither read nor written.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
	"github.com/KaramelBytes/redraft-cli/internal/document"
	"github.com/KaramelBytes/redraft-cli/internal/splice"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
)

var (
	// ErrBusy is returned while a rewrite request is outstanding.
	ErrBusy = errors.New("a rewrite is in progress")
	// ErrNoDocument is returned before a document has been opened.
	ErrNoDocument = errors.New("no document open")
	// ErrNoChapter is returned for a chapter index outside the book.
	ErrNoChapter = errors.New("chapter out of range")
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	Versioner *splice.Versioner
	Markers   *splice.Markers
	Logger    *slog.Logger
}

// Session is the editing state for one document.
type Session struct {
	mu        sync.Mutex
	doc       *document.Document
	book      *chapter.Book
	pending   string
	versioner *splice.Versioner
	markers   splice.Markers
	logger    *slog.Logger
}

// New returns an empty session.
func New(opts Options) *Session {
	s := &Session{
		versioner: opts.Versioner,
		markers:   splice.DefaultMarkers,
		logger:    opts.Logger,
	}
	if s.versioner == nil {
		s.versioner = splice.NewVersioner()
	}
	if opts.Markers != nil {
		s.markers = *opts.Markers
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Open loads path and splits it into chapters.
func (s *Session) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != "" {
		return ErrBusy
	}
	return s.load(path)
}

// Reload re-reads the current document from disk.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != "" {
		return ErrBusy
	}
	if s.doc == nil {
		return ErrNoDocument
	}
	return s.load(s.doc.Path)
}

func (s *Session) load(path string) error {
	doc, err := document.Read(path)
	if err != nil {
		return err
	}
	s.doc = doc
	s.book = doc.Chapters()
	s.logger.Debug("document loaded", "path", path, "chapters", s.book.Len())
	return nil
}

// Path returns the current document path, or "" when none is open.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ""
	}
	return s.doc.Path
}

// Text returns the document text as last loaded.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ""
	}
	return s.doc.Text
}

// Book returns the chapter split of the current document.
func (s *Session) Book() *chapter.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book
}

// Pending returns the ID of the outstanding rewrite, if any.
func (s *Session) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.pending != ""
}

// Locate maps display text back to a chapter and scroll position.
func (s *Session) Locate(needle string, current chapter.Position) chapter.Position {
	return chapter.Locate(s.Book(), splice.Clean(needle), current)
}

// Delete removes the first occurrence of excerpt from the file on disk and
// reloads.
func (s *Session) Delete(excerpt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	path := s.doc.Path
	doc, err := document.Read(path)
	if err != nil {
		return err
	}
	text, err := splice.Delete(doc.Text, excerpt)
	if err != nil {
		return err
	}
	if err := document.Write(path, text); err != nil {
		return err
	}
	s.logger.Info("passage deleted", "path", path, "chars", utils.CountChars(splice.Clean(excerpt)))
	return s.load(path)
}

// Apply writes rewritten in place of excerpt according to mode and returns
// the path that was written. profile names the version in ModeVersion. In
// ModeVersion the session switches to the new file.
func (s *Session) Apply(excerpt, rewritten string, mode splice.Mode, profile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return "", err
	}
	src := s.doc.Path
	doc, err := document.Read(src)
	if err != nil {
		return "", err
	}

	var (
		text string
		dst  = src
	)
	switch mode {
	case splice.ModeOverwrite:
		text, err = splice.Replace(doc.Text, excerpt, rewritten)
	case splice.ModeMark:
		text, err = splice.ReplaceMarked(doc.Text, excerpt, rewritten, s.markers)
	case splice.ModeVersion, "":
		text, err = splice.Replace(doc.Text, excerpt, rewritten)
		dst = s.versioner.NextPath(src, profile)
	default:
		return "", fmt.Errorf("invalid mode: %s", mode)
	}
	if err != nil {
		return "", err
	}
	if err := document.Write(dst, text); err != nil {
		return "", err
	}
	s.logger.Info("rewrite saved", "mode", string(mode), "path", dst)
	return dst, s.load(dst)
}

func (s *Session) ready() error {
	if s.pending != "" {
		return ErrBusy
	}
	if s.doc == nil {
		return ErrNoDocument
	}
	return nil
}
