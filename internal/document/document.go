package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
)

// ErrNotText indicates a file that is not valid UTF-8 text.
var ErrNotText = errors.New("not a UTF-8 text file")

// IOError reports a failed read or write of a document file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Document is the raw text of one novel file.
type Document struct {
	Path string
	Text string
}

// Read loads path wholesale. The content must be UTF-8.
func Read(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &IOError{Op: "read", Path: path, Err: fmt.Errorf("file not found: %w", err)}
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	if !utf8.Valid(b) {
		return nil, &IOError{Op: "read", Path: path, Err: ErrNotText}
	}
	return &Document{Path: path, Text: string(b)}, nil
}

// Write stores text at path wholesale via an atomic rename.
func Write(path, text string) error {
	if err := utils.SafeWriteFile(path, []byte(text)); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Chapters splits the document into chapters.
func (d *Document) Chapters() *chapter.Book {
	return chapter.Split(d.Text)
}

// Name returns the file name without directory or extension.
func (d *Document) Name() string {
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
