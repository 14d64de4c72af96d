package chapter

import (
	"regexp"
	"strings"
)

// FullTextTitle names the single chapter returned when a document has no
// usable chapter headings.
const FullTextTitle = "Full Text"

// headingPattern matches chapter markers such as 第12章 or 第一百零一章.
var headingPattern = regexp.MustCompile(`第[\p{Nd}零〇一二两三四五六七八九十百千万]+章`)

// Chapter is one titled section of a document.
type Chapter struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Book is an ordered collection of chapters keyed by unique title.
// Order is the first-seen order of each title.
type Book struct {
	titles []string
	bodies map[string]string
}

func newBook() *Book {
	return &Book{bodies: make(map[string]string)}
}

// set records body under title. A title seen before keeps its position and
// has its body replaced.
func (b *Book) set(title, body string) {
	if _, ok := b.bodies[title]; !ok {
		b.titles = append(b.titles, title)
	}
	b.bodies[title] = body
}

// Len returns the number of chapters.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.titles)
}

// Titles returns chapter titles in order.
func (b *Book) Titles() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.titles...)
}

// At returns the chapter at index i.
func (b *Book) At(i int) (Chapter, bool) {
	if b == nil || i < 0 || i >= len(b.titles) {
		return Chapter{}, false
	}
	t := b.titles[i]
	return Chapter{Title: t, Body: b.bodies[t]}, true
}

// Get returns the body stored under title.
func (b *Book) Get(title string) (string, bool) {
	if b == nil {
		return "", false
	}
	body, ok := b.bodies[title]
	return body, ok
}

// Index returns the position of title, or -1.
func (b *Book) Index(title string) int {
	if b == nil {
		return -1
	}
	for i, t := range b.titles {
		if t == title {
			return i
		}
	}
	return -1
}

// Chapters returns all chapters in order.
func (b *Book) Chapters() []Chapter {
	if b == nil {
		return nil
	}
	out := make([]Chapter, 0, len(b.titles))
	for _, t := range b.titles {
		out = append(out, Chapter{Title: t, Body: b.bodies[t]})
	}
	return out
}

// Split partitions text into chapters on 第N章 headings.
//
// Text before the first heading is dropped, and a heading with an empty body
// is not recorded. A repeated heading overwrites the earlier body. Documents
// with fewer than two headings come back as a single FullTextTitle chapter.
func Split(text string) *Book {
	locs := headingPattern.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return fullText(text)
	}

	book := newBook()
	var (
		title   string
		content []string
	)
	flush := func() {
		if title != "" && len(content) > 0 {
			book.set(title, strings.Join(content, "\n"))
		}
	}

	prev := 0
	for _, loc := range locs {
		if seg := strings.TrimSpace(text[prev:loc[0]]); seg != "" && title != "" {
			content = append(content, seg)
		}
		flush()
		title = text[loc[0]:loc[1]]
		content = nil
		prev = loc[1]
	}
	if seg := strings.TrimSpace(text[prev:]); seg != "" {
		content = append(content, seg)
	}
	flush()

	if book.Len() == 0 {
		return fullText(text)
	}
	return book
}

func fullText(text string) *Book {
	b := newBook()
	b.set(FullTextTitle, strings.TrimSpace(text))
	return b
}
