package chapter_test

import (
	"testing"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
)

func TestIndent(t *testing.T) {
	got := chapter.Indent("line one\nline two")
	want := "　　line one\n　　line two"
	if got != want {
		t.Fatalf("Indent = %q, want %q", got, want)
	}
	if chapter.Indent("") != "" {
		t.Fatal("Indent of empty should be empty")
	}
}

func TestUnindent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"marked lines", "　　a\n　　b", "a\nb"},
		{"only one marker stripped", "　　　　a", "　　a"},
		{"unmarked passes through", "plain\n　　marked", "plain\nmarked"},
		{"surrounding newlines trimmed", "\r\n　　a\n\n", "a"},
		{"crlf kept inside", "　　a\r\n　　b", "a\r\nb"},
		{"marker only", "　　", ""},
	}
	for _, c := range cases {
		if got := chapter.Unindent(c.in); got != c.want {
			t.Errorf("%s: Unindent(%q) = %q, want %q", c.name, c.in, got, c.want)
		}
	}
}

func TestUnindentInvertsIndent(t *testing.T) {
	inputs := []string{
		"",
		"single",
		"two\nlines",
		"blank\n\nline between",
		"  leading ascii spaces\nkept",
		"第1章 标题\n正文内容。",
	}
	for _, in := range inputs {
		if got := chapter.Unindent(chapter.Indent(in)); got != in {
			t.Errorf("Unindent(Indent(%q)) = %q", in, got)
		}
	}
}
