package cmd

import (
	"fmt"
	"strconv"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
	"github.com/KaramelBytes/redraft-cli/internal/document"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
	"github.com/spf13/cobra"
)

var showRaw bool

var chaptersCmd = &cobra.Command{
	Use:   "chapters <file>",
	Short: "List the chapters of a novel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := document.Read(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, ch := range doc.Chapters().Chapters() {
			fmt.Fprintf(out, "%4d  %-16s %8d chars\n", i, ch.Title, utils.CountChars(ch.Body))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <file> <index|title>",
	Short: "Print one chapter as displayed (indented)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := document.Read(args[0])
		if err != nil {
			return err
		}
		ch, err := findChapter(doc.Chapters(), args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ch.Title)
		if showRaw {
			fmt.Fprintln(out, ch.Body)
		} else {
			fmt.Fprintln(out, chapter.Indent(ch.Body))
		}
		return nil
	},
}

// findChapter resolves a chapter by index first, then by exact title.
func findChapter(book *chapter.Book, ref string) (chapter.Chapter, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if ch, ok := book.At(i); ok {
			return ch, nil
		}
		return chapter.Chapter{}, fmt.Errorf("chapter %d out of range (have %d)", i, book.Len())
	}
	if i := book.Index(ref); i >= 0 {
		ch, _ := book.At(i)
		return ch, nil
	}
	return chapter.Chapter{}, fmt.Errorf("chapter not found: %s", ref)
}

func init() {
	rootCmd.AddCommand(chaptersCmd, showCmd)
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the chapter body without display indent")
}
