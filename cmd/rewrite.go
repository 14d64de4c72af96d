package cmd

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/KaramelBytes/redraft-cli/internal/rewrite"
	"github.com/KaramelBytes/redraft-cli/internal/session"
	"github.com/KaramelBytes/redraft-cli/internal/splice"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	rwChapter       string
	rwExcerpt       string
	rwExcerptFile   string
	rwDirection     int
	rwDirectionText string
	rwProfile       string
	rwMode          string
	rwStream        bool
	rwYes           bool
	rwDryRun        bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Rewrite a passage with a model and splice it back",
	Example: `  redraft rewrite novel.txt --excerpt "他缓缓抬起头。" --direction 1
  redraft rewrite novel.txt --chapter 第三章 --excerpt-file sel.txt --direction-text "更紧凑" --mode overwrite --yes
  redraft rewrite novel.txt --excerpt "..." --profile FullModel --stream --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Flags are package state and survive between Execute calls; reset
		// the ones not given in this parse.
		provided := map[string]bool{}
		cmd.Flags().Visit(func(fl *pflag.Flag) { provided[fl.Name] = true })
		if !provided["chapter"] {
			rwChapter = ""
		}
		if !provided["excerpt"] {
			rwExcerpt = ""
		}
		if !provided["excerpt-file"] {
			rwExcerptFile = ""
		}
		if !provided["direction"] {
			rwDirection = 0
		}
		if !provided["direction-text"] {
			rwDirectionText = ""
		}
		if !provided["dry-run"] {
			rwDryRun = false
		}
		if !provided["yes"] {
			rwYes = false
		}
		if !provided["profile"] {
			rwProfile = ""
		}
		if !provided["mode"] {
			rwMode = string(splice.ModeVersion)
		}

		c, err := requireConfig()
		if err != nil {
			return err
		}
		mode, err := splice.ParseMode(rwMode)
		if err != nil {
			return err
		}
		excerpt, err := readExcerpt(cmd, rwExcerpt, rwExcerptFile)
		if err != nil {
			return err
		}
		direction, err := resolveDirection(c, rwDirection, rwDirectionText)
		if err != nil {
			return err
		}

		sess := session.New(session.Options{Versioner: newVersioner(c), Logger: logger})
		if err := sess.Open(args[0]); err != nil {
			return err
		}
		idx, err := chapterForExcerpt(sess, rwChapter, excerpt)
		if err != nil {
			return err
		}
		ch, _ := sess.Book().At(idx)
		out := cmd.OutOrStdout()

		if rwDryRun {
			prompt, tokens := rewrite.BuildPrompt(ch.Body, direction, splice.Clean(excerpt))
			sum := sha1.Sum([]byte(prompt))
			fmt.Fprintln(out, "--dry-run: no API call will be made. Prompt preview below --")
			fmt.Fprintf(out, "Request ID (dry-run): sim_%x\n", sum[:6])
			fmt.Fprintf(out, "Chapter: %s   Prompt tokens≈%d\n", ch.Title, tokens)
			fmt.Fprintln(out, prompt)
			return nil
		}

		rw, profile, err := newRewriterFunc(c, rwProfile)
		if err != nil {
			return err
		}
		if rr, ok := rw.(*rewrite.RuntimeRewriter); ok && provided["stream"] {
			rr.Profile.Stream = rwStream
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(out, "⚙ Rewriting in %s with profile %s ...\n", ch.Title, profile)
		var streamed bool
		res, err := sess.Rewrite(ctx, session.Request{
			Chapter:   idx,
			Excerpt:   excerpt,
			Direction: direction,
			Rewriter:  rw,
		}, func(delta string) {
			streamed = true
			fmt.Fprint(out, delta)
		})
		if streamed {
			fmt.Fprintln(out)
		}
		if err != nil {
			return explainRewriteError(err, c, profile)
		}

		printComparison(out, res.Excerpt, res.Text)
		ok, err := confirm(cmd, fmt.Sprintf("Save rewrite (%s)?", mode), rwYes)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Discarded; file unchanged.")
			return nil
		}
		path, err := sess.Apply(res.Excerpt, res.Text, mode, profile)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Saved (%s) to %s\n", mode, path)
		return nil
	},
}

// chapterForExcerpt resolves --chapter, or finds the chapter containing the
// excerpt when it is not given.
func chapterForExcerpt(sess *session.Session, ref, excerpt string) (int, error) {
	book := sess.Book()
	if ref != "" {
		ch, err := findChapter(book, ref)
		if err != nil {
			return 0, err
		}
		return book.Index(ch.Title), nil
	}
	needle := splice.Clean(excerpt)
	for i, ch := range book.Chapters() {
		if needle != "" && strings.Contains(ch.Body, needle) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("excerpt: %w", splice.ErrNotFound)
}

func init() {
	rootCmd.AddCommand(rewriteCmd)
	f := rewriteCmd.Flags()
	f.StringVar(&rwChapter, "chapter", "", "chapter index or title (default: the chapter containing the excerpt)")
	f.StringVar(&rwExcerpt, "excerpt", "", "passage to rewrite, as shown by 'redraft show'")
	f.StringVar(&rwExcerptFile, "excerpt-file", "", "read the passage from a file ('-' for stdin)")
	f.IntVar(&rwDirection, "direction", 0, "use saved direction N (see 'redraft direction list')")
	f.StringVar(&rwDirectionText, "direction-text", "", "one-off direction text")
	f.StringVar(&rwProfile, "profile", "", "model profile (default from config)")
	f.StringVar(&rwMode, "mode", string(splice.ModeVersion), "save mode: overwrite|version|mark")
	f.BoolVar(&rwStream, "stream", false, "stream output (overrides the profile setting)")
	f.BoolVarP(&rwYes, "yes", "y", false, "save without asking")
	f.BoolVar(&rwDryRun, "dry-run", false, "print the prompt without calling the model")
}
