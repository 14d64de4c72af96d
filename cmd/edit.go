package cmd

import (
	"fmt"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
	"github.com/KaramelBytes/redraft-cli/internal/session"
	"github.com/KaramelBytes/redraft-cli/internal/splice"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	editExcerpt     string
	editExcerptFile string
	editYes         bool
	versionProfile  string
)

var locateCmd = &cobra.Command{
	Use:   "locate <file>",
	Short: "Find the chapter and scroll position of a displayed passage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		excerpt, err := readExcerpt(cmd, editExcerpt, editExcerptFile)
		if err != nil {
			return err
		}
		sess := session.New(session.Options{Logger: logger})
		if err := sess.Open(args[0]); err != nil {
			return err
		}
		idx, err := chapterForExcerpt(sess, "", excerpt)
		if err != nil {
			return err
		}
		pos := sess.Locate(excerpt, chapter.Position{Chapter: idx})
		ch, _ := sess.Book().At(pos.Chapter)
		fmt.Fprintf(cmd.OutOrStdout(), "chapter %d (%s) at %.0f%%\n", pos.Chapter, ch.Title, pos.Scroll*100)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Delete the first occurrence of a passage from the file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		excerpt, err := readExcerpt(cmd, editExcerpt, editExcerptFile)
		if err != nil {
			return err
		}
		sess := session.New(session.Options{Logger: logger})
		if err := sess.Open(args[0]); err != nil {
			return err
		}
		clean := splice.Clean(excerpt)
		ok, err := confirm(cmd, fmt.Sprintf("Delete %d chars from %s?", utils.CountChars(clean), args[0]), editYes)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; file unchanged.")
			return nil
		}
		if err := sess.Delete(excerpt); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted passage; %d chapters remain\n", sess.Book().Len())
		return nil
	},
}

var versionNameCmd = &cobra.Command{
	Use:   "version-name <file>",
	Short: "Print the file name the next versioned save would use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		p, err := c.Profile(versionProfile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), newVersioner(c).NextName(args[0], p.Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd, deleteCmd, versionNameCmd)
	for _, c := range []*cobra.Command{locateCmd, deleteCmd} {
		c.Flags().StringVar(&editExcerpt, "excerpt", "", "passage as displayed")
		c.Flags().StringVar(&editExcerptFile, "excerpt-file", "", "read the passage from a file ('-' for stdin)")
	}
	deleteCmd.Flags().BoolVarP(&editYes, "yes", "y", false, "delete without asking")
	versionNameCmd.Flags().StringVar(&versionProfile, "profile", "", "profile name (default from config)")
}
