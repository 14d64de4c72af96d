package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/redraft-cli/internal/config"
	"github.com/spf13/cobra"
)

var directionCmd = &cobra.Command{
	Use:     "direction",
	Aliases: []string{"directions"},
	Short:   "Manage saved modification directions",
}

var directionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved directions with their numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(c.Directions) == 0 {
			fmt.Fprintln(out, "No directions saved. Add one with: redraft direction add \"...\"")
			return nil
		}
		for i, d := range c.Directions {
			fmt.Fprintf(out, "%d. %s\n", i+1, d)
		}
		return nil
	},
}

var directionAddCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Append a direction",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editDirections(cmd, func(c *cfgpkg.Global) error {
			return c.AddDirection(strings.Join(args, " "))
		}, "✓ Added direction")
	},
}

var directionEditCmd = &cobra.Command{
	Use:   "edit <n> <text...>",
	Short: "Replace direction n",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid direction number: %s", args[0])
		}
		return editDirections(cmd, func(c *cfgpkg.Global) error {
			return c.EditDirection(n, strings.Join(args[1:], " "))
		}, fmt.Sprintf("✓ Updated direction %d", n))
	},
}

var directionRmCmd = &cobra.Command{
	Use:   "rm <n>",
	Short: "Delete direction n",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid direction number: %s", args[0])
		}
		return editDirections(cmd, func(c *cfgpkg.Global) error {
			return c.RemoveDirection(n)
		}, fmt.Sprintf("✓ Removed direction %d", n))
	},
}

func editDirections(cmd *cobra.Command, fn func(*cfgpkg.Global) error, msg string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	if err := cfgpkg.Save(c, cfgFile); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func init() {
	rootCmd.AddCommand(directionCmd)
	directionCmd.AddCommand(directionListCmd, directionAddCmd, directionEditCmd, directionRmCmd)
}
