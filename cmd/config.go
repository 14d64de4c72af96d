package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/redraft-cli/internal/config"
	"github.com/KaramelBytes/redraft-cli/internal/logutil"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Redraft configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		path, _ := cfgpkg.Path(cfgFile)
		fmt.Fprintf(out, "config_file: %s\n", path)
		fmt.Fprintf(out, "default_profile: %s\n", c.DefaultProfile)
		fmt.Fprintf(out, "serve_addr: %s\n", c.ServeAddr)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", c.RetryMaxAttempts)
		fmt.Fprintf(out, "retry_base_delay_ms: %d\n", c.RetryBaseDelayMs)
		fmt.Fprintf(out, "retry_max_delay_ms: %d\n", c.RetryMaxDelayMs)
		fmt.Fprintf(out, "logging.level: %s\n", c.Logging.Level)
		fmt.Fprintf(out, "logging.format: %s\n", c.Logging.Format)
		fmt.Fprintf(out, "profiles: %s\n", strings.Join(c.ProfileNames(), ", "))
		fmt.Fprintf(out, "directions: %d\n", len(c.Directions))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a top-level config value. Keys: default_profile, serve_addr,
http_timeout_sec, retry_max_attempts, retry_base_delay_ms, retry_max_delay_ms,
logging.level, logging.format. Profiles and directions have their own commands.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid non-negative int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "default_profile":
		if _, perr := c.Profile(val); perr != nil {
			return perr
		}
		c.DefaultProfile = val
	case "serve_addr":
		c.ServeAddr = val
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	case "logging.level":
		if _, err = logutil.ParseLevel(val); err == nil {
			c.Logging.Level = strings.ToLower(val)
		}
	case "logging.format":
		if _, err = logutil.New(logutil.Options{Format: val}); err == nil {
			c.Logging.Format = strings.ToLower(val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfgpkg.Path(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
