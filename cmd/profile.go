package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/redraft-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/redraft-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	profEndpoint    string
	profProvider    string
	profModel       string
	profAPIKey      string
	profStream      bool
	profTemperature float64
	profTopP        float64
	profMaxTokens   int
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage model profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range c.Profiles {
			marker := " "
			if p.Name == c.DefaultProfile {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-14s %-20s %s\n", marker, p.Name, p.Model, p.Endpoint)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one profile (default profile when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		p, err := c.Profile(name)
		if err != nil {
			return err
		}
		printProfile(cmd, p)
		return nil
	},
}

func printProfile(cmd *cobra.Command, p cfgpkg.Profile) {
	out := cmd.OutOrStdout()
	provider := p.Provider
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	fmt.Fprintf(out, "name: %s\n", p.Name)
	fmt.Fprintf(out, "provider: %s\n", provider)
	fmt.Fprintf(out, "endpoint: %s\n", p.Endpoint)
	fmt.Fprintf(out, "model: %s\n", p.Model)
	fmt.Fprintf(out, "stream: %t\n", p.Stream)
	fmt.Fprintf(out, "api_key: %s\n", mask(p.APIKey))
	fmt.Fprintf(out, "temperature: %.3f\n", p.Temperature)
	fmt.Fprintf(out, "top_p: %.3f\n", p.TopP)
	fmt.Fprintf(out, "max_tokens: %d\n", p.MaxTokens)
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a profile; only the given flags change",
	Example: `  redraft profile set FullModel --endpoint https://api.deepseek.com/chat/completions --model deepseek-chat --api-key sk-...
  redraft profile set Local --provider ollama --endpoint http://127.0.0.1:11434 --model qwen2.5:7b-instruct --stream`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		p, err := c.Profile(args[0])
		if err != nil {
			// New profiles start from the built-in sampling defaults.
			p = cfgpkg.DefaultProfiles()[0]
			p.Name = args[0]
			p.APIKey = ""
		}
		f := cmd.Flags()
		if f.Changed("provider") {
			prov := strings.ToLower(strings.TrimSpace(profProvider))
			if _, ok := ai.GetRuntime(prov, ai.RuntimeConfig{}); !ok {
				return fmt.Errorf("invalid provider: %s (use %s)", profProvider, strings.Join(ai.Providers(), "|"))
			}
			p.Provider = prov
		}
		if f.Changed("endpoint") {
			p.Endpoint = profEndpoint
		}
		if f.Changed("model") {
			p.Model = profModel
		}
		if f.Changed("api-key") {
			p.APIKey = profAPIKey
		}
		if f.Changed("stream") {
			p.Stream = profStream
		}
		if f.Changed("temperature") {
			p.Temperature = profTemperature
		}
		if f.Changed("top-p") {
			p.TopP = profTopP
		}
		if f.Changed("max-tokens") {
			p.MaxTokens = profMaxTokens
		}
		if err := c.SetProfile(p); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved profile %s\n", p.Name)
		return nil
	},
}

var profileRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := c.DeleteProfile(args[0]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed profile %s\n", args[0])
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, "default_profile", args[0]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Default profile is now %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileSetCmd, profileRmCmd, profileUseCmd)

	f := profileSetCmd.Flags()
	f.StringVar(&profProvider, "provider", "", "runtime: openai (any OpenAI-compatible endpoint) or ollama")
	f.StringVar(&profEndpoint, "endpoint", "", "chat-completions URL (ollama: host)")
	f.StringVar(&profModel, "model", "", "model id")
	f.StringVar(&profAPIKey, "api-key", "", "API key (REDRAFT_API_KEY overrides at run time)")
	f.BoolVar(&profStream, "stream", false, "stream partial output")
	f.Float64Var(&profTemperature, "temperature", 0, "sampling temperature")
	f.Float64Var(&profTopP, "top-p", 0, "nucleus sampling top_p")
	f.IntVar(&profMaxTokens, "max-tokens", 0, "max completion tokens")
}
