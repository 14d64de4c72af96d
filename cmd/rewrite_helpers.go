package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/redraft-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/redraft-cli/internal/config"
	"github.com/KaramelBytes/redraft-cli/internal/rewrite"
	"github.com/KaramelBytes/redraft-cli/internal/splice"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newRewriterFunc builds rewriters from profile names. It is a variable so
// tests can substitute a stub model.
var newRewriterFunc = func(c *cfgpkg.Global, profile string) (rewrite.Rewriter, string, error) {
	p, err := c.Profile(profile)
	if err != nil {
		return nil, "", err
	}
	opts := rewrite.OptionsFromConfig(c)
	opts.Logger = logger
	rw, err := rewrite.New(p, opts)
	if err != nil {
		return nil, "", err
	}
	return rw, p.Name, nil
}

// newVersioner recognises the configured profile names in version names.
func newVersioner(c *cfgpkg.Global) *splice.Versioner {
	if c == nil {
		return splice.NewVersioner()
	}
	return splice.NewVersioner(c.ProfileNames()...)
}

// readExcerpt returns the excerpt from --excerpt, or from --excerpt-file
// ("-" reads stdin).
func readExcerpt(cmd *cobra.Command, text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", errors.New("use either --excerpt or --excerpt-file, not both")
	case text != "":
		return text, nil
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read excerpt from stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read excerpt: %w", err)
		}
		return string(b), nil
	}
	return "", errors.New("--excerpt or --excerpt-file is required")
}

// resolveDirection picks --direction-text, else saved direction n, else "".
func resolveDirection(c *cfgpkg.Global, n int, text string) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if n > 0 {
		if c == nil {
			return "", errors.New("no config loaded")
		}
		return c.Direction(n)
	}
	return "", nil
}

func isInteractive(cmd *cobra.Command) bool {
	inFile, okIn := cmd.InOrStdin().(*os.File)
	outFile, okOut := cmd.OutOrStdout().(*os.File)
	if !okIn || !okOut {
		return false
	}
	return term.IsTerminal(int(inFile.Fd())) && term.IsTerminal(int(outFile.Fd()))
}

// confirm asks a yes/no question. assumeYes short-circuits; a
// non-interactive session without assumeYes is refused.
func confirm(cmd *cobra.Command, question string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !isInteractive(cmd) {
		return false, errors.New("not a terminal: pass --yes to write changes")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func ruleWidth(out io.Writer) int {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 60
}

// printComparison shows the original passage and the rewrite with their
// character counts.
func printComparison(out io.Writer, original, rewritten string) {
	rule := strings.Repeat("─", ruleWidth(out))
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Original:")
	fmt.Fprintln(out, original)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Rewritten:")
	fmt.Fprintln(out, rewritten)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Original chars: %d   |   Rewritten chars: %d\n", utils.CountChars(original), utils.CountChars(rewritten))
}

// explainRewriteError adds a user-facing hint for common failure classes.
func explainRewriteError(err error, c *cfgpkg.Global, profile string) error {
	var remote *rewrite.RemoteError
	if !errors.As(err, &remote) {
		return err
	}
	var p cfgpkg.Profile
	if c != nil {
		p, _ = c.Profile(profile)
	}
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		mErr    *ai.MalformedResponseError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.As(err, &unreach):
		if p.Provider == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running and the profile endpoint is correct: %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable. Check your network and the profile endpoint: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set %s or run 'redraft profile set %s --api-key ...': %w", rewrite.APIKeyEnv, remote.Profile, err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		if p.Provider == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s' or choose another model: %w", p.Model, p.Model, err)
		}
		return fmt.Errorf("model not found (%s). Verify the model name in profile %s: %w", p.Model, remote.Profile, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request invalid. Try a shorter chapter or lower max_tokens: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	case errors.As(err, &mErr):
		return fmt.Errorf("unexpected response from provider. Check the profile endpoint: %w", err)
	case errors.Is(err, rewrite.ErrEmptyResponse):
		return fmt.Errorf("model returned no text. Try again or raise max_tokens: %w", err)
	}
	return err
}
